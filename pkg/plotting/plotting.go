// Package plotting renders ROC and precision-recall curves to image files
// with gonum/plot.
package plotting

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"sort"

	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Size is the edge length of the square output images.
var Size = 5 * vg.Inch

// ErrNoCurves is returned when there is nothing to draw.
var ErrNoCurves = errors.New("plotting: no curves")

// ROC draws one ROC line per model plus the chance diagonal. The file format
// follows the extension of path (png, svg, pdf...).
func ROC(curves map[string]*model.CurveData, path string) error {
	if len(curves) == 0 {
		return ErrNoCurves
	}
	p := plot.New()
	p.Title.Text = "ROC curve"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	square(p)

	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return err
	}
	chance.Color = color.Gray{Y: 160}
	chance.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(chance)

	for i, name := range names(curves) {
		cd := curves[name]
		l, err := line(cd.FPR, cd.TPR, i)
		if err != nil {
			return fmt.Errorf("roc %s: %w", name, err)
		}
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s (AUC %.3f)", name, cd.AUC), l)
	}
	p.Legend.Top = false
	p.Legend.Left = false
	return save(p, path)
}

// PR draws one precision-recall line per model.
func PR(curves map[string]*model.CurveData, path string) error {
	if len(curves) == 0 {
		return ErrNoCurves
	}
	p := plot.New()
	p.Title.Text = "Precision-recall curve"
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	square(p)

	for i, name := range names(curves) {
		cd := curves[name]
		l, err := line(cd.Recall, cd.Precision, i)
		if err != nil {
			return fmt.Errorf("pr %s: %w", name, err)
		}
		p.Add(l)
		p.Legend.Add(name, l)
	}
	return save(p, path)
}

// Both writes roc.png and pr.png into dir and returns their paths.
func Both(curves map[string]*model.CurveData, dir string) (rocPath, prPath string, err error) {
	rocPath = filepath.Join(dir, "roc.png")
	prPath = filepath.Join(dir, "pr.png")
	if err := ROC(curves, rocPath); err != nil {
		return "", "", err
	}
	if err := PR(curves, prPath); err != nil {
		return "", "", err
	}
	return rocPath, prPath, nil
}

func line(x, y []float64, i int) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(x))
	for k := range x {
		pts[k].X = x[k]
		pts[k].Y = y[k]
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	l.Color = plotutil.Color(i)
	l.LineStyle.Width = vg.Points(1.5)
	return l, nil
}

func square(p *plot.Plot) {
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1.02
	p.Add(plotter.NewGrid())
}

func names(curves map[string]*model.CurveData) []string {
	out := make([]string, 0, len(curves))
	for n, cd := range curves {
		if cd != nil {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(Size, Size, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
