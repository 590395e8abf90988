package data

import (
	"math"
	"math/rand"
	"strconv"
)

// StrokeColumns is the column layout of the stroke dataset.
var StrokeColumns = []string{
	"id", "gender", "age", "hypertension", "heart_disease", "ever_married",
	"work_type", "Residence_type", "avg_glucose_level", "bmi", "smoking_status", "stroke",
}

// Synthetic generates n stroke-shaped records. Risk rises with age, glucose,
// hypertension and heart disease so the positive class is rare but learnable;
// roughly 4% of bmi cells are "N/A". The same seed yields the same table.
func Synthetic(n int, seed int64) *Table {
	r := rand.New(rand.NewSource(seed))
	pick := func(options ...string) string { return options[r.Intn(len(options))] }

	rows := make([][]string, n)
	for i := range rows {
		age := math.Round(r.Float64()*82*10)/10 + 0.08
		hyper := boolCell(r.Float64() < 0.05+age/400)
		heart := boolCell(r.Float64() < 0.02+age/800)
		glucose := 55 + r.ExpFloat64()*35 + age/3
		bmi := strconv.FormatFloat(math.Round((18+r.NormFloat64()*5+age/8)*10)/10, 'f', 1, 64)
		if r.Float64() < 0.04 {
			bmi = "N/A"
		}

		married := "No"
		if age > 25 && r.Float64() < 0.8 {
			married = "Yes"
		}
		work := pick("Private", "Self-employed", "Govt_job")
		if age < 16 {
			work = pick("children", "Never_worked")
		}

		score := -7.5 + age*0.07 + (glucose-100)*0.008
		if hyper == "1" {
			score += 0.6
		}
		if heart == "1" {
			score += 0.5
		}
		stroke := boolCell(r.Float64() < 1/(1+math.Exp(-score)))

		rows[i] = []string{
			strconv.Itoa(10000 + i),
			pick("Male", "Female"),
			strconv.FormatFloat(age, 'f', -1, 64),
			hyper,
			heart,
			married,
			work,
			pick("Urban", "Rural"),
			strconv.FormatFloat(math.Round(glucose*100)/100, 'f', 2, 64),
			bmi,
			pick("formerly smoked", "never smoked", "smokes", "Unknown"),
			stroke,
		}
	}
	return &Table{Columns: append([]string(nil), StrokeColumns...), Rows: rows}
}

func boolCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
