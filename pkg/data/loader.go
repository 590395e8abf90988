package data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// ErrEmpty is returned when a source has no header row.
var ErrEmpty = errors.New("data: no header row")

// Load reads a table from path, choosing the reader by file extension.
// .xlsx files are read from their first sheet; anything else is CSV.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, "")
	default:
		return LoadCSV(path)
	}
}

// LoadCSV reads a CSV file whose first record is the header.
func LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	t, err := ReadCSV(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("rows", t.Len()).Int("columns", len(t.Columns)).Msg("loaded csv table")
	return t, nil
}

// ReadCSV reads a header plus rows from r.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return NewTable(header, rows)
}

// LoadXLSX reads a worksheet whose first row is the header. An empty sheet
// name selects the first sheet in the workbook.
func LoadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmpty
		}
		sheet = sheets[0]
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	header := raw[0]
	rows := make([][]string, 0, len(raw)-1)
	for _, r := range raw[1:] {
		// excelize drops trailing empty cells
		row := make([]string, len(header))
		copy(row, r)
		rows = append(rows, row)
	}
	log.Debug().Str("path", path).Str("sheet", sheet).Int("rows", len(rows)).Msg("loaded xlsx table")
	return NewTable(header, rows)
}
