package workbook

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"cycleplot/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet every input workbook must contain.
const SheetName = "Record Sheet"

const (
	// The sheet starts with two header rows followed by one units row.
	headerRowCount = 2
	unitsRowCount  = 1

	// Each cycle occupies three columns: Capacity, SpeCap, Voltage.
	columnsPerCycle = 3

	speCapOffset  = 1
	voltageOffset = 2
)

// Parse opens an .xlsx workbook and extracts the per-cycle specific-capacity
// and voltage series from its Record Sheet.
func Parse(path string) (*models.RecordSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(SheetName)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook %s has no sheet named %q", filepath.Base(path), SheetName)
	}

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", SheetName, err)
	}

	return parseRows(rows, path)
}

func parseRows(rows [][]string, source string) (*models.RecordSheet, error) {
	if len(rows) < headerRowCount {
		return nil, fmt.Errorf("sheet %q has no header rows", SheetName)
	}

	// Column count comes from the header rows; trailing partial cycle
	// groups are ignored.
	width := 0
	for _, r := range rows[:headerRowCount] {
		if len(r) > width {
			width = len(r)
		}
	}
	cycleCount := width / columnsPerCycle
	if cycleCount == 0 {
		return nil, fmt.Errorf("sheet %q has no complete cycle column groups (%d columns)", SheetName, width)
	}

	var data [][]string
	if len(rows) > headerRowCount+unitsRowCount {
		data = rows[headerRowCount+unitsRowCount:]
	}

	sheet := &models.RecordSheet{Source: source}
	for i := 0; i < cycleCount; i++ {
		cycle := models.CycleSeries{
			Index:            i + 1,
			SpecificCapacity: column(data, i*columnsPerCycle+speCapOffset),
			Voltage:          column(data, i*columnsPerCycle+voltageOffset),
		}
		sheet.Cycles = append(sheet.Cycles, cycle)
	}
	return sheet, nil
}

// column extracts one column as floats, coercing anything unparsable to NaN.
func column(data [][]string, col int) []float64 {
	out := make([]float64, len(data))
	for i, row := range data {
		cell := ""
		if col < len(row) {
			cell = row[col]
		}
		out[i] = coerce(cell)
	}
	return out
}

func coerce(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
