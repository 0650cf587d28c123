package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cycleplot/internal/models"
)

// Suffix appended (in place of the extension) to form the plot-data CSV path.
const Suffix = "_plotdata.csv"

// CSVPath returns the plot-data CSV path for a workbook path, next to it.
func CSVPath(workbookPath string) string {
	return strings.TrimSuffix(workbookPath, filepath.Ext(workbookPath)) + Suffix
}

// Header returns the wide CSV header: CycleN_SpeCap, CycleN_Voltage per cycle.
func Header(sheet *models.RecordSheet) []string {
	header := make([]string, 0, 2*len(sheet.Cycles))
	for _, c := range sheet.Cycles {
		header = append(header,
			fmt.Sprintf("Cycle%d_SpeCap", c.Index),
			fmt.Sprintf("Cycle%d_Voltage", c.Index),
		)
	}
	return header
}

// WriteCSV writes the extracted series in wide layout. NaN values render as
// empty cells.
func WriteCSV(sheet *models.RecordSheet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header(sheet)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	rowCount := 0
	for _, c := range sheet.Cycles {
		if len(c.SpecificCapacity) > rowCount {
			rowCount = len(c.SpecificCapacity)
		}
		if len(c.Voltage) > rowCount {
			rowCount = len(c.Voltage)
		}
	}

	record := make([]string, 2*len(sheet.Cycles))
	for row := 0; row < rowCount; row++ {
		for i, c := range sheet.Cycles {
			record[2*i] = formatCell(c.SpecificCapacity, row)
			record[2*i+1] = formatCell(c.Voltage, row)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", row, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatCell(series []float64, row int) string {
	if row >= len(series) || math.IsNaN(series[row]) {
		return ""
	}
	return strconv.FormatFloat(series[row], 'g', -1, 64)
}
