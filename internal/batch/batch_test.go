package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"cycleplot/internal/plotter"
	"cycleplot/internal/plotter/mock"
	"cycleplot/internal/plotter/project"
	"cycleplot/internal/template"
	"cycleplot/internal/workbook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, cycles, rows int) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", workbook.SheetName))

	header1 := make([]interface{}, 0, cycles*3)
	header2 := make([]interface{}, 0, cycles*3)
	units := make([]interface{}, 0, cycles*3)
	for c := 1; c <= cycles; c++ {
		header1 = append(header1, fmt.Sprintf("Cycle %d", c), "", "")
		header2 = append(header2, "Capacity", "SpeCap", "Voltage")
		units = append(units, "mAh", "mAh/g", "V")
	}
	setRow(t, f, 1, header1)
	setRow(t, f, 2, header2)
	setRow(t, f, 3, units)

	for r := 0; r < rows; r++ {
		row := make([]interface{}, 0, cycles*3)
		for c := 1; c <= cycles; c++ {
			row = append(row, float64(r), float64(c*100+r), 3+float64(r)*0.01)
		}
		setRow(t, f, 4+r, row)
	}

	require.NoError(t, f.SaveAs(path))
}

func setRow(t *testing.T, f *excelize.File, row int, values []interface{}) {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(1, row)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(workbook.SheetName, cell, &values))
}

// mockFactory hands out fresh mocks and keeps them for inspection.
type mockFactory struct {
	mocks []*mock.Mock
}

func (mf *mockFactory) new() plotter.Plotter {
	m := mock.New()
	mf.mocks = append(mf.mocks, m)
	return m
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cell01.xlsx")
	writeWorkbook(t, path, 3, 4)

	mf := &mockFactory{}
	runner := New(mf.new)

	var increments []int
	report, err := runner.ProcessFile(context.Background(), path, template.Default(), func(delta int) {
		increments = append(increments, delta)
	})
	require.NoError(t, err)

	assert.Equal(t, path, report.Input)
	assert.Equal(t, 3, report.CycleCount)
	assert.Equal(t, filepath.Join(dir, "cell01_plotdata.csv"), report.CSV)
	assert.Equal(t, filepath.Join(dir, "cell01.cpj"), report.Project)
	assert.FileExists(t, report.CSV)

	require.Len(t, mf.mocks, 1)
	m := mf.mocks[0]

	assert.Equal(t, []string{report.CSV}, m.Imports)
	require.Len(t, m.Graphs, 1)
	assert.Equal(t, "charge-discharge", m.Graphs[0].Name)

	require.Len(t, m.Traces, 3)
	for i, tr := range m.Traces {
		assert.Equal(t, fmt.Sprintf("Cycle %d", i+1), tr.Name)
		assert.Equal(t, 2*i, tr.XColumn)
		assert.Equal(t, 2*i+1, tr.YColumn)
	}

	assert.Equal(t, []string{
		"Excel input:   cell01.xlsx",
		"Template used: charge-discharge",
		"CSV export:    cell01_plotdata.csv",
	}, m.Notes)

	assert.Equal(t, []string{report.Project}, m.Saved)

	// One increment per cycle, each 100/cycleCount.
	assert.Equal(t, []int{33, 33, 33}, increments)

	// Session closed after the file.
	assert.False(t, m.Connected())
}

func TestProcessFileProjectBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cell02.xlsx")
	writeWorkbook(t, path, 2, 3)

	runner := New(nil)
	report, err := runner.ProcessFile(context.Background(), path, nil, nil)
	require.NoError(t, err)
	require.FileExists(t, report.Project)

	m, err := project.Open(report.Project)
	require.NoError(t, err)
	require.NotNil(t, m.Graph)
	require.Len(t, m.Graph.Traces, 2)
	assert.Equal(t, "Cycle 1", m.Graph.Traces[0].Name)
	assert.Equal(t, "Cycle 2", m.Graph.Traces[1].Name)
	assert.Equal(t, []string{
		"Excel input:   cell02.xlsx",
		"Template used: charge-discharge",
		"CSV export:    cell02_plotdata.csv",
	}, m.Notes)
}

func TestProcessBatchNoCrossContamination(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "cell01.xlsx")
	second := filepath.Join(dir, "cell02.xlsx")
	writeWorkbook(t, first, 2, 3)
	writeWorkbook(t, second, 4, 3)

	mf := &mockFactory{}
	runner := New(mf.new)

	reports, err := runner.ProcessBatch(context.Background(), []string{first, second}, template.Default(), Callbacks{})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	// A fresh session per file, each seeing only its own data.
	require.Len(t, mf.mocks, 2)
	assert.Equal(t, []string{filepath.Join(dir, "cell01_plotdata.csv")}, mf.mocks[0].Imports)
	assert.Equal(t, []string{filepath.Join(dir, "cell02_plotdata.csv")}, mf.mocks[1].Imports)
	assert.Len(t, mf.mocks[0].Traces, 2)
	assert.Len(t, mf.mocks[1].Traces, 4)
	assert.Equal(t, []string{filepath.Join(dir, "cell01.cpj")}, mf.mocks[0].Saved)
	assert.Equal(t, []string{filepath.Join(dir, "cell02.cpj")}, mf.mocks[1].Saved)

	assert.Equal(t, 2, reports[0].CycleCount)
	assert.Equal(t, 4, reports[1].CycleCount)
}

func TestProcessBatchCallbacks(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.xlsx")
	second := filepath.Join(dir, "b.xlsx")
	writeWorkbook(t, first, 2, 2)
	writeWorkbook(t, second, 2, 2)

	var starts []string
	mf := &mockFactory{}
	runner := New(mf.new)
	_, err := runner.ProcessBatch(context.Background(), []string{first, second}, nil, Callbacks{
		FileStart: func(index int, path string) {
			starts = append(starts, fmt.Sprintf("%d:%s", index, filepath.Base(path)))
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1:a.xlsx", "2:b.xlsx"}, starts)
}

func TestProcessBatchEmpty(t *testing.T) {
	runner := New(nil)
	_, err := runner.ProcessBatch(context.Background(), nil, nil, Callbacks{})
	require.Error(t, err)
}

func TestProcessBatchAbortsOnFailure(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "bad.xlsx")
	second := filepath.Join(dir, "good.xlsx")
	writeWorkbook(t, first, 2, 2)
	writeWorkbook(t, second, 2, 2)

	mf := &mockFactory{}
	runner := New(func() plotter.Plotter {
		m := mf.new().(*mock.Mock)
		m.FailOn = "save"
		return m
	})

	reports, err := runner.ProcessBatch(context.Background(), []string{first, second}, nil, Callbacks{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.xlsx")
	assert.Empty(t, reports)
	// The second file was never touched.
	require.Len(t, mf.mocks, 1)
}

func TestProcessFileMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	runner := New(nil)
	_, err := runner.ProcessFile(context.Background(), path, nil, nil)
	require.Error(t, err)
	assert.NoFileExists(t, ProjectPath(path))
}

func TestProjectPath(t *testing.T) {
	assert.Equal(t, "/data/cell01.cpj", ProjectPath("/data/cell01.xlsx"))
}
