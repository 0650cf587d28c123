package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"cycleplot/internal/export"
	"cycleplot/internal/models"
	"cycleplot/internal/plotter"
	"cycleplot/internal/plotter/project"
	"cycleplot/internal/template"
	"cycleplot/internal/workbook"
	"cycleplot/pkg/log"

	"go.uber.org/zap"
)

// Callbacks report batch progress to the UI. All fields are optional.
type Callbacks struct {
	// FileStart is called before each file, with its 1-based index.
	FileStart func(index int, path string)
	// Progress receives increments summing to roughly 100 per file.
	Progress func(delta int)
}

func (c Callbacks) fileStart(index int, path string) {
	if c.FileStart != nil {
		c.FileStart(index, path)
	}
}

func (c Callbacks) progress(delta int) {
	if c.Progress != nil {
		c.Progress(delta)
	}
}

// Runner converts workbooks file by file, one plotting session per file.
type Runner struct {
	newPlotter func() plotter.Plotter
}

// New builds a Runner. newPlotter must return a fresh backend session; nil
// defaults to the project-file backend.
func New(newPlotter func() plotter.Plotter) *Runner {
	if newPlotter == nil {
		newPlotter = func() plotter.Plotter { return project.New() }
	}
	return &Runner{newPlotter: newPlotter}
}

// ProcessBatch converts the given workbooks sequentially. The first failure
// aborts the batch.
func (r *Runner) ProcessBatch(ctx context.Context, files []string, tpl *template.Template, cb Callbacks) ([]models.FileReport, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input workbooks")
	}

	reports := make([]models.FileReport, 0, len(files))
	for i, f := range files {
		cb.fileStart(i+1, f)
		report, err := r.ProcessFile(ctx, f, tpl, cb.Progress)
		if err != nil {
			return reports, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// ProcessFile runs the full pipeline for one workbook: parse the Record
// Sheet, write the plot-data CSV, import it into a fresh plotting session,
// build the graph with one trace per cycle, annotate and save the project
// next to the input.
func (r *Runner) ProcessFile(ctx context.Context, path string, tpl *template.Template, progress func(delta int)) (*models.FileReport, error) {
	if tpl == nil {
		tpl = template.Default()
	}

	sheet, err := workbook.Parse(path)
	if err != nil {
		return nil, err
	}

	csvPath := export.CSVPath(path)
	if err := export.WriteCSV(sheet, csvPath); err != nil {
		return nil, err
	}

	p := r.newPlotter()
	if err := p.Start(ctx); err != nil {
		return nil, fmt.Errorf("start plotting session: %w", err)
	}
	defer p.Stop()

	if err := p.ImportCSV(csvPath); err != nil {
		return nil, err
	}
	if err := p.NewGraph(tpl); err != nil {
		return nil, err
	}

	for i, c := range sheet.Cycles {
		// Even worksheet columns hold SpeCap, odd ones Voltage.
		if err := p.AddTrace(2*i, 2*i+1, fmt.Sprintf("Cycle %d", c.Index)); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(100 / len(sheet.Cycles))
		}
	}

	err = p.AppendNotes(
		"Excel input:   "+filepath.Base(path),
		"Template used: "+tpl.Name,
		"CSV export:    "+filepath.Base(csvPath),
	)
	if err != nil {
		return nil, err
	}

	projPath := ProjectPath(path)
	if err := p.Save(projPath); err != nil {
		return nil, err
	}

	log.Debug("converted workbook",
		zap.String("input", path),
		zap.String("csv", csvPath),
		zap.String("project", projPath),
		zap.Int("cycles", len(sheet.Cycles)))

	return &models.FileReport{
		Input:      path,
		CSV:        csvPath,
		Project:    projPath,
		CycleCount: len(sheet.Cycles),
	}, nil
}

// ProjectPath returns the project file path for a workbook path, next to it.
func ProjectPath(workbookPath string) string {
	return strings.TrimSuffix(workbookPath, filepath.Ext(workbookPath)) + project.Extension
}
