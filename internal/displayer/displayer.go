package displayer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cycleplot/internal/batch"
	"cycleplot/internal/template"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const progressWidth = 40

// Displayer is the interactive form UI: pick workbooks and a template, run
// the batch, watch the progress gauge.
type Displayer struct {
	app      *tview.Application
	runner   *batch.Runner
	registry *template.Registry

	mu         sync.Mutex
	processing bool
	progress   int

	// UI elements cached for updates
	filesField   *tview.InputField
	templateName string
	statusText   *tview.TextView
	progressText *tview.TextView
}

func New(runner *batch.Runner, registry *template.Registry, seedFiles []string) *Displayer {
	d := &Displayer{
		app:          tview.NewApplication(),
		runner:       runner,
		registry:     registry,
		templateName: registry.Default().Name,
	}

	d.filesField = tview.NewInputField().
		SetLabel("Excel files (separate with ;): ").
		SetText(strings.Join(seedFiles, ";"))
	d.statusText = tview.NewTextView().SetDynamicColors(true)
	d.progressText = tview.NewTextView().SetDynamicColors(true)

	return d
}

func (d *Displayer) Run() error {
	names := d.registry.Names()
	dropdown := tview.NewDropDown().
		SetLabel("Template: ").
		SetOptions(names, func(text string, index int) {
			d.templateName = text
		})
	dropdown.SetCurrentOption(0)

	form := tview.NewForm().
		AddFormItem(d.filesField).
		AddFormItem(dropdown).
		AddButton("Generate & Plot All", d.startBatch).
		AddButton("Exit", d.Shutdown)
	form.SetBorder(true).SetTitle(" cycleplot - batch workbook plotter ")

	flex := tview.NewFlex().SetDirection(tview.FlexRow)
	flex.AddItem(form, 0, 1, true)
	flex.AddItem(d.statusText, 1, 0, false)
	flex.AddItem(d.progressText, 1, 0, false)

	d.setStatus("[white]Select workbooks and a template, then Generate.")
	d.renderProgress()

	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			d.Shutdown()
			return nil
		}
		return event
	})

	d.app.SetRoot(flex, true)
	return d.app.Run()
}

func (d *Displayer) Shutdown() {
	d.app.Stop()
}

// startBatch validates the form and launches the worker goroutine. Runs on
// the UI goroutine (button handler).
func (d *Displayer) startBatch() {
	d.mu.Lock()
	if d.processing {
		d.mu.Unlock()
		d.setStatus("[yellow]A batch is already running.")
		return
	}
	d.mu.Unlock()

	files := parseFiles(d.filesField.GetText())
	if len(files) == 0 {
		d.setStatus("[red]Select at least one Excel file.")
		return
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			d.setStatus(fmt.Sprintf("[red]File not found: %s", f))
			return
		}
	}
	tpl, err := d.registry.Get(d.templateName)
	if err != nil {
		d.setStatus(fmt.Sprintf("[red]%v", err))
		return
	}

	d.mu.Lock()
	d.processing = true
	d.progress = 0
	d.mu.Unlock()
	d.renderProgress()

	go d.worker(files, tpl)
}

func (d *Displayer) worker(files []string, tpl *template.Template) {
	total := len(files)
	cb := batch.Callbacks{
		FileStart: func(index int, path string) {
			d.post(func() {
				d.progress = 0
				d.renderProgress()
				d.setStatus(fmt.Sprintf("[white]Processing %d/%d: %s", index, total, filepath.Base(path)))
			})
		},
		Progress: func(delta int) {
			d.post(func() {
				d.progress += delta
				if d.progress > 100 {
					d.progress = 100
				}
				d.renderProgress()
			})
		},
	}

	_, err := d.runner.ProcessBatch(context.Background(), files, tpl, cb)

	d.post(func() {
		d.mu.Lock()
		d.processing = false
		d.mu.Unlock()
		if err != nil {
			d.setStatus(fmt.Sprintf("[red]Error: %v", err))
			return
		}
		d.progress = 100
		d.renderProgress()
		d.setStatus(fmt.Sprintf("[green]Processed %d files successfully.", total))
	})
}

// post runs fn on the UI goroutine.
func (d *Displayer) post(fn func()) {
	d.app.QueueUpdateDraw(fn)
}

func (d *Displayer) setStatus(msg string) {
	d.statusText.SetText(msg)
}

func (d *Displayer) renderProgress() {
	d.progressText.SetText(renderBar(d.progress, progressWidth))
}

// renderBar draws a text gauge like ████······ 40%. Square brackets are
// avoided so tview does not read the bar as a color tag.
func renderBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("·", width-filled) + fmt.Sprintf(" %3d%%", percent)
}

// parseFiles splits the form's path list on ; and drops empty entries.
func parseFiles(s string) []string {
	var files []string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			files = append(files, part)
		}
	}
	return files
}
