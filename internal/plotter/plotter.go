package plotter

import (
	"context"

	"cycleplot/internal/template"
)

// Plotter abstracts a plotting backend. The call sequence mirrors the
// automation surface of the desktop plotting application: import a data
// worksheet, create a graph from a template, add named traces, append notes,
// save the project.
type Plotter interface {
	Start(ctx context.Context) error
	Stop() error

	// ImportCSV loads a plot-data CSV as the project worksheet. Columns
	// alternate X (specific capacity) and Y (voltage).
	ImportCSV(path string) error

	// NewGraph creates the graph the traces will be added to.
	NewGraph(tpl *template.Template) error

	// AddTrace plots worksheet column yCol against xCol under the given
	// trace name.
	AddTrace(xCol, yCol int, name string) error

	// AppendNotes adds annotation lines to the project notes window.
	AppendNotes(lines ...string) error

	// Save writes the project file.
	Save(path string) error

	Connected() bool
}
