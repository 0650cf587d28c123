// Package mock records every backend call for tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	"cycleplot/internal/template"
)

// TraceCall records one AddTrace invocation.
type TraceCall struct {
	XColumn int
	YColumn int
	Name    string
}

// Mock is an in-memory Plotter implementation.
type Mock struct {
	mu      sync.Mutex
	started bool

	// FailOn makes the named operation return an error, for failure-path
	// tests. One of: import, graph, trace, notes, save.
	FailOn string

	Imports []string
	Graphs  []*template.Template
	Traces  []TraceCall
	Notes   []string
	Saved   []string
}

func New() *Mock {
	return &Mock{}
}

func (m *Mock) fail(op string) error {
	if m.FailOn == op {
		return fmt.Errorf("mock failure on %s", op)
	}
	return nil
}

func (m *Mock) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	return nil
}

func (m *Mock) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *Mock) ImportCSV(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("import"); err != nil {
		return err
	}
	m.Imports = append(m.Imports, path)
	return nil
}

func (m *Mock) NewGraph(tpl *template.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("graph"); err != nil {
		return err
	}
	m.Graphs = append(m.Graphs, tpl)
	return nil
}

func (m *Mock) AddTrace(xCol, yCol int, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("trace"); err != nil {
		return err
	}
	m.Traces = append(m.Traces, TraceCall{XColumn: xCol, YColumn: yCol, Name: name})
	return nil
}

func (m *Mock) AppendNotes(lines ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("notes"); err != nil {
		return err
	}
	m.Notes = append(m.Notes, lines...)
	return nil
}

func (m *Mock) Save(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("save"); err != nil {
		return err
	}
	m.Saved = append(m.Saved, path)
	return nil
}
