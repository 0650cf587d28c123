// Package project implements the Plotter interface by writing .cpj project
// files directly: a zip archive holding a YAML manifest, the imported
// worksheet data and the notes annotation.
package project

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cycleplot/internal/template"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Extension of saved project files.
const Extension = ".cpj"

const (
	manifestEntry = "project.yaml"
	dataDir       = "data"
)

// Trace is one named curve on the graph, referencing worksheet columns.
type Trace struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	XColumn int    `yaml:"x_column"`
	YColumn int    `yaml:"y_column"`
	Color   string `yaml:"color,omitempty"`
}

// Graph is the single plot of a project.
type Graph struct {
	ID       string             `yaml:"id"`
	Template *template.Template `yaml:"template"`
	Traces   []Trace            `yaml:"traces"`
}

// Worksheet records the imported plot-data CSV.
type Worksheet struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

// Manifest is the project.yaml payload of a .cpj file.
type Manifest struct {
	ID        string     `yaml:"id"`
	CreatedAt time.Time  `yaml:"created_at"`
	Worksheet *Worksheet `yaml:"worksheet,omitempty"`
	Graph     *Graph     `yaml:"graph,omitempty"`
	Notes     []string   `yaml:"notes,omitempty"`
}

// Project accumulates a session in memory and writes it out on Save.
type Project struct {
	mu      sync.Mutex
	started bool

	manifest Manifest
	csvData  []byte
}

func New() *Project {
	return &Project{}
}

func (p *Project) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	p.manifest = Manifest{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	p.csvData = nil
	p.started = true
	return nil
}

func (p *Project) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	return nil
}

func (p *Project) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *Project) ImportCSV(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return errors.New("session not started")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("import csv: %w", err)
	}
	columns, err := csvHeader(raw)
	if err != nil {
		return fmt.Errorf("import csv %s: %w", filepath.Base(path), err)
	}

	p.csvData = raw
	p.manifest.Worksheet = &Worksheet{
		ID:      uuid.NewString(),
		Name:    filepath.Base(path),
		Columns: columns,
	}
	return nil
}

func (p *Project) NewGraph(tpl *template.Template) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return errors.New("session not started")
	}
	if tpl == nil {
		return errors.New("nil template")
	}
	p.manifest.Graph = &Graph{
		ID:       uuid.NewString(),
		Template: tpl,
	}
	return nil
}

func (p *Project) AddTrace(xCol, yCol int, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return errors.New("session not started")
	}
	g := p.manifest.Graph
	if g == nil {
		return errors.New("no graph created")
	}
	if ws := p.manifest.Worksheet; ws != nil {
		if xCol < 0 || yCol < 0 || xCol >= len(ws.Columns) || yCol >= len(ws.Columns) {
			return fmt.Errorf("trace %q references columns %d/%d outside worksheet (%d columns)",
				name, xCol, yCol, len(ws.Columns))
		}
	}
	g.Traces = append(g.Traces, Trace{
		ID:      uuid.NewString(),
		Name:    name,
		XColumn: xCol,
		YColumn: yCol,
		Color:   g.Template.TraceColor(len(g.Traces)),
	})
	return nil
}

func (p *Project) AppendNotes(lines ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return errors.New("session not started")
	}
	p.manifest.Notes = append(p.manifest.Notes, lines...)
	return nil
}

// Save writes the project archive atomically: temp file in the target
// directory, then rename.
func (p *Project) Save(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return errors.New("session not started")
	}
	if p.manifest.Graph == nil {
		return errors.New("nothing to save: no graph created")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := p.write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("save project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (p *Project) write(w io.Writer) error {
	zw := zip.NewWriter(w)

	mw, err := zw.Create(manifestEntry)
	if err != nil {
		return err
	}
	raw, err := yaml.Marshal(&p.manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if _, err := mw.Write(raw); err != nil {
		return err
	}

	if ws := p.manifest.Worksheet; ws != nil {
		dw, err := zw.Create(dataDir + "/" + ws.Name)
		if err != nil {
			return err
		}
		if _, err := dw.Write(p.csvData); err != nil {
			return err
		}
	}

	return zw.Close()
}

// Open reads back the manifest of a saved project file.
func Open(path string) (*Manifest, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != manifestEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		var m Manifest
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
		return &m, nil
	}
	return nil, fmt.Errorf("project %s has no %s", filepath.Base(path), manifestEntry)
}

// Data returns the worksheet CSV stored inside a saved project file.
func Data(path string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if filepath.Dir(f.Name) != dataDir {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open worksheet data: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("project %s has no worksheet data", filepath.Base(path))
}

func csvHeader(raw []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return header, nil
}
