package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cycleplot/internal/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Cycle1_SpeCap,Cycle1_Voltage,Cycle2_SpeCap,Cycle2_Voltage\n10,3.1,20,3.2\n"

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cell01_plotdata.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func TestProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	csvPath := writeSampleCSV(t)
	tpl := template.Default()

	p := New()
	require.NoError(t, p.Start(ctx))
	assert.True(t, p.Connected())

	require.NoError(t, p.ImportCSV(csvPath))
	require.NoError(t, p.NewGraph(tpl))
	require.NoError(t, p.AddTrace(0, 1, "Cycle 1"))
	require.NoError(t, p.AddTrace(2, 3, "Cycle 2"))
	require.NoError(t, p.AppendNotes("Excel input:   cell01.xlsx", "Template used: charge-discharge"))

	projPath := filepath.Join(t.TempDir(), "cell01"+Extension)
	require.NoError(t, p.Save(projPath))
	require.NoError(t, p.Stop())
	assert.False(t, p.Connected())

	m, err := Open(projPath)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())

	require.NotNil(t, m.Worksheet)
	assert.Equal(t, "cell01_plotdata.csv", m.Worksheet.Name)
	assert.Equal(t, []string{"Cycle1_SpeCap", "Cycle1_Voltage", "Cycle2_SpeCap", "Cycle2_Voltage"}, m.Worksheet.Columns)

	require.NotNil(t, m.Graph)
	assert.Equal(t, tpl.Name, m.Graph.Template.Name)
	require.Len(t, m.Graph.Traces, 2)
	assert.Equal(t, "Cycle 1", m.Graph.Traces[0].Name)
	assert.Equal(t, 0, m.Graph.Traces[0].XColumn)
	assert.Equal(t, 1, m.Graph.Traces[0].YColumn)
	assert.Equal(t, tpl.TraceColor(0), m.Graph.Traces[0].Color)
	assert.Equal(t, "Cycle 2", m.Graph.Traces[1].Name)
	assert.Equal(t, tpl.TraceColor(1), m.Graph.Traces[1].Color)
	assert.NotEqual(t, m.Graph.Traces[0].ID, m.Graph.Traces[1].ID)

	assert.Equal(t, []string{"Excel input:   cell01.xlsx", "Template used: charge-discharge"}, m.Notes)

	data, err := Data(projPath)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(data))
}

func TestProjectSequenceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("operations before start", func(t *testing.T) {
		p := New()
		assert.Error(t, p.ImportCSV("x.csv"))
		assert.Error(t, p.NewGraph(template.Default()))
		assert.Error(t, p.AddTrace(0, 1, "Cycle 1"))
		assert.Error(t, p.AppendNotes("note"))
		assert.Error(t, p.Save("x"+Extension))
	})

	t.Run("trace before graph", func(t *testing.T) {
		p := New()
		require.NoError(t, p.Start(ctx))
		assert.Error(t, p.AddTrace(0, 1, "Cycle 1"))
	})

	t.Run("save without graph", func(t *testing.T) {
		p := New()
		require.NoError(t, p.Start(ctx))
		assert.Error(t, p.Save(filepath.Join(t.TempDir(), "x"+Extension)))
	})

	t.Run("nil template", func(t *testing.T) {
		p := New()
		require.NoError(t, p.Start(ctx))
		assert.Error(t, p.NewGraph(nil))
	})

	t.Run("trace outside worksheet", func(t *testing.T) {
		p := New()
		require.NoError(t, p.Start(ctx))
		require.NoError(t, p.ImportCSV(writeSampleCSV(t)))
		require.NoError(t, p.NewGraph(template.Default()))
		assert.Error(t, p.AddTrace(4, 5, "Cycle 3"))
	})

	t.Run("import missing csv", func(t *testing.T) {
		p := New()
		require.NoError(t, p.Start(ctx))
		assert.Error(t, p.ImportCSV(filepath.Join(t.TempDir(), "nope.csv")))
	})
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p := New()
	require.NoError(t, p.Start(ctx))
	require.NoError(t, p.ImportCSV(writeSampleCSV(t)))
	require.NoError(t, p.NewGraph(template.Default()))
	require.NoError(t, p.AddTrace(0, 1, "Cycle 1"))
	require.NoError(t, p.Save(filepath.Join(dir, "cell01"+Extension)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cell01"+Extension, entries[0].Name())
}

func TestOpenMissingProject(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"+Extension))
	require.Error(t, err)
}
