package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/hzz-analysis/hzzplot/internal/config"
	"github.com/hzz-analysis/hzzplot/internal/hist"
	"github.com/hzz-analysis/hzzplot/internal/rootio"
)

func writeHistos(t *testing.T, path string) {
	t.Helper()
	b := hist.Uniform(4, 0, 4)
	zx := b.New("")
	zx.Fill(0.5, 2)
	zx.Fill(1.5, 2)
	zx.Fill(9, 1)
	final := b.New("")
	g := hbook.NewS2D()
	g.Fill(hbook.Point2D{X: 10, Y: 0.1})

	w, err := rootio.Create(path)
	require.NoError(t, err)
	require.NoError(t, w.PutH1F("histos_ZX_4mu", zx))
	require.NoError(t, w.PutH1F("h_from3P1F_SR_final_4mu", final))
	require.NoError(t, w.PutGraph("FR_OS_muon_EB", g))
	require.NoError(t, w.Close())
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ZXHistos_OS.root")
	writeHistos(t, input)

	cfg := config.New()
	cfg.OutputDir = filepath.Join(dir, "out")
	var stdout bytes.Buffer
	require.NoError(t, (&yieldsCmd{}).write(context.Background(), cfg, input, &stdout))

	got := stdout.String()
	// the overflow entry is part of the yield
	assert.Contains(t, got, "Histogram: histos_ZX_4mu\nYield: 5.00 +/- 3.00 (statistical only)\n")
	assert.Contains(t, got, "Histogram: h_from3P1F_SR_final_4mu\nYield: 0.00 +/- 0.00 (statistical only)\n")
	assert.NotContains(t, got, "FR_OS_muon_EB")
	assert.Equal(t, 2, strings.Count(got, "Histogram: "))
	assert.Less(t, strings.Index(got, "histos_ZX_4mu"), strings.Index(got, "h_from3P1F_SR_final_4mu"))

	saved, err := os.ReadFile(filepath.Join(cfg.OutputDir, "All_ZX_yields.txt"))
	require.NoError(t, err)
	assert.Equal(t, got, string(saved))
}

func TestWriteReportPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.root")
	writeHistos(t, input)

	yc := &yieldsCmd{report: filepath.Join(dir, "yields.txt")}
	var stdout bytes.Buffer
	require.NoError(t, yc.write(context.Background(), config.New(), input, &stdout))
	_, err := os.Stat(yc.report)
	require.NoError(t, err)
}

func TestWriteMissingInput(t *testing.T) {
	cfg := config.New()
	cfg.OutputDir = t.TempDir()
	var stdout bytes.Buffer
	err := (&yieldsCmd{}).write(context.Background(), cfg, filepath.Join(t.TempDir(), "none.root"), &stdout)
	require.Error(t, err)
	assert.Empty(t, stdout.String())
}
