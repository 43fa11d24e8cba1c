package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMetrics(t *testing.T) {
	var out bytes.Buffer
	metricsCmd.SetOut(&out)
	require.NoError(t, listMetrics(metricsCmd, nil))

	text := out.String()
	for _, want := range []string{"bleu", "baryscore_W", "depth_score", "fisher_rao", "f1"} {
		assert.Contains(t, text, want)
	}
}

func TestReadExamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.txt")
	require.NoError(t, os.WriteFile(path, []byte("I like my cakes very much\n\n  I hate these cakes!  \n"), 0o600))

	got, err := readExamples(path, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"I like my cakes very much", "I hate these cakes!"}, got)

	got, err = readExamples(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"I like my cakes very much", "I hate these cakes!"}, got)

	_, err = readExamples(filepath.Join(dir, "missing.txt"), false)
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeJSON(&out, map[string][]float64{"bleu": {0, 0.5}}))
	assert.True(t, strings.HasPrefix(out.String(), "{\n  \"bleu\": [\n    0,\n    0.5\n  ]\n}"))
}
