package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTable(t *testing.T) {
	r := report{rows: [][]string{{"0", "origin"}, {"2", "relay"}}}

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, r))

	output := buf.String()
	assert.Contains(t, output, "DEST")
	assert.Contains(t, output, "PATH")
	assert.Contains(t, output, "origin")
	assert.Contains(t, output, "relay")
}

func TestSimpleTable(t *testing.T) {
	pairs := [][2]string{
		{"Bytes", "20.00MiB"},
		{"Relays", "2"},
	}

	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, pairs))

	output := buf.String()
	assert.Contains(t, output, "Bytes")
	assert.Contains(t, output, "20.00MiB")
	assert.Contains(t, output, "Relays")
}
