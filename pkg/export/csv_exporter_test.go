package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterWritesHeadersAndRows(t *testing.T) {
	exporter := NewCSVExporter()
	var buf bytes.Buffer

	err := exporter.Write(&buf, Dataset{
		Headers: []string{"id", "status"},
		Rows: []map[string]string{
			{"id": "cmp-1", "status": "sent"},
			{"id": "cmp-2"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "id,status\ncmp-1,sent\ncmp-2,\n", buf.String())
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	var buf bytes.Buffer

	err := exporter.Write(&buf, Dataset{})
	require.Error(t, err)
	assert.Empty(t, buf.Bytes())
}
