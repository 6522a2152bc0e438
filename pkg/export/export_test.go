package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title: "Enrollments",
		Columns: []Column{
			{Key: "student", Header: "Student", Width: 2},
			{Key: "stage", Header: "Stage", Width: 2},
			{Key: "step", Header: "Step"},
		},
		Rows: []map[string]string{
			{"student": "Ada, L.", "stage": "Payment Processing", "step": "5"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Student,Stage,Step\n\"Ada, L.\",Payment Processing,5\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestColumnWidthsShareThePage(t *testing.T) {
	widths := columnWidths(sampleDataset().Columns)
	require.Len(t, widths, 3)
	assert.InDelta(t, pageWidth, widths[0]+widths[1]+widths[2], 0.001)
	assert.InDelta(t, widths[0], 2*widths[2], 0.001)
}
