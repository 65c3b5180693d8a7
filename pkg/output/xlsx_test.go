package output

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ccollicutt/lamptest/pkg/extractor"
	"github.com/ccollicutt/lamptest/pkg/table"
)

func TestXLSXFormatter_Format(t *testing.T) {
	f := NewXLSXFormatter(FormatOptions{Sheet: "D018"})
	assert.Equal(t, "xlsx", f.Name())

	var buf bytes.Buffer
	require.NoError(t, f.Format(context.Background(), createTestReport(), &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"D018"}, wb.GetSheetList())

	rows, err := wb.GetRows("D018")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "dtm", rows[0][0])
	assert.Equal(t, "W_dN", rows[0][23])
	assert.Equal(t, "018", rows[1][1])
	assert.Equal(t, "23.5", rows[1][2])
	assert.Equal(t, "18V.018", rows[2][25])
}

func TestXLSXFormatter_DefaultSheet(t *testing.T) {
	report := NewReport(&extractor.Result{Kind: extractor.KindEmpty, Table: table.Empty()}, "")

	var buf bytes.Buffer
	require.NoError(t, NewXLSXFormatter(FormatOptions{}).Format(context.Background(), report, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{DefaultSheet}, wb.GetSheetList())
	rows, err := wb.GetRows(DefaultSheet)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
