package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Basic(t *testing.T) {
	input := "County,Income Tax Paid\nClinton County,48357621\n Essex County , 31248950 \n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"County", "Income Tax Paid"}, rows[0])
	assert.Equal(t, []string{"Essex County", "31248950"}, rows[2])
}

func TestReadCSV_QuotedThousands(t *testing.T) {
	input := "County,Amount\n\"St. Lawrence County\",\"21,356,789\"\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"St. Lawrence County", "21,356,789"}, rows[1])
}

func TestReadCSV_SkipsBlankRowsAndComments(t *testing.T) {
	input := "# IRS SOI extract\na|b\n | \n1|2\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{Delimiter: '|', Comment: '#'})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, rows)
}

func TestReadCSV_VariableFields(t *testing.T) {
	input := "a,b,c\n1,2\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	assert.Len(t, rows[1], 2)
}

func TestReadCSV_Empty(t *testing.T) {
	rows, err := ReadCSV(context.Background(), strings.NewReader(""), CSVOptions{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSV_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, strings.NewReader("a,b\n"), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}
