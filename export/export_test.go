package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"transitdesk/models"
)

var fareColumns = []models.Column{
	{Header: "Fare ID", Field: "fare_id"},
	{Header: "Type", Field: "fare_type"},
	{Header: "Base", Field: "base_fare"},
}

func TestRecordsCSV(t *testing.T) {
	records := []models.Record{
		{"fare_id": json.Number("1"), "fare_type": `say "hi"`, "base_fare": json.Number("12.5")},
		{"fare_id": json.Number("2"), "fare_type": nil},
		{"fare_id": json.Number("3"), "fare_type": "", "base_fare": "0"},
	}

	var buf bytes.Buffer
	require.NoError(t, RecordsCSV(&buf, fareColumns, records))

	want := strings.Join([]string{
		`"Fare ID","Type","Base"`,
		`"1","say ""hi""","12.5"`,
		`"2","-","-"`,
		`"3","","0"`,
	}, "\n")
	assert.Equal(t, want, buf.String())
	assert.Len(t, strings.Split(buf.String(), "\n"), len(records)+1)
}

func TestCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RecordsCSV(&buf, fareColumns, nil), ErrEmpty)
	assert.Zero(t, buf.Len())
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	assert.Equal(t, "fares_2024-03-05.csv", FileName("fares", now))
	assert.Equal(t, "fares_2024-03-05.xlsx", XLSXFileName("fares", now))
}

func TestRecordsXLSX(t *testing.T) {
	records := []models.Record{
		{"fare_id": json.Number("1"), "fare_type": "flat", "base_fare": json.Number("10")},
		{"fare_id": json.Number("2")},
	}

	var buf bytes.Buffer
	require.NoError(t, RecordsXLSX(&buf, "Fares", fareColumns, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Fares")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Fare ID", "Type", "Base"}, rows[0])
	assert.Equal(t, []string{"2", "-", "-"}, rows[2])

	assert.ErrorIs(t, RecordsXLSX(&bytes.Buffer{}, "Fares", fareColumns, nil), ErrEmpty)
}
