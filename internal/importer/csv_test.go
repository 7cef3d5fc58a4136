package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventsResolvesColumnsByHeader(t *testing.T) {
	// Columns deliberately out of the documented order
	body := strings.Join([]string{
		"start_time,NAME,type,address,lat,lon,recurrence,recurrence_until,end_time,description,address_name",
		`2025-08-01T19:00:00Z,Jazz Night,music,"12 Main St, Springfield",40.5,-74.2,weekly,2025-09-01,2025-08-01T22:00:00Z,Late set,Blue Note`,
	}, "\n")

	inputs, err := ParseEvents(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, inputs, 1)

	input := inputs[0]
	assert.Equal(t, "Jazz Night", input.Name)
	assert.Equal(t, "music", input.Type)
	assert.Equal(t, "12 Main St, Springfield", input.Address)
	assert.Equal(t, "Blue Note", input.AddressName)
	assert.Equal(t, "Late set", input.Description)
	assert.Equal(t, "2025-08-01T19:00:00Z", input.StartTime)
	assert.Equal(t, "2025-08-01T22:00:00Z", input.EndTime)
	assert.Equal(t, "weekly", input.Recurrence)
	assert.Equal(t, "2025-09-01", input.RecurrenceUntil)
	require.NotNil(t, input.Lat)
	require.NotNil(t, input.Lon)
	assert.Equal(t, 40.5, *input.Lat)
	assert.Equal(t, -74.2, *input.Lon)
}

func TestParseEventsEmptyOptionalCells(t *testing.T) {
	body := strings.Join([]string{
		"name,type,start_time,lat,lon",
		"Food Fair,food,2025-08-02,,",
	}, "\n")

	inputs, err := ParseEvents(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Nil(t, inputs[0].Lat)
	assert.Nil(t, inputs[0].Lon)
	assert.Empty(t, inputs[0].Address)
}

func TestParseEventsEmptyBody(t *testing.T) {
	_, err := ParseEvents(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty CSV body")
}

func TestParseEventsHeaderOnly(t *testing.T) {
	_, err := ParseEvents(strings.NewReader("name,type,start_time\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestParseEventsMissingRequiredColumn(t *testing.T) {
	body := strings.Join([]string{
		"name,address,start_time",
		"Jazz Night,12 Main St,2025-08-01",
	}, "\n")

	_, err := ParseEvents(strings.NewReader(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "type"`)
}

func TestParseEventsMalformedRow(t *testing.T) {
	body := strings.Join([]string{
		"name,type,start_time",
		"Jazz Night,music,2025-08-01",
		"Broken Row,music",
	}, "\n")

	_, err := ParseEvents(strings.NewReader(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParseEventsInvalidCoordinateCell(t *testing.T) {
	body := strings.Join([]string{
		"name,type,start_time,lat,lon",
		"Jazz Night,music,2025-08-01,north,-74.2",
	}, "\n")

	_, err := ParseEvents(strings.NewReader(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid lat")
}
