package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ms-events/internal/models"
)

// requiredColumns must appear in the header; all other known columns are
// optional and unknown ones are ignored.
var requiredColumns = []string{"name", "type", "start_time"}

// ParseEvents reads an import CSV into submissions. The first record is the
// header and columns are matched by lower-cased name in any order. Row
// numbers in errors count data rows, excluding the header.
func ParseEvents(r io.Reader) ([]models.EventInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV body")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid CSV header: %v", err)
	}

	index := make(map[string]int, len(headers))
	for i, field := range headers {
		index[strings.ToLower(strings.TrimSpace(field))] = i
	}
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("missing required column %q", column)
		}
	}

	cell := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var inputs []models.EventInput
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("row %d: %v", row, err)
		}

		input := models.EventInput{
			Name:            cell(record, "name"),
			Type:            cell(record, "type"),
			AddressName:     cell(record, "address_name"),
			Description:     cell(record, "description"),
			Address:         cell(record, "address"),
			StartTime:       cell(record, "start_time"),
			EndTime:         cell(record, "end_time"),
			Recurrence:      cell(record, "recurrence"),
			RecurrenceUntil: cell(record, "recurrence_until"),
		}

		if raw := cell(record, "lat"); raw != "" {
			lat, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid lat %q", row, raw)
			}
			input.Lat = &lat
		}
		if raw := cell(record, "lon"); raw != "" {
			lon, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid lon %q", row, raw)
			}
			input.Lon = &lon
		}

		inputs = append(inputs, input)
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no data rows in CSV")
	}

	return inputs, nil
}
