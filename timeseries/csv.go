package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// CSVOptions holds options for loading raw events from CSV exports.
type CSVOptions struct {
	DateColumn   string // column holding the event date (default: auto-detect)
	EntityColumn string // optional region/entity column
	PlateColumn  string // optional plate/identifier column
	IDColumn     string // optional natural dedup key column
	HasHeader    bool
	Delimiter    rune
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{HasHeader: true, Delimiter: ','}
}

// eventDateLayouts are the encodings seen across source exports.
var eventDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
}

// ParseEventDate parses a date string tolerating the encodings source
// files arrive in.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// LoadEventsCSV loads raw events from a CSV file. Rows with unparseable
// dates are skipped and counted, not fatal.
func LoadEventsCSV(filename string, opts *CSVOptions) ([]RawEvent, int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()
	return LoadEventsFromReader(file, opts)
}

// LoadEventsFromReader loads raw events from an io.Reader.
func LoadEventsFromReader(r io.Reader, opts *CSVOptions) ([]RawEvent, int, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	dateIdx, entityIdx, plateIdx, idIdx := 0, -1, -1, -1
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, 0, err
		}
		dateIdx = -1
		for i, h := range header {
			h = strings.ToLower(strings.TrimSpace(strings.Trim(h, "\"")))
			switch {
			case opts.DateColumn != "" && h == strings.ToLower(opts.DateColumn):
				dateIdx = i
			case opts.EntityColumn != "" && h == strings.ToLower(opts.EntityColumn):
				entityIdx = i
			case opts.PlateColumn != "" && h == strings.ToLower(opts.PlateColumn):
				plateIdx = i
			case opts.IDColumn != "" && h == strings.ToLower(opts.IDColumn):
				idIdx = i
			case dateIdx == -1 && (h == "date" || h == "date_of_renewal" || h == "accident_date" || h == "occurred_at"):
				dateIdx = i
			case entityIdx == -1 && opts.EntityColumn == "" && (h == "region" || h == "municipality" || h == "district"):
				entityIdx = i
			case plateIdx == -1 && opts.PlateColumn == "" && (h == "plate_no" || h == "plate" || h == "plate_number"):
				plateIdx = i
			case idIdx == -1 && opts.IDColumn == "" && (h == "id" || h == "file_no" || h == "mv_file_no"):
				idIdx = i
			}
		}
		if dateIdx == -1 {
			return nil, 0, errors.New("no date column found in CSV header")
		}
	}

	var events []RawEvent
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if dateIdx >= len(record) {
			skipped++
			continue
		}
		occurred, err := ParseEventDate(record[dateIdx])
		if err != nil {
			skipped++
			continue
		}
		ev := RawEvent{OccurredAt: occurred}
		if entityIdx >= 0 && entityIdx < len(record) {
			ev.EntityKey = strings.TrimSpace(record[entityIdx])
		}
		if plateIdx >= 0 && plateIdx < len(record) {
			ev.Plate = strings.TrimSpace(record[plateIdx])
		}
		if idIdx >= 0 && idIdx < len(record) {
			ev.DedupKey = strings.TrimSpace(record[idIdx])
		}
		events = append(events, ev)
	}

	if len(events) == 0 {
		return nil, skipped, errors.New("no valid events found in CSV")
	}
	return events, skipped, nil
}
