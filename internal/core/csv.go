package core

// csv.go is the sensor CSV codec.
//
// Export writes the fixed header followed by one line per row, "\n"
// terminated. Fields containing the delimiter, quotes or line breaks are
// quoted per RFC 4180 so any field content round-trips through DecodeCSV.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSV column names.
const (
	ColModel           = "Model"
	ColStatus          = "Status"
	ColBaseStationName = "Base Station Name"
)

// CSVHeader is the header row of every exported document.
var CSVHeader = []string{ColModel, ColStatus, ColBaseStationName}

// ExportFileName and ExportContentType describe the CSV download.
const (
	ExportFileName    = "sensor_status.csv"
	ExportContentType = "text/csv"
)

// EncodeCSV writes the header and one record per row to w.
func EncodeCSV(w io.Writer, rows []SensorRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Model, r.Status, r.BaseStationName}); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalCSV returns the CSV document for rows.
func MarshalCSV(rows []SensorRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportRow is one decoded line of an import file.
type ImportRow struct {
	Line            int // 1-based line number of the record in the file
	Model           string
	Status          string
	BaseStationName string
}

// HeaderIndex maps lower-cased column names to their position in a record.
type HeaderIndex map[string]int

// NewHeaderIndex builds an index from a header record.
func NewHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// Cell returns the trimmed value of column col, or "" if absent.
func (h HeaderIndex) Cell(record []string, col string) string {
	i, ok := h[strings.ToLower(col)]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ErrEmptyFile is returned when an import file has no header.
var ErrEmptyFile = errors.New("empty file")

// DecodeCSV reads an import file. The header must contain Model and Status;
// Base Station Name is optional. A UTF-8 BOM is skipped and invalid UTF-8 is
// replaced with '?'. Blank records are skipped.
func DecodeCSV(r io.Reader) ([]ImportRow, error) {
	cr := csv.NewReader(newImportReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}

	idx := NewHeaderIndex(header)
	for _, col := range []string{ColModel, ColStatus} {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var rows []ImportRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}

		line, _ := cr.FieldPos(0)
		row := ImportRow{
			Line:            line,
			Model:           idx.Cell(record, ColModel),
			Status:          idx.Cell(record, ColStatus),
			BaseStationName: idx.Cell(record, ColBaseStationName),
		}
		if row.Model == "" {
			return nil, fmt.Errorf("line %d: required field %q is empty", line, ColModel)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
