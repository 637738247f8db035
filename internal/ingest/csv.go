package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrInvalidCSV is returned when a file cannot be read as a table with a header row.
var ErrInvalidCSV = errors.New("CSV unparseable")

var utf8BOM = []byte("\ufeff")

// readRecords loads every data row of the CSV at path as a column->value
// map keyed by the header. Short rows simply lack the trailing columns;
// a row with more fields than the header makes the whole file unparseable.
func readRecords(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []map[string]string
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}

		if len(fields) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%w: expected %d fields on line %d, saw %d", ErrInvalidCSV, len(header), line, len(fields))
		}

		record := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(fields) {
				record[column] = fields[i]
			}
		}
		records = append(records, record)
	}

	return records, nil
}
