package ingest

import (
	"strings"

	"github.com/princekumarofficial/asset-service/internal/types"
)

// Recognized CSV columns. Anything else in the header is ignored.
const (
	ColumnName    = "reference_image_name"
	ColumnPath    = "reference_image_path"
	ColumnAngle1  = "angle_direction_1"
	ColumnAngle2  = "angle_direction_2"
	ColumnAction1 = "action_direction_1"
	ColumnAction2 = "action_direction_2"
	ColumnAction3 = "action_direction_3"
	ColumnPrompt  = "prompt"
)

// Row is a CSV row after normalization. Name and Path are "" when absent;
// every metadata field is either nil or a trimmed non-empty string.
type Row struct {
	Name string
	Path string
	Meta types.Metadata
}

// absentSpellings are cell values that spreadsheet exports and dataframe
// tools write for empty cells.
var absentSpellings = map[string]struct{}{
	"nan":  {},
	"null": {},
	"none": {},
	"n/a":  {},
	"na":   {},
	"<na>": {},
}

// Normalize converts a raw CSV record into a Row.
func Normalize(record map[string]string) Row {
	return Row{
		Name: types.Value(cell(record, ColumnName)),
		Path: types.Value(cell(record, ColumnPath)),
		Meta: types.Metadata{
			Angle1:  cell(record, ColumnAngle1),
			Angle2:  cell(record, ColumnAngle2),
			Action1: cell(record, ColumnAction1),
			Action2: cell(record, ColumnAction2),
			Action3: cell(record, ColumnAction3),
			Prompt:  cell(record, ColumnPrompt),
		},
	}
}

func cell(record map[string]string, column string) *string {
	raw, ok := record[column]
	if !ok {
		return nil
	}
	return normalizeValue(raw)
}

func normalizeValue(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	if _, ok := absentSpellings[strings.ToLower(v)]; ok {
		return nil
	}
	return &v
}
