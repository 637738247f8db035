package ingest

import (
	"testing"

	"github.com/princekumarofficial/asset-service/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeTrimsAndCollapsesAbsence(t *testing.T) {
	row := Normalize(map[string]string{
		ColumnName:    " testright_02_v1 ",
		ColumnPath:    "../resources/nsfw_data/test right_02.png",
		ColumnAngle1:  "above",
		ColumnAngle2:  "  front\t",
		ColumnAction1: "NaN",
		ColumnAction2: "   ",
		ColumnPrompt:  "",
		"extra":       "ignored",
	})

	assert.Equal(t, "testright_02_v1", row.Name)
	assert.Equal(t, "../resources/nsfw_data/test right_02.png", row.Path)
	assert.Equal(t, "above", types.Value(row.Meta.Angle1))
	assert.Equal(t, "front", types.Value(row.Meta.Angle2))
	assert.Nil(t, row.Meta.Action1)
	assert.Nil(t, row.Meta.Action2)
	assert.Nil(t, row.Meta.Action3, "missing column is absent")
	assert.Nil(t, row.Meta.Prompt)
}

func TestNormalizeAbsentSpellings(t *testing.T) {
	for _, v := range []string{"nan", "NaN", "NULL", "None", "N/A", "NA", "<NA>"} {
		assert.Nil(t, normalizeValue(v), v)
	}
	assert.Equal(t, "nano", *normalizeValue("nano"))
	assert.Equal(t, "0", *normalizeValue("0"))
}

func TestNormalizeEmptyRecord(t *testing.T) {
	row := Normalize(map[string]string{})
	assert.Empty(t, row.Name)
	assert.Empty(t, row.Path)
	assert.Equal(t, types.Metadata{}, row.Meta)
}
