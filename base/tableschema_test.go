package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTableSchema(t *testing.T) {
	_, err := NewTableSchema(nil)
	assert.EqualError(t, err, "no column defined")

	_, err = NewTableSchema([]ColumnDef{{Name: "a", Type: ColumnText}, {Name: "", Type: ColumnText}})
	assert.EqualError(t, err, "invalid 1th column ''")

	_, err = NewTableSchema([]ColumnDef{{Name: "a", Type: ColumnText}, {Name: "a", Type: ColumnBigInt}})
	assert.EqualError(t, err, "duplicated 1th column 'a'")

	_, err = NewTableSchema([]ColumnDef{{Name: "code", Type: ColumnString}})
	assert.EqualError(t, err, "0th column 'code' requires a length")

	assert.Panics(t, func() { MustNewTableSchema(nil) })

	columns := []ColumnDef{
		{Name: "when", Type: ColumnTimestamp},
		{Name: "code", Type: ColumnString, Length: 4},
		{Name: "note", Type: ColumnText, Nullable: true},
	}
	schema, err := NewTableSchema(columns)
	assert.NoError(t, err)
	columns[0].Name = "changed"
	assert.Equal(t, []string{"when", "code", "note"}, schema.ColumnNames())
	assert.Equal(t, 1, schema.ColumnIndex("code"))
	assert.Equal(t, -1, schema.ColumnIndex("missing"))
}

func TestTableSchemaValues(t *testing.T) {
	schema := MustNewTableSchema([]ColumnDef{
		{Name: "code", Type: ColumnString, Length: 4},
		{Name: "count", Type: ColumnInteger},
		{Name: "note", Type: ColumnText, Nullable: true},
	})
	assert.Equal(t, []interface{}{"E01", int32(3), nil}, schema.Values(Row{"count": int32(3), "code": "E01"}))

	assert.NoError(t, schema.VerifyRow(Row{"code": "E01", "count": int32(3), "note": nil}))
	assert.EqualError(t, schema.VerifyRow(Row{"code": "E01"}), "column 'count' cannot be null")
	assert.EqualError(t, schema.VerifyRow(Row{"code": "E01", "count": int32(3), "extra": 1}),
		"column 'extra' is not defined in schema")
}

func TestLogTableSchema(t *testing.T) {
	schema := LogTableSchema()
	assert.Equal(t, []string{
		ColAsctime, ColCreated, ColExcInfo, ColFilename, ColFuncName, ColLevelName, ColLevelNo, ColLineNo,
		ColMessage, ColModuleName, ColMsecs, ColLoggerName, ColPathName, ColProcessID, ColProcessName,
		ColRelativeCreated, ColStackInfo, ColThreadID, ColThreadName,
	}, schema.ColumnNames())

	levelName := schema.Columns()[schema.ColumnIndex(ColLevelName)]
	assert.Equal(t, ColumnString, levelName.Type)
	assert.Equal(t, MaxLevelNameLength, levelName.Length)
	assert.False(t, levelName.Nullable)
	assert.True(t, schema.Columns()[schema.ColumnIndex(ColExcInfo)].Nullable)
	assert.Equal(t, "smallint", schema.Columns()[schema.ColumnIndex(ColLevelNo)].Type.String())
}

func TestTableIdentityString(t *testing.T) {
	assert.Equal(t, "logs", TableIdentity{Name: "logs"}.String())
	assert.Equal(t, "audit.logs", TableIdentity{Namespace: "audit", Name: "logs"}.String())
}
