package base

import (
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// ColumnType is the portable type of a table column, translated to SQL types by each backend
type ColumnType int

// Column types used by the log table
const (
	ColumnTimestamp ColumnType = iota // calendar date-time
	ColumnDouble                      // 64-bit float
	ColumnText                        // unbounded text
	ColumnString                      // bounded text, see ColumnDef.Length
	ColumnSmallInt                    // 16-bit integer
	ColumnInteger                     // 32-bit integer
	ColumnBigInt                      // 64-bit integer
)

func (typ ColumnType) String() string {
	switch typ {
	case ColumnTimestamp:
		return "timestamp"
	case ColumnDouble:
		return "double"
	case ColumnText:
		return "text"
	case ColumnString:
		return "string"
	case ColumnSmallInt:
		return "smallint"
	case ColumnInteger:
		return "integer"
	case ColumnBigInt:
		return "bigint"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(typ))
	}
}

// ColumnDef defines one column of a table
type ColumnDef struct {
	Name     string
	Type     ColumnType
	Length   int // max length for ColumnString
	Nullable bool
}

// TableSchema is an ordered list of columns. It's created once and never altered.
type TableSchema struct {
	columns []ColumnDef
}

// TableIdentity names a table, optionally qualified by a namespace (database schema)
type TableIdentity struct {
	Namespace string
	Name      string
}

func (table TableIdentity) String() string {
	if table.Namespace == "" {
		return table.Name
	}
	return table.Namespace + "." + table.Name
}

// Row is the relational form of one LogRecord: column name to typed value, nil for NULL
type Row map[string]interface{}

// Log table column names
const (
	ColAsctime         = "asctime"
	ColCreated         = "created"
	ColExcInfo         = "exc_info"
	ColFilename        = "filename"
	ColFuncName        = "func_name"
	ColLevelName       = "levelname"
	ColLevelNo         = "levelno"
	ColLineNo          = "lineno"
	ColMessage         = "message"
	ColModuleName      = "module_name"
	ColMsecs           = "msecs"
	ColLoggerName      = "logger_name"
	ColPathName        = "pathname"
	ColProcessID       = "process_id"
	ColProcessName     = "process_name"
	ColRelativeCreated = "relative_created"
	ColStackInfo       = "stack_info"
	ColThreadID        = "thread_id"
	ColThreadName      = "thread_name"
)

// MaxLevelNameLength is the length of the levelname column
const MaxLevelNameLength = 8

var logTableSchema = MustNewTableSchema([]ColumnDef{
	{Name: ColAsctime, Type: ColumnTimestamp},
	{Name: ColCreated, Type: ColumnDouble},
	{Name: ColExcInfo, Type: ColumnText, Nullable: true},
	{Name: ColFilename, Type: ColumnText, Nullable: true},
	{Name: ColFuncName, Type: ColumnText, Nullable: true},
	{Name: ColLevelName, Type: ColumnString, Length: MaxLevelNameLength},
	{Name: ColLevelNo, Type: ColumnSmallInt},
	{Name: ColLineNo, Type: ColumnInteger, Nullable: true},
	{Name: ColMessage, Type: ColumnText},
	{Name: ColModuleName, Type: ColumnText, Nullable: true},
	{Name: ColMsecs, Type: ColumnDouble},
	{Name: ColLoggerName, Type: ColumnText},
	{Name: ColPathName, Type: ColumnText, Nullable: true},
	{Name: ColProcessID, Type: ColumnBigInt, Nullable: true},
	{Name: ColProcessName, Type: ColumnText, Nullable: true},
	{Name: ColRelativeCreated, Type: ColumnDouble},
	{Name: ColStackInfo, Type: ColumnText, Nullable: true},
	{Name: ColThreadID, Type: ColumnBigInt, Nullable: true},
	{Name: ColThreadName, Type: ColumnText, Nullable: true},
})

// LogTableSchema returns the schema of the log table
func LogTableSchema() TableSchema {
	return logTableSchema
}

// MustNewTableSchema creates a new TableSchema or panic
func MustNewTableSchema(columns []ColumnDef) TableSchema {
	schema, err := NewTableSchema(columns)
	if err != nil {
		panic(fmt.Sprintf("failed to create schema: %s", err.Error()))
	}
	return schema
}

// NewTableSchema creates a new TableSchema after validating column definitions
func NewTableSchema(columns []ColumnDef) (TableSchema, error) {
	if len(columns) == 0 {
		return TableSchema{}, fmt.Errorf("no column defined")
	}
	m := make(map[string]bool, len(columns)*2)
	for i, col := range columns {
		if len(col.Name) == 0 {
			return TableSchema{}, fmt.Errorf("invalid %dth column '%s'", i, col.Name)
		}
		if _, exists := m[col.Name]; exists {
			return TableSchema{}, fmt.Errorf("duplicated %dth column '%s'", i, col.Name)
		}
		if col.Type == ColumnString && col.Length <= 0 {
			return TableSchema{}, fmt.Errorf("%dth column '%s' requires a length", i, col.Name)
		}
		m[col.Name] = true
	}
	return TableSchema{columns: append([]ColumnDef(nil), columns...)}, nil
}

// Columns returns all the column definitions in order
func (s TableSchema) Columns() []ColumnDef {
	return s.columns
}

// ColumnNames returns all the column names in order
func (s TableSchema) ColumnNames() []string {
	return lo.Map(s.columns, func(col ColumnDef, _ int) string { return col.Name })
}

// ColumnIndex returns the position of the named column, or -1
func (s TableSchema) ColumnIndex(name string) int {
	return slices.IndexFunc(s.columns, func(col ColumnDef) bool { return col.Name == name })
}

// Values returns the row values in column order; missing columns are nil
func (s TableSchema) Values(row Row) []interface{} {
	values := make([]interface{}, len(s.columns))
	for i, col := range s.columns {
		values[i] = row[col.Name]
	}
	return values
}

// VerifyRow checks that the row has no unknown column and no NULL in a non-nullable column
func (s TableSchema) VerifyRow(row Row) error {
	for name := range row {
		if s.ColumnIndex(name) == -1 {
			return fmt.Errorf("column '%s' is not defined in schema", name)
		}
	}
	for _, col := range s.columns {
		if !col.Nullable && row[col.Name] == nil {
			return fmt.Errorf("column '%s' cannot be null", col.Name)
		}
	}
	return nil
}
