package sqlbackend

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/relex/sqldb-logging/base"
	"github.com/samber/lo"

	_ "github.com/microsoft/go-mssqldb" // registers "sqlserver"
	_ "modernc.org/sqlite"              // registers "sqlite"
)

// Dialect translates the portable table schema into the SQL of a database
type Dialect interface {
	// DriverName is the database/sql driver name
	DriverName() string

	// DataSourceName builds the DSN from config
	DataSourceName(cfg *Config) string

	// DefaultPort is the server port if unspecified, or 0 for embedded databases
	DefaultPort() int

	// UsesFile tells whether the database is a local file instead of a server
	UsesFile() bool

	// CreateTableSQL returns the statements to create the table if it doesn't exist
	CreateTableSQL(table base.TableIdentity, schema base.TableSchema) []string

	// InsertSQL returns the parameterized statement to insert one row, with columns in schema order
	InsertSQL(table base.TableIdentity, schema base.TableSchema) string
}

var dialects = map[string]Dialect{
	"postgres":  postgresDialect{},
	"mysql":     mysqlDialect{},
	"sqlite":    sqliteDialect{},
	"sqlserver": sqlserverDialect{},
}

// LookupDialect finds the dialect by driver name
func LookupDialect(driver string) (Dialect, error) {
	if len(driver) == 0 {
		return nil, fmt.Errorf("driver is unspecified")
	}
	dialect, ok := dialects[driver]
	if !ok {
		names := lo.Keys(dialects)
		sort.Strings(names)
		return nil, fmt.Errorf("unsupported driver '%s', must be one of %s", driver, strings.Join(names, ", "))
	}
	return dialect, nil
}

// sqlTypes maps a column to its SQL type, without nullability
type sqlTypes func(col base.ColumnDef) string

func buildCreateTable(prefix string, qualifiedName string, schema base.TableSchema, quote func(string) string, types sqlTypes) string {
	columns := lo.Map(schema.Columns(), func(col base.ColumnDef, _ int) string {
		nullability := "NULL"
		if !col.Nullable {
			nullability = "NOT NULL"
		}
		return fmt.Sprintf("%s %s %s", quote(col.Name), types(col), nullability)
	})
	return fmt.Sprintf("%s %s (%s)", prefix, qualifiedName, strings.Join(columns, ", "))
}

func buildInsert(qualifiedName string, schema base.TableSchema, quote func(string) string, placeholder func(int) string) string {
	names := lo.Map(schema.ColumnNames(), func(name string, _ int) string { return quote(name) })
	params := make([]string, len(names))
	for i := range params {
		params[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", qualifiedName, strings.Join(names, ", "), strings.Join(params, ", "))
}

func qualify(table base.TableIdentity, quote func(string) string) string {
	if table.Namespace == "" {
		return quote(table.Name)
	}
	return quote(table.Namespace) + "." + quote(table.Name)
}

// postgresDialect works with github.com/lib/pq
type postgresDialect struct{}

func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) DefaultPort() int { return 5432 }

func (postgresDialect) UsesFile() bool { return false }

func (d postgresDialect) DataSourceName(cfg *Config) string {
	u := cfg.Connection.URL("postgres", d.DefaultPort())
	if cfg.Connection.ConnectTimeout > 0 {
		query := u.Query()
		query.Set("connect_timeout", strconv.Itoa(int(cfg.Connection.ConnectTimeout.Seconds())))
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (postgresDialect) CreateTableSQL(table base.TableIdentity, schema base.TableSchema) []string {
	return []string{
		buildCreateTable("CREATE TABLE IF NOT EXISTS", qualify(table, pq.QuoteIdentifier), schema, pq.QuoteIdentifier,
			func(col base.ColumnDef) string {
				switch col.Type {
				case base.ColumnTimestamp:
					return "TIMESTAMP WITHOUT TIME ZONE"
				case base.ColumnDouble:
					return "DOUBLE PRECISION"
				case base.ColumnString:
					return fmt.Sprintf("VARCHAR(%d)", col.Length)
				case base.ColumnSmallInt:
					return "SMALLINT"
				case base.ColumnInteger:
					return "INTEGER"
				case base.ColumnBigInt:
					return "BIGINT"
				default:
					return "TEXT"
				}
			}),
	}
}

func (postgresDialect) InsertSQL(table base.TableIdentity, schema base.TableSchema) string {
	return buildInsert(qualify(table, pq.QuoteIdentifier), schema, pq.QuoteIdentifier,
		func(i int) string { return "$" + strconv.Itoa(i) })
}

// mysqlDialect works with github.com/go-sql-driver/mysql
type mysqlDialect struct{}

func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) DefaultPort() int { return 3306 }

func (mysqlDialect) UsesFile() bool { return false }

func (d mysqlDialect) DataSourceName(cfg *Config) string {
	conf := mysql.NewConfig()
	conf.User = cfg.Connection.Username
	conf.Passwd = cfg.Connection.ExpandedPassword()
	conf.Net = "tcp"
	conf.Addr = cfg.Connection.HostPort(d.DefaultPort())
	conf.DBName = cfg.Connection.Database
	conf.ParseTime = true
	conf.Loc = time.Local // asctime is stored as local wall-clock time
	conf.Timeout = cfg.Connection.ConnectTimeout
	if len(cfg.Connection.Options) > 0 {
		conf.Params = make(map[string]string, len(cfg.Connection.Options))
		for k, v := range cfg.Connection.Options {
			conf.Params[k] = v
		}
	}
	return conf.FormatDSN()
}

func quoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) CreateTableSQL(table base.TableIdentity, schema base.TableSchema) []string {
	return []string{
		buildCreateTable("CREATE TABLE IF NOT EXISTS", qualify(table, quoteMySQL), schema, quoteMySQL,
			func(col base.ColumnDef) string {
				switch col.Type {
				case base.ColumnTimestamp:
					return "DATETIME(6)"
				case base.ColumnDouble:
					return "DOUBLE"
				case base.ColumnString:
					return fmt.Sprintf("VARCHAR(%d)", col.Length)
				case base.ColumnSmallInt:
					return "SMALLINT"
				case base.ColumnInteger:
					return "INTEGER"
				case base.ColumnBigInt:
					return "BIGINT"
				default:
					return "TEXT"
				}
			}),
	}
}

func (mysqlDialect) InsertSQL(table base.TableIdentity, schema base.TableSchema) string {
	return buildInsert(qualify(table, quoteMySQL), schema, quoteMySQL, func(int) string { return "?" })
}

// sqliteDialect works with modernc.org/sqlite
type sqliteDialect struct{}

func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) DefaultPort() int { return 0 }

func (sqliteDialect) UsesFile() bool { return true }

func (sqliteDialect) DataSourceName(cfg *Config) string {
	query := url.Values{}
	query.Add("_pragma", "busy_timeout(5000)")
	if cfg.CacheSize > 0 {
		// negative cache_size is in KiB
		query.Add("_pragma", fmt.Sprintf("cache_size(-%d)", uint64(cfg.CacheSize.KBytes())))
	}
	for k, v := range cfg.Connection.Options {
		query.Add(k, v)
	}
	return cfg.Path + "?" + query.Encode()
}

func quoteANSI(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) CreateTableSQL(table base.TableIdentity, schema base.TableSchema) []string {
	return []string{
		buildCreateTable("CREATE TABLE IF NOT EXISTS", qualify(table, quoteANSI), schema, quoteANSI,
			func(col base.ColumnDef) string {
				switch col.Type {
				case base.ColumnTimestamp:
					return "DATETIME"
				case base.ColumnDouble:
					return "DOUBLE"
				case base.ColumnString:
					return fmt.Sprintf("VARCHAR(%d)", col.Length)
				case base.ColumnSmallInt:
					return "SMALLINT"
				case base.ColumnInteger:
					return "INTEGER"
				case base.ColumnBigInt:
					return "BIGINT"
				default:
					return "TEXT"
				}
			}),
	}
}

func (sqliteDialect) InsertSQL(table base.TableIdentity, schema base.TableSchema) string {
	return buildInsert(qualify(table, quoteANSI), schema, quoteANSI, func(int) string { return "?" })
}

// sqlserverDialect works with github.com/microsoft/go-mssqldb
type sqlserverDialect struct{}

func (sqlserverDialect) DriverName() string { return "sqlserver" }

func (sqlserverDialect) DefaultPort() int { return 1433 }

func (sqlserverDialect) UsesFile() bool { return false }

func (d sqlserverDialect) DataSourceName(cfg *Config) string {
	u := cfg.Connection.URL("sqlserver", d.DefaultPort())
	u.Path = "" // path is the instance name for sqlserver
	query := u.Query()
	query.Set("database", cfg.Connection.Database)
	if cfg.Connection.ConnectTimeout > 0 {
		query.Set("dial timeout", strconv.Itoa(int(cfg.Connection.ConnectTimeout.Seconds())))
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func quoteSQLServer(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (sqlserverDialect) CreateTableSQL(table base.TableIdentity, schema base.TableSchema) []string {
	objectName := table.Name
	if table.Namespace != "" {
		objectName = table.Namespace + "." + table.Name
	}
	prefix := fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE", strings.ReplaceAll(objectName, "'", "''"))
	return []string{
		buildCreateTable(prefix, qualify(table, quoteSQLServer), schema, quoteSQLServer,
			func(col base.ColumnDef) string {
				switch col.Type {
				case base.ColumnTimestamp:
					return "DATETIME2"
				case base.ColumnDouble:
					return "FLOAT(53)"
				case base.ColumnString:
					return fmt.Sprintf("NVARCHAR(%d)", col.Length)
				case base.ColumnSmallInt:
					return "SMALLINT"
				case base.ColumnInteger:
					return "INT"
				case base.ColumnBigInt:
					return "BIGINT"
				default:
					return "NVARCHAR(MAX)"
				}
			}),
	}
}

func (sqlserverDialect) InsertSQL(table base.TableIdentity, schema base.TableSchema) string {
	return buildInsert(qualify(table, quoteSQLServer), schema, quoteSQLServer,
		func(i int) string { return "@p" + strconv.Itoa(i) })
}
