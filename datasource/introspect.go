package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	u "github.com/araddon/gou"
	_ "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
)

// Dialect reads table definitions out of one kind of database.
type Dialect interface {
	// Mode is the compatibility mode statements for this database use
	Mode() *lex.Mode
	// Columns of every user table, grouped by schema and table
	Columns(ctx context.Context, db *sqlx.DB, dsn string) ([]RemoteColumn, error)
}

// RemoteColumn is one column row as the database reports it.
type RemoteColumn struct {
	Schema   string `db:"table_schema"`
	Table    string `db:"table_name"`
	Column   string `db:"column_name"`
	Type     string `db:"data_type"`
	Nullable bool   `db:"is_nullable"`
	Primary  bool   `db:"is_primary"`
	Default  string `db:"column_default"`
}

var (
	dialectsMu sync.Mutex
	dialects   = make(map[string]Dialect)
)

func init() {
	RegisterDialect("sqlite3", &sqliteDialect{})
	RegisterDialect("mysql", &mysqlDialect{})
	RegisterDialect("postgres", &postgresDialect{})
	ms := &mssqlDialect{}
	RegisterDialect("sqlserver", ms)
	RegisterDialect("mssql", ms)
}

// RegisterDialect makes a dialect available under a database/sql driver
// name, registering a name twice panics.
func RegisterDialect(driver string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	if _, dupe := dialects[driver]; dupe {
		panic("datasource: RegisterDialect called twice for " + driver)
	}
	dialects[driver] = d
}

// DialectFor finds the dialect of a driver name.
func DialectFor(driver string) (Dialect, bool) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	d, ok := dialects[driver]
	return d, ok
}

// Drivers lists the registered driver names.
func Drivers() []string {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Introspect connects to "driver:dsn" and builds a catalog of its tables.
//
//	sqlite3:/tmp/shop.db
//	mysql:root@tcp(localhost:3306)/shop
//	postgres:postgres://localhost/shop?sslmode=disable
func Introspect(ctx context.Context, source string) (*schema.Database, error) {
	parts := strings.SplitN(source, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("expected driver:dsn but got %q", source)
	}
	driver, dsn := parts[0], parts[1]
	dialect, ok := DialectFor(driver)
	if !ok {
		return nil, fmt.Errorf("unknown driver %q, have %v", driver, Drivers())
	}
	sqlDriver := driver
	if driver == "mssql" {
		sqlDriver = "sqlserver"
	}
	db, err := sqlx.ConnectContext(ctx, sqlDriver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", driver)
	}
	defer db.Close()
	return IntrospectDB(ctx, db, dialect, dsn, driver)
}

// IntrospectDB builds a catalog called @name from an open connection.
func IntrospectDB(ctx context.Context, db *sqlx.DB, dialect Dialect, dsn, name string) (*schema.Database, error) {
	rows, err := dialect.Columns(ctx, db, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "could not read columns")
	}
	cat, err := schema.NewDatabase(name, dialect.Mode(), nil)
	if err != nil {
		return nil, err
	}
	if err := addRemoteColumns(cat, rows); err != nil {
		return nil, err
	}
	u.Infof("introspected %d columns into catalog %s", len(rows), cat.ShortName())
	return cat, nil
}

// addRemoteColumns groups column rows into tables.  Default schemas of the
// remote database land in PUBLIC.
func addRemoteColumns(cat *schema.Database, rows []RemoteColumn) error {
	type key struct{ schema, table string }
	var order []key
	tables := make(map[key]*schema.Table)
	pks := make(map[key][]string)
	for _, rc := range rows {
		k := key{remoteSchema(rc.Schema), strings.ToUpper(rc.Table)}
		t, ok := tables[k]
		if !ok {
			t = schema.NewTable(k.schema, k.table)
			tables[k] = t
			order = append(order, k)
		}
		c := schema.NewColumn(strings.ToUpper(rc.Column), columnType(rc.Type))
		c.Nullable = rc.Nullable && !rc.Primary
		c.Default = rc.Default
		c.PrimaryKey = rc.Primary
		t.AddColumn(c)
		if rc.Primary {
			pks[k] = append(pks[k], c.Name)
		}
	}
	for _, k := range order {
		if _, ok := cat.FindSchema(k.schema); !ok {
			if err := cat.AddObject(schema.NewSchema(k.schema, schema.DefaultUser)); err != nil {
				return err
			}
		}
		if err := cat.AddObject(tables[k]); err != nil {
			return errors.Wrapf(err, "could not add table %s.%s", k.schema, k.table)
		}
		if cols := pks[k]; len(cols) > 0 {
			pk := schema.NewConstraint(k.schema, "PK_"+k.table, k.table, schema.ConstraintPrimaryKey)
			pk.Columns = cols
			if err := cat.AddObject(pk); err != nil {
				return err
			}
		}
	}
	return nil
}

func modeNamed(name string) *lex.Mode {
	mode, err := lex.ModeByName(name)
	if err != nil {
		panic(err)
	}
	return mode
}

func remoteSchema(name string) string {
	switch strings.ToLower(name) {
	case "", "main", "public", "dbo":
		return schema.MainSchema
	}
	return strings.ToUpper(name)
}

type sqliteDialect struct{}

type sqliteColumn struct {
	CID     int     `db:"cid"`
	Name    string  `db:"name"`
	Type    string  `db:"type"`
	NotNull bool    `db:"notnull"`
	Default *string `db:"dflt_value"`
	PK      int     `db:"pk"`
}

func (m *sqliteDialect) Mode() *lex.Mode { return lex.RegularMode }

func (m *sqliteDialect) Columns(ctx context.Context, db *sqlx.DB, _ string) ([]RemoteColumn, error) {
	var names []string
	err := db.SelectContext(ctx, &names,
		`select tbl_name from sqlite_master where type = 'table' and tbl_name not like 'sqlite_%' order by tbl_name`)
	if err != nil {
		return nil, err
	}
	var out []RemoteColumn
	for _, table := range names {
		var cols []sqliteColumn
		// pragma arguments can not be bound
		q := fmt.Sprintf("pragma table_info(%s)", quoteSqlite(table))
		if err := db.SelectContext(ctx, &cols, q); err != nil {
			return nil, errors.Wrapf(err, "table_info %s", table)
		}
		for _, c := range cols {
			rc := RemoteColumn{
				Table:    table,
				Column:   c.Name,
				Type:     c.Type,
				Nullable: !c.NotNull,
				Primary:  c.PK > 0,
			}
			if c.Default != nil {
				rc.Default = *c.Default
			}
			out = append(out, rc)
		}
	}
	return out, nil
}

func quoteSqlite(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

type mysqlDialect struct{}

func (m *mysqlDialect) Mode() *lex.Mode { return modeNamed("MySQL") }

func (m *mysqlDialect) Columns(ctx context.Context, db *sqlx.DB, dsn string) ([]RemoteColumn, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("mysql dsn names no database")
	}
	var out []RemoteColumn
	err = db.SelectContext(ctx, &out, `
		select '' as table_schema, table_name, column_name, column_type as data_type,
			is_nullable = 'YES' as is_nullable, column_key = 'PRI' as is_primary,
			coalesce(column_default, '') as column_default
		from information_schema.columns
		where table_schema = ?
		order by table_name, ordinal_position`, cfg.DBName)
	return out, err
}

type postgresDialect struct{}

func (m *postgresDialect) Mode() *lex.Mode { return modeNamed("PostgreSQL") }

func (m *postgresDialect) Columns(ctx context.Context, db *sqlx.DB, _ string) ([]RemoteColumn, error) {
	var out []RemoteColumn
	err := db.SelectContext(ctx, &out, `
		select c.table_schema, c.table_name, c.column_name,
			case when c.character_maximum_length is not null
				then c.data_type || '(' || c.character_maximum_length || ')'
				when c.data_type = 'numeric' and c.numeric_precision is not null
				then 'numeric(' || c.numeric_precision || ',' || coalesce(c.numeric_scale, 0) || ')'
				else c.data_type end as data_type,
			c.is_nullable = 'YES' as is_nullable,
			exists (
				select 1 from information_schema.table_constraints tc
				join information_schema.key_column_usage k
					on k.constraint_name = tc.constraint_name and k.table_schema = tc.table_schema
				where tc.constraint_type = 'PRIMARY KEY' and tc.table_schema = c.table_schema
					and tc.table_name = c.table_name and k.column_name = c.column_name
			) as is_primary,
			coalesce(c.column_default, '') as column_default
		from information_schema.columns c
		join information_schema.tables t
			on t.table_schema = c.table_schema and t.table_name = c.table_name
		where t.table_type = 'BASE TABLE'
			and c.table_schema not in ('pg_catalog', 'information_schema')
		order by c.table_schema, c.table_name, c.ordinal_position`)
	return out, err
}

type mssqlDialect struct{}

func (m *mssqlDialect) Mode() *lex.Mode { return modeNamed("MSSQLServer") }

func (m *mssqlDialect) Columns(ctx context.Context, db *sqlx.DB, _ string) ([]RemoteColumn, error) {
	var out []RemoteColumn
	err := db.SelectContext(ctx, &out, `
		select c.TABLE_SCHEMA as table_schema, c.TABLE_NAME as table_name, c.COLUMN_NAME as column_name,
			case when c.CHARACTER_MAXIMUM_LENGTH = -1 then c.DATA_TYPE + '(MAX)'
				when c.CHARACTER_MAXIMUM_LENGTH is not null
				then c.DATA_TYPE + '(' + cast(c.CHARACTER_MAXIMUM_LENGTH as varchar(10)) + ')'
				else c.DATA_TYPE end as data_type,
			cast(case when c.IS_NULLABLE = 'YES' then 1 else 0 end as bit) as is_nullable,
			cast(case when k.COLUMN_NAME is null then 0 else 1 end as bit) as is_primary,
			coalesce(c.COLUMN_DEFAULT, '') as column_default
		from INFORMATION_SCHEMA.COLUMNS c
		join INFORMATION_SCHEMA.TABLES t
			on t.TABLE_SCHEMA = c.TABLE_SCHEMA and t.TABLE_NAME = c.TABLE_NAME
		left join (
			select ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
			from INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			join INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku on ku.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
			where tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		) k on k.TABLE_SCHEMA = c.TABLE_SCHEMA and k.TABLE_NAME = c.TABLE_NAME and k.COLUMN_NAME = c.COLUMN_NAME
		where t.TABLE_TYPE = 'BASE TABLE'
		order by c.TABLE_SCHEMA, c.TABLE_NAME, c.ORDINAL_POSITION`)
	return out, err
}
