// Package datasource loads catalogs for the parser to bind against: YAML
// catalog files and live databases read through database/sql.
package datasource

import (
	"fmt"
	"io/ioutil"
	"math"
	"math/big"
	"strings"

	u "github.com/araddon/gou"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/value"
)

var _ = u.EMPTY

// DefaultCatalogName is the database short name of a catalog file that
// names none.
const DefaultCatalogName = "QLFRONT"

type (
	// CatalogFile is the YAML form of a catalog.
	//
	//	name: shop
	//	mode: MySQL
	//	schemas:
	//	  - name: PUBLIC
	//	    tables:
	//	      - name: ORDERS
	//	        primary_key: [ID]
	//	        columns:
	//	          - {name: ID, type: BIGINT, not_null: true}
	//	          - {name: TOTAL, type: "DECIMAL(10,2)"}
	CatalogFile struct {
		Name       string          `yaml:"name"`
		Mode       string          `yaml:"mode"`
		Settings   *SettingsFile   `yaml:"settings"`
		Schemas    []SchemaFile    `yaml:"schemas"`
		Domains    []DomainFile    `yaml:"domains"`
		Aggregates []AggregateFile `yaml:"aggregates"`
		Users      []UserFile      `yaml:"users"`
		Roles      []string        `yaml:"roles"`
	}

	// SettingsFile overrides the database settings, unset fields keep
	// their defaults.
	SettingsFile struct {
		DatabaseToUpper      *bool  `yaml:"database_to_upper"`
		IgnoreCase           bool   `yaml:"ignorecase"`
		RowID                bool   `yaml:"rowid"`
		BuiltinAliasOverride bool   `yaml:"builtin_alias_override"`
		AliasColumnName      bool   `yaml:"alias_column_name"`
		DefaultTableType     string `yaml:"default_table_type"`
		DropRestrict         *bool  `yaml:"drop_restrict"`
		AllowLiterals        string `yaml:"allow_literals"`
	}

	SchemaFile struct {
		Name      string         `yaml:"name"`
		Owner     string         `yaml:"owner"`
		Tables    []TableFile    `yaml:"tables"`
		Views     []ViewFile     `yaml:"views"`
		Sequences []string       `yaml:"sequences"`
		Aliases   []AliasFile    `yaml:"aliases"`
		Constants []ConstantFile `yaml:"constants"`
		Synonyms  []SynonymFile  `yaml:"synonyms"`
		Indexes   []IndexFile    `yaml:"indexes"`
	}

	TableFile struct {
		Name       string       `yaml:"name"`
		Columns    []ColumnFile `yaml:"columns"`
		PrimaryKey []string     `yaml:"primary_key"`
		Comment    string       `yaml:"comment"`
	}

	ColumnFile struct {
		Name          string `yaml:"name"`
		Type          string `yaml:"type"`
		NotNull       bool   `yaml:"not_null"`
		Default       string `yaml:"default"`
		AutoIncrement bool   `yaml:"auto_increment"`
		Comment       string `yaml:"comment"`
	}

	// ViewFile is a view, its columns are declared since the body is
	// not parsed when loading.
	ViewFile struct {
		Name    string       `yaml:"name"`
		Query   string       `yaml:"query"`
		Columns []ColumnFile `yaml:"columns"`
	}

	AliasFile struct {
		Name          string `yaml:"name"`
		Class         string `yaml:"class"`
		Method        string `yaml:"method"`
		Source        string `yaml:"source"`
		Deterministic bool   `yaml:"deterministic"`
		Params        []int  `yaml:"params"`
	}

	ConstantFile struct {
		Name  string      `yaml:"name"`
		Value interface{} `yaml:"value"`
	}

	SynonymFile struct {
		Name   string `yaml:"name"`
		Schema string `yaml:"schema"`
		Table  string `yaml:"table"`
	}

	IndexFile struct {
		Name    string   `yaml:"name"`
		Table   string   `yaml:"table"`
		Columns []string `yaml:"columns"`
		Unique  bool     `yaml:"unique"`
	}

	DomainFile struct {
		Name    string `yaml:"name"`
		Type    string `yaml:"type"`
		NotNull bool   `yaml:"not_null"`
	}

	AggregateFile struct {
		Name  string `yaml:"name"`
		Class string `yaml:"class"`
	}

	UserFile struct {
		Name  string `yaml:"name"`
		Admin bool   `yaml:"admin"`
	}
)

// LoadCatalogFile reads a YAML catalog file.
func LoadCatalogFile(path string) (*schema.Database, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read catalog %s", path)
	}
	db, err := LoadCatalog(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return db, nil
}

// LoadCatalog builds a catalog from its YAML form, unknown keys are an
// error.
func LoadCatalog(data []byte) (*schema.Database, error) {
	var cf CatalogFile
	if err := yaml.UnmarshalStrict(data, &cf); err != nil {
		return nil, errors.Wrap(err, "invalid catalog yaml")
	}
	return cf.Build()
}

func (m *SettingsFile) apply(s *schema.Settings) error {
	if m.DatabaseToUpper != nil {
		s.IdentifiersToUpper = *m.DatabaseToUpper
	}
	if m.DropRestrict != nil {
		s.DropRestrict = *m.DropRestrict
	}
	s.IgnoreCase = m.IgnoreCase
	s.RowID = m.RowID
	s.AllowBuiltinAliasOverride = m.BuiltinAliasOverride
	s.AliasColumnName = m.AliasColumnName
	switch strings.ToUpper(m.DefaultTableType) {
	case "":
	case "MEMORY":
		s.DefaultTableType = schema.TableStorageMemory
	case "CACHED":
		s.DefaultTableType = schema.TableStorageCached
	default:
		return fmt.Errorf("unknown default_table_type %q", m.DefaultTableType)
	}
	switch strings.ToUpper(m.AllowLiterals) {
	case "":
	case "ALL":
		s.AllowLiterals = lex.AllowLiteralsAll
	case "NUMBERS":
		s.AllowLiterals = lex.AllowLiteralsNumbers
	case "NONE":
		s.AllowLiterals = lex.AllowLiteralsNone
	default:
		return fmt.Errorf("unknown allow_literals %q", m.AllowLiterals)
	}
	return nil
}

// Build creates the database the file describes.
func (m *CatalogFile) Build() (*schema.Database, error) {
	mode := lex.RegularMode
	if m.Mode != "" {
		var err error
		if mode, err = lex.ModeByName(m.Mode); err != nil {
			return nil, err
		}
	}
	settings := schema.DefaultSettings()
	if m.Settings != nil {
		if err := m.Settings.apply(settings); err != nil {
			return nil, err
		}
	}
	name := m.Name
	if name == "" {
		name = DefaultCatalogName
	}
	db, err := schema.NewDatabase(name, mode, settings)
	if err != nil {
		return nil, err
	}
	if settings.IdentifiersToUpper {
		m.upper()
	}
	var objs []schema.Object
	for _, uf := range m.Users {
		if uf.Name == schema.DefaultUser {
			continue
		}
		objs = append(objs, schema.NewUser(uf.Name, uf.Admin))
	}
	for _, r := range m.Roles {
		objs = append(objs, schema.NewRole(r))
	}
	for _, df := range m.Domains {
		col, err := df.column()
		if err != nil {
			return nil, err
		}
		objs = append(objs, schema.NewDomain(df.Name, col))
	}
	for _, af := range m.Aggregates {
		objs = append(objs, schema.NewUserAggregate(af.Name, af.Class))
	}
	for i := range m.Schemas {
		so, err := m.Schemas[i].objects(db)
		if err != nil {
			return nil, err
		}
		objs = append(objs, so...)
	}
	for _, obj := range objs {
		if err := db.AddObject(obj); err != nil {
			return nil, errors.Wrapf(err, "could not add %s %s", obj.ObjectType(), obj.Meta().Name)
		}
	}
	u.Debugf("catalog %s loaded with %d objects", db.ShortName(), len(objs))
	return db, nil
}

// upper folds every object and column name the way the parser folds
// unquoted identifiers.
func (m *CatalogFile) upper() {
	up := strings.ToUpper
	ups := func(names []string) {
		for i := range names {
			names[i] = up(names[i])
		}
	}
	upc := func(cols []ColumnFile) {
		for i := range cols {
			cols[i].Name = up(cols[i].Name)
		}
	}
	for i := range m.Users {
		m.Users[i].Name = up(m.Users[i].Name)
	}
	ups(m.Roles)
	for i := range m.Domains {
		m.Domains[i].Name = up(m.Domains[i].Name)
	}
	for i := range m.Aggregates {
		m.Aggregates[i].Name = up(m.Aggregates[i].Name)
	}
	for i := range m.Schemas {
		sf := &m.Schemas[i]
		sf.Name = up(sf.Name)
		sf.Owner = up(sf.Owner)
		for j := range sf.Tables {
			sf.Tables[j].Name = up(sf.Tables[j].Name)
			upc(sf.Tables[j].Columns)
			ups(sf.Tables[j].PrimaryKey)
		}
		for j := range sf.Views {
			sf.Views[j].Name = up(sf.Views[j].Name)
			upc(sf.Views[j].Columns)
		}
		ups(sf.Sequences)
		for j := range sf.Aliases {
			sf.Aliases[j].Name = up(sf.Aliases[j].Name)
		}
		for j := range sf.Constants {
			sf.Constants[j].Name = up(sf.Constants[j].Name)
		}
		for j := range sf.Synonyms {
			syn := &sf.Synonyms[j]
			syn.Name, syn.Schema, syn.Table = up(syn.Name), up(syn.Schema), up(syn.Table)
		}
		for j := range sf.Indexes {
			xf := &sf.Indexes[j]
			xf.Name, xf.Table = up(xf.Name), up(xf.Table)
			ups(xf.Columns)
		}
	}
}

func (m *DomainFile) column() (*schema.Column, error) {
	cf := ColumnFile{Name: "VALUE", Type: m.Type, NotNull: m.NotNull}
	return cf.column()
}

func (m *ColumnFile) column() (*schema.Column, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("column without name")
	}
	ti, err := ParseColumnType(m.Type)
	if err != nil {
		return nil, errors.Wrapf(err, "column %s", m.Name)
	}
	c := schema.NewColumn(m.Name, ti)
	c.Nullable = !m.NotNull
	c.Default = m.Default
	c.AutoIncrement = m.AutoIncrement
	c.Comment = m.Comment
	return c, nil
}

func columns(cfs []ColumnFile) ([]*schema.Column, error) {
	cols := make([]*schema.Column, 0, len(cfs))
	for i := range cfs {
		c, err := cfs[i].column()
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// objects of one schema, the schema itself first unless the database
// already has it.
func (m *SchemaFile) objects(db *schema.Database) ([]schema.Object, error) {
	name := m.Name
	if name == "" {
		name = schema.MainSchema
	}
	var objs []schema.Object
	if _, ok := db.FindSchema(name); !ok {
		owner := m.Owner
		if owner == "" {
			owner = schema.DefaultUser
		}
		objs = append(objs, schema.NewSchema(name, owner))
	}
	for _, tf := range m.Tables {
		cols, err := columns(tf.Columns)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s", tf.Name)
		}
		t := schema.NewTable(name, tf.Name, cols...)
		t.Comment = tf.Comment
		for _, pk := range tf.PrimaryKey {
			c, ok := t.Column(pk)
			if !ok {
				return nil, fmt.Errorf("table %s: primary key column %s not found", tf.Name, pk)
			}
			c.PrimaryKey = true
			c.Nullable = false
		}
		objs = append(objs, t)
		if len(tf.PrimaryKey) > 0 {
			pk := schema.NewConstraint(name, "PK_"+tf.Name, tf.Name, schema.ConstraintPrimaryKey)
			pk.Columns = tf.PrimaryKey
			objs = append(objs, pk)
		}
	}
	for _, vf := range m.Views {
		cols, err := columns(vf.Columns)
		if err != nil {
			return nil, errors.Wrapf(err, "view %s", vf.Name)
		}
		objs = append(objs, schema.NewView(name, vf.Name, vf.Query, cols...))
	}
	for _, seq := range m.Sequences {
		objs = append(objs, schema.NewSequence(name, seq))
	}
	for _, af := range m.Aliases {
		fa := schema.NewFunctionAlias(name, af.Name)
		fa.Class = af.Class
		fa.Method = af.Method
		fa.Source = af.Source
		fa.Deterministic = af.Deterministic
		fa.ParamCounts = af.Params
		objs = append(objs, fa)
	}
	for _, cf := range m.Constants {
		v, err := constantValue(cf.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "constant %s", cf.Name)
		}
		objs = append(objs, schema.NewConstant(name, cf.Name, v))
	}
	for _, sf := range m.Synonyms {
		target := sf.Schema
		if target == "" {
			target = name
		}
		objs = append(objs, schema.NewSynonym(name, sf.Name, target, sf.Table))
	}
	for _, xf := range m.Indexes {
		idx := schema.NewIndex(name, xf.Name, xf.Table, xf.Columns...)
		idx.Unique = xf.Unique
		objs = append(objs, idx)
	}
	return objs, nil
}

// constantValue maps a decoded YAML scalar onto a value.
func constantValue(v interface{}) (value.Value, error) {
	switch n := v.(type) {
	case nil:
		return value.NewNilValue(), nil
	case bool:
		return value.NewBoolValue(n), nil
	case int:
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return value.NewIntValue(int32(n)), nil
		}
		return value.NewLongValue(int64(n)), nil
	case int64:
		return value.NewLongValue(n), nil
	case uint64:
		return value.NewDecimalValue(decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)), nil
	case float64:
		return value.NewDecimalValue(decimal.NewFromFloat(n)), nil
	case string:
		return value.NewStringValue(n), nil
	}
	return nil, fmt.Errorf("unsupported constant %T", v)
}
