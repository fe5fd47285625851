package lex

import (
	"sort"
	"strings"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/sqlerr"
)

var _ = u.EMPTY

// ModeEnum identifies the vendor a Mode emulates.
type ModeEnum uint8

const (
	// DO NOT CHANGE the numbers
	ModeRegular     ModeEnum = 0
	ModeDB2         ModeEnum = 1
	ModeDerby       ModeEnum = 2
	ModeHSQLDB      ModeEnum = 3
	ModeMSSQLServer ModeEnum = 4
	ModeMySQL       ModeEnum = 5
	ModeOracle      ModeEnum = 6
	ModePostgreSQL  ModeEnum = 7
	ModeIgnite      ModeEnum = 8
)

// Mode is a named bundle of compatibility toggles, the grammar consults the
// active Mode instead of having per-vendor code paths.
type Mode struct {
	Name string
	Enum ModeEnum

	// AliasColumnName makes "SELECT a AS b" report b as the column name
	AliasColumnName bool
	// IndexDefinitionInCreateTable allows INDEX/KEY inside CREATE TABLE
	IndexDefinitionInCreateTable bool
	// SquareBracketQuotedNames reads [name] as a quoted identifier
	SquareBracketQuotedNames bool
	// SupportPoundSymbolForColumnNames allows # inside identifiers
	SupportPoundSymbolForColumnNames bool
	// SerialColumnIsNotPK keeps SERIAL / IDENTITY columns from becoming the primary key
	SerialColumnIsNotPK bool
	// ProhibitEmptyInPredicate rejects "x IN ()"
	ProhibitEmptyInPredicate bool
	// AllowAffinityKey accepts AFFINITY KEY / SHARD KEY constraints
	AllowAffinityKey bool
	// OnDuplicateKeyUpdate enables INSERT IGNORE and ON DUPLICATE KEY UPDATE
	OnDuplicateKeyUpdate bool
	// IsolationLevelInSelectOrInsertStatement accepts WITH RR/RS/CS/UR suffixes
	IsolationLevelInSelectOrInsertStatement bool
	// SysDummy1 makes SYSIBM.SYSDUMMY1 a dual table
	SysDummy1 bool
	// SwapConvertFunctionParameters reads CONVERT(type, value)
	SwapConvertFunctionParameters bool
	// TreatEmptyStringsAsNull folds '' to NULL
	TreatEmptyStringsAsNull bool
	// DisallowedTypes are data type names rejected in column definitions
	DisallowedTypes map[string]bool
}

var (
	modes = make(map[string]*Mode)

	// RegularMode is the default, native grammar
	RegularMode = registerMode(&Mode{Name: "REGULAR", Enum: ModeRegular})
)

func init() {
	registerMode(&Mode{
		Name:                                    "DB2",
		Enum:                                    ModeDB2,
		AliasColumnName:                         true,
		ProhibitEmptyInPredicate:                true,
		IsolationLevelInSelectOrInsertStatement: true,
		SysDummy1:                               true,
	})
	registerMode(&Mode{
		Name:                     "Derby",
		Enum:                     ModeDerby,
		AliasColumnName:          true,
		ProhibitEmptyInPredicate: true,
		SysDummy1:                true,
	})
	registerMode(&Mode{
		Name:            "HSQLDB",
		Enum:            ModeHSQLDB,
		AliasColumnName: true,
	})
	registerMode(&Mode{
		Name:                             "MSSQLServer",
		Enum:                             ModeMSSQLServer,
		AliasColumnName:                  true,
		SquareBracketQuotedNames:         true,
		SupportPoundSymbolForColumnNames: true,
		ProhibitEmptyInPredicate:         true,
		SwapConvertFunctionParameters:    true,
	})
	registerMode(&Mode{
		Name:                         "MySQL",
		Enum:                         ModeMySQL,
		IndexDefinitionInCreateTable: true,
		ProhibitEmptyInPredicate:     true,
		OnDuplicateKeyUpdate:         true,
	})
	registerMode(&Mode{
		Name:                     "Oracle",
		Enum:                     ModeOracle,
		AliasColumnName:          true,
		ProhibitEmptyInPredicate: true,
		TreatEmptyStringsAsNull:  true,
	})
	registerMode(&Mode{
		Name:                     "PostgreSQL",
		Enum:                     ModePostgreSQL,
		AliasColumnName:          true,
		SerialColumnIsNotPK:      true,
		ProhibitEmptyInPredicate: true,
		DisallowedTypes: map[string]bool{
			"NUMBER":   true,
			"IDENTITY": true,
			"TINYINT":  true,
			"BLOB":     true,
		},
	})
	registerMode(&Mode{
		Name:             "Ignite",
		Enum:             ModeIgnite,
		AllowAffinityKey: true,
	})
}

func registerMode(m *Mode) *Mode {
	modes[strings.ToUpper(m.Name)] = m
	return m
}

// ModeByName finds a mode case-insensitively.
func ModeByName(name string) (*Mode, error) {
	if m, ok := modes[strings.ToUpper(name)]; ok {
		return m, nil
	}
	return nil, sqlerr.New(sqlerr.UnknownMode, name)
}

// ModeNames lists the registered modes sorted by name.
func ModeNames() []string {
	names := make([]string, 0, len(modes))
	for _, m := range modes {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// Is reports whether the mode emulates @e.
func (m *Mode) Is(e ModeEnum) bool {
	return m != nil && m.Enum == e
}

// TypeAllowed is false for data type names this mode rejects.
func (m *Mode) TypeAllowed(name string) bool {
	return m == nil || !m.DisallowedTypes[strings.ToUpper(name)]
}

func (m *Mode) String() string {
	if m == nil {
		return "REGULAR"
	}
	return m.Name
}
