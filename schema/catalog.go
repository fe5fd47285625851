// Package schema is the catalog the parser binds names against: schemas,
// tables, sequences, function aliases, users and the rest, plus the per
// connection Session state.
package schema

import (
	"fmt"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/lex"
)

var _ = u.EMPTY

const (
	// MainSchema is created with every database and is the default schema
	MainSchema = "PUBLIC"
	// InformationSchema holds the read only system tables
	InformationSchema = "INFORMATION_SCHEMA"
	// DefaultUser owns the main schema
	DefaultUser = "SA"
)

var (
	// ErrNotFound is returned when removing an object that does not exist
	ErrNotFound = fmt.Errorf("not found")
)

// Catalog is what the parser needs from the database.  Lookups are point in
// time reads; a concurrent change may make a later lookup disagree with an
// earlier one.  Object names are matched exactly, case folding already
// happened in the lexer.
type Catalog interface {
	// ShortName is the database name used to qualify catalog.schema.table
	ShortName() string
	Mode() *lex.Mode
	Settings() *Settings

	FindSchema(name string) (*Schema, bool)
	// SchemaNames in name order
	SchemaNames() []string
	FindTable(schema, name string) (*Table, bool)
	FindSynonym(schema, name string) (*Synonym, bool)
	FindIndex(schema, name string) (*Index, bool)
	FindSequence(schema, name string) (*Sequence, bool)
	FindFunctionAlias(schema, name string) (*FunctionAlias, bool)
	FindConstant(schema, name string) (*Constant, bool)
	FindConstraint(schema, name string) (*Constraint, bool)
	FindTrigger(schema, name string) (*Trigger, bool)
	FindAggregate(name string) (*UserAggregate, bool)
	FindDomain(name string) (*Domain, bool)
	FindUser(name string) (*User, bool)
	FindRole(name string) (*Role, bool)
	// Tables of a schema in name order
	Tables(schema string) []*Table

	AddObject(obj Object) error
	RemoveObject(obj Object) error
	// LockMeta starts a multi step change that no other writer interleaves
	// with, it must be released with Unlock.
	LockMeta() MetaLock
}

// MetaLock is an exclusive hold on catalog changes.
type MetaLock interface {
	AddObject(obj Object) error
	RemoveObject(obj Object) error
	Unlock()
}
