// Test only package for shared logging setup and the fixture catalog
package testutil

import (
	"flag"
	"log"
	"os"
	"sync"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/value"
)

var (
	verbose   *bool
	setupOnce = sync.Once{}
)

// Setup enables -vv verbose logging or sends logs to /dev/null
// env var VERBOSELOGS=true was added to support verbose logging with alltests
func Setup() {
	setupOnce.Do(func() {

		if flag.CommandLine.Lookup("vv") == nil {
			verbose = flag.Bool("vv", false, "Verbose Logging?")
		}

		flag.Parse()
		logger := u.GetLogger()
		if logger != nil {
			// don't re-setup
		} else {
			if (verbose != nil && *verbose == true) || os.Getenv("VERBOSELOGS") != "" {
				u.SetupLogging("debug")
				u.SetColorOutput()
			} else {
				// make sure logging is always non-nil
				dn, _ := os.Open(os.DevNull)
				u.SetLogger(log.New(dn, "", 0), "error")
			}
		}
	})
}

// Verbose is true when -vv or VERBOSELOGS asked for debug output.
func Verbose() bool {
	return (verbose != nil && *verbose) || os.Getenv("VERBOSELOGS") != ""
}

func col(name, typ string) *schema.Column {
	return schema.NewColumnType(name, typ)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// NewCatalog builds the fixture database in @mode ("" is REGULAR):
//
//	PUBLIC.A(X INT, Y VARCHAR)
//	PUBLIC.B(X INT, Z VARCHAR)
//	PUBLIC.C(ID BIGINT primary key, NAME VARCHAR, CREATED TIMESTAMP)
//	PUBLIC.TEST(ID INT, NAME VARCHAR)
//	PUBLIC.V_A view over A, PUBLIC.SYN_A synonym for A
//	PUBLIC.SEQ, S2.SEQ2 sequences
//	S2.T(ID INT, V VARCHAR)
//
// plus function aliases MY_FUNC(x) and PG_GET_OID, constant ONE, index
// IDX_A_X, constraint PK_C, trigger TR_A, aggregate MY_AGG, domain EMAIL,
// user U1 and role R1.
func NewCatalog(mode string) *schema.Database {
	Setup()
	m := lex.RegularMode
	if mode != "" {
		var err error
		m, err = lex.ModeByName(mode)
		must(err)
	}
	db, err := schema.NewDatabase("testdb", m, nil)
	must(err)

	c := schema.NewTable(schema.MainSchema, "C", col("ID", "BIGINT"), col("NAME", "VARCHAR"), col("CREATED", "TIMESTAMP"))
	c.Columns[0].PrimaryKey = true
	c.Columns[0].Nullable = false

	alias := schema.NewFunctionAlias(schema.MainSchema, "MY_FUNC")
	alias.Class = "org.example.Funcs"
	alias.Method = "myFunc"
	alias.Deterministic = true
	alias.ParamCounts = []int{1}
	oid := schema.NewFunctionAlias(schema.MainSchema, "PG_GET_OID")
	oid.Deterministic = true
	oid.ParamCounts = []int{1}

	email := col("EMAIL", "VARCHAR")
	email.Type.Precision = 200

	pk := schema.NewConstraint(schema.MainSchema, "PK_C", "C", schema.ConstraintPrimaryKey)
	pk.Columns = []string{"ID"}

	for _, obj := range []schema.Object{
		schema.NewSchema("S2", schema.DefaultUser),
		schema.NewTable(schema.MainSchema, "A", col("X", "INT"), col("Y", "VARCHAR")),
		schema.NewTable(schema.MainSchema, "B", col("X", "INT"), col("Z", "VARCHAR")),
		c,
		schema.NewTable(schema.MainSchema, "TEST", col("ID", "INT"), col("NAME", "VARCHAR")),
		schema.NewView(schema.MainSchema, "V_A", "SELECT X, Y FROM PUBLIC.A", col("X", "INT"), col("Y", "VARCHAR")),
		schema.NewSynonym(schema.MainSchema, "SYN_A", schema.MainSchema, "A"),
		schema.NewSequence(schema.MainSchema, "SEQ"),
		schema.NewTable("S2", "T", col("ID", "INT"), col("V", "VARCHAR")),
		schema.NewSequence("S2", "SEQ2"),
		alias,
		oid,
		schema.NewConstant(schema.MainSchema, "ONE", value.NewIntValue(1)),
		schema.NewIndex(schema.MainSchema, "IDX_A_X", "A", "X"),
		pk,
		schema.NewTrigger(schema.MainSchema, "TR_A", "A"),
		schema.NewUserAggregate("MY_AGG", "org.example.MyAgg"),
		schema.NewDomain("EMAIL", email),
		schema.NewUser("U1", false),
		schema.NewRole("R1"),
	} {
		must(db.AddObject(obj))
	}
	return db
}

// NewSession opens a session on a fresh fixture catalog.
func NewSession(mode string) *schema.Session {
	return schema.NewSession(NewCatalog(mode), "")
}
