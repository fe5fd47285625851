// qlfront parses SQL against a catalog and prints what the parser made of
// each statement.
//
//	qlfront --catalog shop.yaml "SELECT * FROM orders WHERE id = ?"
//	qlfront --introspect sqlite3:/tmp/shop.db --explain < queries.sql
package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	u "github.com/araddon/gou"
	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"

	"github.com/araddon/qlfront/datasource"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/rel"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
)

var version = "dev"

type options struct {
	Mode       string `short:"m" long:"mode" description:"Compatibility mode such as MySQL, PostgreSQL, MSSQLServer" value-name:"mode"`
	Catalog    string `short:"c" long:"catalog" description:"Load the catalog from a YAML file" value-name:"file.yaml"`
	Introspect string `short:"i" long:"introspect" description:"Read the catalog from a live database" value-name:"driver:dsn"`
	Explain    bool   `short:"e" long:"explain" description:"Dump the statement tree"`
	Diagnostic bool   `short:"d" long:"diagnostic" description:"List the expected tokens of syntax errors"`
	Schema     string `short:"s" long:"schema" description:"Current schema" value-name:"name"`
	LogLevel   string `long:"loglevel" description:"Log level" default:"warn" value-name:"level"`
	Help       bool   `long:"help" description:"Show this help"`
	Version    bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) (*options, []string) {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[option...] [SQL...]"
	args, err := parser.ParseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		parser.WriteHelp(os.Stderr)
		os.Exit(2)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	if opts.Catalog != "" && opts.Introspect != "" {
		fmt.Fprint(os.Stderr, "--catalog and --introspect are exclusive\n\n")
		parser.WriteHelp(os.Stderr)
		os.Exit(2)
	}
	return &opts, args
}

func main() {
	opts, args := parseOptions(os.Args[1:])
	u.SetupLogging(opts.LogLevel)
	u.SetColorIfTerminal()

	db, err := openCatalog(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("catalog: %v", err))
		os.Exit(1)
	}
	sess := schema.NewSession(db, "")
	if opts.Schema != "" {
		if err := sess.SetCurrentSchema(strings.ToUpper(opts.Schema)); err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("%v", err))
			os.Exit(1)
		}
	}

	inputs := args
	if len(inputs) == 0 {
		in, err := ioutil.ReadAll(os.Stdin)
		if err != nil {
			u.Errorf("could not read stdin: %v", err)
			os.Exit(1)
		}
		inputs = []string{string(in)}
	}

	failed := false
	for _, sql := range inputs {
		if strings.TrimSpace(sql) == "" {
			continue
		}
		stmts, err := rel.ParseStatements(sess, sql)
		if err != nil {
			failed = true
			printError(os.Stdout, err, opts.Diagnostic)
			continue
		}
		for _, stmt := range stmts {
			printStatement(os.Stdout, stmt, opts.Explain)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func openCatalog(opts *options) (*schema.Database, error) {
	var db *schema.Database
	var err error
	switch {
	case opts.Catalog != "":
		db, err = datasource.LoadCatalogFile(opts.Catalog)
	case opts.Introspect != "":
		db, err = datasource.Introspect(context.Background(), opts.Introspect)
	default:
		db, err = schema.NewDatabase(datasource.DefaultCatalogName, nil, nil)
	}
	if err != nil {
		return nil, err
	}
	if opts.Mode != "" {
		mode, err := lex.ModeByName(opts.Mode)
		if err != nil {
			return nil, err
		}
		db.SetMode(mode)
	}
	return db, nil
}

func printStatement(w io.Writer, stmt rel.Prepared, explain bool) {
	kind := color.New(color.FgHiCyan).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", kind(stmt.Kind().String()), stmt.String())
	if n := len(stmt.Params()); n > 0 {
		fmt.Fprintf(w, "  params: %d\n", n)
	}
	if stmt.AlwaysRecompile() {
		fmt.Fprintln(w, "  always recompile")
	}
	if explain {
		pp.Fprintln(w, stmt)
	}
}

func printError(w io.Writer, err error, diagnostic bool) {
	red := color.New(color.FgHiRed).SprintFunc()
	se, ok := sqlerr.AsError(err)
	if !ok || se.SQL == "" {
		fmt.Fprintln(w, red(err.Error()))
		return
	}
	fmt.Fprintf(w, "%s [%d]\n", red(se.Kind.String()), int(se.Code))
	if se.Pos >= 0 && se.Pos <= len(se.SQL) {
		marker := color.New(color.FgHiYellow, color.Bold).Sprint("[*]")
		fmt.Fprintf(w, "  %s%s%s\n", se.SQL[:se.Pos], marker, se.SQL[se.Pos:])
	} else {
		fmt.Fprintf(w, "  %s\n", se.SQL)
	}
	fmt.Fprintf(w, "  %s\n", err.Error())
	if diagnostic && len(se.Expected) > 0 {
		fmt.Fprintf(w, "  expected: %s\n", strings.Join(se.Expected, ", "))
	}
}
