/*
Package qlfdriver registers a database/sql driver named "qlfront" that
prepares statements against a catalog without running them.  Prepare
reports syntax and binding errors and NumInput the parameter count, Exec
and Query always fail with ErrNotSupported.

Usage

	package main

	import (
		"database/sql"
		_ "github.com/araddon/qlfront/qlfdriver"
	)

	func main() {

		db, err := sql.Open("qlfront", "shop.yaml")
		if err != nil {
			log.Fatal(err)
		}
		// fails when the statement does not parse or bind
		stmt, err := db.Prepare("SELECT total FROM orders WHERE id = ?")

	}

The data source name is a name passed to RegisterCatalog, a YAML catalog
file or a driver:dsn to introspect.
*/
package qlfdriver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/datasource"
	"github.com/araddon/qlfront/schema"
)

// DriverName is the name the driver is registered under.
const DriverName = "qlfront"

var (
	ErrNotSupported = fmt.Errorf("qlfront: statements can be prepared but not run")
	ErrClosed       = fmt.Errorf("qlfront: connection closed")

	catalogMu sync.Mutex
	catalogs  = make(map[string]*schema.Database)
)

func init() {
	sql.Register(DriverName, &qlfDriver{})
}

// RegisterCatalog makes @db available as data source @name.
func RegisterCatalog(name string, db *schema.Database) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	catalogs[name] = db
}

// UnregisterCatalog forgets a data source, open connections keep it.
func UnregisterCatalog(name string) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	delete(catalogs, name)
}

func openCatalog(name string) (*schema.Database, error) {
	catalogMu.Lock()
	db, ok := catalogs[name]
	catalogMu.Unlock()
	if ok {
		return db, nil
	}
	lower := strings.ToLower(name)
	switch {
	case name == "":
		return schema.NewDatabase(datasource.DefaultCatalogName, nil, nil)
	case strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml"):
		return datasource.LoadCatalogFile(name)
	case strings.Contains(name, ":"):
		return datasource.Introspect(context.Background(), name)
	}
	u.Warnf("no catalog named %q", name)
	return nil, fmt.Errorf("qlfront: unknown catalog %q", name)
}
