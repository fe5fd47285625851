package datasource

import (
	"fmt"
	"strconv"
	"strings"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/value"
)

// foreignTypes are type names other databases report that the parser does
// not know under the same spelling.
var foreignTypes = map[string]string{
	"INT UNSIGNED":             "BIGINT",
	"INTEGER UNSIGNED":         "BIGINT",
	"BIGINT UNSIGNED":          "DECIMAL",
	"TIMESTAMPTZ":              "TIMESTAMP WITH TIME ZONE",
	"DATETIMEOFFSET":           "TIMESTAMP WITH TIME ZONE",
	"TIMESTAMP WITH TIME ZONE": "TIMESTAMP WITH TIME ZONE",
	"TIMETZ":                   "TIME",
	"TIME WITH TIME ZONE":      "TIME",
	"BPCHAR":                   "CHAR",
	"CHARACTER":                "CHAR",
	"VARCHAR2":                 "VARCHAR",
	"STRING":                   "VARCHAR",
	"CITEXT":                   "VARCHAR_IGNORECASE",
	"JSON":                     "CLOB",
	"JSONB":                    "CLOB",
	"XML":                      "CLOB",
	"MONEY":                    "DECIMAL",
	"SMALLMONEY":               "DECIMAL",
	"UNIQUEIDENTIFIER":         "UUID",
	"ROWVERSION":               "VARBINARY",
	"INTERVAL":                 "VARCHAR",
	"INET":                     "VARCHAR",
	"SMALLSERIAL":              "SMALLINT",
	"NVARCHAR(MAX)":            "NVARCHAR",
	"VARCHAR(MAX)":             "VARCHAR",
	"VARBINARY(MAX)":           "VARBINARY",
}

// ParseColumnType resolves a type spelled the way a database reports it,
// "varchar(20)", "decimal(10, 2)", "int unsigned", "character varying".
// Names that are neither parser types nor known foreign names are an
// error.
func ParseColumnType(spec string) (value.TypeInfo, error) {
	name := strings.ToUpper(strings.Join(strings.Fields(spec), " "))
	if alias, ok := foreignTypes[name]; ok {
		name = alias
	}
	var args []int64
	if open := strings.IndexByte(name, '('); open > 0 {
		end := strings.LastIndexByte(name, ')')
		if end < open {
			return value.TypeInfo{}, fmt.Errorf("bad type %q", spec)
		}
		for _, part := range strings.Split(name[open+1:end], ",") {
			part = strings.TrimSpace(part)
			if part == "MAX" {
				continue
			}
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return value.TypeInfo{}, fmt.Errorf("bad type %q: %v", spec, err)
			}
			args = append(args, n)
		}
		name = strings.TrimSpace(name[:open] + name[end+1:])
	}
	unsigned := false
	if strings.HasSuffix(name, " UNSIGNED") {
		if alias, ok := foreignTypes[name]; ok {
			name = alias
		} else {
			name = strings.TrimSuffix(name, " UNSIGNED")
			unsigned = true
		}
	}
	if alias, ok := foreignTypes[name]; ok {
		name = alias
	}
	dt, ok := value.TypeByName(name)
	if !ok {
		return value.TypeInfo{}, fmt.Errorf("unknown data type %q", spec)
	}
	ti := value.NewTypeInfo(dt)
	ti.Unsigned = unsigned
	if len(args) > 0 && dt.SupportsPrecision {
		ti.Precision = args[0]
		if len(args) > 1 && dt.SupportsScale {
			ti.Scale = int(args[1])
		}
	} else if len(args) > 0 && dt.SupportsScale {
		// TIME(3), TIMESTAMP(6)
		ti.Scale = int(args[0])
	}
	return ti, nil
}

// columnType is ParseColumnType falling back to VARCHAR for names only the
// remote database understands.
func columnType(spec string) value.TypeInfo {
	ti, err := ParseColumnType(spec)
	if err != nil {
		u.Warnf("column type %q mapped to VARCHAR: %v", spec, err)
		dt, _ := value.TypeByName("VARCHAR")
		return value.NewTypeInfo(dt)
	}
	return ti
}
