package schema

import (
	"strings"
	"sync"

	"github.com/google/btree"

	"github.com/araddon/qlfront/lex"
)

// TableStorage is the DEFAULT_TABLE_TYPE setting.
type TableStorage uint8

const (
	TableStorageMemory TableStorage = 0
	TableStorageCached TableStorage = 1
)

// Settings are the database level switches the parser consults.
type Settings struct {
	// IdentifiersToUpper folds unquoted names to upper case (DATABASE_TO_UPPER)
	IdentifiersToUpper bool
	// AllowLiterals is the ALLOW_LITERALS level
	AllowLiterals lex.LiteralsAllowed
	// RowID exposes the _ROWID_ pseudo column
	RowID bool
	// IgnoreCase creates VARCHAR columns as VARCHAR_IGNORECASE
	IgnoreCase bool
	// AllowBuiltinAliasOverride lets function aliases shadow builtins
	AllowBuiltinAliasOverride bool
	// AliasColumnName reports the alias as column name
	AliasColumnName bool
	// DefaultTableType of CREATE TABLE without MEMORY or CACHED
	DefaultTableType TableStorage
	// DefaultTableEngine used when CREATE TABLE names no ENGINE
	DefaultTableEngine string
	// DropRestrict makes DROP default to RESTRICT instead of CASCADE
	DropRestrict bool
	// DefaultEscape is the LIKE escape character
	DefaultEscape string
}

// DefaultSettings are the settings of a new database.
func DefaultSettings() *Settings {
	return &Settings{
		IdentifiersToUpper: true,
		AllowLiterals:      lex.AllowLiteralsAll,
		DefaultTableType:   TableStorageCached,
		DropRestrict:       true,
		DefaultEscape:      `\`,
	}
}

// Clone copies the settings.
func (m *Settings) Clone() *Settings {
	s := *m
	return &s
}

type settingItem string

func (m settingItem) Less(than btree.Item) bool { return m < than.(settingItem) }

var (
	settingMu    sync.RWMutex
	settingNames = btree.New(8)
)

func init() {
	for _, name := range []string{
		"IGNORECASE", "MAX_LOG_SIZE", "MODE", "READONLY", "LOCK_TIMEOUT",
		"DEFAULT_LOCK_TIMEOUT", "DEFAULT_TABLE_TYPE", "CACHE_SIZE",
		"TRACE_LEVEL_SYSTEM_OUT", "TRACE_LEVEL_FILE", "TRACE_MAX_FILE_SIZE",
		"COLLATION", "CLUSTER", "WRITE_DELAY", "DATABASE_EVENT_LISTENER",
		"MAX_MEMORY_ROWS", "LOCK_MODE", "DB_CLOSE_DELAY", "LOG", "THROTTLE",
		"MAX_MEMORY_UNDO", "MAX_LENGTH_INPLACE_LOB", "COMPRESS_LOB",
		"ALLOW_LITERALS", "MULTI_THREADED", "SCHEMA", "OPTIMIZE_REUSE_RESULTS",
		"SCHEMA_SEARCH_PATH", "UNDO_LOG", "REFERENTIAL_INTEGRITY", "MVCC",
		"MAX_OPERATION_MEMORY", "EXCLUSIVE", "CREATE_BUILD", "VARIABLE",
		"QUERY_TIMEOUT", "REDO_LOG_BINARY", "BINARY_COLLATION",
		"JAVA_OBJECT_SERIALIZER", "RETENTION_TIME", "QUERY_STATISTICS",
		"QUERY_STATISTICS_MAX_ENTRIES", "ROW_FACTORY", "BATCH_JOINS",
		"FORCE_JOIN_ORDER", "LAZY_QUERY_EXECUTION", "BUILTIN_ALIAS_OVERRIDE",
		"COLUMN_NAMING_RULES", "AUTHENTICATOR",
	} {
		RegisterSetting(name)
	}
}

// RegisterSetting makes @name a valid SET target.
func RegisterSetting(name string) {
	settingMu.Lock()
	defer settingMu.Unlock()
	settingNames.ReplaceOrInsert(settingItem(strings.ToUpper(name)))
}

// IsSetting reports whether @name is a known setting.
func IsSetting(name string) bool {
	settingMu.RLock()
	defer settingMu.RUnlock()
	return settingNames.Has(settingItem(strings.ToUpper(name)))
}

// SettingNames lists the known settings in name order.
func SettingNames() []string {
	settingMu.RLock()
	defer settingMu.RUnlock()
	names := make([]string, 0, settingNames.Len())
	settingNames.Ascend(func(i btree.Item) bool {
		names = append(names, string(i.(settingItem)))
		return true
	})
	return names
}
