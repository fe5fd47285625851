package datasource

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araddon/qlfront/testutil"
	"github.com/araddon/qlfront/value"
)

func TestMain(m *testing.M) {
	testutil.Setup()
	os.Exit(m.Run())
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		spec      string
		typ       value.ValueType
		precision int64
		scale     int
		unsigned  bool
	}{
		{"varchar(20)", value.StringType, 20, 0, false},
		{"character  varying(255)", value.StringType, 255, 0, false},
		{"decimal(10, 2)", value.DecimalType, 10, 2, false},
		{"NUMERIC(8)", value.DecimalType, 8, 0, false},
		{"int(11)", value.IntType, 10, 0, false},
		{"int(11) unsigned", value.LongType, 19, 0, false},
		{"smallint unsigned", value.SmallIntType, 5, 0, true},
		{"timestamptz", value.TimestampTzType, 0, 0, false},
		{"jsonb", value.ClobType, 0, 0, false},
		{"uniqueidentifier", value.UuidType, 16, 0, false},
		{"nvarchar(max)", value.StringType, value.MaxStringLength, 0, false},
		{"text", value.ClobType, 0, 0, false},
	}
	for _, tt := range tests {
		ti, err := ParseColumnType(tt.spec)
		require.Nil(t, err, tt.spec)
		assert.Equal(t, tt.typ, ti.Type, tt.spec)
		assert.Equal(t, tt.unsigned, ti.Unsigned, tt.spec)
		if tt.precision != 0 {
			assert.Equal(t, tt.precision, ti.Precision, tt.spec)
		}
		if tt.scale != 0 {
			assert.Equal(t, tt.scale, ti.Scale, tt.spec)
		}
	}
}

func TestParseColumnTypeErrors(t *testing.T) {
	for _, spec := range []string{"geography_point", "varchar(abc)", "decimal(10"} {
		_, err := ParseColumnType(spec)
		assert.NotNil(t, err, spec)
	}
	// unknown names from a remote database degrade to VARCHAR
	assert.Equal(t, value.StringType, columnType("tsvector").Type)
}
