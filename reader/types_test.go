package reader

import (
	"testing"

	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/parquet-go/parquet-go/format"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestResolveTags_Logical(t *testing.T) {
	tests := []struct {
		name    string
		logical *format.LogicalType
		want    string
		kind    LogicalKind
	}{
		{"string", &format.LogicalType{UTF8: &format.StringType{}}, "STRING", LogicalString},
		{"map", &format.LogicalType{Map: &format.MapType{}}, "MAP", LogicalMap},
		{"list", &format.LogicalType{List: &format.ListType{}}, "LIST", LogicalList},
		{"enum", &format.LogicalType{Enum: &format.EnumType{}}, "ENUM", LogicalEnum},
		{"decimal", &format.LogicalType{Decimal: &format.DecimalType{Precision: 10, Scale: 2}}, "DECIMAL(10,2)", LogicalDecimal},
		{"date", &format.LogicalType{Date: &format.DateType{}}, "DATE", LogicalDate},
		{
			"time millis",
			&format.LogicalType{Time: &format.TimeType{IsAdjustedToUTC: true, Unit: format.TimeUnit{Millis: &format.MilliSeconds{}}}},
			"TIME(MILLIS, UTC:true)",
			LogicalTime,
		},
		{
			"timestamp micros local",
			&format.LogicalType{Timestamp: &format.TimestampType{Unit: format.TimeUnit{Micros: &format.MicroSeconds{}}}},
			"TIMESTAMP(MICROS, UTC:false)",
			LogicalTimestamp,
		},
		{
			"timestamp nanos",
			&format.LogicalType{Timestamp: &format.TimestampType{IsAdjustedToUTC: true, Unit: format.TimeUnit{Nanos: &format.NanoSeconds{}}}},
			"TIMESTAMP(NANOS, UTC:true)",
			LogicalTimestamp,
		},
		{"signed int", &format.LogicalType{Integer: &format.IntType{BitWidth: 16, IsSigned: true}}, "INT16", LogicalInteger},
		{"unsigned int", &format.LogicalType{Integer: &format.IntType{BitWidth: 32}}, "INT32_UNSIGNED", LogicalInteger},
		{"unknown", &format.LogicalType{Unknown: &format.NullType{}}, "UNKNOWN", LogicalUnknown},
		{"json", &format.LogicalType{Json: &format.JsonType{}}, "JSON", LogicalJSON},
		{"bson", &format.LogicalType{Bson: &format.BsonType{}}, "BSON", LogicalBSON},
		{"uuid", &format.LogicalType{UUID: &format.UUIDType{}}, "UUID", LogicalUUID},
		{"float16", &format.LogicalType{Float16: &format.Float16Type{}}, "FLOAT16", LogicalFloat16},
		{"variant", &format.LogicalType{Variant: &format.VariantType{}}, "VARIANT", LogicalVariant},
		{"geometry", &format.LogicalType{Geometry: &format.GeometryType{}}, "GEOMETRY", LogicalGeometry},
		{"geography", &format.LogicalType{Geography: &format.GeographyType{}}, "GEOGRAPHY", LogicalGeography},
		{"empty union", &format.LogicalType{}, "OTHER", LogicalOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := ResolveTags(&format.SchemaElement{
				Name:        "c",
				Type:        ptr(format.Int64),
				LogicalType: tt.logical,
				// A logical annotation always wins over a converted one.
				ConvertedType: ptr(deprecated.ConvertedType(19)),
			})
			assert.Equal(t, tt.want, tags.Label)
			assert.Equal(t, tt.want, tags.ColumnType())
			assert.Equal(t, tt.kind, tags.Logical)
			assert.Equal(t, "INT64", tags.PhysicalLabel())
		})
	}
}

func TestResolveTags_Converted(t *testing.T) {
	tests := []struct {
		code int32
		want string
	}{
		{0, "STRING"},
		{1, "MAP"},
		{2, "MAP_KEY_VALUE"},
		{3, "LIST"},
		{4, "ENUM"},
		{5, "DECIMAL"},
		{6, "DATE"},
		{7, "TIME_MILLIS"},
		{8, "TIME_MICROS"},
		{9, "TIMESTAMP_MILLIS"},
		{10, "TIMESTAMP_MICROS"},
		{11, "UINT8"},
		{14, "UINT64"},
		{15, "INT8"},
		{18, "INT64"},
		{19, "JSON"},
		{20, "BSON"},
		{21, "INTERVAL"},
		{99, "CONVERTED(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			tags := ResolveTags(&format.SchemaElement{
				Name:          "c",
				Type:          ptr(format.ByteArray),
				ConvertedType: ptr(deprecated.ConvertedType(tt.code)),
			})
			assert.Equal(t, tt.want, tags.Label)
			assert.Equal(t, tt.want, tags.ColumnType())
			assert.Equal(t, "BYTE_ARRAY", tags.PhysicalLabel())
		})
	}
}

func TestResolveTags_ConvertedIntegers(t *testing.T) {
	tags := ResolveTags(&format.SchemaElement{Type: ptr(format.Int32), ConvertedType: ptr(deprecated.ConvertedType(12))})
	assert.Equal(t, LogicalInteger, tags.Logical)
	assert.Equal(t, 16, tags.BitWidth)
	assert.False(t, tags.Signed)
	assert.Equal(t, decodeUint16, tags.decoding())

	tags = ResolveTags(&format.SchemaElement{Type: ptr(format.Int64), ConvertedType: ptr(deprecated.ConvertedType(10))})
	assert.Equal(t, UnitMicros, tags.Unit)
	assert.Equal(t, decodeTimestampMicros, tags.decoding())
}

func TestResolveTags_Physical(t *testing.T) {
	tests := []struct {
		typ  *format.Type
		want string
	}{
		{ptr(format.Boolean), "BOOLEAN"},
		{ptr(format.Int32), "INT32"},
		{ptr(format.Int64), "INT64"},
		{ptr(format.Int96), "INT96"},
		{ptr(format.Float), "FLOAT"},
		{ptr(format.Double), "DOUBLE"},
		{ptr(format.ByteArray), "BYTE_ARRAY"},
		{ptr(format.FixedLenByteArray), "FIXED_LEN_BYTE_ARRAY"},
		{nil, "GROUP"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			tags := ResolveTags(&format.SchemaElement{Name: "c", Type: tt.typ})
			assert.Empty(t, tags.Label)
			assert.Equal(t, tt.want, tags.ColumnType())
			assert.Equal(t, tt.want, tags.PhysicalLabel())
		})
	}
}

func TestUnknownLogicalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FLOAT16", "FLOAT16"},
		{"geometry(crs=OGC:CRS84)", "GEOMETRY"},
		{"VARIANT", "VARIANT"},
		{"", "OTHER"},
		{"<?>", "OTHER"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, unknownLogicalName(tt.in))
		})
	}
}

func TestDecoding(t *testing.T) {
	tests := []struct {
		name string
		tags TypeTags
		want decodeKind
	}{
		{"int32 date", TypeTags{Physical: ptr(format.Int32), Logical: LogicalDate}, decodeDate},
		{"int32 time millis", TypeTags{Physical: ptr(format.Int32), Logical: LogicalTime, Unit: UnitMillis}, decodeTimeMillis},
		{"int64 time nanos", TypeTags{Physical: ptr(format.Int64), Logical: LogicalTime, Unit: UnitNanos}, decodeTimeNanos},
		{"int64 timestamp nanos", TypeTags{Physical: ptr(format.Int64), Logical: LogicalTimestamp, Unit: UnitNanos}, decodeTimestampNanos},
		{"int96", TypeTags{Physical: ptr(format.Int96)}, decodeTimestampNanos},
		{"int8", TypeTags{Physical: ptr(format.Int32), Logical: LogicalInteger, BitWidth: 8, Signed: true}, decodeInt8},
		{"int32 signed", TypeTags{Physical: ptr(format.Int32), Logical: LogicalInteger, BitWidth: 32, Signed: true}, decodePhysical},
		{"uint64", TypeTags{Physical: ptr(format.Int64), Logical: LogicalInteger, BitWidth: 64}, decodeUint64},
		{"binary string", TypeTags{Physical: ptr(format.ByteArray), Logical: LogicalString}, decodeString},
		{"binary enum", TypeTags{Physical: ptr(format.ByteArray), Logical: LogicalEnum}, decodeString},
		{"binary json", TypeTags{Physical: ptr(format.ByteArray), Logical: LogicalJSON}, decodeString},
		{"binary bson", TypeTags{Physical: ptr(format.ByteArray), Logical: LogicalBSON}, decodePhysical},
		{"binary decimal", TypeTags{Physical: ptr(format.ByteArray), Logical: LogicalDecimal}, decodeDecimal},
		{"fixed float16", TypeTags{Physical: ptr(format.FixedLenByteArray), Logical: LogicalFloat16, TypeLength: 2}, decodeFloat16},
		{"fixed uuid", TypeTags{Physical: ptr(format.FixedLenByteArray), Logical: LogicalUUID, TypeLength: 16}, decodeUUID},
		{"fixed uuid wrong size", TypeTags{Physical: ptr(format.FixedLenByteArray), Logical: LogicalUUID, TypeLength: 8}, decodePhysical},
		{"date on binary ignored", TypeTags{Physical: ptr(format.ByteArray), Logical: LogicalDate}, decodePhysical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tags.decoding())
		})
	}
}
