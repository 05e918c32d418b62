// Package value defines the typed cell values read from parquet files and
// converts them to JSON-like and flat-text representations.
//
// A Value is one of a fixed set of variants, each its own Go type:
//
//	Bool, Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64,
//	Float16, Float32, Float64, Decimal, String, Bytes, Date,
//	TimeMillis, TimeMicros, TimeNanos,
//	TimestampMillis, TimestampMicros, TimestampNanos,
//	List, Map, Record, Null
//
// Containers (List, Map, Record) hold other Values directly, so nesting is
// structural and a value tree can never contain a cycle.
package value

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Kind identifies a Value variant.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat16
	KindFloat32
	KindFloat64
	KindDecimal
	KindString
	KindBytes
	KindDate
	KindTimeMillis
	KindTimeMicros
	KindTimeNanos
	KindTimestampMillis
	KindTimestampMicros
	KindTimestampNanos
	KindList
	KindMap
	KindRecord
)

var kindNames = [...]string{
	KindNull:            "NULL",
	KindBool:            "BOOLEAN",
	KindInt8:            "INT8",
	KindInt16:           "INT16",
	KindInt32:           "INT32",
	KindInt64:           "INT64",
	KindUint8:           "UINT8",
	KindUint16:          "UINT16",
	KindUint32:          "UINT32",
	KindUint64:          "UINT64",
	KindFloat16:         "FLOAT16",
	KindFloat32:         "FLOAT",
	KindFloat64:         "DOUBLE",
	KindDecimal:         "DECIMAL",
	KindString:          "STRING",
	KindBytes:           "BYTE_ARRAY",
	KindDate:            "DATE",
	KindTimeMillis:      "TIME_MILLIS",
	KindTimeMicros:      "TIME_MICROS",
	KindTimeNanos:       "TIME_NANOS",
	KindTimestampMillis: "TIMESTAMP_MILLIS",
	KindTimestampMicros: "TIMESTAMP_MICROS",
	KindTimestampNanos:  "TIMESTAMP_NANOS",
	KindList:            "LIST",
	KindMap:             "MAP",
	KindRecord:          "GROUP",
}

// String returns the type label of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "OTHER"
}

// Value is a single typed cell.
type Value interface {
	Kind() Kind
}

type (
	// Null is the absent value.
	Null struct{}

	Bool   bool
	Int8   int8
	Int16  int16
	Int32  int32
	Int64  int64
	Uint8  uint8
	Uint16 uint16
	Uint32 uint32
	Uint64 uint64

	// Float16 holds the raw IEEE 754 half-precision bits.
	Float16 uint16
	Float32 float32
	Float64 float64

	String string
	Bytes  []byte

	// Date counts days since 1970-01-01.
	Date int32

	// Time values count units since midnight.
	TimeMillis int32
	TimeMicros int64
	TimeNanos  int64

	// Timestamp values count units since the Unix epoch, UTC.
	TimestampMillis int64
	TimestampMicros int64
	TimestampNanos  int64

	// List is an ordered sequence of values.
	List []Value

	// Map is an ordered sequence of entries. Keys are not required to be unique.
	Map []MapEntry

	// Record is an ordered name to value mapping. A row is a Record.
	Record []Field
)

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Field is one named member of a Record.
type Field struct {
	Name  string
	Value Value
}

// Decimal is a fixed-point number: Unscaled * 10^-Scale.
type Decimal struct {
	Unscaled  *big.Int
	Precision int32
	Scale     int32
}

func (Null) Kind() Kind            { return KindNull }
func (Bool) Kind() Kind            { return KindBool }
func (Int8) Kind() Kind            { return KindInt8 }
func (Int16) Kind() Kind           { return KindInt16 }
func (Int32) Kind() Kind           { return KindInt32 }
func (Int64) Kind() Kind           { return KindInt64 }
func (Uint8) Kind() Kind           { return KindUint8 }
func (Uint16) Kind() Kind          { return KindUint16 }
func (Uint32) Kind() Kind          { return KindUint32 }
func (Uint64) Kind() Kind          { return KindUint64 }
func (Float16) Kind() Kind         { return KindFloat16 }
func (Float32) Kind() Kind         { return KindFloat32 }
func (Float64) Kind() Kind         { return KindFloat64 }
func (Decimal) Kind() Kind         { return KindDecimal }
func (String) Kind() Kind          { return KindString }
func (Bytes) Kind() Kind           { return KindBytes }
func (Date) Kind() Kind            { return KindDate }
func (TimeMillis) Kind() Kind      { return KindTimeMillis }
func (TimeMicros) Kind() Kind      { return KindTimeMicros }
func (TimeNanos) Kind() Kind       { return KindTimeNanos }
func (TimestampMillis) Kind() Kind { return KindTimestampMillis }
func (TimestampMicros) Kind() Kind { return KindTimestampMicros }
func (TimestampNanos) Kind() Kind  { return KindTimestampNanos }
func (List) Kind() Kind            { return KindList }
func (Map) Kind() Kind             { return KindMap }
func (Record) Kind() Kind          { return KindRecord }

// IsNull reports whether v is absent. A nil interface counts as null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// NewDecimal builds a Decimal from an unscaled 64-bit integer.
func NewDecimal(unscaled int64, precision, scale int32) Decimal {
	return Decimal{Unscaled: big.NewInt(unscaled), Precision: precision, Scale: scale}
}

// Decimal returns d as an arbitrary-precision decimal.
func (d Decimal) Decimal() decimal.Decimal {
	if d.Unscaled == nil {
		return decimal.New(0, -d.Scale)
	}
	return decimal.NewFromBigInt(d.Unscaled, -d.Scale)
}

// String returns the canonical fixed-point text of d, keeping Scale digits
// after the decimal point.
func (d Decimal) String() string {
	dec := d.Decimal()
	if d.Scale > 0 {
		return dec.StringFixed(d.Scale)
	}
	return dec.String()
}

// Get returns the value of the named field.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}
