package reader

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go/format"

	"github.com/vegasq/parqsee/value"
)

// Legacy converted type codes as stored in the footer.
const (
	convertedUTF8 int32 = iota
	convertedMap
	convertedMapKeyValue
	convertedList
	convertedEnum
	convertedDecimal
	convertedDate
	convertedTimeMillis
	convertedTimeMicros
	convertedTimestampMillis
	convertedTimestampMicros
	convertedUint8
	convertedUint16
	convertedUint32
	convertedUint64
	convertedInt8
	convertedInt16
	convertedInt32
	convertedInt64
	convertedJSON
	convertedBSON
	convertedInterval
)

var convertedNames = [...]string{
	convertedUTF8:            "STRING",
	convertedMap:             "MAP",
	convertedMapKeyValue:     "MAP_KEY_VALUE",
	convertedList:            "LIST",
	convertedEnum:            "ENUM",
	convertedDecimal:         "DECIMAL",
	convertedDate:            "DATE",
	convertedTimeMillis:      "TIME_MILLIS",
	convertedTimeMicros:      "TIME_MICROS",
	convertedTimestampMillis: "TIMESTAMP_MILLIS",
	convertedTimestampMicros: "TIMESTAMP_MICROS",
	convertedUint8:           "UINT8",
	convertedUint16:          "UINT16",
	convertedUint32:          "UINT32",
	convertedUint64:          "UINT64",
	convertedInt8:            "INT8",
	convertedInt16:           "INT16",
	convertedInt32:           "INT32",
	convertedInt64:           "INT64",
	convertedJSON:            "JSON",
	convertedBSON:            "BSON",
	convertedInterval:        "INTERVAL",
}

// LogicalKind is the normalized logical annotation of a column.
//
// The set is open: annotations this package does not know about resolve to
// LogicalOther and keep their raw name in TypeTags.
type LogicalKind int

const (
	LogicalNone LogicalKind = iota
	LogicalString
	LogicalMap
	LogicalMapKeyValue
	LogicalList
	LogicalEnum
	LogicalDecimal
	LogicalDate
	LogicalTime
	LogicalTimestamp
	LogicalInteger
	LogicalUnknown
	LogicalJSON
	LogicalBSON
	LogicalUUID
	LogicalFloat16
	LogicalVariant
	LogicalGeometry
	LogicalGeography
	LogicalInterval
	LogicalOther
)

// TimeUnit is the resolution of a TIME or TIMESTAMP column.
type TimeUnit int

const (
	UnitMillis TimeUnit = iota
	UnitMicros
	UnitNanos
)

func (u TimeUnit) String() string {
	switch u {
	case UnitMicros:
		return "MICROS"
	case UnitNanos:
		return "NANOS"
	default:
		return "MILLIS"
	}
}

// TypeTags are the resolved type annotations of one schema element.
type TypeTags struct {
	// Physical is nil for group nodes.
	Physical *format.Type
	Logical  LogicalKind
	// Label is the logical or converted type label, empty when the element
	// carries neither.
	Label      string
	Precision  int32
	Scale      int32
	Unit       TimeUnit
	UTC        bool
	BitWidth   int
	Signed     bool
	TypeLength int32
}

// ResolveTags resolves the annotations of el. It never fails: unrecognized
// annotations degrade to a descriptive label.
func ResolveTags(el *format.SchemaElement) TypeTags {
	tags := TypeTags{Physical: el.Type, Signed: true}
	if el.TypeLength != nil {
		tags.TypeLength = *el.TypeLength
	}
	if el.Precision != nil {
		tags.Precision = *el.Precision
	}
	if el.Scale != nil {
		tags.Scale = *el.Scale
	}

	switch {
	case el.LogicalType != nil:
		resolveLogical(&tags, el.LogicalType)
	case el.ConvertedType != nil:
		resolveConverted(&tags, int32(*el.ConvertedType))
	}
	return tags
}

func resolveLogical(tags *TypeTags, lt *format.LogicalType) {
	switch {
	case lt.UTF8 != nil:
		tags.Logical, tags.Label = LogicalString, "STRING"
	case lt.Map != nil:
		tags.Logical, tags.Label = LogicalMap, "MAP"
	case lt.List != nil:
		tags.Logical, tags.Label = LogicalList, "LIST"
	case lt.Enum != nil:
		tags.Logical, tags.Label = LogicalEnum, "ENUM"
	case lt.Decimal != nil:
		tags.Logical = LogicalDecimal
		tags.Precision, tags.Scale = lt.Decimal.Precision, lt.Decimal.Scale
		tags.Label = fmt.Sprintf("DECIMAL(%d,%d)", tags.Precision, tags.Scale)
	case lt.Date != nil:
		tags.Logical, tags.Label = LogicalDate, "DATE"
	case lt.Time != nil:
		tags.Logical = LogicalTime
		tags.Unit = timeUnit(&lt.Time.Unit)
		tags.UTC = lt.Time.IsAdjustedToUTC
		tags.Label = fmt.Sprintf("TIME(%s, UTC:%t)", tags.Unit, tags.UTC)
	case lt.Timestamp != nil:
		tags.Logical = LogicalTimestamp
		tags.Unit = timeUnit(&lt.Timestamp.Unit)
		tags.UTC = lt.Timestamp.IsAdjustedToUTC
		tags.Label = fmt.Sprintf("TIMESTAMP(%s, UTC:%t)", tags.Unit, tags.UTC)
	case lt.Integer != nil:
		tags.Logical = LogicalInteger
		tags.BitWidth = int(lt.Integer.BitWidth)
		tags.Signed = lt.Integer.IsSigned
		tags.Label = fmt.Sprintf("INT%d", tags.BitWidth)
		if !tags.Signed {
			tags.Label += "_UNSIGNED"
		}
	case lt.Unknown != nil:
		tags.Logical, tags.Label = LogicalUnknown, "UNKNOWN"
	case lt.Json != nil:
		tags.Logical, tags.Label = LogicalJSON, "JSON"
	case lt.Bson != nil:
		tags.Logical, tags.Label = LogicalBSON, "BSON"
	case lt.UUID != nil:
		tags.Logical, tags.Label = LogicalUUID, "UUID"
	case lt.Float16 != nil:
		tags.Logical, tags.Label = LogicalFloat16, "FLOAT16"
	case lt.Variant != nil:
		tags.Logical, tags.Label = LogicalVariant, "VARIANT"
	case lt.Geometry != nil:
		tags.Logical, tags.Label = LogicalGeometry, "GEOMETRY"
	case lt.Geography != nil:
		tags.Logical, tags.Label = LogicalGeography, "GEOGRAPHY"
	default:
		// No member of the union is set, or one this version does not know.
		tags.Logical, tags.Label = LogicalOther, unknownLogicalName(lt.String())
	}
}

// unknownLogicalName extracts the leading identifier of an annotation's
// text form.
func unknownLogicalName(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end >= 0 {
		s = s[:end]
	}
	if s == "" {
		return "OTHER"
	}
	return strings.ToUpper(s)
}

func timeUnit(u *format.TimeUnit) TimeUnit {
	switch {
	case u.Micros != nil:
		return UnitMicros
	case u.Nanos != nil:
		return UnitNanos
	default:
		return UnitMillis
	}
}

func resolveConverted(tags *TypeTags, code int32) {
	if code < 0 || int(code) >= len(convertedNames) {
		tags.Logical = LogicalOther
		tags.Label = fmt.Sprintf("CONVERTED(%d)", code)
		return
	}
	tags.Label = convertedNames[code]

	switch code {
	case convertedUTF8:
		tags.Logical = LogicalString
	case convertedMap:
		tags.Logical = LogicalMap
	case convertedMapKeyValue:
		tags.Logical = LogicalMapKeyValue
	case convertedList:
		tags.Logical = LogicalList
	case convertedEnum:
		tags.Logical = LogicalEnum
	case convertedDecimal:
		tags.Logical = LogicalDecimal
	case convertedDate:
		tags.Logical = LogicalDate
	case convertedTimeMillis, convertedTimeMicros:
		tags.Logical, tags.UTC = LogicalTime, true
		tags.Unit = UnitMillis
		if code == convertedTimeMicros {
			tags.Unit = UnitMicros
		}
	case convertedTimestampMillis, convertedTimestampMicros:
		tags.Logical, tags.UTC = LogicalTimestamp, true
		tags.Unit = UnitMillis
		if code == convertedTimestampMicros {
			tags.Unit = UnitMicros
		}
	case convertedUint8, convertedUint16, convertedUint32, convertedUint64:
		tags.Logical, tags.Signed = LogicalInteger, false
		tags.BitWidth = 8 << (code - convertedUint8)
	case convertedInt8, convertedInt16, convertedInt32, convertedInt64:
		tags.Logical, tags.Signed = LogicalInteger, true
		tags.BitWidth = 8 << (code - convertedInt8)
	case convertedJSON:
		tags.Logical = LogicalJSON
	case convertedBSON:
		tags.Logical = LogicalBSON
	case convertedInterval:
		tags.Logical = LogicalInterval
	}
}

// PhysicalLabel returns the physical type name, or GROUP for group nodes.
func (t TypeTags) PhysicalLabel() string {
	if t.Physical == nil {
		return "GROUP"
	}
	switch *t.Physical {
	case format.Boolean:
		return "BOOLEAN"
	case format.Int32:
		return "INT32"
	case format.Int64:
		return "INT64"
	case format.Int96:
		return "INT96"
	case format.Float:
		return "FLOAT"
	case format.Double:
		return "DOUBLE"
	case format.ByteArray:
		return "BYTE_ARRAY"
	case format.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return fmt.Sprintf("PHYSICAL(%d)", int32(*t.Physical))
	}
}

// ColumnType returns the normalized type label: the logical label when
// present, the physical name otherwise.
func (t TypeTags) ColumnType() string {
	if t.Label != "" {
		return t.Label
	}
	return t.PhysicalLabel()
}

// decodeKind selects the value variant produced for a leaf.
type decodeKind int

const (
	decodePhysical decodeKind = iota
	decodeString
	decodeDate
	decodeTimeMillis
	decodeTimeMicros
	decodeTimeNanos
	decodeTimestampMillis
	decodeTimestampMicros
	decodeTimestampNanos
	decodeDecimal
	decodeInt8
	decodeInt16
	decodeUint8
	decodeUint16
	decodeUint32
	decodeUint64
	decodeFloat16
	decodeUUID
)

// decoding classifies a leaf by its physical type and annotation.
// Annotations that do not fit the physical type are ignored.
func (t TypeTags) decoding() decodeKind {
	if t.Physical == nil {
		return decodePhysical
	}
	switch *t.Physical {
	case format.Int32:
		switch t.Logical {
		case LogicalDate:
			return decodeDate
		case LogicalTime:
			if t.Unit == UnitMillis {
				return decodeTimeMillis
			}
		case LogicalDecimal:
			return decodeDecimal
		case LogicalInteger:
			return intDecoding(t.BitWidth, t.Signed, 32)
		}
	case format.Int64:
		switch t.Logical {
		case LogicalTime:
			switch t.Unit {
			case UnitMicros:
				return decodeTimeMicros
			case UnitNanos:
				return decodeTimeNanos
			}
		case LogicalTimestamp:
			switch t.Unit {
			case UnitMillis:
				return decodeTimestampMillis
			case UnitMicros:
				return decodeTimestampMicros
			default:
				return decodeTimestampNanos
			}
		case LogicalDecimal:
			return decodeDecimal
		case LogicalInteger:
			return intDecoding(t.BitWidth, t.Signed, 64)
		}
	case format.Int96:
		return decodeTimestampNanos
	case format.ByteArray:
		switch t.Logical {
		case LogicalString, LogicalEnum, LogicalJSON:
			return decodeString
		case LogicalDecimal:
			return decodeDecimal
		}
	case format.FixedLenByteArray:
		switch t.Logical {
		case LogicalFloat16:
			if t.TypeLength == 2 {
				return decodeFloat16
			}
		case LogicalUUID:
			if t.TypeLength == 16 {
				return decodeUUID
			}
		case LogicalDecimal:
			return decodeDecimal
		case LogicalString, LogicalEnum, LogicalJSON:
			return decodeString
		}
	}
	return decodePhysical
}

func intDecoding(bits int, signed bool, physicalBits int) decodeKind {
	if signed {
		switch bits {
		case 8:
			return decodeInt8
		case 16:
			return decodeInt16
		}
		return decodePhysical
	}
	switch bits {
	case 8:
		return decodeUint8
	case 16:
		return decodeUint16
	case 32:
		return decodeUint32
	case 64:
		if physicalBits == 64 {
			return decodeUint64
		}
	}
	return decodePhysical
}

// ValueKind returns the variant a leaf with these tags decodes to.
func (t TypeTags) ValueKind() value.Kind {
	switch t.decoding() {
	case decodeString, decodeUUID:
		return value.KindString
	case decodeDate:
		return value.KindDate
	case decodeTimeMillis:
		return value.KindTimeMillis
	case decodeTimeMicros:
		return value.KindTimeMicros
	case decodeTimeNanos:
		return value.KindTimeNanos
	case decodeTimestampMillis:
		return value.KindTimestampMillis
	case decodeTimestampMicros:
		return value.KindTimestampMicros
	case decodeTimestampNanos:
		return value.KindTimestampNanos
	case decodeDecimal:
		return value.KindDecimal
	case decodeInt8:
		return value.KindInt8
	case decodeInt16:
		return value.KindInt16
	case decodeUint8:
		return value.KindUint8
	case decodeUint16:
		return value.KindUint16
	case decodeUint32:
		return value.KindUint32
	case decodeUint64:
		return value.KindUint64
	case decodeFloat16:
		return value.KindFloat16
	}
	if t.Physical == nil {
		return value.KindRecord
	}
	switch *t.Physical {
	case format.Boolean:
		return value.KindBool
	case format.Int32:
		return value.KindInt32
	case format.Int64:
		return value.KindInt64
	case format.Int96:
		return value.KindTimestampNanos
	case format.Float:
		return value.KindFloat32
	case format.Double:
		return value.KindFloat64
	}
	return value.KindBytes
}
