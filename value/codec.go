package value

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow/float16"
	json "github.com/goccy/go-json"
)

const (
	millisPerSecond = int64(1_000)
	microsPerSecond = int64(1_000_000)
	nanosPerSecond  = int64(1_000_000_000)
	secondsPerDay   = int64(86_400)

	dateLayout = "2006-01-02"
)

// Temporal values whose year falls outside this range are not rendered as
// calendar text.
var (
	minRepresentable = time.Date(-262143, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxRepresentable = time.Date(262143, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// Placeholders written in place of nested values by ToText.
const (
	GroupPlaceholder = "[GROUP]"
	ListPlaceholder  = "[LIST]"
	MapPlaceholder   = "[MAP]"
)

// ToJSON converts v into a JSON-like Go value: nil, bool, int64, uint64,
// float64, string, []interface{} or Object.
//
// Non-finite floats become 0. Temporal values that cannot be rendered as
// calendar text are returned as their raw integer encoding.
func ToJSON(v Value) interface{} {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int8:
		return int64(val)
	case Int16:
		return int64(val)
	case Int32:
		return int64(val)
	case Int64:
		return int64(val)
	case Uint8:
		return uint64(val)
	case Uint16:
		return uint64(val)
	case Uint32:
		return uint64(val)
	case Uint64:
		return uint64(val)
	case Float16:
		return finite(float64(float16.FromBits(uint16(val)).Float32()))
	case Float32:
		return finite(float64(val))
	case Float64:
		return finite(float64(val))
	case Decimal:
		return val.String()
	case String:
		return string(val)
	case Bytes:
		return base64.StdEncoding.EncodeToString(val)
	case Date:
		if s, ok := formatDate(val); ok {
			return s
		}
		return int64(val)
	case TimeMillis:
		if s, ok := formatTimeOfDay(int64(val), millisPerSecond, 3); ok {
			return s
		}
		return int64(val)
	case TimeMicros:
		if s, ok := formatTimeOfDay(int64(val), microsPerSecond, 6); ok {
			return s
		}
		return int64(val)
	case TimeNanos:
		if s, ok := formatTimeOfDay(int64(val), nanosPerSecond, 9); ok {
			return s
		}
		return int64(val)
	case TimestampMillis:
		if s, ok := formatTimestamp(int64(val), millisPerSecond, ".000"); ok {
			return s
		}
		return int64(val)
	case TimestampMicros:
		if s, ok := formatTimestamp(int64(val), microsPerSecond, ".000000"); ok {
			return s
		}
		return int64(val)
	case TimestampNanos:
		if s, ok := formatTimestamp(int64(val), nanosPerSecond, ".000000000"); ok {
			return s
		}
		return int64(val)
	case List:
		items := make([]interface{}, len(val))
		for i, item := range val {
			items[i] = ToJSON(item)
		}
		return items
	case Map:
		obj := make(Object, 0, len(val))
		index := make(map[string]int, len(val))
		for _, entry := range val {
			key := keyString(entry.Key)
			// Keys that encode identically collapse; the last one wins.
			if i, ok := index[key]; ok {
				obj[i].Value = ToJSON(entry.Value)
				continue
			}
			index[key] = len(obj)
			obj = append(obj, Member{Key: key, Value: ToJSON(entry.Value)})
		}
		return obj
	case Record:
		return RowToJSON(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// RowToJSON converts every field of row, in order. Field names of a row are
// unique.
func RowToJSON(row Record) Object {
	obj := make(Object, len(row))
	for i, f := range row {
		obj[i] = Member{Key: f.Name, Value: ToJSON(f.Value)}
	}
	return obj
}

// ToText renders v for flat export formats. Nested values are written as
// placeholder tokens, null as the empty string.
func ToText(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case Bool:
		return strconv.FormatBool(bool(val))
	case Int8:
		return strconv.FormatInt(int64(val), 10)
	case Int16:
		return strconv.FormatInt(int64(val), 10)
	case Int32:
		return strconv.FormatInt(int64(val), 10)
	case Int64:
		return strconv.FormatInt(int64(val), 10)
	case Uint8:
		return strconv.FormatUint(uint64(val), 10)
	case Uint16:
		return strconv.FormatUint(uint64(val), 10)
	case Uint32:
		return strconv.FormatUint(uint64(val), 10)
	case Uint64:
		return strconv.FormatUint(uint64(val), 10)
	case Float16:
		return strconv.FormatFloat(float64(float16.FromBits(uint16(val)).Float32()), 'f', -1, 64)
	case Float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case Float64:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Decimal:
		return val.String()
	case String:
		return string(val)
	case Bytes:
		return base64.StdEncoding.EncodeToString(val)
	case Record:
		return GroupPlaceholder
	case List:
		return ListPlaceholder
	case Map:
		return MapPlaceholder
	default:
		// Temporal scalars share their JSON rendering.
		switch j := ToJSON(v).(type) {
		case string:
			return j
		case int64:
			return strconv.FormatInt(j, 10)
		default:
			return fmt.Sprintf("%v", j)
		}
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// keyString turns a map key into an object key: the JSON encoding of the
// converted key, so string keys keep their quotes.
func keyString(k Value) string {
	j := ToJSON(k)
	b, err := json.Marshal(j)
	if err != nil {
		return fmt.Sprintf("%v", j)
	}
	return string(b)
}

func formatDate(d Date) (string, bool) {
	sec := int64(d) * secondsPerDay
	if sec < minRepresentable || sec > maxRepresentable {
		return "", false
	}
	return time.Unix(sec, 0).UTC().Format(dateLayout), true
}

// formatTimestamp renders v, counted in 1/unitsPerSecond since the epoch,
// as "YYYY-MM-DD HH:MM:SS" followed by the fractional layout.
func formatTimestamp(v, unitsPerSecond int64, fraction string) (string, bool) {
	sec := v / unitsPerSecond
	rem := v % unitsPerSecond
	if rem < 0 {
		sec--
		rem += unitsPerSecond
	}
	if sec < minRepresentable || sec > maxRepresentable {
		return "", false
	}
	nanos := rem * (nanosPerSecond / unitsPerSecond)
	return time.Unix(sec, nanos).UTC().Format("2006-01-02 15:04:05" + fraction), true
}

// formatTimeOfDay renders v, counted in 1/unitsPerSecond since midnight,
// as "HH:MM:SS.f" with digits fractional digits. Values outside one day are
// rejected.
func formatTimeOfDay(v, unitsPerSecond int64, digits int) (string, bool) {
	if v < 0 || v >= secondsPerDay*unitsPerSecond {
		return "", false
	}
	hours := v / (3600 * unitsPerSecond)
	minutes := v % (3600 * unitsPerSecond) / (60 * unitsPerSecond)
	seconds := v % (60 * unitsPerSecond) / unitsPerSecond
	frac := v % unitsPerSecond
	return fmt.Sprintf("%02d:%02d:%02d.%0*d", hours, minutes, seconds, digits, frac), true
}
