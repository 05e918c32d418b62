package query

import (
	"math"
	"strings"
	"time"

	"github.com/vegasq/parqsee/value"
)

// Date/Time Functions
//
// Temporal arguments are DATE, TIMESTAMP and TIME values, or strings parsed
// as timestamps. Calendar fields are read in UTC.

// now is the clock behind NOW, CURRENT_DATE and CURRENT_TIME.
var now = time.Now

const maxCalendarShift = 1 << 30

// clockUnits maps sub-day units to their length in nanoseconds.
var clockUnits = map[string]int64{
	"hour":        3_600_000_000_000,
	"minute":      60_000_000_000,
	"second":      1_000_000_000,
	"millisecond": 1_000_000,
	"microsecond": 1_000,
}

func normalizeUnit(name string, v value.Value) (string, error) {
	if value.IsNull(v) {
		return "", evalError("%s: unit must not be NULL", name)
	}
	s, err := valueToString(name, v)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"), nil
}

// temporalArg reads a temporal argument as an instant and its group.
func temporalArg(name string, v value.Value) (instant, int, error) {
	if s, ok := v.(value.String); ok {
		t, ok := parseTimestamp(string(s))
		if !ok {
			return instant{}, temporalNone, evalError("%s: cannot parse date: %s", name, string(s))
		}
		return instantOf(t), temporalInstant, nil
	}
	in, group := temporalOf(v)
	if group == temporalNone {
		return instant{}, temporalNone, evalError("%s expects a date, timestamp or time, got %s", name, v.Kind())
	}
	return in, group, nil
}

func instantOf(t time.Time) instant {
	return instant{sec: t.Unix(), nsec: int64(t.Nanosecond())}
}

func (a instant) time() time.Time {
	return time.Unix(a.sec, a.nsec).UTC()
}

// temporalKind is the kind a function returns for a temporal argument of
// kind k. Strings become nanosecond timestamps, as CAST(x AS TIMESTAMP) does.
func temporalKind(k value.Kind) value.Kind {
	if k == value.KindString {
		return value.KindTimestampNanos
	}
	return k
}

// scaleUnits converts in to whole units of 1/perSecond seconds, rounding
// down. ok is false when the result does not fit in an int64.
func scaleUnits(in instant, perSecond int64) (int64, bool) {
	if in.sec > math.MaxInt64/perSecond || in.sec < math.MinInt64/perSecond {
		return 0, false
	}
	n := in.sec * perSecond
	sub := in.nsec / (1_000_000_000 / perSecond)
	if n > math.MaxInt64-sub {
		return 0, false
	}
	return n + sub, true
}

// fromInstant builds a value of kind k. Times of day wrap around midnight.
func fromInstant(k value.Kind, in instant) (value.Value, bool) {
	switch k {
	case value.KindDate:
		d := floorDiv(in.sec, 86_400)
		if d < math.MinInt32 || d > math.MaxInt32 {
			return nil, false
		}
		return value.Date(d), true
	case value.KindTimeMillis, value.KindTimeMicros, value.KindTimeNanos:
		in.sec = floorMod(in.sec, 86_400)
	}

	switch k {
	case value.KindTimestampMillis, value.KindTimeMillis:
		n, ok := scaleUnits(in, 1_000)
		if !ok {
			return nil, false
		}
		if k == value.KindTimeMillis {
			return value.TimeMillis(n), true
		}
		return value.TimestampMillis(n), true
	case value.KindTimestampMicros, value.KindTimeMicros:
		n, ok := scaleUnits(in, 1_000_000)
		if !ok {
			return nil, false
		}
		if k == value.KindTimeMicros {
			return value.TimeMicros(n), true
		}
		return value.TimestampMicros(n), true
	case value.KindTimestampNanos, value.KindTimeNanos:
		n, ok := scaleUnits(in, 1_000_000_000)
		if !ok {
			return nil, false
		}
		if k == value.KindTimeNanos {
			return value.TimeNanos(n), true
		}
		return value.TimestampNanos(n), true
	}
	return nil, false
}

func temporalResult(name string, k value.Kind, in instant) (value.Value, error) {
	out, ok := fromInstant(temporalKind(k), in)
	if !ok {
		return nil, evalError("%s: result out of range for %s", name, temporalKind(k))
	}
	return out, nil
}

// NowFunc returns the current timestamp
type NowFunc struct{}

func (f *NowFunc) Name() string                       { return "NOW" }
func (f *NowFunc) MinArity() int                      { return 0 }
func (f *NowFunc) MaxArity() int                      { return 0 }
func (f *NowFunc) ReturnKind([]value.Kind) value.Kind { return value.KindTimestampMicros }
func (f *NowFunc) Evaluate([]value.Value) (value.Value, error) {
	return value.TimestampMicros(now().UnixMicro()), nil
}

// CurrentDateFunc returns the current date
type CurrentDateFunc struct{}

func (f *CurrentDateFunc) Name() string                       { return "CURRENT_DATE" }
func (f *CurrentDateFunc) MinArity() int                      { return 0 }
func (f *CurrentDateFunc) MaxArity() int                      { return 0 }
func (f *CurrentDateFunc) ReturnKind([]value.Kind) value.Kind { return value.KindDate }
func (f *CurrentDateFunc) Evaluate([]value.Value) (value.Value, error) {
	return value.Date(floorDiv(now().Unix(), 86_400)), nil
}

// CurrentTimeFunc returns the current time of day
type CurrentTimeFunc struct{}

func (f *CurrentTimeFunc) Name() string                       { return "CURRENT_TIME" }
func (f *CurrentTimeFunc) MinArity() int                      { return 0 }
func (f *CurrentTimeFunc) MaxArity() int                      { return 0 }
func (f *CurrentTimeFunc) ReturnKind([]value.Kind) value.Kind { return value.KindTimeMicros }
func (f *CurrentTimeFunc) Evaluate([]value.Value) (value.Value, error) {
	out, _ := fromInstant(value.KindTimeMicros, instantOf(now()))
	return out, nil
}

// DateTruncFunc truncates a temporal value to the specified unit. The
// result keeps the kind of its argument.
type DateTruncFunc struct{}

func (f *DateTruncFunc) Name() string  { return "DATE_TRUNC" }
func (f *DateTruncFunc) MinArity() int { return 2 }
func (f *DateTruncFunc) MaxArity() int { return 2 }
func (f *DateTruncFunc) ReturnKind(args []value.Kind) value.Kind {
	return temporalKind(args[1])
}
func (f *DateTruncFunc) Evaluate(args []value.Value) (value.Value, error) {
	unit, err := normalizeUnit(f.Name(), args[0])
	if err != nil {
		return nil, err
	}
	if value.IsNull(args[1]) {
		return value.Null{}, nil
	}
	in, group, err := temporalArg(f.Name(), args[1])
	if err != nil {
		return nil, err
	}

	t := in.time()
	y, m, d := t.Date()
	var out time.Time
	switch unit {
	case "year":
		out = time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	case "quarter":
		out = time.Date(y, (m-1)/3*3+1, 1, 0, 0, 0, 0, time.UTC)
	case "month":
		out = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case "week":
		// Weeks start on Monday.
		out = time.Date(y, m, d-(int(t.Weekday())+6)%7, 0, 0, 0, 0, time.UTC)
	case "day":
		out = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case "hour":
		out = time.Date(y, m, d, t.Hour(), 0, 0, 0, time.UTC)
	case "minute":
		out = time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.UTC)
	case "second":
		out = time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	default:
		return nil, evalError("%s: invalid unit: %s", f.Name(), unit)
	}
	if group == temporalTimeOfDay && clockUnits[unit] == 0 {
		return nil, evalError("%s: cannot truncate a time of day to %s", f.Name(), unit)
	}
	return temporalResult(f.Name(), args[1].Kind(), instantOf(out))
}

// datePart extracts one field of a temporal value. millisecond and
// microsecond are the fraction of the current second; epoch counts seconds
// since the Unix epoch, or since midnight for a time of day.
func datePart(name, unit string, in instant, group int) (int64, error) {
	t := in.time()
	switch unit {
	case "hour":
		return int64(t.Hour()), nil
	case "minute":
		return int64(t.Minute()), nil
	case "second":
		return int64(t.Second()), nil
	case "millisecond":
		return in.nsec / 1_000_000, nil
	case "microsecond":
		return in.nsec / 1_000, nil
	case "epoch":
		return in.sec, nil
	}
	if group == temporalTimeOfDay {
		return 0, evalError("%s: a time of day has no %s", name, unit)
	}
	switch unit {
	case "year":
		return int64(t.Year()), nil
	case "quarter":
		return int64(t.Month()-1)/3 + 1, nil
	case "month":
		return int64(t.Month()), nil
	case "week":
		_, week := t.ISOWeek()
		return int64(week), nil
	case "day":
		return int64(t.Day()), nil
	case "dow", "dayofweek":
		return int64(t.Weekday()), nil
	case "doy", "dayofyear":
		return int64(t.YearDay()), nil
	}
	return 0, evalError("%s: invalid unit: %s", name, unit)
}

// DatePartFunc extracts a part of a temporal value
type DatePartFunc struct{}

func (f *DatePartFunc) Name() string                       { return "DATE_PART" }
func (f *DatePartFunc) MinArity() int                      { return 2 }
func (f *DatePartFunc) MaxArity() int                      { return 2 }
func (f *DatePartFunc) ReturnKind([]value.Kind) value.Kind { return value.KindInt64 }
func (f *DatePartFunc) Evaluate(args []value.Value) (value.Value, error) {
	unit, err := normalizeUnit(f.Name(), args[0])
	if err != nil {
		return nil, err
	}
	if value.IsNull(args[1]) {
		return value.Null{}, nil
	}
	in, group, err := temporalArg(f.Name(), args[1])
	if err != nil {
		return nil, err
	}
	n, err := datePart(f.Name(), unit, in, group)
	if err != nil {
		return nil, err
	}
	return value.Int64(n), nil
}

// PartFunc is a one-argument shorthand for DATE_PART, such as YEAR(x).
type PartFunc struct {
	name string
	unit string
}

func (f *PartFunc) Name() string                       { return f.name }
func (f *PartFunc) MinArity() int                      { return 1 }
func (f *PartFunc) MaxArity() int                      { return 1 }
func (f *PartFunc) ReturnKind([]value.Kind) value.Kind { return value.KindInt64 }
func (f *PartFunc) Evaluate(args []value.Value) (value.Value, error) {
	if value.IsNull(args[0]) {
		return value.Null{}, nil
	}
	in, group, err := temporalArg(f.name, args[0])
	if err != nil {
		return nil, err
	}
	n, err := datePart(f.name, f.unit, in, group)
	if err != nil {
		return nil, err
	}
	return value.Int64(n), nil
}

// shift moves v by amount units. The result keeps the kind of v.
func shift(name string, v value.Value, amount int64, unit string) (value.Value, error) {
	in, group, err := temporalArg(name, v)
	if err != nil {
		return nil, err
	}

	if size, ok := clockUnits[unit]; ok {
		if v.Kind() == value.KindDate {
			return nil, evalError("%s: cannot add %s to a DATE", name, unit)
		}
		var delta instant
		if size >= 1_000_000_000 {
			perUnit := size / 1_000_000_000
			if amount > math.MaxInt64/perUnit || amount < math.MinInt64/perUnit {
				return nil, evalError("%s: amount out of valid range", name)
			}
			delta = instant{sec: amount * perUnit}
		} else {
			delta = splitUnits(amount, 1_000_000_000/size)
		}
		sum := instant{sec: in.sec + delta.sec, nsec: in.nsec + delta.nsec}
		if (delta.sec > 0 && sum.sec < in.sec) || (delta.sec < 0 && sum.sec > in.sec) {
			return nil, evalError("%s: amount out of valid range", name)
		}
		if sum.nsec >= 1_000_000_000 {
			sum.sec++
			sum.nsec -= 1_000_000_000
		}
		return temporalResult(name, v.Kind(), sum)
	}

	if group == temporalTimeOfDay {
		return nil, evalError("%s: cannot add %s to a time of day", name, unit)
	}
	if amount > maxCalendarShift || amount < -maxCalendarShift {
		return nil, evalError("%s: amount out of valid range", name)
	}
	n := int(amount)
	t := in.time()
	switch unit {
	case "year":
		t = t.AddDate(n, 0, 0)
	case "quarter":
		t = t.AddDate(0, 3*n, 0)
	case "month":
		t = t.AddDate(0, n, 0)
	case "week":
		t = t.AddDate(0, 0, 7*n)
	case "day":
		t = t.AddDate(0, 0, n)
	default:
		return nil, evalError("%s: invalid unit: %s", name, unit)
	}
	return temporalResult(name, v.Kind(), instantOf(t))
}

func shiftArgs(name string, args []value.Value, negate bool) (value.Value, error) {
	unit, err := normalizeUnit(name, args[2])
	if err != nil {
		return nil, err
	}
	if value.IsNull(args[0]) || value.IsNull(args[1]) {
		return value.Null{}, nil
	}
	amount, err := valueToInt(name, args[1])
	if err != nil {
		return nil, err
	}
	if negate {
		if amount == math.MinInt64 {
			return nil, evalError("%s: amount out of valid range", name)
		}
		amount = -amount
	}
	return shift(name, args[0], amount, unit)
}

// DateAddFunc adds an interval to a temporal value: DATE_ADD(x, amount, unit)
type DateAddFunc struct{}

func (f *DateAddFunc) Name() string  { return "DATE_ADD" }
func (f *DateAddFunc) MinArity() int { return 3 }
func (f *DateAddFunc) MaxArity() int { return 3 }
func (f *DateAddFunc) ReturnKind(args []value.Kind) value.Kind {
	return temporalKind(args[0])
}
func (f *DateAddFunc) Evaluate(args []value.Value) (value.Value, error) {
	return shiftArgs(f.Name(), args, false)
}

// DateSubFunc subtracts an interval from a temporal value
type DateSubFunc struct{}

func (f *DateSubFunc) Name() string  { return "DATE_SUB" }
func (f *DateSubFunc) MinArity() int { return 3 }
func (f *DateSubFunc) MaxArity() int { return 3 }
func (f *DateSubFunc) ReturnKind(args []value.Kind) value.Kind {
	return temporalKind(args[0])
}
func (f *DateSubFunc) Evaluate(args []value.Value) (value.Value, error) {
	return shiftArgs(f.Name(), args, true)
}

// DateDiffFunc returns a - b in whole units, days unless a unit is given:
// DATE_DIFF(a, b [, unit]). Partial units truncate toward zero.
type DateDiffFunc struct{}

func (f *DateDiffFunc) Name() string                       { return "DATE_DIFF" }
func (f *DateDiffFunc) MinArity() int                      { return 2 }
func (f *DateDiffFunc) MaxArity() int                      { return 3 }
func (f *DateDiffFunc) ReturnKind([]value.Kind) value.Kind { return value.KindInt64 }
func (f *DateDiffFunc) Evaluate(args []value.Value) (value.Value, error) {
	unit := "day"
	if len(args) == 3 {
		var err error
		if unit, err = normalizeUnit(f.Name(), args[2]); err != nil {
			return nil, err
		}
	}
	if value.IsNull(args[0]) || value.IsNull(args[1]) {
		return value.Null{}, nil
	}
	a, ga, err := temporalArg(f.Name(), args[0])
	if err != nil {
		return nil, err
	}
	b, gb, err := temporalArg(f.Name(), args[1])
	if err != nil {
		return nil, err
	}
	if ga != gb {
		return nil, evalError("%s: cannot subtract %s from %s", f.Name(), args[1].Kind(), args[0].Kind())
	}

	d := instant{sec: a.sec - b.sec, nsec: a.nsec - b.nsec}
	if d.nsec < 0 {
		d.sec--
		d.nsec += 1_000_000_000
	}

	size, ok := clockUnits[unit]
	switch unit {
	case "day":
		size, ok = 86_400_000_000_000, true
	case "week":
		size, ok = 7*86_400_000_000_000, true
	}
	if !ok {
		return nil, evalError("%s: invalid unit: %s", f.Name(), unit)
	}

	if size >= 1_000_000_000 {
		whole := d.sec
		if whole < 0 && d.nsec > 0 {
			whole++
		}
		return value.Int64(whole / (size / 1_000_000_000)), nil
	}
	n, ok := scaleUnits(d, 1_000_000_000/size)
	if !ok {
		return nil, evalError("%s: result out of range", f.Name())
	}
	if n < 0 && d.nsec%size != 0 {
		n++
	}
	return value.Int64(n), nil
}
