package query

import (
	"strings"
	"time"

	"github.com/vegasq/parqsee/value"
)

// Type Conversion Functions
//
// CAST(x AS type) and TRY_CAST(x AS type) are parsed as expressions; the
// functions here cover the conversions with no type name.

// strftimeLayout translates a strftime-style format such as "%d/%m/%Y" to
// a Go time layout.
func strftimeLayout(name, format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}
		i++
		if i == len(format) {
			return "", evalError("%s: format ends with %%", name)
		}
		switch format[i] {
		case 'Y':
			b.WriteString("2006")
		case 'y':
			b.WriteString("06")
		case 'm':
			b.WriteString("01")
		case 'd':
			b.WriteString("02")
		case 'H':
			b.WriteString("15")
		case 'M':
			b.WriteString("04")
		case 'S':
			b.WriteString("05")
		case 'f':
			b.WriteString("000000")
		case 'b':
			b.WriteString("Jan")
		case 'B':
			b.WriteString("January")
		case 'z':
			b.WriteString("-0700")
		case '%':
			b.WriteByte('%')
		default:
			return "", evalError("%s: unsupported format directive %%%c", name, format[i])
		}
	}
	return b.String(), nil
}

// parseWith parses s with a strftime format, or with the timestamp layouts
// CAST accepts when format is empty.
func parseWith(name string, v value.Value, format string) (time.Time, error) {
	s, err := valueToString(name, v)
	if err != nil {
		return time.Time{}, err
	}
	if format == "" {
		t, ok := parseTimestamp(s)
		if !ok {
			return time.Time{}, evalError("%s: cannot parse date: %s", name, s)
		}
		return t, nil
	}
	layout, err := strftimeLayout(name, format)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, evalError("%s: cannot parse %q with format %q", name, s, format)
	}
	return t, nil
}

// convertTemporal implements TO_DATE and TO_TIMESTAMP.
func convertTemporal(name string, args []value.Value, to value.Kind) (value.Value, error) {
	if value.IsNull(args[0]) {
		return value.Null{}, nil
	}
	if len(args) == 1 {
		if _, ok := args[0].(value.String); !ok {
			return cast(args[0], to)
		}
	}
	var format string
	if len(args) == 2 {
		if value.IsNull(args[1]) {
			return value.Null{}, nil
		}
		var err error
		if format, err = valueToString(name, args[1]); err != nil {
			return nil, err
		}
	}
	t, err := parseWith(name, args[0], format)
	if err != nil {
		return nil, err
	}
	return temporalResult(name, to, instantOf(t))
}

// ToDateFunc converts a value to a date: TO_DATE(x [, format])
type ToDateFunc struct{}

func (f *ToDateFunc) Name() string                       { return "TO_DATE" }
func (f *ToDateFunc) MinArity() int                      { return 1 }
func (f *ToDateFunc) MaxArity() int                      { return 2 }
func (f *ToDateFunc) ReturnKind([]value.Kind) value.Kind { return value.KindDate }
func (f *ToDateFunc) Evaluate(args []value.Value) (value.Value, error) {
	return convertTemporal(f.Name(), args, value.KindDate)
}

// ToTimestampFunc converts a value to a timestamp: TO_TIMESTAMP(x [, format])
type ToTimestampFunc struct{}

func (f *ToTimestampFunc) Name() string                       { return "TO_TIMESTAMP" }
func (f *ToTimestampFunc) MinArity() int                      { return 1 }
func (f *ToTimestampFunc) MaxArity() int                      { return 2 }
func (f *ToTimestampFunc) ReturnKind([]value.Kind) value.Kind { return value.KindTimestampNanos }
func (f *ToTimestampFunc) Evaluate(args []value.Value) (value.Value, error) {
	return convertTemporal(f.Name(), args, value.KindTimestampNanos)
}

// ToStringFunc converts a scalar to its text form
type ToStringFunc struct{}

func (f *ToStringFunc) Name() string                       { return "TO_STRING" }
func (f *ToStringFunc) MinArity() int                      { return 1 }
func (f *ToStringFunc) MaxArity() int                      { return 1 }
func (f *ToStringFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (f *ToStringFunc) Evaluate(args []value.Value) (value.Value, error) {
	return mapString(f.Name(), args[0], func(s string) string { return s })
}

// ToNumberFunc converts a value to a number. Decimals stay exact; everything
// else becomes a DOUBLE.
type ToNumberFunc struct{}

func (f *ToNumberFunc) Name() string  { return "TO_NUMBER" }
func (f *ToNumberFunc) MinArity() int { return 1 }
func (f *ToNumberFunc) MaxArity() int { return 1 }
func (f *ToNumberFunc) ReturnKind(args []value.Kind) value.Kind {
	switch args[0] {
	case value.KindDecimal, value.KindNull:
		return args[0]
	}
	return value.KindFloat64
}
func (f *ToNumberFunc) Evaluate(args []value.Value) (value.Value, error) {
	switch args[0].(type) {
	case value.Decimal:
		return args[0], nil
	case value.List, value.Map, value.Record:
		return nil, evalError("%s expects a scalar argument, got %s", f.Name(), args[0].Kind())
	}
	return cast(args[0], value.KindFloat64)
}
