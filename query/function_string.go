package query

import (
	"strings"

	"github.com/vegasq/parqsee/value"
)

// UpperFunc converts a string to uppercase
type UpperFunc struct{}

func (f *UpperFunc) Name() string                       { return "UPPER" }
func (f *UpperFunc) MinArity() int                      { return 1 }
func (f *UpperFunc) MaxArity() int                      { return 1 }
func (f *UpperFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (f *UpperFunc) Evaluate(args []value.Value) (value.Value, error) {
	return mapString(f.Name(), args[0], strings.ToUpper)
}

// LowerFunc converts a string to lowercase
type LowerFunc struct{}

func (f *LowerFunc) Name() string                       { return "LOWER" }
func (f *LowerFunc) MinArity() int                      { return 1 }
func (f *LowerFunc) MaxArity() int                      { return 1 }
func (f *LowerFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (f *LowerFunc) Evaluate(args []value.Value) (value.Value, error) {
	return mapString(f.Name(), args[0], strings.ToLower)
}

// TrimFunc removes leading and trailing whitespace
type TrimFunc struct{}

func (f *TrimFunc) Name() string                       { return "TRIM" }
func (f *TrimFunc) MinArity() int                      { return 1 }
func (f *TrimFunc) MaxArity() int                      { return 1 }
func (f *TrimFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (f *TrimFunc) Evaluate(args []value.Value) (value.Value, error) {
	return mapString(f.Name(), args[0], strings.TrimSpace)
}

// LTrimFunc removes leading whitespace
type LTrimFunc struct{}

func (f *LTrimFunc) Name() string                       { return "LTRIM" }
func (f *LTrimFunc) MinArity() int                      { return 1 }
func (f *LTrimFunc) MaxArity() int                      { return 1 }
func (f *LTrimFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (f *LTrimFunc) Evaluate(args []value.Value) (value.Value, error) {
	return mapString(f.Name(), args[0], func(s string) string {
		return strings.TrimLeft(s, " \t\r\n")
	})
}

// RTrimFunc removes trailing whitespace
type RTrimFunc struct{}

func (f *RTrimFunc) Name() string                       { return "RTRIM" }
func (f *RTrimFunc) MinArity() int                      { return 1 }
func (f *RTrimFunc) MaxArity() int                      { return 1 }
func (f *RTrimFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (f *RTrimFunc) Evaluate(args []value.Value) (value.Value, error) {
	return mapString(f.Name(), args[0], func(s string) string {
		return strings.TrimRight(s, " \t\r\n")
	})
}

func mapString(name string, v value.Value, fn func(string) string) (value.Value, error) {
	if value.IsNull(v) {
		return value.Null{}, nil
	}
	s, err := valueToString(name, v)
	if err != nil {
		return nil, err
	}
	return value.String(fn(s)), nil
}

// LengthFunc returns the number of characters in a string
type LengthFunc struct{}

func (f *LengthFunc) Name() string                       { return "LENGTH" }
func (f *LengthFunc) MinArity() int                      { return 1 }
func (f *LengthFunc) MaxArity() int                      { return 1 }
func (f *LengthFunc) ReturnKind([]value.Kind) value.Kind { return value.KindInt64 }
func (f *LengthFunc) Evaluate(args []value.Value) (value.Value, error) {
	if value.IsNull(args[0]) {
		return value.Null{}, nil
	}
	s, err := valueToString(f.Name(), args[0])
	if err != nil {
		return nil, err
	}
	return value.Int64(runeLength(s)), nil
}

// SubstrFunc extracts a substring: SUBSTR(str, start[, length]).
// start is 1-based; positions before the string shorten the result.
type SubstrFunc struct{}

func (f *SubstrFunc) Name() string                       { return "SUBSTR" }
func (f *SubstrFunc) MinArity() int                      { return 2 }
func (f *SubstrFunc) MaxArity() int                      { return 3 }
func (f *SubstrFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (f *SubstrFunc) Evaluate(args []value.Value) (value.Value, error) {
	if anyNull(args) {
		return value.Null{}, nil
	}
	s, err := valueToString(f.Name(), args[0])
	if err != nil {
		return nil, err
	}
	start, err := valueToInt(f.Name(), args[1])
	if err != nil {
		return nil, err
	}

	runes := []rune(s)
	end := int64(len(runes)) + 1
	if len(args) == 3 {
		length, err := valueToInt(f.Name(), args[2])
		if err != nil {
			return nil, err
		}
		if length < 0 {
			return nil, evalError("%s length must not be negative, got %d", f.Name(), length)
		}
		end = start + length
	}

	from := max(start, 1)
	to := min(end, int64(len(runes))+1)
	if from >= to {
		return value.String(""), nil
	}
	return value.String(string(runes[from-1 : to-1])), nil
}

// ReplaceFunc replaces every occurrence of a substring
type ReplaceFunc struct{}

func (f *ReplaceFunc) Name() string                       { return "REPLACE" }
func (f *ReplaceFunc) MinArity() int                      { return 3 }
func (f *ReplaceFunc) MaxArity() int                      { return 3 }
func (f *ReplaceFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (f *ReplaceFunc) Evaluate(args []value.Value) (value.Value, error) {
	if anyNull(args) {
		return value.Null{}, nil
	}
	texts := make([]string, 3)
	for i, a := range args {
		s, err := valueToString(f.Name(), a)
		if err != nil {
			return nil, err
		}
		texts[i] = s
	}
	return value.String(strings.ReplaceAll(texts[0], texts[1], texts[2])), nil
}

// ConcatFunc concatenates its arguments, skipping nulls
type ConcatFunc struct{}

func (f *ConcatFunc) Name() string                       { return "CONCAT" }
func (f *ConcatFunc) MinArity() int                      { return 1 }
func (f *ConcatFunc) MaxArity() int                      { return -1 } // variadic
func (f *ConcatFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (f *ConcatFunc) Evaluate(args []value.Value) (value.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		if value.IsNull(a) {
			continue
		}
		s, err := valueToString(f.Name(), a)
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)
	}
	return value.String(sb.String()), nil
}
