package query

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vegasq/parqsee/value"
)

// numericResult is the result kind of functions that keep integers as
// integers and widen everything else.
func numericResult(args []value.Kind) value.Kind {
	switch k := firstKind(args); k {
	case value.KindInt8, value.KindInt16, value.KindInt32, value.KindInt64,
		value.KindUint8, value.KindUint16, value.KindUint32:
		return value.KindInt64
	case value.KindDecimal:
		return value.KindDecimal
	case value.KindNull:
		return value.KindNull
	}
	return value.KindFloat64
}

// AbsFunc returns the absolute value
type AbsFunc struct{}

func (f *AbsFunc) Name() string                            { return "ABS" }
func (f *AbsFunc) MinArity() int                           { return 1 }
func (f *AbsFunc) MaxArity() int                           { return 1 }
func (f *AbsFunc) ReturnKind(args []value.Kind) value.Kind { return numericResult(args) }
func (f *AbsFunc) Evaluate(args []value.Value) (value.Value, error) {
	v := args[0]
	if value.IsNull(v) {
		return value.Null{}, nil
	}
	switch classify(v) {
	case classInt:
		if i, ok := asInt(v); ok {
			if i < 0 {
				i = -i
			}
			return value.Int64(i), nil
		}
		d, _ := asDecimal(v)
		return fromDecimal(d.Abs()), nil
	case classDecimal:
		d, _ := asDecimal(v)
		return fromDecimal(d.Abs()), nil
	case classFloat:
		fl, _ := asFloat(v)
		return value.Float64(math.Abs(fl)), nil
	}
	return nil, evalError("%s expects a numeric argument, got %s", f.Name(), v.Kind())
}

// RoundFunc rounds to the nearest integer, or to a number of decimal places
type RoundFunc struct{}

func (f *RoundFunc) Name() string                            { return "ROUND" }
func (f *RoundFunc) MinArity() int                           { return 1 }
func (f *RoundFunc) MaxArity() int                           { return 2 }
func (f *RoundFunc) ReturnKind(args []value.Kind) value.Kind { return numericResult(args) }
func (f *RoundFunc) Evaluate(args []value.Value) (value.Value, error) {
	if anyNull(args) {
		return value.Null{}, nil
	}
	places := int64(0)
	if len(args) == 2 {
		p, err := valueToInt(f.Name(), args[1])
		if err != nil {
			return nil, err
		}
		places = p
	}

	v := args[0]
	switch classify(v) {
	case classInt:
		i, ok := asInt(v)
		if ok && places >= 0 {
			return value.Int64(i), nil
		}
		d, _ := asDecimal(v)
		if ok {
			return value.Int64(d.Round(int32(places)).IntPart()), nil
		}
		return fromDecimal(d.Round(int32(places))), nil
	case classDecimal:
		d, _ := asDecimal(v)
		return fromDecimal(d.Round(int32(places))), nil
	case classFloat:
		fl, _ := asFloat(v)
		if math.IsNaN(fl) || math.IsInf(fl, 0) {
			return value.Float64(fl), nil
		}
		rounded, _ := decimal.NewFromFloat(fl).Round(int32(places)).Float64()
		return value.Float64(rounded), nil
	}
	return nil, evalError("%s expects a numeric argument, got %s", f.Name(), v.Kind())
}

// FloorFunc rounds down
type FloorFunc struct{}

func (f *FloorFunc) Name() string                            { return "FLOOR" }
func (f *FloorFunc) MinArity() int                           { return 1 }
func (f *FloorFunc) MaxArity() int                           { return 1 }
func (f *FloorFunc) ReturnKind(args []value.Kind) value.Kind { return numericResult(args) }
func (f *FloorFunc) Evaluate(args []value.Value) (value.Value, error) {
	return roundWith(f.Name(), args[0], math.Floor, decimal.Decimal.Floor)
}

// CeilFunc rounds up
type CeilFunc struct{}

func (f *CeilFunc) Name() string                            { return "CEIL" }
func (f *CeilFunc) MinArity() int                           { return 1 }
func (f *CeilFunc) MaxArity() int                           { return 1 }
func (f *CeilFunc) ReturnKind(args []value.Kind) value.Kind { return numericResult(args) }
func (f *CeilFunc) Evaluate(args []value.Value) (value.Value, error) {
	return roundWith(f.Name(), args[0], math.Ceil, decimal.Decimal.Ceil)
}

func roundWith(name string, v value.Value, float func(float64) float64, dec func(decimal.Decimal) decimal.Decimal) (value.Value, error) {
	if value.IsNull(v) {
		return value.Null{}, nil
	}
	switch classify(v) {
	case classInt:
		if i, ok := asInt(v); ok {
			return value.Int64(i), nil
		}
		d, _ := asDecimal(v)
		return fromDecimal(d), nil
	case classDecimal:
		d, _ := asDecimal(v)
		return fromDecimal(dec(d)), nil
	case classFloat:
		fl, _ := asFloat(v)
		return value.Float64(float(fl)), nil
	}
	return nil, evalError("%s expects a numeric argument, got %s", name, v.Kind())
}

// ModFunc returns the remainder of a division
type ModFunc struct{}

func (f *ModFunc) Name() string                            { return "MOD" }
func (f *ModFunc) MinArity() int                           { return 2 }
func (f *ModFunc) MaxArity() int                           { return 2 }
func (f *ModFunc) ReturnKind(args []value.Kind) value.Kind { return numericResult(args) }
func (f *ModFunc) Evaluate(args []value.Value) (value.Value, error) {
	if anyNull(args) {
		return value.Null{}, nil
	}
	return arithmetic(TokenPercent, args[0], args[1])
}

// CoalesceFunc returns the first non-null argument
type CoalesceFunc struct{}

func (f *CoalesceFunc) Name() string                            { return "COALESCE" }
func (f *CoalesceFunc) MinArity() int                           { return 1 }
func (f *CoalesceFunc) MaxArity() int                           { return -1 }
func (f *CoalesceFunc) ReturnKind(args []value.Kind) value.Kind { return firstKind(args) }
func (f *CoalesceFunc) Evaluate(args []value.Value) (value.Value, error) {
	for _, a := range args {
		if !value.IsNull(a) {
			return a, nil
		}
	}
	return value.Null{}, nil
}

// NullIfFunc returns null when both arguments are equal, else the first
type NullIfFunc struct{}

func (f *NullIfFunc) Name() string                            { return "NULLIF" }
func (f *NullIfFunc) MinArity() int                           { return 2 }
func (f *NullIfFunc) MaxArity() int                           { return 2 }
func (f *NullIfFunc) ReturnKind(args []value.Kind) value.Kind { return firstKind(args[:1]) }
func (f *NullIfFunc) Evaluate(args []value.Value) (value.Value, error) {
	if value.IsNull(args[0]) || value.IsNull(args[1]) {
		return args[0], nil
	}
	cmp, err := compare(args[0], args[1])
	if err != nil {
		return nil, err
	}
	if cmp == 0 {
		return value.Null{}, nil
	}
	return args[0], nil
}
