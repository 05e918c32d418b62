package query

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/vegasq/parqsee/value"
)

// accumulator folds the argument values of one aggregate over one group.
type accumulator interface {
	add(v value.Value) error
	result() value.Value
}

// newAccumulator creates the accumulator for an aggregate call.
func newAccumulator(agg *AggregateExpr) accumulator {
	var acc accumulator
	switch agg.Function {
	case "COUNT":
		acc = &countAcc{star: agg.Arg == nil}
	case "SUM":
		acc = &sumAcc{}
	case "AVG":
		acc = &avgAcc{}
	case "MIN":
		acc = &extremeAcc{want: -1}
	default:
		acc = &extremeAcc{want: 1}
	}
	if agg.Distinct {
		acc = &distinctAcc{inner: acc, seen: make(map[string]struct{})}
	}
	return acc
}

// aggregateKind predicts the result kind of an aggregate from its argument.
func aggregateKind(agg *AggregateExpr, arg value.Kind) value.Kind {
	switch agg.Function {
	case "COUNT":
		return value.KindInt64
	case "SUM":
		switch kindClass(arg) {
		case classInt:
			return value.KindInt64
		case classDecimal:
			return value.KindDecimal
		case classFloat:
			return value.KindFloat64
		}
		return value.KindNull
	case "AVG":
		if kindClass(arg) == classDecimal {
			return value.KindDecimal
		}
		return value.KindFloat64
	}
	return arg
}

type countAcc struct {
	star bool
	n    int64
}

func (c *countAcc) add(v value.Value) error {
	if c.star || !value.IsNull(v) {
		c.n++
	}
	return nil
}

func (c *countAcc) result() value.Value { return value.Int64(c.n) }

// sumAcc keeps an int64 sum until a value or an overflow forces decimal or
// float arithmetic.
type sumAcc struct {
	class numClass
	seen  bool
	i     int64
	d     decimal.Decimal
	f     float64
}

func (s *sumAcc) add(v value.Value) error {
	if value.IsNull(v) {
		return nil
	}
	class := classify(v)
	if class == notNumeric {
		return evalError("SUM expects numeric values, got %s", v.Kind())
	}
	if !s.seen {
		s.seen = true
		s.class = classInt
	}
	if class > s.class {
		s.widen(class)
	}

	switch s.class {
	case classInt:
		if n, ok := asInt(v); ok {
			sum := s.i + n
			if (n >= 0) == (sum >= s.i) {
				s.i = sum
				return nil
			}
		}
		s.widen(classDecimal)
		d, _ := asDecimal(v)
		s.d = s.d.Add(d)
	case classDecimal:
		d, _ := asDecimal(v)
		s.d = s.d.Add(d)
	default:
		f, _ := asFloat(v)
		s.f += f
	}
	return nil
}

func (s *sumAcc) widen(to numClass) {
	switch {
	case s.class == classInt && to == classDecimal:
		s.d = decimal.NewFromInt(s.i)
	case s.class == classInt && to == classFloat:
		s.f = float64(s.i)
	case s.class == classDecimal && to == classFloat:
		s.f = s.d.InexactFloat64()
	}
	s.class = to
}

func (s *sumAcc) result() value.Value {
	if !s.seen {
		return value.Null{}
	}
	switch s.class {
	case classInt:
		return value.Int64(s.i)
	case classDecimal:
		return fromDecimal(s.d)
	}
	return value.Float64(s.f)
}

type avgAcc struct {
	sum sumAcc
	n   int64
}

func (a *avgAcc) add(v value.Value) error {
	if value.IsNull(v) {
		return nil
	}
	if err := a.sum.add(v); err != nil {
		return err
	}
	a.n++
	return nil
}

func (a *avgAcc) result() value.Value {
	if a.n == 0 {
		return value.Null{}
	}
	switch a.sum.class {
	case classInt:
		return value.Float64(float64(a.sum.i) / float64(a.n))
	case classDecimal:
		return fromDecimal(a.sum.d.Div(decimal.NewFromBigInt(big.NewInt(a.n), 0)))
	}
	return value.Float64(a.sum.f / float64(a.n))
}

// extremeAcc tracks the minimum (want -1) or maximum (want 1).
type extremeAcc struct {
	want int
	best value.Value
}

func (m *extremeAcc) add(v value.Value) error {
	if value.IsNull(v) {
		return nil
	}
	if m.best == nil {
		m.best = v
		return nil
	}
	cmp, err := compare(v, m.best)
	if err != nil {
		return err
	}
	if cmp == m.want {
		m.best = v
	}
	return nil
}

func (m *extremeAcc) result() value.Value {
	if m.best == nil {
		return value.Null{}
	}
	return m.best
}

// distinctAcc forwards each distinct non-null value once.
type distinctAcc struct {
	inner accumulator
	seen  map[string]struct{}
}

func (d *distinctAcc) add(v value.Value) error {
	if value.IsNull(v) {
		return nil
	}
	key := groupKey(v)
	if _, ok := d.seen[key]; ok {
		return nil
	}
	d.seen[key] = struct{}{}
	return d.inner.add(v)
}

func (d *distinctAcc) result() value.Value { return d.inner.result() }

// kindClass classifies a kind the way classify classifies values.
func kindClass(k value.Kind) numClass {
	switch k {
	case value.KindInt8, value.KindInt16, value.KindInt32, value.KindInt64,
		value.KindUint8, value.KindUint16, value.KindUint32, value.KindUint64:
		return classInt
	case value.KindDecimal:
		return classDecimal
	case value.KindFloat16, value.KindFloat32, value.KindFloat64:
		return classFloat
	}
	return notNumeric
}
