package query

import (
	"bytes"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow/float16"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/value"
)

// env is the evaluation context of one row. aggs holds the finished
// aggregate values of the row's group and is nil outside aggregation.
type env struct {
	row  value.Record
	aggs []value.Value
}

func evalError(format string, args ...interface{}) error {
	return errs.New(errs.KindConversion, "eval", format, args...)
}

func (l *Literal) Eval(*env) (value.Value, error) {
	if l.Value == nil {
		return value.Null{}, nil
	}
	return l.Value, nil
}

func (c *ColumnRef) Eval(e *env) (value.Value, error) {
	if c.alias != nil {
		return c.alias.Eval(e)
	}
	if c.name == "" {
		return nil, errs.New(errs.KindQueryPlan, "eval", "column %s was not resolved", strings.Join(c.Parts, "."))
	}
	if c.index < 0 || c.index >= len(e.row) {
		return value.Null{}, nil
	}
	v := e.row[c.index].Value
	for _, name := range c.nested {
		rec, ok := v.(value.Record)
		if !ok {
			return value.Null{}, nil
		}
		if v, ok = rec.Get(name); !ok {
			return value.Null{}, nil
		}
	}
	if v == nil {
		return value.Null{}, nil
	}
	return v, nil
}

func (u *UnaryExpr) Eval(e *env) (value.Value, error) {
	v, err := u.Operand.Eval(e)
	if err != nil {
		return nil, err
	}
	if value.IsNull(v) {
		return value.Null{}, nil
	}

	if u.Op == TokenNot {
		b, err := truth(v)
		if err != nil {
			return nil, err
		}
		return value.Bool(!b), nil
	}
	return negate(v)
}

func (b *BinaryExpr) Eval(e *env) (value.Value, error) {
	switch b.Op {
	case TokenAnd, TokenOr:
		return b.evalLogical(e)
	}

	left, err := b.Left.Eval(e)
	if err != nil {
		return nil, err
	}
	right, err := b.Right.Eval(e)
	if err != nil {
		return nil, err
	}
	if value.IsNull(left) || value.IsNull(right) {
		return value.Null{}, nil
	}

	switch b.Op {
	case TokenConcat:
		return value.String(value.ToText(left) + value.ToText(right)), nil
	case TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent:
		return arithmetic(b.Op, left, right)
	}

	cmp, err := compare(left, right)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case TokenEqual:
		return value.Bool(cmp == 0), nil
	case TokenNotEqual:
		return value.Bool(cmp != 0), nil
	case TokenLess:
		return value.Bool(cmp < 0), nil
	case TokenLessEqual:
		return value.Bool(cmp <= 0), nil
	case TokenGreater:
		return value.Bool(cmp > 0), nil
	case TokenGreaterEqual:
		return value.Bool(cmp >= 0), nil
	}
	return nil, evalError("unsupported operator %s", operatorText(b.Op))
}

// evalLogical applies three-valued AND/OR with short-circuiting.
func (b *BinaryExpr) evalLogical(e *env) (value.Value, error) {
	shortCircuit := b.Op == TokenOr

	left, err := b.Left.Eval(e)
	if err != nil {
		return nil, err
	}
	leftNull := value.IsNull(left)
	if !leftNull {
		lb, err := truth(left)
		if err != nil {
			return nil, err
		}
		if lb == shortCircuit {
			return value.Bool(shortCircuit), nil
		}
	}

	right, err := b.Right.Eval(e)
	if err != nil {
		return nil, err
	}
	if value.IsNull(right) {
		return value.Null{}, nil
	}
	rb, err := truth(right)
	if err != nil {
		return nil, err
	}
	if rb == shortCircuit {
		return value.Bool(shortCircuit), nil
	}
	if leftNull {
		return value.Null{}, nil
	}
	return value.Bool(!shortCircuit), nil
}

func (i *IsNullExpr) Eval(e *env) (value.Value, error) {
	v, err := i.Operand.Eval(e)
	if err != nil {
		return nil, err
	}
	return value.Bool(value.IsNull(v) != i.Negate), nil
}

func (i *InExpr) Eval(e *env) (value.Value, error) {
	v, err := i.Operand.Eval(e)
	if err != nil {
		return nil, err
	}
	if value.IsNull(v) {
		return value.Null{}, nil
	}

	sawNull := false
	for _, item := range i.List {
		candidate, err := item.Eval(e)
		if err != nil {
			return nil, err
		}
		if value.IsNull(candidate) {
			sawNull = true
			continue
		}
		cmp, err := compare(v, candidate)
		if err != nil {
			return nil, err
		}
		if cmp == 0 {
			return value.Bool(!i.Negate), nil
		}
	}
	if sawNull {
		return value.Null{}, nil
	}
	return value.Bool(i.Negate), nil
}

func (b *BetweenExpr) Eval(e *env) (value.Value, error) {
	vals := make([]value.Value, 3)
	for n, expr := range []Expr{b.Operand, b.Lower, b.Upper} {
		v, err := expr.Eval(e)
		if err != nil {
			return nil, err
		}
		vals[n] = v
	}
	if value.IsNull(vals[0]) {
		return value.Null{}, nil
	}

	// lower <= x AND x <= upper
	result := value.Value(value.Bool(true))
	for n, bound := range vals[1:] {
		if value.IsNull(bound) {
			result = value.Null{}
			continue
		}
		cmp, err := compare(vals[0], bound)
		if err != nil {
			return nil, err
		}
		if (n == 0 && cmp < 0) || (n == 1 && cmp > 0) {
			return value.Bool(b.Negate), nil
		}
	}
	if value.IsNull(result) {
		return result, nil
	}
	return value.Bool(!b.Negate), nil
}

func (l *LikeExpr) Eval(e *env) (value.Value, error) {
	v, err := l.Operand.Eval(e)
	if err != nil {
		return nil, err
	}
	pattern, err := l.Pattern.Eval(e)
	if err != nil {
		return nil, err
	}
	if value.IsNull(v) || value.IsNull(pattern) {
		return value.Null{}, nil
	}

	s, p := value.ToText(v), value.ToText(pattern)
	if l.CaseInsensitive {
		s, p = strings.ToLower(s), strings.ToLower(p)
	}
	return value.Bool(matchLike(s, p) != l.Negate), nil
}

func (c *CaseExpr) Eval(e *env) (value.Value, error) {
	var operand value.Value
	if c.Operand != nil {
		v, err := c.Operand.Eval(e)
		if err != nil {
			return nil, err
		}
		operand = v
	}

	for _, w := range c.Whens {
		cond, err := w.Condition.Eval(e)
		if err != nil {
			return nil, err
		}

		matched := false
		switch {
		case value.IsNull(cond):
		case c.Operand != nil:
			if !value.IsNull(operand) {
				cmp, err := compare(operand, cond)
				if err != nil {
					return nil, err
				}
				matched = cmp == 0
			}
		default:
			if matched, err = truth(cond); err != nil {
				return nil, err
			}
		}

		if matched {
			return w.Result.Eval(e)
		}
	}

	if c.Else != nil {
		return c.Else.Eval(e)
	}
	return value.Null{}, nil
}

func (c *CastExpr) Eval(e *env) (value.Value, error) {
	v, err := c.Operand.Eval(e)
	if err != nil {
		return nil, err
	}
	out, err := cast(v, castTargets[c.Type])
	if err != nil && c.Try && errs.Is(err, errs.KindConversion) {
		return value.Null{}, nil
	}
	return out, err
}

func (f *FunctionCall) Eval(e *env) (value.Value, error) {
	if f.fn == nil {
		return nil, errs.New(errs.KindQueryPlan, "eval", "unknown function %s", f.Name)
	}
	args := make([]value.Value, len(f.Args))
	for i, a := range f.Args {
		v, err := a.Eval(e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return f.fn.Evaluate(args)
}

func (a *AggregateExpr) Eval(e *env) (value.Value, error) {
	if e.aggs == nil || a.slot >= len(e.aggs) {
		return nil, errs.New(errs.KindQueryPlan, "eval", "aggregate %s is not allowed here", a)
	}
	return e.aggs[a.slot], nil
}

// truth converts a non-null predicate result to a Go bool.
func truth(v value.Value) (bool, error) {
	b, ok := v.(value.Bool)
	if !ok {
		return false, evalError("expected BOOLEAN, got %s", v.Kind())
	}
	return bool(b), nil
}

// matches reports whether a filter predicate selects the row; null rejects.
func matches(pred Expr, e *env) (bool, error) {
	v, err := pred.Eval(e)
	if err != nil {
		return false, err
	}
	if value.IsNull(v) {
		return false, nil
	}
	return truth(v)
}

// numeric classes, ordered by how wide their arithmetic is
type numClass int

const (
	notNumeric numClass = iota
	classInt
	classDecimal
	classFloat
)

func classify(v value.Value) numClass {
	switch v.(type) {
	case value.Int8, value.Int16, value.Int32, value.Int64,
		value.Uint8, value.Uint16, value.Uint32, value.Uint64:
		return classInt
	case value.Decimal:
		return classDecimal
	case value.Float16, value.Float32, value.Float64:
		return classFloat
	}
	return notNumeric
}

// asInt returns integer variants as int64. Uint64 values above MaxInt64
// do not fit.
func asInt(v value.Value) (int64, bool) {
	switch n := v.(type) {
	case value.Int8:
		return int64(n), true
	case value.Int16:
		return int64(n), true
	case value.Int32:
		return int64(n), true
	case value.Int64:
		return int64(n), true
	case value.Uint8:
		return int64(n), true
	case value.Uint16:
		return int64(n), true
	case value.Uint32:
		return int64(n), true
	case value.Uint64:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func asFloat(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Float16:
		return float64(float16.FromBits(uint16(n)).Float32()), true
	case value.Float32:
		return float64(n), true
	case value.Float64:
		return float64(n), true
	case value.Decimal:
		return n.Decimal().InexactFloat64(), true
	case value.Uint64:
		return float64(n), true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func asDecimal(v value.Value) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case value.Decimal:
		return n.Decimal(), true
	case value.Uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(n)), 0), true
	}
	if i, ok := asInt(v); ok {
		return decimal.NewFromInt(i), true
	}
	if f, ok := asFloat(v); ok {
		return decimal.NewFromFloat(f), true
	}
	return decimal.Decimal{}, false
}

// fromDecimal converts an arbitrary-precision result back to a Decimal cell.
func fromDecimal(d decimal.Decimal) value.Decimal {
	if d.Exponent() > 0 {
		d = d.Round(0)
	}
	scale := -d.Exponent()
	coef := d.Coefficient()
	digits := int32(len(strings.TrimPrefix(coef.String(), "-")))
	precision := digits
	if precision < scale+1 {
		precision = scale + 1
	}
	return value.Decimal{Unscaled: coef, Precision: precision, Scale: scale}
}

func negate(v value.Value) (value.Value, error) {
	switch classify(v) {
	case classInt:
		if i, ok := asInt(v); ok {
			return value.Int64(-i), nil
		}
		d, _ := asDecimal(v)
		return fromDecimal(d.Neg()), nil
	case classDecimal:
		d, _ := asDecimal(v)
		return fromDecimal(d.Neg()), nil
	case classFloat:
		f, _ := asFloat(v)
		return value.Float64(-f), nil
	}
	return nil, evalError("cannot negate %s", v.Kind())
}

// arithmetic applies +, -, *, / or % to two non-null operands. The wider
// class of the two decides the result type; integer division truncates.
func arithmetic(op TokenType, left, right value.Value) (value.Value, error) {
	lc, rc := classify(left), classify(right)
	if lc == notNumeric || rc == notNumeric {
		return nil, evalError("cannot apply %s to %s and %s", operatorText(op), left.Kind(), right.Kind())
	}
	class := lc
	if rc > class {
		class = rc
	}

	if class == classInt {
		l, lok := asInt(left)
		r, rok := asInt(right)
		if lok && rok {
			return intArithmetic(op, l, r)
		}
		class = classDecimal
	}

	if class == classDecimal {
		l, _ := asDecimal(left)
		r, _ := asDecimal(right)
		switch op {
		case TokenPlus:
			return fromDecimal(l.Add(r)), nil
		case TokenMinus:
			return fromDecimal(l.Sub(r)), nil
		case TokenStar:
			return fromDecimal(l.Mul(r)), nil
		case TokenSlash:
			if r.IsZero() {
				return nil, evalError("division by zero")
			}
			return fromDecimal(l.Div(r)), nil
		default:
			if r.IsZero() {
				return nil, evalError("division by zero")
			}
			return fromDecimal(l.Mod(r)), nil
		}
	}

	l, _ := asFloat(left)
	r, _ := asFloat(right)
	switch op {
	case TokenPlus:
		return value.Float64(l + r), nil
	case TokenMinus:
		return value.Float64(l - r), nil
	case TokenStar:
		return value.Float64(l * r), nil
	case TokenSlash:
		if r == 0 {
			return nil, evalError("division by zero")
		}
		return value.Float64(l / r), nil
	default:
		if r == 0 {
			return nil, evalError("division by zero")
		}
		return value.Float64(math.Mod(l, r)), nil
	}
}

func intArithmetic(op TokenType, l, r int64) (value.Value, error) {
	switch op {
	case TokenPlus:
		return value.Int64(l + r), nil
	case TokenMinus:
		return value.Int64(l - r), nil
	case TokenStar:
		return value.Int64(l * r), nil
	case TokenSlash:
		if r == 0 {
			return nil, evalError("division by zero")
		}
		return value.Int64(l / r), nil
	default:
		if r == 0 {
			return nil, evalError("division by zero")
		}
		return value.Int64(l % r), nil
	}
}

// temporal groups: instants (dates and timestamps) and times of day
const (
	temporalNone = iota
	temporalInstant
	temporalTimeOfDay
)

// instant is a temporal value split into whole seconds and a nanosecond
// remainder in [0, 1e9). Every variant fits without overflow.
type instant struct {
	sec, nsec int64
}

func splitUnits(v, perSecond int64) instant {
	return instant{
		sec:  floorDiv(v, perSecond),
		nsec: floorMod(v, perSecond) * (1_000_000_000 / perSecond),
	}
}

func (a instant) cmp(b instant) int {
	if c := cmpInt(a.sec, b.sec); c != 0 {
		return c
	}
	return cmpInt(a.nsec, b.nsec)
}

// temporalOf returns a temporal value as an offset from the epoch, or from
// midnight for times of day, along with its group.
func temporalOf(v value.Value) (instant, int) {
	switch t := v.(type) {
	case value.Date:
		return instant{sec: int64(t) * 86_400}, temporalInstant
	case value.TimestampMillis:
		return splitUnits(int64(t), 1_000), temporalInstant
	case value.TimestampMicros:
		return splitUnits(int64(t), 1_000_000), temporalInstant
	case value.TimestampNanos:
		return splitUnits(int64(t), 1_000_000_000), temporalInstant
	case value.TimeMillis:
		return splitUnits(int64(t), 1_000), temporalTimeOfDay
	case value.TimeMicros:
		return splitUnits(int64(t), 1_000_000), temporalTimeOfDay
	case value.TimeNanos:
		return splitUnits(int64(t), 1_000_000_000), temporalTimeOfDay
	}
	return instant{}, temporalNone
}

// compare orders two non-null values. Numbers compare across widths,
// temporal values compare within their group, and a string compared with a
// temporal value is parsed as one.
func compare(left, right value.Value) (int, error) {
	lc, rc := classify(left), classify(right)
	if lc != notNumeric && rc != notNumeric {
		if lc == classInt && rc == classInt {
			l, lok := asInt(left)
			r, rok := asInt(right)
			if lok && rok {
				return cmpInt(l, r), nil
			}
		}
		if lc == classFloat || rc == classFloat {
			l, _ := asFloat(left)
			r, _ := asFloat(right)
			return cmpFloat(l, r), nil
		}
		l, _ := asDecimal(left)
		r, _ := asDecimal(right)
		return l.Cmp(r), nil
	}

	if s, ok := right.(value.String); ok {
		if _, group := temporalOf(left); group != temporalNone {
			parsed, err := cast(s, left.Kind())
			if err != nil {
				return 0, err
			}
			right = parsed
		}
	} else if s, ok := left.(value.String); ok {
		if _, group := temporalOf(right); group != temporalNone {
			parsed, err := cast(s, right.Kind())
			if err != nil {
				return 0, err
			}
			left = parsed
		}
	}

	if l, lg := temporalOf(left); lg != temporalNone {
		if r, rg := temporalOf(right); rg == lg {
			return l.cmp(r), nil
		}
	}

	switch l := left.(type) {
	case value.String:
		if r, ok := right.(value.String); ok {
			return strings.Compare(string(l), string(r)), nil
		}
	case value.Bool:
		if r, ok := right.(value.Bool); ok {
			switch {
			case l == r:
				return 0, nil
			case !bool(l):
				return -1, nil
			default:
				return 1, nil
			}
		}
	case value.Bytes:
		if r, ok := right.(value.Bytes); ok {
			return bytes.Compare(l, r), nil
		}
	}
	return 0, evalError("cannot compare %s with %s", left.Kind(), right.Kind())
}

func cmpInt(l, r int64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

// cmpFloat orders NaN after every other number.
func cmpFloat(l, r float64) int {
	switch {
	case math.IsNaN(l) && math.IsNaN(r):
		return 0
	case math.IsNaN(l):
		return 1
	case math.IsNaN(r):
		return -1
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

// groupKey returns a string identifying v for grouping and DISTINCT.
// Integers of different widths with the same value share a key.
func groupKey(v value.Value) string {
	if value.IsNull(v) {
		return "\x00null"
	}
	switch classify(v) {
	case classInt:
		if i, ok := asInt(v); ok {
			return "i" + strconv.FormatInt(i, 10)
		}
	case classFloat:
		f, _ := asFloat(v)
		return "f" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	switch v.(type) {
	case value.List, value.Map, value.Record:
		b, err := json.Marshal(value.ToJSON(v))
		if err == nil {
			return v.Kind().String() + ":" + string(b)
		}
	}
	return v.Kind().String() + ":" + value.ToText(v)
}

// matchLike matches s against a LIKE pattern where % matches any run of
// characters and _ matches one character. A backslash escapes the next
// pattern character.
func matchLike(s, pattern string) bool {
	str := []rune(s)
	pat := []rune(pattern)

	si, pi := 0, 0
	star, mark := -1, 0
	for si < len(str) {
		switch {
		case pi < len(pat) && pat[pi] == '%':
			star, mark = pi, si
			pi++
		case pi < len(pat) && pat[pi] == '\\' && pi+1 < len(pat) && pat[pi+1] == str[si]:
			si++
			pi += 2
		case pi < len(pat) && pat[pi] != '\\' && (pat[pi] == '_' || pat[pi] == str[si]):
			si++
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(pat) && pat[pi] == '%' {
		pi++
	}
	return pi == len(pat)
}

// castTargets maps CAST type names to the resulting kind.
var castTargets = map[string]value.Kind{
	"BOOLEAN":   value.KindBool,
	"BOOL":      value.KindBool,
	"TINYINT":   value.KindInt8,
	"SMALLINT":  value.KindInt16,
	"INT":       value.KindInt32,
	"INTEGER":   value.KindInt32,
	"BIGINT":    value.KindInt64,
	"REAL":      value.KindFloat32,
	"FLOAT":     value.KindFloat32,
	"DOUBLE":    value.KindFloat64,
	"DECIMAL":   value.KindDecimal,
	"NUMERIC":   value.KindDecimal,
	"VARCHAR":   value.KindString,
	"TEXT":      value.KindString,
	"STRING":    value.KindString,
	"DATE":      value.KindDate,
	"TIMESTAMP": value.KindTimestampNanos,
}

var (
	timestampLayouts = []string{
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02",
	}
	timeLayout = "15:04:05.999999999"
)

// cast converts v to the given kind. Unrepresentable values are
// conversion errors.
func cast(v value.Value, to value.Kind) (value.Value, error) {
	if value.IsNull(v) {
		return value.Null{}, nil
	}
	if v.Kind() == to {
		return v, nil
	}
	fail := func() (value.Value, error) {
		return nil, evalError("cannot cast %s %q to %s", v.Kind(), value.ToText(v), to)
	}

	switch to {
	case value.KindString:
		return value.String(value.ToText(v)), nil

	case value.KindBool:
		switch t := v.(type) {
		case value.String:
			switch strings.ToLower(strings.TrimSpace(string(t))) {
			case "true", "t", "1":
				return value.Bool(true), nil
			case "false", "f", "0":
				return value.Bool(false), nil
			}
			return fail()
		}
		if i, ok := asInt(v); ok {
			return value.Bool(i != 0), nil
		}
		return fail()

	case value.KindInt8, value.KindInt16, value.KindInt32, value.KindInt64:
		n, ok := castInt(v)
		if !ok {
			return fail()
		}
		switch to {
		case value.KindInt8:
			if n < math.MinInt8 || n > math.MaxInt8 {
				return fail()
			}
			return value.Int8(n), nil
		case value.KindInt16:
			if n < math.MinInt16 || n > math.MaxInt16 {
				return fail()
			}
			return value.Int16(n), nil
		case value.KindInt32:
			if n < math.MinInt32 || n > math.MaxInt32 {
				return fail()
			}
			return value.Int32(n), nil
		}
		return value.Int64(n), nil

	case value.KindFloat32, value.KindFloat64:
		f, ok := asFloat(v)
		if !ok {
			switch t := v.(type) {
			case value.String:
				parsed, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
				if err != nil {
					return fail()
				}
				f = parsed
			case value.Bool:
				if t {
					f = 1
				}
			default:
				return fail()
			}
		}
		if to == value.KindFloat32 {
			return value.Float32(f), nil
		}
		return value.Float64(f), nil

	case value.KindDecimal:
		if s, ok := v.(value.String); ok {
			d, err := decimal.NewFromString(strings.TrimSpace(string(s)))
			if err != nil {
				return fail()
			}
			return fromDecimal(d), nil
		}
		if f, ok := asFloat(v); ok && classify(v) == classFloat && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return fail()
		}
		d, ok := asDecimal(v)
		if !ok {
			return fail()
		}
		return fromDecimal(d), nil

	case value.KindDate:
		switch t := v.(type) {
		case value.String:
			parsed, err := time.Parse("2006-01-02", strings.TrimSpace(string(t)))
			if err != nil {
				return fail()
			}
			return value.Date(floorDiv(parsed.Unix(), 86_400)), nil
		}
		if in, group := temporalOf(v); group == temporalInstant {
			if out, ok := fromInstant(to, in); ok {
				return out, nil
			}
		}
		return fail()

	case value.KindTimestampMillis, value.KindTimestampMicros, value.KindTimestampNanos:
		var in instant
		switch t := v.(type) {
		case value.String:
			parsed, ok := parseTimestamp(string(t))
			if !ok {
				return fail()
			}
			in = instant{sec: parsed.Unix(), nsec: int64(parsed.Nanosecond())}
		default:
			var group int
			if in, group = temporalOf(v); group != temporalInstant {
				return fail()
			}
		}
		out, ok := fromInstant(to, in)
		if !ok {
			return fail()
		}
		return out, nil

	case value.KindTimeMillis, value.KindTimeMicros, value.KindTimeNanos:
		s, ok := v.(value.String)
		if !ok {
			return fail()
		}
		parsed, err := time.Parse(timeLayout, strings.TrimSpace(string(s)))
		if err != nil {
			return fail()
		}
		nanos := int64(parsed.Hour())*3_600_000_000_000 + int64(parsed.Minute())*60_000_000_000 +
			int64(parsed.Second())*1_000_000_000 + int64(parsed.Nanosecond())
		switch to {
		case value.KindTimeMillis:
			return value.TimeMillis(nanos / 1_000_000), nil
		case value.KindTimeMicros:
			return value.TimeMicros(nanos / 1_000), nil
		}
		return value.TimeNanos(nanos), nil
	}
	return fail()
}

func castInt(v value.Value) (int64, bool) {
	if i, ok := asInt(v); ok {
		return i, true
	}
	switch t := v.(type) {
	case value.Bool:
		if t {
			return 1, true
		}
		return 0, true
	case value.String:
		text := strings.TrimSpace(string(t))
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false
		}
		return truncFloat(f)
	case value.Decimal:
		d := t.Decimal().Truncate(0)
		if !d.BigInt().IsInt64() {
			return 0, false
		}
		return d.IntPart(), true
	}
	if f, ok := asFloat(v); ok {
		return truncFloat(f)
	}
	return 0, false
}

func truncFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

// runeLength counts characters rather than bytes.
func runeLength(s string) int {
	return utf8.RuneCountInString(s)
}
