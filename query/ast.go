package query

import (
	"strings"

	"github.com/vegasq/parqsee/reader"
	"github.com/vegasq/parqsee/value"
)

// Statement represents a parsed SELECT query
type Statement struct {
	Distinct bool
	Items    []SelectItem
	Table    string // Table name after FROM
	Alias    string // Optional alias for the table
	Where    Expr
	GroupBy  []Expr
	Having   Expr // Post-aggregation filter
	OrderBy  []OrderItem
	Limit    *int64
	Offset   *int64
}

// SelectItem represents a column or expression in the SELECT list
type SelectItem struct {
	// Star is set for * and alias.*; Expr is nil then.
	Star  *Star
	Expr  Expr
	Alias string // Optional alias (AS name)
}

// Star selects every top-level column.
type Star struct {
	Qualifier string
}

// OrderItem represents an expression to sort by
type OrderItem struct {
	Expr Expr
	Desc bool
	// NullsFirst overrides the default null placement: last for ascending,
	// first for descending.
	NullsFirst *bool
}

// Expr is a node of an expression tree.
type Expr interface {
	// Eval computes the expression for one row.
	Eval(e *env) (value.Value, error)
	// String renders the expression; it names computed output columns.
	String() string
}

// Literal is a constant value.
type Literal struct {
	Value value.Value
}

// ColumnRef references a column, optionally qualified by the table name or
// alias, optionally followed by nested field names.
type ColumnRef struct {
	Parts  []string
	Quoted bool

	// Resolved by the planner.
	index  int
	name   string
	nested []string
	node   *reader.Node
	// alias is the select list expression a HAVING or ORDER BY reference
	// names, when it names no column.
	alias Expr
}

// UnaryExpr is -x or NOT x.
type UnaryExpr struct {
	Op      TokenType
	Operand Expr
}

// BinaryExpr covers arithmetic, comparison, concatenation and AND/OR.
type BinaryExpr struct {
	Op          TokenType
	Left, Right Expr
}

// IsNullExpr is x IS [NOT] NULL.
type IsNullExpr struct {
	Operand Expr
	Negate  bool
}

// InExpr is x [NOT] IN (list).
type InExpr struct {
	Operand Expr
	List    []Expr
	Negate  bool
}

// BetweenExpr is x [NOT] BETWEEN lower AND upper.
type BetweenExpr struct {
	Operand      Expr
	Lower, Upper Expr
	Negate       bool
}

// LikeExpr is x [NOT] LIKE pattern, or ILIKE for case-insensitive matching.
type LikeExpr struct {
	Operand         Expr
	Pattern         Expr
	Negate          bool
	CaseInsensitive bool
}

// CaseExpr is a searched CASE, or a simple CASE when Operand is set.
type CaseExpr struct {
	Operand Expr
	Whens   []WhenClause
	Else    Expr
}

// WhenClause represents a single WHEN condition and result
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr is CAST(x AS type). TRY_CAST sets Try and yields NULL where
// the conversion fails.
type CastExpr struct {
	Operand Expr
	Type    string
	Try     bool
}

// FunctionCall represents a scalar function invocation
type FunctionCall struct {
	Name string
	Args []Expr

	fn Function
}

// AggregateExpr represents an aggregate function (COUNT, SUM, AVG, MIN, MAX)
type AggregateExpr struct {
	Function string
	Arg      Expr // nil for COUNT(*)
	Distinct bool

	slot int
}

func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case value.String:
		return "'" + strings.ReplaceAll(string(v), "'", "''") + "'"
	case value.Null, nil:
		return "NULL"
	default:
		return value.ToText(v)
	}
}

func (c *ColumnRef) String() string {
	if c.name != "" {
		return strings.Join(append([]string{c.name}, c.nested...), ".")
	}
	return strings.Join(c.Parts, ".")
}

func (u *UnaryExpr) String() string {
	if u.Op == TokenNot {
		return "NOT " + wrap(u.Operand)
	}
	return "-" + wrap(u.Operand)
}

func (b *BinaryExpr) String() string {
	return wrap(b.Left) + " " + operatorText(b.Op) + " " + wrap(b.Right)
}

func (i *IsNullExpr) String() string {
	if i.Negate {
		return wrap(i.Operand) + " IS NOT NULL"
	}
	return wrap(i.Operand) + " IS NULL"
}

func (i *InExpr) String() string {
	items := make([]string, len(i.List))
	for n, item := range i.List {
		items[n] = item.String()
	}
	op := " IN ("
	if i.Negate {
		op = " NOT IN ("
	}
	return wrap(i.Operand) + op + strings.Join(items, ", ") + ")"
}

func (b *BetweenExpr) String() string {
	op := " BETWEEN "
	if b.Negate {
		op = " NOT BETWEEN "
	}
	return wrap(b.Operand) + op + wrap(b.Lower) + " AND " + wrap(b.Upper)
}

func (l *LikeExpr) String() string {
	op := " LIKE "
	if l.CaseInsensitive {
		op = " ILIKE "
	}
	if l.Negate {
		op = " NOT" + op
	}
	return wrap(l.Operand) + op + wrap(l.Pattern)
}

func (c *CaseExpr) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	if c.Operand != nil {
		sb.WriteString(" " + c.Operand.String())
	}
	for _, w := range c.Whens {
		sb.WriteString(" WHEN " + w.Condition.String() + " THEN " + w.Result.String())
	}
	if c.Else != nil {
		sb.WriteString(" ELSE " + c.Else.String())
	}
	sb.WriteString(" END")
	return sb.String()
}

func (c *CastExpr) String() string {
	name := "CAST("
	if c.Try {
		name = "TRY_CAST("
	}
	return name + c.Operand.String() + " AS " + c.Type + ")"
}

func (f *FunctionCall) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return strings.ToUpper(f.Name) + "(" + strings.Join(args, ", ") + ")"
}

func (a *AggregateExpr) String() string {
	if a.Arg == nil {
		return a.Function + "(*)"
	}
	if a.Distinct {
		return a.Function + "(DISTINCT " + a.Arg.String() + ")"
	}
	return a.Function + "(" + a.Arg.String() + ")"
}

// wrap parenthesizes compound operands.
func wrap(e Expr) string {
	switch e.(type) {
	case *BinaryExpr, *BetweenExpr, *InExpr, *LikeExpr, *IsNullExpr:
		return "(" + e.String() + ")"
	default:
		return e.String()
	}
}

func operatorText(op TokenType) string {
	switch op {
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	default:
		return op.String()
	}
}

// intLiteral returns the value of a non-negative integer literal.
func intLiteral(e Expr) (int64, bool) {
	lit, ok := e.(*Literal)
	if !ok {
		return 0, false
	}
	v, ok := lit.Value.(value.Int64)
	return int64(v), ok
}

// walk visits e and its subexpressions depth-first. fn returns false to
// skip the children of a node.
func walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *UnaryExpr:
		walk(n.Operand, fn)
	case *BinaryExpr:
		walk(n.Left, fn)
		walk(n.Right, fn)
	case *IsNullExpr:
		walk(n.Operand, fn)
	case *InExpr:
		walk(n.Operand, fn)
		for _, item := range n.List {
			walk(item, fn)
		}
	case *BetweenExpr:
		walk(n.Operand, fn)
		walk(n.Lower, fn)
		walk(n.Upper, fn)
	case *LikeExpr:
		walk(n.Operand, fn)
		walk(n.Pattern, fn)
	case *CaseExpr:
		walk(n.Operand, fn)
		for _, w := range n.Whens {
			walk(w.Condition, fn)
			walk(w.Result, fn)
		}
		walk(n.Else, fn)
	case *CastExpr:
		walk(n.Operand, fn)
	case *FunctionCall:
		for _, a := range n.Args {
			walk(a, fn)
		}
	case *AggregateExpr:
		walk(n.Arg, fn)
	}
}

// hasAggregate reports whether e contains an aggregate call.
func hasAggregate(e Expr) bool {
	found := false
	walk(e, func(n Expr) bool {
		if _, ok := n.(*AggregateExpr); ok {
			found = true
			return false
		}
		return !found
	})
	return found
}
