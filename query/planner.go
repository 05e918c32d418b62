package query

import (
	"strings"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/reader"
	"github.com/vegasq/parqsee/value"
)

// output is one result column.
type output struct {
	name  string
	label string
	expr  Expr
}

type sortKey struct {
	expr       Expr
	desc       bool
	nullsFirst bool
}

// plan is a statement resolved against one table.
type plan struct {
	table     Table
	outputs   []output
	where     Expr
	groupBy   []Expr
	having    Expr
	order     []sortKey
	aggs      []*AggregateExpr
	aggregate bool
	distinct  bool
	offset    int64
	limit     int64 // -1 when absent
}

func planError(format string, args ...interface{}) error {
	return errs.New(errs.KindQueryPlan, "plan", format, args...)
}

// planner resolves names of one statement.
type planner struct {
	table  string
	alias  string
	schema *reader.Schema
	// outputs, when set, lets unmatched bare names refer to select list
	// aliases.
	outputs []output
}

// newPlan resolves stmt against table and validates it.
func newPlan(stmt *Statement, table Table, registry *FunctionRegistry) (*plan, error) {
	pl := &planner{table: stmt.Table, alias: stmt.Alias, schema: table.Schema()}
	p := &plan{
		table:    table,
		distinct: stmt.Distinct,
		limit:    -1,
	}
	if stmt.Offset != nil {
		p.offset = *stmt.Offset
	}
	if stmt.Limit != nil {
		p.limit = *stmt.Limit
	}

	seen := make(map[string]bool)
	addOutput := func(o output) error {
		if seen[o.name] {
			return planError("duplicate output column name %q", o.name)
		}
		seen[o.name] = true
		p.outputs = append(p.outputs, o)
		return nil
	}

	for _, item := range stmt.Items {
		if item.Star != nil {
			if item.Star.Qualifier != "" && !pl.isQualifier(item.Star.Qualifier) {
				return nil, planError("unknown table or alias %q in %s.*", item.Star.Qualifier, item.Star.Qualifier)
			}
			for i, field := range pl.schema.Fields() {
				ref := &ColumnRef{Parts: []string{field.Name}, index: i, name: field.Name, node: field}
				if err := addOutput(output{name: field.Name, label: field.Tags.ColumnType(), expr: ref}); err != nil {
					return nil, err
				}
			}
			continue
		}

		if err := pl.resolve(item.Expr, registry); err != nil {
			return nil, err
		}
		o := output{name: item.Alias, expr: item.Expr, label: labelOf(item.Expr)}
		if o.name == "" {
			o.name = item.Expr.String()
		}
		if err := addOutput(o); err != nil {
			return nil, err
		}
	}

	if stmt.Where != nil {
		if err := pl.resolve(stmt.Where, registry); err != nil {
			return nil, err
		}
		if hasAggregate(stmt.Where) {
			return nil, planError("aggregate functions are not allowed in WHERE")
		}
		p.where = stmt.Where
	}

	for _, g := range stmt.GroupBy {
		if err := pl.resolve(g, registry); err != nil {
			return nil, err
		}
		if hasAggregate(g) {
			return nil, planError("aggregate functions are not allowed in GROUP BY")
		}
		p.groupBy = append(p.groupBy, g)
	}

	pl.outputs = p.outputs
	if stmt.Having != nil {
		if err := pl.resolve(stmt.Having, registry); err != nil {
			return nil, err
		}
		p.having = stmt.Having
	}

	for _, item := range stmt.OrderBy {
		expr, err := pl.orderExpr(item.Expr, p.outputs, registry)
		if err != nil {
			return nil, err
		}
		key := sortKey{expr: expr, desc: item.Desc, nullsFirst: item.Desc}
		if item.NullsFirst != nil {
			key.nullsFirst = *item.NullsFirst
		}
		p.order = append(p.order, key)
	}

	p.assignAggregates()
	p.aggregate = len(p.groupBy) > 0 || len(p.aggs) > 0 || p.having != nil
	if p.aggregate {
		if err := p.checkGrouped(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// streaming reports whether rows can be produced straight from the scan.
func (p *plan) streaming() bool {
	return !p.aggregate && !p.distinct && len(p.order) == 0
}

func (pl *planner) isQualifier(name string) bool {
	return strings.EqualFold(name, pl.table) || (pl.alias != "" && strings.EqualFold(name, pl.alias))
}

// resolve binds column references and functions in e.
func (pl *planner) resolve(e Expr, registry *FunctionRegistry) error {
	var err error
	walk(e, func(n Expr) bool {
		if err != nil {
			return false
		}
		switch node := n.(type) {
		case *ColumnRef:
			err = pl.resolveColumn(node)
		case *FunctionCall:
			fn, ok := registry.Get(node.Name)
			if !ok {
				err = planError("unknown function %s", node.Name)
				return false
			}
			if err = checkArity(fn, len(node.Args)); err != nil {
				return false
			}
			node.fn = fn
		case *AggregateExpr:
			if node.Arg != nil && hasAggregate(node.Arg) {
				err = planError("aggregate calls cannot be nested in %s", node.Function)
				return false
			}
		}
		return true
	})
	return err
}

func (pl *planner) resolveColumn(c *ColumnRef) error {
	parts := c.Parts
	fields := pl.schema.Fields()

	if len(parts) > 1 && pl.isQualifier(parts[0]) {
		if i, _ := findNode(fields, parts[0], c.Quoted); i < 0 {
			parts = parts[1:]
		}
	}

	idx, ambiguous := findNode(fields, parts[0], c.Quoted)
	if ambiguous {
		return planError("column reference %q is ambiguous", parts[0])
	}
	if idx < 0 && len(c.Parts) == 1 {
		for _, o := range pl.outputs {
			if o.name == c.Parts[0] {
				c.alias = o.expr
				return nil
			}
		}
	}
	if idx < 0 {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		return planError("column %q not found; available columns: %s", strings.Join(c.Parts, "."), strings.Join(names, ", "))
	}

	node := fields[idx]
	var nested []string
	for _, name := range parts[1:] {
		if node.ValueKind() != value.KindRecord {
			return planError("column %q has no field %q", strings.Join(append([]string{fields[idx].Name}, nested...), "."), name)
		}
		ci, ambiguous := findNode(node.Children, name, false)
		if ambiguous {
			return planError("field reference %q is ambiguous", name)
		}
		if ci < 0 {
			return planError("column %q has no field %q", strings.Join(append([]string{fields[idx].Name}, nested...), "."), name)
		}
		node = node.Children[ci]
		nested = append(nested, node.Name)
	}

	c.index = idx
	c.name = fields[idx].Name
	c.nested = nested
	c.node = node
	return nil
}

// findNode looks a name up among nodes: an exact match first, then for
// unquoted names a unique case-insensitive one.
func findNode(nodes []*reader.Node, name string, exact bool) (int, bool) {
	for i, n := range nodes {
		if n.Name == name {
			return i, false
		}
	}
	if exact {
		return -1, false
	}
	found := -1
	for i, n := range nodes {
		if strings.EqualFold(n.Name, name) {
			if found >= 0 {
				return -1, true
			}
			found = i
		}
	}
	return found, false
}

// orderExpr resolves an ORDER BY expression. Positions and output names
// refer to the select list.
func (pl *planner) orderExpr(e Expr, outputs []output, registry *FunctionRegistry) (Expr, error) {
	if n, ok := intLiteral(e); ok {
		if n < 1 || n > int64(len(outputs)) {
			return nil, planError("ORDER BY position %d is not in select list", n)
		}
		return outputs[n-1].expr, nil
	}
	if ref, ok := e.(*ColumnRef); ok && len(ref.Parts) == 1 {
		for _, o := range outputs {
			if o.name == ref.Parts[0] {
				return o.expr, nil
			}
		}
	}
	if err := pl.resolve(e, registry); err != nil {
		return nil, err
	}
	return e, nil
}

// assignAggregates numbers every aggregate call of the select list, HAVING
// and ORDER BY.
func (p *plan) assignAggregates() {
	roots := make([]Expr, 0, len(p.outputs)+len(p.order)+1)
	for _, o := range p.outputs {
		roots = append(roots, o.expr)
	}
	if p.having != nil {
		roots = append(roots, p.having)
	}
	for _, k := range p.order {
		roots = append(roots, k.expr)
	}

	assigned := make(map[*AggregateExpr]bool)
	for _, root := range roots {
		walk(root, func(n Expr) bool {
			agg, ok := n.(*AggregateExpr)
			if !ok {
				return true
			}
			if !assigned[agg] {
				assigned[agg] = true
				agg.slot = len(p.aggs)
				p.aggs = append(p.aggs, agg)
			}
			return false
		})
	}
}

// checkGrouped rejects column references outside aggregates that are not
// GROUP BY expressions.
func (p *plan) checkGrouped() error {
	keys := make(map[string]bool, len(p.groupBy))
	for _, g := range p.groupBy {
		keys[g.String()] = true
	}

	check := func(e Expr) error {
		var err error
		walk(e, func(n Expr) bool {
			if err != nil || keys[n.String()] {
				return false
			}
			switch node := n.(type) {
			case *AggregateExpr:
				return false
			case *ColumnRef:
				if node.alias != nil {
					return false
				}
				err = planError("column %q must appear in GROUP BY or be used in an aggregate function", node.String())
				return false
			}
			return true
		})
		return err
	}

	for _, o := range p.outputs {
		if err := check(o.expr); err != nil {
			return err
		}
	}
	if p.having != nil {
		if err := check(p.having); err != nil {
			return err
		}
	}
	for _, k := range p.order {
		if err := check(k.expr); err != nil {
			return err
		}
	}
	return nil
}

// labelOf returns the data type label of a result column. Column
// references keep the column type; computed values are labelled by kind.
func labelOf(e Expr) string {
	if ref, ok := e.(*ColumnRef); ok && ref.node != nil {
		return ref.node.Tags.ColumnType()
	}
	return staticKind(e).String()
}

// staticKind predicts the kind an expression evaluates to. KindNull stands
// for an unknown or always-null result.
func staticKind(e Expr) value.Kind {
	switch n := e.(type) {
	case *Literal:
		if n.Value == nil {
			return value.KindNull
		}
		return n.Value.Kind()
	case *ColumnRef:
		if n.alias != nil {
			return staticKind(n.alias)
		}
		if n.node == nil {
			return value.KindNull
		}
		return n.node.ValueKind()
	case *UnaryExpr:
		if n.Op == TokenNot {
			return value.KindBool
		}
		return widenKind(staticKind(n.Operand), value.KindInt64)
	case *BinaryExpr:
		switch n.Op {
		case TokenConcat:
			return value.KindString
		case TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent:
			return widenKind(staticKind(n.Left), staticKind(n.Right))
		}
		return value.KindBool
	case *IsNullExpr, *InExpr, *BetweenExpr, *LikeExpr:
		return value.KindBool
	case *CaseExpr:
		for _, w := range n.Whens {
			if k := staticKind(w.Result); k != value.KindNull {
				return k
			}
		}
		if n.Else != nil {
			return staticKind(n.Else)
		}
		return value.KindNull
	case *CastExpr:
		return castTargets[n.Type]
	case *FunctionCall:
		if n.fn == nil {
			return value.KindNull
		}
		kinds := make([]value.Kind, len(n.Args))
		for i, a := range n.Args {
			kinds[i] = staticKind(a)
		}
		return n.fn.ReturnKind(kinds)
	case *AggregateExpr:
		arg := value.KindInt64
		if n.Arg != nil {
			arg = staticKind(n.Arg)
		}
		return aggregateKind(n, arg)
	}
	return value.KindNull
}

// widenKind is the arithmetic result kind of two operand kinds.
func widenKind(a, b value.Kind) value.Kind {
	ca, cb := kindClass(a), kindClass(b)
	if ca == notNumeric || cb == notNumeric {
		return value.KindNull
	}
	switch max(ca, cb) {
	case classInt:
		return value.KindInt64
	case classDecimal:
		return value.KindDecimal
	}
	return value.KindFloat64
}
