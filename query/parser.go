package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/value"
)

// aggregateFunctions are the names parsed as aggregates instead of scalar
// function calls.
var aggregateFunctions = map[string]bool{
	"COUNT": true,
	"SUM":   true,
	"AVG":   true,
	"MIN":   true,
	"MAX":   true,
}

// Parser parses SQL queries into AST
type Parser struct {
	tokens []Token
	pos    int
	depth  depthCounter
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without advancing
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// expect checks if current token matches expected type and advances
func (p *Parser) expect(tokType TokenType, context string) error {
	if p.current().Type != tokType {
		return p.errorf("expected %s %s, got %s", tokType, context, describe(p.current()))
	}
	p.advance()
	return nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return errs.New(errs.KindQueryPlan, "parse", format, args...)
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of query"
	case TokenError:
		return "invalid input " + strconv.Quote(tok.Value) + " at position " + strconv.Itoa(tok.Pos)
	default:
		return strconv.Quote(tok.Value)
	}
}

// Parse parses a SQL query
func Parse(query string) (*Statement, error) {
	// Validate query length
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	tokens := Tokenize(query)

	// Validate token count
	if err := ValidateTokens(tokens); err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	stmt, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}

	if parser.current().Type == TokenSemicolon {
		parser.advance()
	}
	if parser.current().Type != TokenEOF {
		return nil, parser.errorf("unexpected %s after query", describe(parser.current()))
	}

	return stmt, nil
}

// parseStatement parses: SELECT [DISTINCT] items FROM table [alias] ...
func (p *Parser) parseStatement() (*Statement, error) {
	if err := p.expect(TokenSelect, "at start of query"); err != nil {
		return nil, err
	}

	stmt := &Statement{}
	if p.current().Type == TokenDistinct {
		stmt.Distinct = true
		p.advance()
	}

	items, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	stmt.Items = items

	if err := p.expect(TokenFrom, "after SELECT list"); err != nil {
		return nil, err
	}
	switch tok := p.current(); tok.Type {
	case TokenIdent, TokenQuotedIdent, TokenString:
		stmt.Table = tok.Value
		p.advance()
	default:
		return nil, p.errorf("expected table name after FROM, got %s", describe(tok))
	}

	// Parse optional alias for table
	if p.current().Type == TokenAs {
		p.advance()
		if !isIdent(p.current()) {
			return nil, p.errorf("expected alias after AS, got %s", describe(p.current()))
		}
	}
	if isIdent(p.current()) {
		stmt.Alias = p.current().Value
		p.advance()
	}

	if p.current().Type == TokenWhere {
		p.advance()
		if stmt.Where, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}

	if p.current().Type == TokenGroup {
		p.advance()
		if err := p.expect(TokenBy, "after GROUP"); err != nil {
			return nil, err
		}
		if stmt.GroupBy, err = p.parseExprList(); err != nil {
			return nil, err
		}
	}

	if p.current().Type == TokenHaving {
		p.advance()
		if stmt.Having, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}

	if p.current().Type == TokenOrder {
		p.advance()
		if err := p.expect(TokenBy, "after ORDER"); err != nil {
			return nil, err
		}
		if stmt.OrderBy, err = p.parseOrderBy(); err != nil {
			return nil, err
		}
	}

	// LIMIT and OFFSET may appear in either order.
	for i := 0; i < 2; i++ {
		switch p.current().Type {
		case TokenLimit:
			if stmt.Limit != nil {
				return nil, p.errorf("duplicate LIMIT clause")
			}
			p.advance()
			n, err := p.parseCount("LIMIT")
			if err != nil {
				return nil, err
			}
			stmt.Limit = &n
		case TokenOffset:
			if stmt.Offset != nil {
				return nil, p.errorf("duplicate OFFSET clause")
			}
			p.advance()
			n, err := p.parseCount("OFFSET")
			if err != nil {
				return nil, err
			}
			stmt.Offset = &n
		}
	}

	return stmt, nil
}

func isIdent(tok Token) bool {
	return tok.Type == TokenIdent || tok.Type == TokenQuotedIdent
}

// parseCount parses the non-negative integer of LIMIT or OFFSET
func (p *Parser) parseCount(clause string) (int64, error) {
	tok := p.current()
	if tok.Type != TokenNumber {
		return 0, p.errorf("%s requires a non-negative integer, got %s", clause, describe(tok))
	}
	n, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil || n < 0 {
		return 0, p.errorf("%s requires a non-negative integer, got %s", clause, describe(tok))
	}
	p.advance()
	return n, nil
}

// parseSelectList parses the comma separated SELECT items
func (p *Parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if p.current().Type != TokenComma {
			return items, nil
		}
		p.advance()
	}
}

func (p *Parser) parseSelectItem() (SelectItem, error) {
	if p.current().Type == TokenStar {
		p.advance()
		return SelectItem{Star: &Star{}}, nil
	}
	// alias.*
	if isIdent(p.current()) && p.peek().Type == TokenDot && p.peekAt(2).Type == TokenStar {
		qualifier := p.current().Value
		p.pos += 3
		return SelectItem{Star: &Star{Qualifier: qualifier}}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: expr}

	switch {
	case p.current().Type == TokenAs:
		p.advance()
		if !isIdent(p.current()) && p.current().Type != TokenString {
			return SelectItem{}, p.errorf("expected alias after AS, got %s", describe(p.current()))
		}
		item.Alias = p.current().Value
		p.advance()
	case isIdent(p.current()):
		item.Alias = p.current().Value
		p.advance()
	}
	return item, nil
}

func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) parseExprList() ([]Expr, error) {
	var list []Expr
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, expr)
		if p.current().Type != TokenComma {
			return list, nil
		}
		p.advance()
	}
}

func (p *Parser) parseOrderBy() ([]OrderItem, error) {
	var items []OrderItem
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := OrderItem{Expr: expr}

		switch p.current().Type {
		case TokenAsc:
			p.advance()
		case TokenDesc:
			item.Desc = true
			p.advance()
		}

		if p.current().Type == TokenNulls {
			p.advance()
			var first bool
			switch p.current().Type {
			case TokenFirst:
				first = true
			case TokenLast:
			default:
				return nil, p.errorf("expected FIRST or LAST after NULLS, got %s", describe(p.current()))
			}
			p.advance()
			item.NullsFirst = &first
		}

		items = append(items, item)
		if p.current().Type != TokenComma {
			return items, nil
		}
		p.advance()
	}
}

// parseExpr parses a full expression (lowest precedence: OR)
func (p *Parser) parseExpr() (Expr, error) {
	if err := p.depth.enter(); err != nil {
		return nil, err
	}
	defer p.depth.leave()

	return p.parseOr()
}

// parseOr parses OR expressions (lowest precedence)
func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokenOr, Left: left, Right: right}
	}
	return left, nil
}

// parseAnd parses AND expressions (higher precedence than OR)
func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokenAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.current().Type == TokenNot {
		p.advance()
		if err := p.depth.enter(); err != nil {
			return nil, err
		}
		defer p.depth.leave()

		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: TokenNot, Operand: operand}, nil
	}
	return p.parsePredicate()
}

func isComparison(t TokenType) bool {
	switch t {
	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		return true
	}
	return false
}

// parsePredicate parses comparisons, IS NULL, IN, BETWEEN and LIKE
func (p *Parser) parsePredicate() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		switch {
		case isComparison(tok.Type):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: tok.Type, Left: left, Right: right}

		case tok.Type == TokenIs:
			p.advance()
			negate := false
			if p.current().Type == TokenNot {
				negate = true
				p.advance()
			}
			if err := p.expect(TokenNull, "after IS"); err != nil {
				return nil, err
			}
			left = &IsNullExpr{Operand: left, Negate: negate}

		case tok.Type == TokenNot && isNegatable(p.peek().Type):
			p.advance()
			if left, err = p.parseNegatable(left, true); err != nil {
				return nil, err
			}

		case isNegatable(tok.Type):
			if left, err = p.parseNegatable(left, false); err != nil {
				return nil, err
			}

		default:
			return left, nil
		}
	}
}

func isNegatable(t TokenType) bool {
	return t == TokenIn || t == TokenBetween || t == TokenLike || t == TokenILike
}

func (p *Parser) parseNegatable(left Expr, negate bool) (Expr, error) {
	tok := p.current()
	p.advance()

	switch tok.Type {
	case TokenIn:
		if err := p.expect(TokenLeftParen, "after IN"); err != nil {
			return nil, err
		}
		list, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen, "after IN list"); err != nil {
			return nil, err
		}
		return &InExpr{Operand: left, List: list, Negate: negate}, nil

	case TokenBetween:
		lower, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenAnd, "in BETWEEN"); err != nil {
			return nil, err
		}
		upper, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BetweenExpr{Operand: left, Lower: lower, Upper: upper, Negate: negate}, nil

	default:
		pattern, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &LikeExpr{Operand: left, Pattern: pattern, Negate: negate, CaseInsensitive: tok.Type == TokenILike}, nil
	}
}

// parseAdditive parses +, - and ||
func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op := p.current().Type
		if op != TokenPlus && op != TokenMinus && op != TokenConcat {
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

// parseMultiplicative parses *, / and %
func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.current().Type
		if op != TokenStar && op != TokenSlash && op != TokenPercent {
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	switch p.current().Type {
	case TokenMinus:
		p.advance()
		if p.current().Type == TokenNumber {
			return p.parseNumber(true)
		}
		if err := p.depth.enter(); err != nil {
			return nil, err
		}
		defer p.depth.leave()

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: TokenMinus, Operand: operand}, nil
	case TokenPlus:
		p.advance()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *Parser) parseNumber(negative bool) (Expr, error) {
	text := p.current().Value
	p.advance()
	if negative {
		text = "-" + text
	}

	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return &Literal{Value: value.Int64(n)}, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) {
		return nil, p.errorf("invalid number %q", text)
	}
	return &Literal{Value: value.Float64(f)}, nil
}

// parsePrimary parses literals, parenthesized expressions, CASE, CAST,
// function calls and column references
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		return p.parseNumber(false)
	case TokenString:
		p.advance()
		return &Literal{Value: value.String(tok.Value)}, nil
	case TokenBool:
		p.advance()
		return &Literal{Value: value.Bool(strings.EqualFold(tok.Value, "true"))}, nil
	case TokenNull:
		p.advance()
		return &Literal{Value: value.Null{}}, nil
	case TokenLeftParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen, "to close expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case TokenCase:
		return p.parseCase()
	case TokenCast:
		return p.parseCast()
	case TokenIdent:
		if p.peek().Type == TokenLeftParen {
			if strings.EqualFold(tok.Value, "TRY_CAST") {
				return p.parseCast()
			}
			return p.parseCall()
		}
		return p.parseColumnRef()
	case TokenQuotedIdent:
		return p.parseColumnRef()
	}

	return nil, p.errorf("unexpected %s in expression", describe(tok))
}

func (p *Parser) parseColumnRef() (Expr, error) {
	ref := &ColumnRef{Quoted: p.current().Type == TokenQuotedIdent}
	for {
		tok := p.current()
		if !isIdent(tok) {
			return nil, p.errorf("expected column name, got %s", describe(tok))
		}
		if err := ValidateColumnName(tok.Value); err != nil {
			return nil, err
		}
		ref.Parts = append(ref.Parts, tok.Value)
		p.advance()

		if p.current().Type != TokenDot {
			return ref, nil
		}
		p.advance()
	}
}

func (p *Parser) parseCall() (Expr, error) {
	name := p.current().Value
	upper := strings.ToUpper(name)
	p.advance() // name
	p.advance() // (

	if aggregateFunctions[upper] {
		agg := &AggregateExpr{Function: upper}
		if p.current().Type == TokenStar {
			if upper != "COUNT" {
				return nil, p.errorf("%s(*) is not supported", upper)
			}
			p.advance()
		} else {
			if p.current().Type == TokenDistinct {
				agg.Distinct = true
				p.advance()
			}
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			agg.Arg = arg
		}
		if err := p.expect(TokenRightParen, "after aggregate argument"); err != nil {
			return nil, err
		}
		return agg, nil
	}

	call := &FunctionCall{Name: upper}
	if p.current().Type != TokenRightParen {
		args, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		call.Args = args
	}
	if err := p.expect(TokenRightParen, "after function arguments"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parseCase() (Expr, error) {
	p.advance() // CASE
	c := &CaseExpr{}

	if p.current().Type != TokenWhen && p.current().Type != TokenEnd {
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Operand = operand
	}

	for p.current().Type == TokenWhen {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenThen, "after WHEN condition"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, WhenClause{Condition: cond, Result: result})
	}
	if len(c.Whens) == 0 {
		return nil, p.errorf("CASE requires at least one WHEN clause")
	}

	if p.current().Type == TokenElse {
		p.advance()
		elseExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Else = elseExpr
	}

	if err := p.expect(TokenEnd, "to close CASE"); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Parser) parseCast() (Expr, error) {
	try := p.current().Type == TokenIdent
	p.advance() // CAST or TRY_CAST
	if err := p.expect(TokenLeftParen, "after CAST"); err != nil {
		return nil, err
	}
	operand, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenAs, "in CAST"); err != nil {
		return nil, err
	}
	if p.current().Type != TokenIdent {
		return nil, p.errorf("expected type name in CAST, got %s", describe(p.current()))
	}
	typ := strings.ToUpper(p.current().Value)
	p.advance()
	if _, ok := castTargets[typ]; !ok {
		return nil, p.errorf("unsupported CAST target type %s", typ)
	}
	if err := p.expect(TokenRightParen, "to close CAST"); err != nil {
		return nil, err
	}
	return &CastExpr{Operand: operand, Type: typ, Try: try}, nil
}
