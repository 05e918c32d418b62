package query

import (
	"github.com/vegasq/parqsee/internal/errs"
)

// Validation constants to prevent DoS and resource exhaustion
const (
	// MaxQueryLength is the maximum allowed query string length (1MB)
	MaxQueryLength = 1024 * 1024

	// MaxTokens is the maximum number of tokens in a query
	MaxTokens = 100_000

	// MaxExpressionDepth is the maximum nesting depth for expressions
	MaxExpressionDepth = 100

	// MaxColumnNameLength is the maximum length for a column name
	MaxColumnNameLength = 256
)

// ValidateQuery performs security validation on query input
func ValidateQuery(query string) error {
	if len(query) > MaxQueryLength {
		return errs.New(errs.KindQueryPlan, "parse", "query too long: %d bytes (max %d)", len(query), MaxQueryLength)
	}
	return nil
}

// ValidateTokens validates token count
func ValidateTokens(tokens []Token) error {
	if len(tokens) > MaxTokens {
		return errs.New(errs.KindQueryPlan, "parse", "too many tokens in query: %d (max %d)", len(tokens), MaxTokens)
	}
	return nil
}

// ValidateColumnName validates column name length
func ValidateColumnName(name string) error {
	if len(name) > MaxColumnNameLength {
		return errs.New(errs.KindQueryPlan, "parse", "column name too long: %d chars (max %d)", len(name), MaxColumnNameLength)
	}
	return nil
}

// depthCounter tracks expression nesting while parsing.
type depthCounter struct {
	depth int
}

func (d *depthCounter) enter() error {
	d.depth++
	if d.depth > MaxExpressionDepth {
		return errs.New(errs.KindQueryPlan, "parse", "expression nesting too deep (max %d)", MaxExpressionDepth)
	}
	return nil
}

func (d *depthCounter) leave() {
	d.depth--
}
