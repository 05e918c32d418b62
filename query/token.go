package query

// TokenType represents the type of a token
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenAs
	TokenGroup
	TokenBy
	TokenHaving
	TokenOrder
	TokenAsc
	TokenDesc
	TokenNulls
	TokenFirst
	TokenLast
	TokenLimit
	TokenOffset
	TokenIn
	TokenLike
	TokenILike
	TokenBetween
	TokenIs
	TokenNot
	TokenNull
	TokenDistinct
	TokenCase
	TokenWhen
	TokenThen
	TokenElse
	TokenEnd
	TokenCast
	TokenBool

	// Operators
	TokenEqual        // =
	TokenNotEqual     // != or <>
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenPercent      // %
	TokenConcat       // ||

	// Literals
	TokenString
	TokenNumber
	TokenIdent
	TokenQuotedIdent

	// Delimiters
	TokenComma      // ,
	TokenDot        // .
	TokenLeftParen  // (
	TokenRightParen // )
	TokenSemicolon  // ;

	// Special
	TokenEOF
	TokenError
)

var tokenNames = map[TokenType]string{
	TokenEqual:        "=",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenGreater:      ">",
	TokenLessEqual:    "<=",
	TokenGreaterEqual: ">=",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenPercent:      "%",
	TokenConcat:       "||",
	TokenString:       "string",
	TokenNumber:       "number",
	TokenIdent:        "identifier",
	TokenQuotedIdent:  "identifier",
	TokenComma:        ",",
	TokenDot:          ".",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenSemicolon:    ";",
	TokenEOF:          "end of query",
	TokenError:        "invalid token",
}

// String returns a readable name for error messages.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for word, typ := range keywords {
		if typ == t && typ != TokenBool {
			return word
		}
	}
	if t == TokenBool {
		return "boolean"
	}
	return "token"
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	// Pos is the byte offset of the token in the query.
	Pos int
}

// keywords maps upper-cased reserved words to their token type.
var keywords = map[string]TokenType{
	"SELECT":   TokenSelect,
	"FROM":     TokenFrom,
	"WHERE":    TokenWhere,
	"AND":      TokenAnd,
	"OR":       TokenOr,
	"AS":       TokenAs,
	"GROUP":    TokenGroup,
	"BY":       TokenBy,
	"HAVING":   TokenHaving,
	"ORDER":    TokenOrder,
	"ASC":      TokenAsc,
	"DESC":     TokenDesc,
	"NULLS":    TokenNulls,
	"FIRST":    TokenFirst,
	"LAST":     TokenLast,
	"LIMIT":    TokenLimit,
	"OFFSET":   TokenOffset,
	"IN":       TokenIn,
	"LIKE":     TokenLike,
	"ILIKE":    TokenILike,
	"BETWEEN":  TokenBetween,
	"IS":       TokenIs,
	"NOT":      TokenNot,
	"NULL":     TokenNull,
	"DISTINCT": TokenDistinct,
	"CASE":     TokenCase,
	"WHEN":     TokenWhen,
	"THEN":     TokenThen,
	"ELSE":     TokenElse,
	"END":      TokenEnd,
	"CAST":     TokenCast,
	"TRUE":     TokenBool,
	"FALSE":    TokenBool,
}
