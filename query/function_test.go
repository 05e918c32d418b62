package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/value"
)

func TestFunctionRegistry(t *testing.T) {
	r := GetGlobalRegistry()

	for _, name := range []string{"upper", "LOWER", "Length", "char_length", "substring", "ceiling", "COALESCE",
		"year", "Date_Trunc", "current_timestamp", "DATE_DIFF", "to_number", "TO_TIMESTAMP"} {
		_, ok := r.Get(name)
		assert.True(t, ok, name)
	}
	_, ok := r.Get("DOES_NOT_EXIST")
	assert.False(t, ok)
}

// reverseFunc is a test-only function for custom registries.
type reverseFunc struct{}

func (reverseFunc) Name() string                       { return "REVERSE" }
func (reverseFunc) MinArity() int                      { return 1 }
func (reverseFunc) MaxArity() int                      { return 1 }
func (reverseFunc) ReturnKind([]value.Kind) value.Kind { return value.KindString }
func (reverseFunc) Evaluate(args []value.Value) (value.Value, error) {
	s, err := valueToString("REVERSE", args[0])
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return value.String(string(runes)), nil
}

func TestSession_CustomRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	registry.Register(reverseFunc{})

	s := openTable(t, []struct {
		Name string `parquet:"name"`
	}{{Name: "abc"}}, WithRegistry(registry))

	res, err := s.Query("SELECT reverse(name) AS r FROM t")
	require.NoError(t, err)
	assert.Equal(t, []ResultColumn{{Name: "r", DataType: "STRING"}}, res.Columns)
	assert.Equal(t, value.String("cba"), res.Rows()[0][0].Value)

	// The custom registry replaces the built-ins.
	_, err = s.Query("SELECT UPPER(name) FROM t")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindQueryPlan))
}

func TestFunctions_Evaluate(t *testing.T) {
	tests := []struct {
		name string
		fn   Function
		args []value.Value
		want value.Value
	}{
		{"upper null", &UpperFunc{}, []value.Value{value.Null{}}, value.Null{}},
		{"lower", &LowerFunc{}, []value.Value{value.String("MiXeD")}, value.String("mixed")},
		{"length counts runes", &LengthFunc{}, []value.Value{value.String("héllo")}, value.Int64(5)},
		{"ltrim", &LTrimFunc{}, []value.Value{value.String("  x ")}, value.String("x ")},
		{"rtrim", &RTrimFunc{}, []value.Value{value.String(" x  ")}, value.String(" x")},
		{"substr without length", &SubstrFunc{}, []value.Value{value.String("hello"), value.Int64(3)}, value.String("llo")},
		{"substr past end", &SubstrFunc{}, []value.Value{value.String("hello"), value.Int64(9), value.Int64(2)}, value.String("")},
		{"substr negative start", &SubstrFunc{}, []value.Value{value.String("hello"), value.Int64(-1), value.Int64(4)}, value.String("he")},
		{"concat numbers", &ConcatFunc{}, []value.Value{value.String("n="), value.Int32(4)}, value.String("n=4")},
		{"abs float", &AbsFunc{}, []value.Value{value.Float64(-2.5)}, value.Float64(2.5)},
		{"abs decimal", &AbsFunc{}, []value.Value{value.NewDecimal(-125, 5, 2)}, value.NewDecimal(125, 3, 2)},
		{"round no places", &RoundFunc{}, []value.Value{value.Float64(2.5)}, value.Float64(3)},
		{"round decimal", &RoundFunc{}, []value.Value{value.NewDecimal(12345, 5, 3), value.Int64(1)}, value.NewDecimal(123, 3, 1)},
		{"floor decimal", &FloorFunc{}, []value.Value{value.NewDecimal(-125, 5, 2)}, value.NewDecimal(-2, 1, 0)},
		{"ceil int", &CeilFunc{}, []value.Value{value.Int16(4)}, value.Int64(4)},
		{"mod float", &ModFunc{}, []value.Value{value.Float64(7.5), value.Int64(2)}, value.Float64(1.5)},
		{"mod null", &ModFunc{}, []value.Value{value.Null{}, value.Int64(2)}, value.Null{}},
		{"coalesce all null", &CoalesceFunc{}, []value.Value{value.Null{}, value.Null{}}, value.Null{}},
		{"nullif across widths", &NullIfFunc{}, []value.Value{value.Int32(3), value.Int64(3)}, value.Null{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn.Evaluate(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFunctions_Errors(t *testing.T) {
	tests := []struct {
		name string
		fn   Function
		args []value.Value
	}{
		{"upper list", &UpperFunc{}, []value.Value{value.List{value.Int64(1)}}},
		{"substr negative length", &SubstrFunc{}, []value.Value{value.String("x"), value.Int64(1), value.Int64(-1)}},
		{"substr text start", &SubstrFunc{}, []value.Value{value.String("x"), value.String("a")}},
		{"abs string", &AbsFunc{}, []value.Value{value.String("x")}},
		{"mod zero", &ModFunc{}, []value.Value{value.Int64(1), value.Int64(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn.Evaluate(tt.args)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindConversion), "want a conversion error, got %v", err)
		})
	}
}

func TestCheckArity(t *testing.T) {
	assert.NoError(t, checkArity(&SubstrFunc{}, 2))
	assert.NoError(t, checkArity(&ConcatFunc{}, 7))

	err := checkArity(&UpperFunc{}, 2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindQueryPlan))
	assert.True(t, strings.Contains(err.Error(), "UPPER expects 1 argument(s), got 2"))

	err = checkArity(&SubstrFunc{}, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 to 3 arguments")
}
