package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/value"
)

func TestConvertFunctions_Evaluate(t *testing.T) {
	tests := []struct {
		name string
		fn   Function
		args []value.Value
		want value.Value
	}{
		{"to_date iso", &ToDateFunc{}, []value.Value{value.String("2024-03-01")}, value.Date(19_783)},
		{"to_date timestamp string", &ToDateFunc{}, []value.Value{value.String("2024-03-01 23:59:59")}, value.Date(19_783)},
		{"to_date with format", &ToDateFunc{}, []value.Value{value.String("01/03/2024"), value.String("%d/%m/%Y")}, value.Date(19_783)},
		{"to_date month name", &ToDateFunc{}, []value.Value{value.String("01 Mar 2024"), value.String("%d %b %Y")}, value.Date(19_783)},
		{"to_date from timestamp", &ToDateFunc{}, []value.Value{friday}, value.Date(19_783)},
		{"to_date before epoch", &ToDateFunc{}, []value.Value{value.TimestampMillis(-1)}, value.Date(-1)},
		{"to_date null", &ToDateFunc{}, []value.Value{value.Null{}}, value.Null{}},
		{"to_date null format", &ToDateFunc{}, []value.Value{value.String("x"), value.Null{}}, value.Null{}},
		{"to_timestamp with format", &ToTimestampFunc{}, []value.Value{value.String("2024-03-01 12:30"), value.String("%Y-%m-%d %H:%M")}, value.TimestampNanos(1_709_296_200_000_000_000)},
		{"to_timestamp from date", &ToTimestampFunc{}, []value.Value{value.Date(1)}, value.TimestampNanos(86_400_000_000_000)},
		{"to_string integer", &ToStringFunc{}, []value.Value{value.Int32(42)}, value.String("42")},
		{"to_string date", &ToStringFunc{}, []value.Value{value.Date(19_783)}, value.String("2024-03-01")},
		{"to_string null", &ToStringFunc{}, []value.Value{value.Null{}}, value.Null{}},
		{"to_number string", &ToNumberFunc{}, []value.Value{value.String(" 2.5 ")}, value.Float64(2.5)},
		{"to_number integer", &ToNumberFunc{}, []value.Value{value.Int64(3)}, value.Float64(3)},
		{"to_number bool", &ToNumberFunc{}, []value.Value{value.Bool(true)}, value.Float64(1)},
		{"to_number keeps decimal", &ToNumberFunc{}, []value.Value{value.NewDecimal(125, 5, 2)}, value.NewDecimal(125, 5, 2)},
		{"to_number null", &ToNumberFunc{}, []value.Value{value.Null{}}, value.Null{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn.Evaluate(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertFunctions_Errors(t *testing.T) {
	tests := []struct {
		name string
		fn   Function
		args []value.Value
	}{
		{"to_date garbage", &ToDateFunc{}, []value.Value{value.String("yesterday")}},
		{"to_date format mismatch", &ToDateFunc{}, []value.Value{value.String("2024-03-01"), value.String("%d/%m/%Y")}},
		{"to_date unknown directive", &ToDateFunc{}, []value.Value{value.String("2024"), value.String("%Q")}},
		{"to_date dangling percent", &ToDateFunc{}, []value.Value{value.String("2024"), value.String("%Y%")}},
		{"to_date integer", &ToDateFunc{}, []value.Value{value.Int64(5)}},
		{"to_string list", &ToStringFunc{}, []value.Value{value.List{value.Int64(1)}}},
		{"to_number text", &ToNumberFunc{}, []value.Value{value.String("abc")}},
		{"to_number map", &ToNumberFunc{}, []value.Value{value.Map{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn.Evaluate(tt.args)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindConversion), "want a conversion error, got %v", err)
		})
	}
}

func TestStrftimeLayout(t *testing.T) {
	layout, err := strftimeLayout("TO_DATE", "%Y-%m-%dT%H:%M:%S 100%%")
	require.NoError(t, err)
	assert.Equal(t, "2006-01-02T15:04:05 100%", layout)
}

func TestParse_TryCast(t *testing.T) {
	stmt, err := Parse("SELECT TRY_CAST(x AS bigint) FROM t")
	require.NoError(t, err)
	c, ok := stmt.Items[0].Expr.(*CastExpr)
	require.True(t, ok)
	assert.True(t, c.Try)
	assert.Equal(t, "BIGINT", c.Type)
	assert.Equal(t, "TRY_CAST(x AS BIGINT)", c.String())

	_, err = Parse("SELECT TRY_CAST(x AS blob) FROM t")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindQueryPlan))
}
