package query

import (
	"strings"
	"sync"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/value"
)

// Function represents a scalar function that can be evaluated
type Function interface {
	// Name returns the function name (case-insensitive)
	Name() string
	// MinArity returns the minimum number of arguments
	MinArity() int
	// MaxArity returns the maximum number of arguments (-1 for unlimited)
	MaxArity() int
	// Evaluate evaluates the function with the given arguments
	Evaluate(args []value.Value) (value.Value, error)
	// ReturnKind predicts the result kind from the argument kinds.
	ReturnKind(args []value.Kind) value.Kind
}

// FunctionRegistry manages function lookup and registration
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry creates a new function registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register registers a function under its name
func (r *FunctionRegistry) Register(f Function) {
	r.RegisterAs(f.Name(), f)
}

// RegisterAs registers a function under an alternative name
func (r *FunctionRegistry) RegisterAs(name string, f Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToUpper(name)] = f
}

// Get retrieves a function by name (case-insensitive)
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, exists := r.functions[strings.ToUpper(name)]
	return f, exists
}

// globalRegistry is the default function registry
var globalRegistry *FunctionRegistry

func init() {
	globalRegistry = NewFunctionRegistry()

	// Register string functions
	globalRegistry.Register(&UpperFunc{})
	globalRegistry.Register(&LowerFunc{})
	globalRegistry.Register(&LengthFunc{})
	globalRegistry.RegisterAs("CHAR_LENGTH", &LengthFunc{})
	globalRegistry.Register(&TrimFunc{})
	globalRegistry.Register(&LTrimFunc{})
	globalRegistry.Register(&RTrimFunc{})
	globalRegistry.Register(&SubstrFunc{})
	globalRegistry.RegisterAs("SUBSTRING", &SubstrFunc{})
	globalRegistry.Register(&ReplaceFunc{})
	globalRegistry.Register(&ConcatFunc{})

	// Register math functions
	globalRegistry.Register(&AbsFunc{})
	globalRegistry.Register(&RoundFunc{})
	globalRegistry.Register(&FloorFunc{})
	globalRegistry.Register(&CeilFunc{})
	globalRegistry.RegisterAs("CEILING", &CeilFunc{})
	globalRegistry.Register(&ModFunc{})

	// Register date/time functions
	globalRegistry.Register(&NowFunc{})
	globalRegistry.RegisterAs("CURRENT_TIMESTAMP", &NowFunc{})
	globalRegistry.Register(&CurrentDateFunc{})
	globalRegistry.Register(&CurrentTimeFunc{})
	globalRegistry.Register(&DateTruncFunc{})
	globalRegistry.Register(&DatePartFunc{})
	globalRegistry.Register(&DateAddFunc{})
	globalRegistry.Register(&DateSubFunc{})
	globalRegistry.Register(&DateDiffFunc{})
	for name, unit := range map[string]string{
		"YEAR": "year", "QUARTER": "quarter", "MONTH": "month", "DAY": "day",
		"HOUR": "hour", "MINUTE": "minute", "SECOND": "second",
	} {
		globalRegistry.Register(&PartFunc{name: name, unit: unit})
	}

	// Register type conversion functions
	globalRegistry.Register(&ToDateFunc{})
	globalRegistry.Register(&ToTimestampFunc{})
	globalRegistry.Register(&ToStringFunc{})
	globalRegistry.Register(&ToNumberFunc{})

	// Register null handling functions
	globalRegistry.Register(&CoalesceFunc{})
	globalRegistry.Register(&NullIfFunc{})
}

// GetGlobalRegistry returns the global function registry
func GetGlobalRegistry() *FunctionRegistry {
	return globalRegistry
}

func checkArity(f Function, n int) error {
	if n < f.MinArity() || (f.MaxArity() >= 0 && n > f.MaxArity()) {
		if f.MaxArity() == f.MinArity() {
			return errs.New(errs.KindQueryPlan, "plan", "%s expects %d argument(s), got %d", f.Name(), f.MinArity(), n)
		}
		if f.MaxArity() < 0 {
			return errs.New(errs.KindQueryPlan, "plan", "%s expects at least %d argument(s), got %d", f.Name(), f.MinArity(), n)
		}
		return errs.New(errs.KindQueryPlan, "plan", "%s expects %d to %d arguments, got %d", f.Name(), f.MinArity(), f.MaxArity(), n)
	}
	return nil
}

func anyNull(args []value.Value) bool {
	for _, a := range args {
		if value.IsNull(a) {
			return true
		}
	}
	return false
}

// valueToString converts a non-null scalar to its text form
func valueToString(name string, v value.Value) (string, error) {
	switch v.(type) {
	case value.List, value.Map, value.Record:
		return "", evalError("%s expects a scalar argument, got %s", name, v.Kind())
	}
	return value.ToText(v), nil
}

// valueToInt converts a non-null integer argument
func valueToInt(name string, v value.Value) (int64, error) {
	if i, ok := asInt(v); ok {
		return i, nil
	}
	if f, ok := asFloat(v); ok && f == float64(int64(f)) {
		return int64(f), nil
	}
	return 0, evalError("%s expects an integer argument, got %s", name, v.Kind())
}

// firstKind returns the first argument kind that is not null
func firstKind(args []value.Kind) value.Kind {
	for _, k := range args {
		if k != value.KindNull {
			return k
		}
	}
	return value.KindNull
}
