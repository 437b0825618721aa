package internal

import (
	"fmt"
	"math"
	"strconv"

	"github.com/expr-lang/expr"
)

// calcEnv is the set of names available inside calculator expressions.
var calcEnv = map[string]interface{}{
	"pi":    math.Pi,
	"e":     math.E,
	"abs":   math.Abs,
	"sqrt":  math.Sqrt,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": math.Round,
	"log":   math.Log,
	"log2":  math.Log2,
	"log10": math.Log10,
	"exp":   math.Exp,
	"pow":   math.Pow,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
}

// evalExpression evaluates a calculator expression and formats the
// result for display.
func evalExpression(input string) (string, error) {
	out, err := expr.Eval(input, calcEnv)
	if err != nil {
		return "", err
	}
	return formatResult(out)
}

func formatResult(v interface{}) (string, error) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return "", fmt.Errorf("result is not a number")
		}
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(n), nil
	case string:
		return n, nil
	default:
		return fmt.Sprintf("%v", n), nil
	}
}
