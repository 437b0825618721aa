package internal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalExpression(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1+2", "3"},
		{"7*6", "42"},
		{"2.5*2", "5"},
		{"1.5+1", "2.5"},
		{"2 ** 3", "8"},
		{"pow(2, 10)", "1024"},
		{"sqrt(16)", "4"},
		{"floor(3.9)", "3"},
		{"ceil(1.2)", "2"},
		{"round(2.5)", "3"},
		{"abs(-3)", "3"},
		{"pi > 3", "true"},
		{`"a" + "b"`, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := evalExpression(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalExpressionErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"dangling operator", "1+"},
		{"unknown name", "nosuchname"},
		{"division by zero", "1/0"},
		{"imaginary root", "sqrt(-1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evalExpression(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"int", 3, "3"},
		{"int64", int64(7), "7"},
		{"fractional float", 2.5, "2.5"},
		{"integral float collapses", 4.0, "4"},
		{"huge float keeps exponent form", 1e20, "1e+20"},
		{"bool", true, "true"},
		{"string passes through", "x", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatResult(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("non-finite results are errors", func(t *testing.T) {
		_, err := formatResult(math.Inf(1))
		assert.Error(t, err)
		_, err = formatResult(math.NaN())
		assert.Error(t, err)
	})
}
