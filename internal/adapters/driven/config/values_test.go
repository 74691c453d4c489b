package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoercion(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		str   string
		i     int
		float float64
	}{
		{"string", "acme", "acme", 0, 0},
		{"numeric string", " 8 ", " 8 ", 8, 8},
		{"float string", "0.25", "0.25", 0, 0.25},
		{"int", 600, "", 600, 600},
		{"int64", int64(6), "", 6, 6},
		{"whole float", 2.0, "", 2, 2},
		{"fractional float", 0.1, "", 0, 0.1},
		{"bool", true, "", 0, 0},
		{"nil", nil, "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.str, String(tt.in))
			assert.Equal(t, tt.i, Int(tt.in))
			assert.InDelta(t, tt.float, Float(tt.in), 1e-12)
		})
	}
}

func TestBool(t *testing.T) {
	for _, in := range []any{true, "true", " 1 ", "TRUE"} {
		assert.True(t, Bool(in), "%#v", in)
	}
	for _, in := range []any{false, "false", "0", "yes", "", 1, nil} {
		assert.False(t, Bool(in), "%#v", in)
	}
}

func TestFlattenAndNest(t *testing.T) {
	tables := map[string]any{
		"tenant": map[string]any{"id": "acme"},
		"llm": map[string]any{
			"provider":    "openai",
			"temperature": 0.1,
		},
		"top": "level",
	}

	flat := Flatten(tables)
	assert.Equal(t, map[string]any{
		"tenant.id":       "acme",
		"llm.provider":    "openai",
		"llm.temperature": 0.1,
		"top":             "level",
	}, flat)

	nested, err := Nest(flat)
	require.NoError(t, err)
	assert.Equal(t, tables, nested)
}

func TestNest_Conflict(t *testing.T) {
	_, err := Nest(map[string]any{"llm": "x", "llm.model": "y"})
	assert.Error(t, err)
}
