package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	env := map[string]string{"FOO": "bar", "A": "1", "B": "2", "X": "x"}
	lookup := func(key string) string { return env[key] }
	var testCases = []struct {
		description string
		input       string
		expect      string
	}{
		{description: "no expressions", input: "just a plain string", expect: "just a plain string"},
		{description: "single expression", input: "value is ${env.FOO}", expect: "value is bar"},
		{description: "multiple expressions", input: "${env.A}-${env.B}-${env.A}", expect: "1-2-1"},
		{description: "unset variable becomes empty", input: "unset=${env.NOTSET}-end", expect: "unset=-end"},
		{description: "invalid key keeps prefix", input: "start ${env.X and ${env.FOO} end", expect: "start ${env.X and bar end"},
		{description: "missing closing brace", input: "tail ${env.FOO", expect: "tail ${env.FOO"},
		{description: "prefix only no key", input: "oops ${env.} done", expect: "oops  done"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expect, expand(tc.input, lookup))
		})
	}
}

func TestExpandEnvExpr(t *testing.T) {
	t.Setenv("META_EXPR_TEST", "value")
	assert.Equal(t, "key=value", expandEnvExpr("key=${env.META_EXPR_TEST}"))
}
