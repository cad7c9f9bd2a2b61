package meta

import (
	"os"
	"strings"
	"unicode"
)

const envPrefix = "${env."

// expandEnvExpr replaces ${env.KEY} with the KEY environment variable
func expandEnvExpr(value string) string {
	return expand(value, os.Getenv)
}

// expand replaces ${env.KEY} expressions using lookup. An unterminated
// expression is kept literally; an expression whose key has characters other
// than letters, digits or '_' keeps its prefix literally and scanning resumes
// right after the prefix, so nested expressions still expand.
func expand(value string, lookup func(string) string) string {
	if !strings.Contains(value, envPrefix) {
		return value
	}
	var b strings.Builder
	rest := value
	for {
		idx := strings.Index(rest, envPrefix)
		if idx < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:idx])
		body := rest[idx+len(envPrefix):]
		end := strings.IndexByte(body, '}')
		if end < 0 {
			b.WriteString(rest[idx:])
			return b.String()
		}
		key := body[:end]
		if !isEnvKey(key) {
			b.WriteString(envPrefix)
			rest = body
			continue
		}
		if key != "" {
			b.WriteString(lookup(key))
		}
		rest = body[end+1:]
	}
}

func isEnvKey(key string) bool {
	for _, r := range key {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
