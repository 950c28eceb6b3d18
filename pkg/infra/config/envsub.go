package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// placeholderPattern matches ${VAR} anywhere inside a string value. Hyphens
// are allowed because some systems permit them in variable names.
var placeholderPattern = regexp.MustCompile(`\$\{([\w-]+)\}`)

// ResolveEnv returns a copy of conf with ${VAR} placeholders replaced by the
// corresponding environment variable, recursing through nested maps and
// slices. In non-strict mode a missing variable substitutes to the empty
// string; in strict mode it is an error. Environment values are trimmed of
// surrounding whitespace.
func ResolveEnv(conf map[string]any, strict bool) (map[string]any, error) {
	out := make(map[string]any, len(conf))
	for k, v := range conf {
		resolved, err := resolveValue(v, strict)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func resolveValue(v any, strict bool) (any, error) {
	switch x := v.(type) {
	case string:
		return resolveString(x, strict)
	case map[string]any:
		return ResolveEnv(x, strict)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			resolved, err := resolveValue(item, strict)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func resolveString(s string, strict bool) (string, error) {
	var missing string
	resolved := placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		val, ok := os.LookupEnv(name)
		if !ok {
			if missing == "" {
				missing = name
			}
			return ""
		}
		return strings.TrimSpace(val)
	})

	if strict && missing != "" {
		return "", goerr.New("environment variable not found",
			goerr.V("variable", missing),
			goerr.V("value", s),
			goerr.T(types.ErrTagConfig))
	}
	return resolved, nil
}
