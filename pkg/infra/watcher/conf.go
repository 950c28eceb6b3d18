package watcher

import (
	"fmt"
	"strconv"
)

// Config values arrive as map[string]any after YAML/TOML decode and env
// resolution; these helpers normalize the loose typing at the edge.

func strVal(conf map[string]any, key, fallback string) string {
	if v, ok := conf[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func int64Val(conf map[string]any, key string) (int64, bool) {
	v, ok := conf[key]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case uint64:
		return int64(x), true
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		n, err := strconv.ParseInt(fmt.Sprint(x), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
}
