package main

import (
	"fmt"
	"sort"
	"strings"
)

// parseTokenArgs converts key=value arguments into a token map.
func parseTokenArgs(args []string) (map[string]string, error) {
	tokens := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("argument %q is not of the form token=value", arg)
		}
		if _, dup := tokens[key]; dup {
			return nil, fmt.Errorf("token %q given more than once", key)
		}
		tokens[key] = value
	}
	return tokens, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
