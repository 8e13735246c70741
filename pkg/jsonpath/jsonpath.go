// Package jsonpath resolves JSONPath expressions against JSON
// documents, primarily the stats exports written by latrace. Both
// JSONPath ($.keys.sda.p99Us) and plain gjson (keys.sda.p99Us) forms
// are accepted.
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract resolves one expression and returns the value rendered as
// a string. A path that matches nothing is an error.
func Extract(json string, path string) (string, error) {
	if json == "" {
		return "", fmt.Errorf("empty JSON document")
	}
	if path == "" {
		return "", fmt.Errorf("empty JSONPath expression")
	}

	result := gjson.Get(json, toGjsonPath(path))
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// ExtractMultiple resolves several named expressions against one
// document. All paths are attempted; the error, if any, lists every
// path that failed.
func ExtractMultiple(json string, paths map[string]string) (map[string]string, error) {
	if json == "" {
		return nil, fmt.Errorf("empty JSON document")
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	results := make(map[string]string)
	var failed []string
	for name, path := range paths {
		value, err := Extract(json, path)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}
	if len(failed) > 0 {
		return results, fmt.Errorf("extraction errors: %s", strings.Join(failed, "; "))
	}
	return results, nil
}

// toGjsonPath rewrites JSONPath notation into gjson's dotted form:
// $.keys['8:0'].count becomes keys.8:0.count. Filter expressions and
// wildcards are not supported.
func toGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	// Bracket notation, quoted or bare index.
	path = strings.NewReplacer("['", ".", "']", "", `["`, ".", `"]`, "").Replace(path)
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	return strings.TrimPrefix(path, ".")
}
