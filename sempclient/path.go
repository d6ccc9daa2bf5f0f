package sempclient

import (
	"fmt"
	"net/url"
	"strings"
)

// ComposePath joins path elements with '/'. The first element is a base path
// and is kept as is; every other element is query-escaped with ',' left
// unescaped, so topic wildcards such as '#', '+' and '>' survive as a single
// path segment.
func ComposePath(elems ...string) (string, error) {
	if len(elems) == 0 {
		return "", fmt.Errorf("empty path")
	}
	paths := make([]string, 0, len(elems))
	for i, e := range elems {
		if e == "" {
			return "", fmt.Errorf("path element %d is empty in path %q", i, elems)
		}
		if i == 0 {
			paths = append(paths, e)
			continue
		}
		paths = append(paths, escapePathElement(e))
	}
	return strings.Join(paths, "/"), nil
}

func escapePathElement(e string) string {
	return strings.ReplaceAll(url.QueryEscape(e), "%2C", ",")
}
