package expression

import (
	"strconv"
	"strings"
)

// traverse resolves a dotted/bracketed path (e.g. `a.b["c"].d`, `items[0].name`)
// against a JSON-shaped value (map[string]any / []any / scalars), per §4.8's
// "mixed a.b[\"c\"].d" requirement. An empty path returns v unchanged. Any
// segment that cannot be resolved yields nil rather than an error — §4.8
// treats "undefined" as a normal, representable outcome.
func traverse(v any, path string) any {
	if path == "" {
		return v
	}
	for _, seg := range splitPath(path) {
		if v == nil {
			return nil
		}
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := v.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil
			}
			v = arr[idx]
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return v
}

// splitPath breaks "a.b[\"c\"].d[2]" into ["a", "b", "c", "d", "2"],
// accepting both dot and bracket (quoted-string or bare-index) segments.
func splitPath(path string) []string {
	var segs []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, cur.String())
			cur.Reset()
		}
	}

	i := 0
	for i < len(path) {
		c := path[i]
		switch {
		case c == '.':
			flush()
			i++
		case c == '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				// Malformed trailing bracket; treat the rest as one segment.
				cur.WriteString(path[i+1:])
				i = len(path)
				break
			}
			inner := path[i+1 : i+end]
			inner = strings.Trim(inner, `"'`)
			segs = append(segs, inner)
			i += end + 1
		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush()
	return segs
}
