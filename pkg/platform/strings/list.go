// Package strings parses the comma-separated lists used in configuration.
package strings

import "strings"

// SplitList splits raw on sep, trims each element and drops empty and
// repeated elements. Order of first occurrence is preserved.
//
//	SplitList(" a:9092, b:9092,,a:9092 ", ",") // [a:9092 b:9092]
func SplitList(raw, sep string) []string {
	var out []string
	seen := make(map[string]struct{})
	for part := range strings.SplitSeq(raw, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
