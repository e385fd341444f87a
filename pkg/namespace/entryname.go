package namespace

import "strings"

// ParseEntryName splits a namespace entry name "param.typename" into its
// two halves (spec §4.5's entry-name grammar). It requires exactly one
// '.': "abc" and "a.b.c" both fail.
func ParseEntryName(name string) (param, typename string, ok bool) {
	i := strings.IndexByte(name, '.')
	if i < 0 || i != strings.LastIndexByte(name, '.') {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}

// EntryName composes a namespace entry name from its parts.
func EntryName(param, typename string) string {
	return param + "." + typename
}
