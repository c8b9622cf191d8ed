package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern escapes LIKE metacharacters in user input before adding wildcards.
func likePattern(prefix bool, value string, suffix bool) string {
	escaped := likeEscaper.Replace(value)
	if prefix {
		escaped = "%" + escaped
	}
	if suffix {
		escaped += "%"
	}
	return escaped
}
