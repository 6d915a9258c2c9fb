package formats

import (
	"strings"

	"nominal/internal/shared/util"
)

// relativeURI renders a finding's file as a forward slash URI.
func relativeURI(file string) string {
	return util.NormalizePatternPath(file)
}

var tsvEscaper = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// tsvField keeps a value on one line and in one column.
func tsvField(s string) string {
	return tsvEscaper.Replace(s)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
