package sqlmodelfilters

import "strings"

// Lucene wildcards:
//   - ? matches a single character
//   - * matches any run of characters
//
// SQL LIKE wildcards:
//   - _ matches a single character
//   - % matches any run of characters
var WildcardTable = map[string]string{
	"?": "_",
	"*": "%",
}

// ReplaceWildcards rewrites query wildcards into their LIKE equivalents.
func ReplaceWildcards(s string, table map[string]string) string {
	for k, v := range table {
		s = strings.ReplaceAll(s, k, v)
	}
	return s
}

// LikeWord renders a bare term as a LIKE pattern. A term without any
// wildcard becomes a substring match (%term%); a term containing one is
// translated verbatim with no implicit wrapping.
type LikeWord struct {
	Value string
	Table map[string]string
}

func NewLikeWord(value string) LikeWord {
	return LikeWord{Value: value, Table: WildcardTable}
}

func (w LikeWord) String() string {
	for wildcard := range w.Table {
		if strings.Contains(w.Value, wildcard) {
			return ReplaceWildcards(w.Value, w.Table)
		}
	}
	return "%" + w.Value + "%"
}
