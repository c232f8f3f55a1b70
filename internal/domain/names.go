package domain

import "strings"

// NameReference is a person name mentioned in a query, split into
// independently matchable elements with honorific titles removed.
type NameReference struct {
	Original string
	Elements []string
}

// honorificTitles is the closed set of leading titles stripped by
// ParseNameElements, compared case-insensitively with or without a
// trailing period.
var honorificTitles = map[string]struct{}{
	"dr":        {},
	"doctor":    {},
	"prof":      {},
	"professor": {},
	"mr":        {},
	"mrs":       {},
	"ms":        {},
	"miss":      {},
	"sir":       {},
	"rev":       {},
	"reverend":  {},
	"capt":      {},
	"captain":   {},
}

// ParseNameElements splits a person name into matchable tokens, dropping
// leading honorific titles. Case and order of the remaining tokens are
// preserved; a titles-only or blank input yields an empty slice.
func ParseNameElements(name string) []string {
	tokens := strings.Fields(name)
	elements := make([]string, 0, len(tokens))
	leading := true
	for _, token := range tokens {
		if leading && isHonorific(token) {
			continue
		}
		leading = false
		elements = append(elements, token)
	}
	return elements
}

func isHonorific(token string) bool {
	normalized := strings.ToLower(strings.TrimSuffix(token, "."))
	_, ok := honorificTitles[normalized]
	return ok
}
