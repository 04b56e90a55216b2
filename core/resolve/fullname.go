package resolve

import (
	"strings"

	"github.com/siherrmann/annotator/model"
)

// FullNamePolicy decides whether a newly seen surface string is a fuller
// form of an existing canonical name and should replace it. The decision is
// heuristic territory (titles, middle names, transliteration), so it is
// pluggable rather than hard-coded.
type FullNamePolicy interface {
	IsFullName(currentName, currentLabel, newName, newLabel string) bool
}

// TokenSupersetPolicy promotes a new surface string when both mentions are
// person-like and the new string adds tokens without dropping any existing
// one ("John" -> "John Smith", but never "John Smith" -> "Smith").
type TokenSupersetPolicy struct{}

// IsFullName implements FullNamePolicy.
func (TokenSupersetPolicy) IsFullName(currentName, currentLabel, newName, newLabel string) bool {
	if !model.PersonLabels[currentLabel] || !model.PersonLabels[newLabel] {
		return false
	}

	currentTokens := strings.Fields(currentName)
	newTokens := strings.Fields(newName)
	if len(newTokens) <= len(currentTokens) {
		return false
	}

	newSet := make(map[string]struct{}, len(newTokens))
	for _, t := range newTokens {
		newSet[t] = struct{}{}
	}
	for _, t := range currentTokens {
		if _, ok := newSet[t]; !ok {
			return false
		}
	}
	return true
}

// DefaultFullNamePolicy returns the token-superset promotion policy.
func DefaultFullNamePolicy() FullNamePolicy {
	return TokenSupersetPolicy{}
}
