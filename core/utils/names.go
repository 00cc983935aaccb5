package utils

import (
	"strings"
	"unicode"
)

// Respondent fields are free text and may carry several students separated
// by commas or semicolons. All cross-table matching of these names goes
// through the helpers below so every call site agrees on what "same name"
// means: exact (case/whitespace-insensitive) > stripped (punctuation and
// spaces removed) > substring either direction.

func SplitRespondents(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var out []string
	for _, f := range fields {
		if v := strings.TrimSpace(f); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func JoinRespondents(names []string) string {
	return strings.Join(names, ", ")
}

// NormalizeName uppercases and collapses interior whitespace.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// StripName removes everything but letters and digits, uppercased.
func StripName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

// NamesMatch reports whether two free-text names refer to the same person
// under the resolver's match rules.
func NamesMatch(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	sa, sb := StripName(a), StripName(b)
	if sa != "" && sa == sb {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// AnyNameMatches checks a delimited respondent list for a match.
func AnyNameMatches(list, name string) bool {
	for _, candidate := range SplitRespondents(list) {
		if NamesMatch(candidate, name) {
			return true
		}
	}
	return false
}
