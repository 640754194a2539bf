package symtab

import (
	"strings"
	"unicode"
)

// namePattern maps a method-name prefix to the target-name suffix it
// implies. `enterEmail` → candidate `emailInput`.
type namePattern struct {
	prefixes []string
	suffix   string
	// verbatim additionally proposes the bare remainder as a candidate
	// (get/read accessors often use the field name directly).
	verbatim bool
}

// patternTable is consulted in order; within an entry, longer prefixes are
// listed first so `input` is not shadowed by a shorter sibling.
var patternTable = []namePattern{
	{prefixes: []string{"enter", "input", "type", "fill", "set"}, suffix: "Input"},
	{prefixes: []string{"click", "press", "tap"}, suffix: "Button"},
	{prefixes: []string{"select", "choose"}, suffix: "Select"},
	{prefixes: []string{"uncheck", "check", "toggle"}, suffix: "Checkbox"},
	{prefixes: []string{"get", "read"}, suffix: "Label", verbatim: true},
}

// inferTargetCandidates applies the pattern table to a method name and
// returns the candidate target names, most specific first. The remainder of
// the method name keeps its casing (`clickRegisterLink` → `registerLinkButton`);
// only its first rune is lowered to match field-name conventions.
//
// Candidates are proposals only; callers must check them against declared
// field names and discard misses.
func inferTargetCandidates(methodName string) []string {
	for _, p := range patternTable {
		for _, prefix := range p.prefixes {
			rest, ok := splitCamelPrefix(methodName, prefix)
			if !ok {
				continue
			}
			base := lowerFirst(rest)
			candidates := []string{base + p.suffix}
			if p.verbatim {
				candidates = append(candidates, base)
			}
			return candidates
		}
	}
	return nil
}

// splitCamelPrefix strips prefix from name when the character after the
// prefix starts a new camelCase word. `enterEmail`/`enter` → `Email`, true;
// `entering`/`enter` → no match.
func splitCamelPrefix(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) {
		return "", false
	}
	rest := name[len(prefix):]
	if rest == "" {
		return "", false
	}
	runes := []rune(rest)
	if !unicode.IsUpper(runes[0]) {
		return "", false
	}
	return rest, true
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
