package aggregation

import (
	"fmt"
	"strings"
	"unicode"
)

// RenameRule replaces every occurrence of Pattern with Replacement
type RenameRule struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Renamer applies an ordered rule list in a single left-to-right pass. At
// each position the first rule in list order whose pattern matches wins and
// scanning continues after the matched text, so the output of one rule is
// never matched again by another.
type Renamer struct {
	rules    []RenameRule
	replacer *strings.Replacer
}

// NewRenamer validates and compiles rules. Empty and repeated patterns are
// rejected.
func NewRenamer(rules []RenameRule) (*Renamer, error) {
	seen := make(map[string]int, len(rules))
	pairs := make([]string, 0, 2*len(rules))
	for i, r := range rules {
		if r.Pattern == "" {
			return nil, fmt.Errorf("rename rule %d: empty pattern", i)
		}
		if j, dup := seen[r.Pattern]; dup {
			return nil, fmt.Errorf("rename rule %d: pattern %q already used by rule %d", i, r.Pattern, j)
		}
		seen[r.Pattern] = i
		pairs = append(pairs, r.Pattern, r.Replacement)
	}

	rn := &Renamer{rules: append([]RenameRule(nil), rules...)}
	if len(pairs) > 0 {
		// strings.Replacer compares old strings in argument order at each
		// position and never rescans replaced text.
		rn.replacer = strings.NewReplacer(pairs...)
	}
	return rn, nil
}

// Rename returns name with the rules applied
func (rn *Renamer) Rename(name string) string {
	if rn == nil || rn.replacer == nil {
		return name
	}
	return rn.replacer.Replace(name)
}

// Rules returns a copy of the compiled rules
func (rn *Renamer) Rules() []RenameRule {
	if rn == nil {
		return nil
	}
	return append([]RenameRule(nil), rn.rules...)
}

// StripOrdinalPrefix drops a leading run of digits followed by an
// underscore, e.g. "34_DSC_C_CBV" becomes "DSC_C_CBV". Names without such a
// prefix are returned unchanged.
func StripOrdinalPrefix(name string) string {
	i := strings.IndexFunc(name, func(r rune) bool { return !unicode.IsDigit(r) })
	if i <= 0 || name[i] != '_' {
		return name
	}
	return name[i+1:]
}
