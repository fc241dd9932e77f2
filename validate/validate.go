// Package validate implements the content rules a backend response must
// satisfy before it is accepted into a transcript. All checks are pure
// functions over the candidate text (plus, for the uniqueness rule, the
// sibling final responses of the same round).
package validate

import (
	"fmt"
	"strings"
	"unicode"
)

// Rule identifies one validation rule in failure reports.
type Rule string

const (
	RuleNonEmpty     Rule = "non_empty"     // response has length > 0
	RuleHasLetters   Rule = "has_letters"   // response contains at least one letter
	RuleTargetScript Rule = "target_script" // response contains at least one rune of the target script
	RuleMinWords     Rule = "min_words"     // final response meets the word-count floor
	RuleUniqueFinals Rule = "unique_finals" // final responses are pairwise distinct
)

// DefaultScript is the script responses must show at least one rune of.
// This is deliberately a coarse script-presence check, not language
// identification: one Cyrillic rune anywhere satisfies it.
var DefaultScript = unicode.Cyrillic

// DefaultMinFinalWords is the word-count floor for synthesis responses.
const DefaultMinFinalWords = 20

// RuleError reports exactly which rule a backend's response violated.
type RuleError struct {
	Rule    Rule
	Backend string
	Value   string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("response from %s failed %s check: %q", e.Backend, e.Rule, excerpt(e.Value))
}

// excerpt truncates the offending value for error messages.
func excerpt(s string) string {
	const max = 80
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// ContainsScript reports whether text contains at least one rune of the
// given script range.
func ContainsScript(text string, script *unicode.RangeTable) bool {
	for _, r := range text {
		if unicode.Is(script, r) {
			return true
		}
	}
	return false
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Response checks an ordinary response: non-empty, contains letters,
// contains the target script. Returns the first violated rule.
func Response(backend, text string, script *unicode.RangeTable) error {
	if len(text) == 0 {
		return &RuleError{Rule: RuleNonEmpty, Backend: backend, Value: text}
	}
	if !strings.ContainsFunc(text, unicode.IsLetter) {
		return &RuleError{Rule: RuleHasLetters, Backend: backend, Value: text}
	}
	if !ContainsScript(text, script) {
		return &RuleError{Rule: RuleTargetScript, Backend: backend, Value: text}
	}
	return nil
}

// FinalResponse checks a synthesis response: everything Response checks,
// plus the word-count floor.
func FinalResponse(backend, text string, script *unicode.RangeTable, minWords int) error {
	if err := Response(backend, text, script); err != nil {
		return err
	}
	if WordCount(text) < minWords {
		return &RuleError{Rule: RuleMinWords, Backend: backend, Value: text}
	}
	return nil
}

// Final is one backend's synthesis response, in production order.
type Final struct {
	Backend string
	Text    string
}

// UniqueFinals checks that no two backends produced an identical final
// response. The reported backend is the later of the colliding pair.
func UniqueFinals(finals []Final) error {
	seen := make(map[string]string, len(finals))
	for _, f := range finals {
		if _, dup := seen[f.Text]; dup {
			return &RuleError{Rule: RuleUniqueFinals, Backend: f.Backend, Value: f.Text}
		}
		seen[f.Text] = f.Backend
	}
	return nil
}
