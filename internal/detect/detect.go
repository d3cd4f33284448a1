// Package detect implements weighted pattern matching over raw page markup.
//
// A Candidate is a named technology or capability with an ordered list of
// rules. Every rule that matches contributes its weight and its evidence
// label; the summed weight is capped at 100 and reported as confidence.
package detect

import (
	"regexp"
	"sort"
)

// MaxConfidence is the upper bound of any Outcome confidence.
const MaxConfidence = 100

// Matcher reports whether a rule fires on the given text.
// *regexp.Regexp satisfies it.
type Matcher interface {
	MatchString(s string) bool
}

// Rule is a single weighted pattern.
type Rule struct {
	Matcher  Matcher
	Weight   int
	Evidence string
}

// R builds a case-insensitive rule from a regular expression. It panics on an
// invalid expression, so it is meant for package-level taxonomy tables.
func R(expr string, weight int, evidence string) Rule {
	return Rule{
		Matcher:  regexp.MustCompile(`(?i)` + expr),
		Weight:   weight,
		Evidence: evidence,
	}
}

// Outcome is the result of evaluating a rule list against a text.
type Outcome struct {
	Detected   bool     `json:"detected"`
	Confidence int      `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// Detect evaluates every rule in order. Evidence keeps rule order and
// confidence is the capped sum of matched weights.
func Detect(text string, rules []Rule) Outcome {
	out := Outcome{Evidence: []string{}}
	total := 0
	for _, r := range rules {
		if r.Matcher == nil || !r.Matcher.MatchString(text) {
			continue
		}
		total += r.Weight
		out.Evidence = append(out.Evidence, r.Evidence)
	}
	out.Confidence = min(MaxConfidence, total)
	out.Detected = len(out.Evidence) > 0
	return out
}

// Candidate is a named rule list, e.g. one shop system.
type Candidate struct {
	Name  string
	Rules []Rule
}

// Match is a candidate that produced at least one piece of evidence.
type Match struct {
	Name       string   `json:"name"`
	Version    string   `json:"version,omitempty"`
	Confidence int      `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// Rank evaluates all candidates and returns those with evidence, sorted by
// confidence descending. Ties keep taxonomy order.
func Rank(text string, candidates []Candidate) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		o := Detect(text, c.Rules)
		if !o.Detected {
			continue
		}
		matches = append(matches, Match{
			Name:       c.Name,
			Confidence: o.Confidence,
			Evidence:   o.Evidence,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// First returns the first match at or above threshold, or nil. Matches are
// expected to be ranked already.
func First(matches []Match, threshold int) *Match {
	for i := range matches {
		if matches[i].Confidence >= threshold {
			m := matches[i]
			return &m
		}
	}
	return nil
}

// AtLeast returns the matches at or above threshold, preserving order.
func AtLeast(matches []Match, threshold int) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Confidence >= threshold {
			out = append(out, m)
		}
	}
	return out
}
