// Package moderation scores listing text for potentially harmful content.
package moderation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultKeywords is the built-in blocklist, checked in this order.
var DefaultKeywords = []string{
	"illegal", "scam", "fraud", "fake", "counterfeit", "stolen",
	"weapons", "firearm", "explosive", "bomb", "drugs", "cocaine",
	"heroin", "meth", "terrorist", "hate", "racist", "nazi",
	"kill", "murder", "violence", "abuse", "porn", "escort",
	"prostitution", "gambling", "hack", "pirated",
}

const (
	keywordWeight = 1
	patternWeight = 2
	capsWeight    = 1

	maxDollarSigns  = 3
	maxExclamations = 3
	maxQuestions    = 2
	maxLinks        = 2
	maxCapsRatio    = 0.5
)

const (
	ReasonSuspiciousPattern = "Suspicious pattern detected"
	ReasonExcessiveCaps     = "Excessive capitalization"
)

var phonePattern = regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`)

// Assessment is the result of scoring a single listing.
type Assessment struct {
	Score    int
	Keywords []string
	Reasons  []string
}

// Harmful reports whether the listing should be flagged.
func (a Assessment) Harmful() bool {
	return a.Score > 0
}

// Reason joins all triggered reasons for storage on the listing.
func (a Assessment) Reason() string {
	return strings.Join(a.Reasons, "; ")
}

// Scanner applies the keyword and pattern heuristics.
type Scanner struct {
	keywords []string
}

// NewScanner builds a scanner over keywords. Matching is case-insensitive
// substring search, so "kill" also hits "skill".
func NewScanner(keywords []string) *Scanner {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return &Scanner{keywords: normalized}
}

// Keywords returns the normalized blocklist in match order.
func (s *Scanner) Keywords() []string {
	out := make([]string, len(s.keywords))
	copy(out, s.keywords)
	return out
}

// Assess scores a listing's title and description.
func (s *Scanner) Assess(title, description string) Assessment {
	var a Assessment
	text := strings.ToLower(title + " " + description)

	for _, kw := range s.keywords {
		if strings.Contains(text, kw) {
			a.Score += keywordWeight
			a.Keywords = append(a.Keywords, kw)
			a.Reasons = append(a.Reasons, kw)
		}
	}

	if hasSuspiciousPatterns(text) {
		a.Score += patternWeight
		a.Reasons = append(a.Reasons, ReasonSuspiciousPattern)
	}

	if hasExcessiveCaps(title) {
		a.Score += capsWeight
		a.Reasons = append(a.Reasons, ReasonExcessiveCaps)
	}

	return a
}

func hasSuspiciousPatterns(text string) bool {
	if phonePattern.MatchString(text) && strings.Count(text, "$") > maxDollarSigns {
		return true
	}
	if strings.Count(text, "!") > maxExclamations || strings.Count(text, "?") > maxQuestions {
		return true
	}
	return strings.Count(text, "http") > maxLinks
}

// hasExcessiveCaps compares uppercase letters against the full title length.
func hasExcessiveCaps(title string) bool {
	length := utf8.RuneCountInString(title)
	if length == 0 {
		return false
	}
	upper := 0
	for _, r := range title {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper)/float64(length) > maxCapsRatio
}
