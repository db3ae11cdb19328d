// Package faq answers chat questions from a list of FAQ entries.  Matching is
// a linear containment scan: the first entry that matches wins and there is
// no scoring.
package faq

import "strings"

// Entry is one question/answer pair with its search keywords.
type Entry struct {
	ID       string   `yaml:"id" json:"id"`
	Category string   `yaml:"category" json:"category"`
	Question string   `yaml:"question" json:"question"`
	Answer   string   `yaml:"answer" json:"answer"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

const (
	// Fallback is returned by BestAnswer when nothing matches.
	Fallback = "I couldn't find a specific answer to your question. Please contact our support team for personalized assistance, or try rephrasing your question."
	// NotFound is returned by ExactAnswer for an unknown suggestion.
	NotFound = "Sorry, I couldn't find that answer."
	// Welcome opens every chat session.
	Welcome = "Hi! I'm here to help with your VoltRide scooter questions. Here are our most popular topics:"
	// SuggestionCount is how many questions the chat offers as buttons.
	SuggestionCount = 5
)

// BestAnswer returns the answer for a free-text query.  Question text is
// tried across all entries first; only then keywords, answer text and
// category are tried in a second pass.
func BestAnswer(entries []Entry, query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Fallback
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Question), q) {
			return e.Answer
		}
	}
	for _, e := range entries {
		if keywordIn(e.Keywords, q) ||
			strings.Contains(strings.ToLower(e.Answer), q) ||
			strings.Contains(strings.ToLower(e.Category), q) {
			return e.Answer
		}
	}
	return Fallback
}

// keywordIn reports whether any keyword occurs inside the query.
func keywordIn(keywords []string, q string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(q, k) {
			return true
		}
	}
	return false
}

// ExactAnswer answers a suggestion button: the question text must match an
// entry exactly.
func ExactAnswer(entries []Entry, question string) string {
	for _, e := range entries {
		if e.Question == question {
			return e.Answer
		}
	}
	return NotFound
}

// Filter implements the FAQ search page.  A blank query returns every entry.
// Unlike BestAnswer, keywords match when they contain the query.
func Filter(entries []Entry, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Question), q) ||
			strings.Contains(strings.ToLower(e.Answer), q) ||
			strings.Contains(strings.ToLower(e.Category), q) ||
			keywordContains(e.Keywords, q) {
			out = append(out, e)
		}
	}
	return out
}

func keywordContains(keywords []string, q string) bool {
	for _, k := range keywords {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return false
}

// Suggestions returns up to n questions in list order.
func Suggestions(entries []Entry, n int) []string {
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]string, 0, n)
	for _, e := range entries[:n] {
		out = append(out, e.Question)
	}
	return out
}

// Categories lists distinct categories in first-seen order.
func Categories(entries []Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	var out []string
	for _, e := range entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}
