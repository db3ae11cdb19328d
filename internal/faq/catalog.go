package faq

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/voltride-support/internal/model"
)

//go:embed predefined.yaml
var predefinedYAML []byte

// Predefined parses the built-in FAQ list shipped with the binary.
func Predefined() ([]Entry, error) {
	var doc struct {
		Entries []Entry `yaml:"faqs"`
	}
	if err := yaml.Unmarshal(predefinedYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse predefined faqs: %w", err)
	}
	return doc.Entries, nil
}

// QuestionSource lists the active admin-managed questions, newest first.
type QuestionSource interface {
	ListAllActive(ctx context.Context) ([]model.DomainQuestion, error)
}

// Catalog combines the predefined list with active domain questions.
type Catalog struct {
	predefined []Entry
	source     QuestionSource
}

// NewCatalog returns a catalog over the embedded predefined entries.  source
// may be nil, in which case only predefined entries are served.
func NewCatalog(source QuestionSource) (*Catalog, error) {
	pre, err := Predefined()
	if err != nil {
		return nil, err
	}
	return &Catalog{predefined: pre, source: source}, nil
}

// Predefined returns the built-in entries only.
func (c *Catalog) Predefined() []Entry { return c.predefined }

// Entries returns predefined entries followed by active domain questions.
// When the store fails the predefined entries are still returned together
// with the error so callers can keep answering.
func (c *Catalog) Entries(ctx context.Context) ([]Entry, error) {
	out := make([]Entry, len(c.predefined), len(c.predefined)+16)
	copy(out, c.predefined)
	if c.source == nil {
		return out, nil
	}
	qs, err := c.source.ListAllActive(ctx)
	if err != nil {
		return out, err
	}
	for _, q := range qs {
		out = append(out, FromDomainQuestion(q))
	}
	return out, nil
}

// FromDomainQuestion converts a stored question to a matcher entry.
func FromDomainQuestion(q model.DomainQuestion) Entry {
	kw := q.Keywords
	if kw == nil {
		kw = []string{}
	}
	return Entry{ID: q.ID, Category: q.Category, Question: q.Question, Answer: q.Answer, Keywords: kw}
}
