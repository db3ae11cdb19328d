package faq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/voltride-support/internal/model"
)

type stubSource struct {
	qs  []model.DomainQuestion
	err error
}

func (s stubSource) ListAllActive(context.Context) ([]model.DomainQuestion, error) {
	return s.qs, s.err
}

func TestCatalogAppendsDomainQuestions(t *testing.T) {
	src := stubSource{qs: []model.DomainQuestion{{
		ID: "dq-1", Question: "Can I ride in the rain?", Answer: "IP54 rated, light rain only.",
		Category: "Safety", IsActive: true, CreatedAt: time.Now(),
	}}}
	c, err := NewCatalog(src)
	require.NoError(t, err)

	entries, err := c.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 9)
	last := entries[8]
	assert.Equal(t, "dq-1", last.ID)
	assert.NotNil(t, last.Keywords)
	assert.Equal(t, "IP54 rated, light rain only.", BestAnswer(entries, "rain"))
}

func TestCatalogKeepsPredefinedOnStoreError(t *testing.T) {
	c, err := NewCatalog(stubSource{err: assert.AnError})
	require.NoError(t, err)

	entries, err := c.Entries(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, entries, 8)
	// the catalog's own slice must not be shared with callers
	entries[0].Answer = "changed"
	assert.NotEqual(t, "changed", c.Predefined()[0].Answer)
}
