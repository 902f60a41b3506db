// Package enricher classifies raw merchant text into a canonical payee,
// category and household flags using the ordered payee rule table.
package enricher

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eshaffer321/alertledger/internal/domain/rules"
)

// Enrichment is the classification assigned to a raw payee.
type Enrichment struct {
	CanonicalName string
	Category      string
	Business      bool
	Shared        bool
	Description   string
	// Confident is false when the fallback path produced the result.
	Confident bool
}

// Enricher applies payee rules. It holds no mutable state and is safe to
// share.
type Enricher struct {
	rules    []rules.CompiledPayee
	fallback rules.CompiledFallback
}

// New creates an enricher over a compiled rule table.
func New(rs *rules.Compiled) *Enricher {
	return &Enricher{
		rules:    rs.Payees,
		fallback: rs.Fallback,
	}
}

// Enrich returns the first matching rule's classification, or the fallback.
// It never returns an empty canonical name or category.
func (e *Enricher) Enrich(rawPayee string) Enrichment {
	payee := strings.Join(strings.Fields(rawPayee), " ")

	for _, rule := range e.rules {
		if !rule.Regexp.MatchString(payee) {
			continue
		}
		if rule.CanonicalName == "" {
			// catch-all
			break
		}
		category := rule.Category
		if category == "" {
			category = e.fallback.Category
		}
		return Enrichment{
			CanonicalName: rule.CanonicalName,
			Category:      category,
			Business:      rule.Business,
			Shared:        rule.Shared,
			Description:   rule.Description,
			Confident:     true,
		}
	}

	name := TitleCase(payee)
	if name == "" {
		name = e.fallback.Payee
	}
	return Enrichment{
		CanonicalName: name,
		Category:      e.fallback.Category,
		Description:   e.fallback.Description,
	}
}

// TitleCase lower-cases s and capitalizes the first letter of every word.
func TitleCase(s string) string {
	// cases.Caser keeps per-call state, so one is created for each call.
	return cases.Title(language.English).String(strings.ToLower(s))
}
