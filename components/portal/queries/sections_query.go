package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

// SectionsInput filters the catalog listing.
type SectionsInput struct {
	TabularOnly bool
	Locale      string
}

// SectionsQuery lists the section catalog.
type SectionsQuery struct {
	catalog *portal.Catalog
}

// NewSectionsQuery builds the query.
func NewSectionsQuery(catalog *portal.Catalog) *SectionsQuery {
	return &SectionsQuery{catalog: catalog}
}

var _ gocommand.Querier[SectionsInput, []portal.SectionDefinition] = (*SectionsQuery)(nil)

// Query returns the sections in navigation order with localized titles.
func (q *SectionsQuery) Query(_ context.Context, input SectionsInput) ([]portal.SectionDefinition, error) {
	if q.catalog == nil {
		return nil, errors.New("sections query requires catalog")
	}
	var out []portal.SectionDefinition
	for _, def := range q.catalog.Sections() {
		if input.TabularOnly && !def.Tabular {
			continue
		}
		def.Title = def.TitleForLocale(input.Locale)
		def.Description = def.DescriptionForLocale(input.Locale)
		out = append(out, def)
	}
	return out, nil
}
