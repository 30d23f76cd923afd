package portal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogSections(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	ids := make([]SectionID, 0)
	for _, def := range catalog.Sections() {
		ids = append(ids, def.ID)
	}
	assert.Equal(t, []SectionID{
		SectionDashboard, SectionInquiry, SectionSales, SectionDelivery,
		SectionInvoice, SectionPayment, SectionMemo, SectionOverall, SectionProfile,
	}, ids)

	for _, id := range TabularSections {
		assert.True(t, catalog.IsTabular(id), "section %s should be tabular", id)
		assert.NotEmpty(t, catalog.Columns(id), "section %s should have columns", id)
	}
	assert.False(t, catalog.IsTabular(SectionOverall))
	assert.Empty(t, catalog.Columns(SectionOverall))
}

func TestDefaultCatalogSchemas(t *testing.T) {
	catalog := MustDefaultCatalog()

	inquiry := catalog.Columns(SectionInquiry)
	require.Len(t, inquiry, 11)
	assert.Equal(t, Column{Key: "inquiryNumber", Label: "Inquiry Number", Type: ColumnText, Sortable: true}, inquiry[0])
	assert.Equal(t, ColumnCurrency, inquiry[8].Type)
	assert.Equal(t, ColumnStatus, inquiry[10].Type)

	invoice, ok := catalog.Section(SectionInvoice)
	require.True(t, ok)
	assert.True(t, invoice.Download)
	assert.Equal(t, "Invoices", invoice.Title)
	assert.Equal(t, "Failed to load Invoice data", invoice.FailureMessage)

	for _, id := range TabularSections {
		if id == SectionInvoice {
			continue
		}
		def, _ := catalog.Section(id)
		assert.False(t, def.Download, "only invoices expose downloads, got %s", id)
	}

	memo := catalog.Columns(SectionMemo)
	assert.Equal(t, "itemPrice", memo[2].Key)
	assert.Equal(t, "Amount", memo[2].Label)
}

func TestCatalogSectionReturnsCopies(t *testing.T) {
	catalog := MustDefaultCatalog()
	cols := catalog.Columns(SectionSales)
	cols[0].Label = "mutated"
	assert.Equal(t, "Sales Number", catalog.Columns(SectionSales)[0].Label)
}

func TestDecodeCatalogRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"duplicate section": `
sections:
  - {id: inquiry, title: A, tabular: true, columns: [{key: a, label: A}]}
  - {id: inquiry, title: B, tabular: true, columns: [{key: a, label: A}]}
`,
		"duplicate column": `
sections:
  - {id: inquiry, title: A, tabular: true, columns: [{key: a, label: A}, {key: a, label: B}]}
`,
		"unknown column type": `
sections:
  - {id: inquiry, title: A, tabular: true, columns: [{key: a, label: A, type: percent}]}
`,
		"download without table": `
sections:
  - {id: overall, title: A, download: true}
`,
		"unknown field": `
sections:
  - {id: overall, title: A, colour: red}
`,
		"missing title": `
sections:
  - {id: overall}
`,
		"bad version": `
version: 2
sections: []
`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCatalog(strings.NewReader(payload))
			assert.Error(t, err)
		})
	}

	_, err := DecodeCatalog(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestReadCatalogFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.yaml")
	payload := `
version: 1
sections:
  - id: inquiry
    title: Inquiries
    title_localized:
      HI: पूछताछ
    tabular: true
    columns:
      - {key: inquiryNumber, label: Inquiry Number, sortable: true}
`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	doc, err := ReadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)

	catalog, err := NewCatalog(doc)
	require.NoError(t, err)
	def, ok := catalog.Section(SectionInquiry)
	require.True(t, ok)
	assert.Equal(t, ColumnText, def.Columns[0].Type)
	assert.Equal(t, "पूछताछ", def.TitleForLocale("hi-IN"))
	assert.Equal(t, "Inquiries", def.TitleForLocale("en"))
}

func TestResolveLocalizedValue(t *testing.T) {
	values := map[string]string{
		"en":    "Dashboard",
		"es":    "Tablero",
		"es-mx": "Panel",
	}
	assert.Equal(t, "Panel", ResolveLocalizedValue(values, "es-MX", "fallback"))
	assert.Equal(t, "Tablero", ResolveLocalizedValue(values, "es-ES", "fallback"))
	assert.Equal(t, "Dashboard", ResolveLocalizedValue(values, "fr", "Dashboard"))
	assert.Equal(t, "Dashboard", ResolveLocalizedValue(nil, "es", "Dashboard"))

	withDefault := map[string]string{"default": "Inicio", "de": "Start"}
	assert.Equal(t, "Inicio", ResolveLocalizedValue(withDefault, "", "Home"))
	assert.Equal(t, "Inicio", ResolveLocalizedValue(withDefault, "ja", "Home"))
}
