package portal

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	catalogVersionV1 = "1"
	// CatalogVersion exposes the current catalog format version for tooling.
	CatalogVersion = catalogVersionV1
)

//go:embed sections.yaml
var defaultCatalogYAML []byte

// CatalogDocument models the YAML document describing the portal sections.
type CatalogDocument struct {
	Version  string              `json:"version" yaml:"version"`
	Sections []SectionDefinition `json:"sections" yaml:"sections"`
	Source   string              `json:"-" yaml:"-"`
}

// SectionDefinition describes one navigable section and, for tabular
// sections, the column schema its table binds.
type SectionDefinition struct {
	ID                   SectionID         `json:"id" yaml:"id"`
	Title                string            `json:"title" yaml:"title"`
	TitleLocalized       map[string]string `json:"title_localized,omitempty" yaml:"title_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Tabular              bool              `json:"tabular,omitempty" yaml:"tabular,omitempty"`
	Download             bool              `json:"download,omitempty" yaml:"download,omitempty"`
	FailureMessage       string            `json:"failure_message,omitempty" yaml:"failure_message,omitempty"`
	Columns              []Column          `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// TitleForLocale returns the section title for locale, falling back to Title.
func (def SectionDefinition) TitleForLocale(locale string) string {
	return ResolveLocalizedValue(def.TitleLocalized, locale, def.Title)
}

// DescriptionForLocale returns the localized description if available.
func (def SectionDefinition) DescriptionForLocale(locale string) string {
	return ResolveLocalizedValue(def.DescriptionLocalized, locale, def.Description)
}

// Catalog is the immutable, ordered set of section definitions.
type Catalog struct {
	order    []SectionID
	sections map[SectionID]SectionDefinition
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	doc, err := DecodeCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		return nil, err
	}
	doc.Source = "embedded:sections.yaml"
	return NewCatalog(doc)
}

// MustDefaultCatalog is DefaultCatalog for package initialization paths.
func MustDefaultCatalog() *Catalog {
	c, err := DefaultCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// ReadCatalog loads a catalog document from disk.
func ReadCatalog(path string) (*CatalogDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("portal: open catalog %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("portal: decode catalog %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeCatalog reads a catalog document from any reader.
func DecodeCatalog(r io.Reader) (*CatalogDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc CatalogDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("portal: catalog is empty")
		}
		return nil, fmt.Errorf("portal: parse catalog: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures section ids and column keys are unique and well formed.
func (doc *CatalogDocument) Validate() error {
	if doc.Version != catalogVersionV1 {
		return fmt.Errorf("portal: unsupported catalog version %q", doc.Version)
	}
	seen := make(map[SectionID]struct{}, len(doc.Sections))
	for idx, section := range doc.Sections {
		if section.ID == "" {
			return fmt.Errorf("portal: catalog section at index %d is missing id", idx)
		}
		if _, exists := seen[section.ID]; exists {
			return fmt.Errorf("portal: catalog duplicates section %s", section.ID)
		}
		seen[section.ID] = struct{}{}
		if section.Title == "" {
			return fmt.Errorf("portal: catalog section %s missing title", section.ID)
		}
		if section.Download && !section.Tabular {
			return fmt.Errorf("portal: catalog section %s enables download without a table", section.ID)
		}
		if section.Tabular && len(section.Columns) == 0 {
			return fmt.Errorf("portal: catalog section %s has no columns", section.ID)
		}
		keys := make(map[string]struct{}, len(section.Columns))
		for _, col := range section.Columns {
			if col.Key == "" {
				return fmt.Errorf("portal: catalog section %s has a column without key", section.ID)
			}
			if _, exists := keys[col.Key]; exists {
				return fmt.Errorf("portal: catalog section %s duplicates column %s", section.ID, col.Key)
			}
			keys[col.Key] = struct{}{}
			if !col.Type.Valid() {
				return fmt.Errorf("portal: catalog section %s column %s has unknown type %q", section.ID, col.Key, col.Type)
			}
		}
	}
	return nil
}

func (doc *CatalogDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = catalogVersionV1
	}
	for i := range doc.Sections {
		section := &doc.Sections[i]
		section.ID = SectionID(strings.TrimSpace(string(section.ID)))
		section.TitleLocalized = normalizeLocaleMap(section.TitleLocalized)
		section.DescriptionLocalized = normalizeLocaleMap(section.DescriptionLocalized)
		section.Title = strings.TrimSpace(section.Title)
		for j := range section.Columns {
			if section.Columns[j].Type == "" {
				section.Columns[j].Type = ColumnText
			}
		}
	}
}

// NewCatalog builds a catalog from a validated document.
func NewCatalog(doc *CatalogDocument) (*Catalog, error) {
	if doc == nil {
		return nil, fmt.Errorf("portal: catalog document is nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	c := &Catalog{
		order:    make([]SectionID, 0, len(doc.Sections)),
		sections: make(map[SectionID]SectionDefinition, len(doc.Sections)),
	}
	for _, section := range doc.Sections {
		section.Columns = append([]Column(nil), section.Columns...)
		c.order = append(c.order, section.ID)
		c.sections[section.ID] = section
	}
	return c, nil
}

// Section returns the definition of id.
func (c *Catalog) Section(id SectionID) (SectionDefinition, bool) {
	if c == nil {
		return SectionDefinition{}, false
	}
	def, ok := c.sections[id]
	if ok {
		def.Columns = append([]Column(nil), def.Columns...)
	}
	return def, ok
}

// Columns returns the column schema of id; non-tabular sections have none.
func (c *Catalog) Columns(id SectionID) []Column {
	def, _ := c.Section(id)
	return def.Columns
}

// Sections returns every definition in declaration order.
func (c *Catalog) Sections() []SectionDefinition {
	if c == nil {
		return nil
	}
	out := make([]SectionDefinition, 0, len(c.order))
	for _, id := range c.order {
		def, _ := c.Section(id)
		out = append(out, def)
	}
	return out
}

// IsTabular reports whether id renders through the data table.
func (c *Catalog) IsTabular(id SectionID) bool {
	def, ok := c.Section(id)
	return ok && def.Tabular
}
