package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
	"github.com/goliatone/go-vendor-portal/components/portal/queries"
)

type sectionsCmd struct {
	Catalog string `type:"path" help:"Catalog YAML to inspect instead of the embedded one."`
	Locale  string `help:"Locale used for titles and descriptions."`
	Tabular bool   `help:"Only list sections with a data table."`
	JSON    bool   `name:"json" help:"Print the sections as JSON."`

	out io.Writer `kong:"-"`
}

func (cmd *sectionsCmd) Run(ctx context.Context) error {
	catalog, err := loadCatalog(cmd.Catalog)
	if err != nil {
		return err
	}
	sections, err := queries.NewSectionsQuery(catalog).Query(ctx, queries.SectionsInput{
		TabularOnly: cmd.Tabular,
		Locale:      cmd.Locale,
	})
	if err != nil {
		return err
	}
	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	if cmd.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sections)
	}
	return writeSections(out, sections)
}

func writeSections(out io.Writer, sections []portal.SectionDefinition) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDOWNLOAD\tCOLUMNS")
	for _, s := range sections {
		keys := make([]string, 0, len(s.Columns))
		for _, col := range s.Columns {
			keys = append(keys, col.Key)
		}
		download := "-"
		if s.Download {
			download = "pdf"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Title, download, strings.Join(keys, ","))
	}
	return tw.Flush()
}
