package services

import (
	"fmt"
	"strings"

	"github.com/sundar-blr76/report-smith-sub001/pkg/matcher"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// Catalog IDs used with the semantic matcher.
const (
	CatalogSchema  = "schema"
	CatalogDomain  = "domain"
	CatalogContext = "business_context"
)

// Entry ID kinds.
const (
	entryKindTable   = "table"
	entryKindColumn  = "column"
	entryKindValue   = "value"
	entryKindContext = "context"
)

// Catalogs holds the matcher catalogs derived from a schema context. Like
// the graph, catalogs are built once per schema context and shared
// read-only across requests.
type Catalogs struct {
	Schema  matcher.Catalog
	Domain  matcher.Catalog
	Context matcher.Catalog

	sc          *models.SchemaContext
	contextText map[string]string // context entry ID -> snippet text
}

// BuildCatalogs derives the three matcher catalogs from a schema context:
// schema elements (tables and columns), domain values, and business
// context snippets. Entry order follows schema declaration order.
func BuildCatalogs(sc *models.SchemaContext) *Catalogs {
	c := &Catalogs{
		sc:          sc,
		contextText: make(map[string]string),
	}

	c.Schema.ID = CatalogSchema
	for _, t := range sc.Tables {
		c.Schema.Entries = append(c.Schema.Entries, matcher.Entry{
			ID:   tableEntryID(t.Name),
			Text: strings.TrimSpace(t.Name + " " + t.Description),
		})
		for _, col := range t.Columns {
			c.Schema.Entries = append(c.Schema.Entries, matcher.Entry{
				ID:   columnEntryID(t.Name, col.Name),
				Text: strings.TrimSpace(col.Name + " " + col.Description),
			})
		}
	}

	c.Domain.ID = CatalogDomain
	for _, dv := range sc.DomainValues {
		c.Domain.Entries = append(c.Domain.Entries, matcher.Entry{
			ID:   valueEntryID(dv.Table, dv.Column, dv.Value),
			Text: dv.Value,
		})
	}

	c.Context.ID = CatalogContext
	for i, bc := range sc.BusinessContext {
		id := fmt.Sprintf("%s|%s|%s|%d", entryKindContext, bc.Table, bc.Column, i)
		c.Context.Entries = append(c.Context.Entries, matcher.Entry{
			ID:   id,
			Text: bc.Description,
		})
		c.contextText[id] = bc.Description
	}

	return c
}

// SchemaContext returns the underlying schema context.
func (c *Catalogs) SchemaContext() *models.SchemaContext {
	return c.sc
}

// ContextSnippet resolves a business-context entry ID back to its text.
func (c *Catalogs) ContextSnippet(id string) (string, bool) {
	text, ok := c.contextText[id]
	return text, ok
}

// SchemaSummary renders a compact text description of the schema for the
// NLU collaborator.
func (c *Catalogs) SchemaSummary() string {
	var b strings.Builder
	for _, t := range c.sc.Tables {
		b.WriteString(t.Name)
		if t.Description != "" {
			b.WriteString(" -- ")
			b.WriteString(t.Description)
		}
		b.WriteString("\n")
		for _, col := range t.Columns {
			b.WriteString("  ")
			b.WriteString(col.Name)
			b.WriteString(" (")
			b.WriteString(col.DataType)
			b.WriteString(")")
			if col.Description != "" {
				b.WriteString(" -- ")
				b.WriteString(col.Description)
			}
			b.WriteString("\n")
		}
	}
	// Each relationship is navigable in both directions; spell out both
	// so the NLU collaborator never has to infer the reverse join.
	for _, r := range c.sc.Relationships {
		if r.Cardinality == "" {
			fmt.Fprintf(&b, "%s.%s -> %s.%s\n", r.SourceTable, r.SourceColumn, r.TargetTable, r.TargetColumn)
			continue
		}
		fmt.Fprintf(&b, "%s.%s -> %s.%s (%s)\n",
			r.SourceTable, r.SourceColumn, r.TargetTable, r.TargetColumn, r.Cardinality)
		fmt.Fprintf(&b, "%s.%s -> %s.%s (%s)\n",
			r.TargetTable, r.TargetColumn, r.SourceTable, r.SourceColumn, models.ReverseCardinality(r.Cardinality))
	}
	return b.String()
}

func tableEntryID(table string) string {
	return entryKindTable + "|" + table
}

func columnEntryID(table, column string) string {
	return entryKindColumn + "|" + table + "|" + column
}

func valueEntryID(table, column, value string) string {
	return entryKindValue + "|" + table + "|" + column + "|" + value
}

// parsedEntry is a decoded matcher entry ID.
type parsedEntry struct {
	Kind   string
	Table  string
	Column string
	Value  string
}

// parseEntryID decodes a catalog entry ID produced by this package.
func parseEntryID(id string) (parsedEntry, error) {
	parts := strings.SplitN(id, "|", 4)
	switch parts[0] {
	case entryKindTable:
		if len(parts) != 2 {
			return parsedEntry{}, fmt.Errorf("malformed table entry ID %q", id)
		}
		return parsedEntry{Kind: entryKindTable, Table: parts[1]}, nil
	case entryKindColumn:
		if len(parts) != 3 {
			return parsedEntry{}, fmt.Errorf("malformed column entry ID %q", id)
		}
		return parsedEntry{Kind: entryKindColumn, Table: parts[1], Column: parts[2]}, nil
	case entryKindValue:
		if len(parts) != 4 {
			return parsedEntry{}, fmt.Errorf("malformed value entry ID %q", id)
		}
		return parsedEntry{Kind: entryKindValue, Table: parts[1], Column: parts[2], Value: parts[3]}, nil
	default:
		return parsedEntry{}, fmt.Errorf("unknown entry ID kind in %q", id)
	}
}
