// Package report renders extraction snapshots for output.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/pagefacts/internal/extract"
	"github.com/hyperifyio/pagefacts/internal/rewrite"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatPDF      = "pdf"
)

// Formats lists every supported format.
var Formats = []string{FormatJSON, FormatYAML, FormatMarkdown, FormatPDF}

// Report is what gets written: the snapshot plus any link rewrites applied.
type Report struct {
	extract.Snapshot `yaml:",inline"`
	Rewrite          *rewrite.Result `json:"rewrite,omitempty" yaml:"rewrite,omitempty"`
}

// ValidFormat reports whether f is one of Formats.
func ValidFormat(f string) bool {
	for _, v := range Formats {
		if v == f {
			return true
		}
	}
	return false
}

// Write renders r to w in a text format. PDF needs a file path; use WritePDF.
func Write(w io.Writer, r Report, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return err
	case FormatPDF:
		return fmt.Errorf("format %q must be written to a file", format)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Markdown renders a human-readable summary of r.
func Markdown(r Report) string {
	var b bytes.Buffer
	title := r.Title
	if title == "" {
		title = "Untitled page"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if r.URL != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", r.URL)
	}

	if a := r.Article; a.Title != nil || a.Author != nil || a.Date != nil || a.Content != nil {
		b.WriteString("## Article\n\n")
		writeField(&b, "Title", a.Title)
		writeField(&b, "Author", a.Author)
		writeField(&b, "Date", a.Date)
		fmt.Fprintf(&b, "- Words: %d\n", a.WordCount)
		if len(a.Tags) > 0 {
			fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(a.Tags, ", "))
		}
		b.WriteString("\n")
	}

	if len(r.Headings) > 0 {
		b.WriteString("## Outline\n\n")
		for _, h := range r.Headings {
			fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", h.Level-1), h.Text)
		}
		b.WriteString("\n")
	}

	if len(r.Table) > 0 {
		b.WriteString("## Table\n\n")
		writeTable(&b, r.Table)
		b.WriteString("\n")
	}

	if len(r.Definitions) > 0 {
		b.WriteString("## Definitions\n\n")
		for _, term := range sortedKeys(r.Definitions) {
			fmt.Fprintf(&b, "- **%s**: %s\n", term, strings.Join(r.Definitions[term], "; "))
		}
		b.WriteString("\n")
	}

	if len(r.Breadcrumbs) > 0 {
		parts := make([]string, 0, len(r.Breadcrumbs))
		for _, c := range r.Breadcrumbs {
			parts = append(parts, c.Text)
		}
		fmt.Fprintf(&b, "## Breadcrumbs\n\n%s\n\n", strings.Join(parts, " > "))
	}

	if len(r.Links) > 0 {
		b.WriteString("## Links\n\n")
		for _, l := range r.Links {
			text := l.Text
			if text == "" {
				text = l.Href
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", text, l.Href)
		}
		b.WriteString("\n")
	}

	social := false
	for _, name := range sortedKeys(r.Social) {
		links := r.Social[name]
		if len(links) == 0 {
			continue
		}
		if !social {
			b.WriteString("## Social\n\n")
			social = true
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, strings.Join(links, ", "))
	}
	if social {
		b.WriteString("\n")
	}

	if len(r.CodeBlocks) > 0 {
		b.WriteString("## Code blocks\n\n")
		for _, c := range r.CodeBlocks {
			fmt.Fprintf(&b, "- #%d %s (%d lines)\n", c.Index, c.Language, c.Lines)
		}
		b.WriteString("\n")
	}

	if r.Form != nil {
		fmt.Fprintf(&b, "## Form\n\n%s %s\n\n", strings.ToUpper(r.Form.Method), r.Form.Action)
		for _, f := range r.Form.Fields {
			req := ""
			if f.Required {
				req = " (required)"
			}
			fmt.Fprintf(&b, "- %s: %s%s\n", f.Name, f.Type, req)
		}
		b.WriteString("\n")
	}

	if r.Rewrite != nil {
		fmt.Fprintf(&b, "## Rewritten links\n\nConverted: %d\n\n", r.Rewrite.Converted)
		for _, c := range r.Rewrite.Changes {
			fmt.Fprintf(&b, "- %s -> %s\n", c.From, c.To)
		}
		b.WriteString("\n")
	}

	s := r.Stats
	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- Elements: %d\n- Divs: %d\n- Spans: %d\n- Links: %d\n- Images: %d\n- Forms: %d\n- Inputs: %d\n- Buttons: %d\n- Tables: %d\n- Scripts: %d\n- Styles: %d\n",
		s.TotalElements, s.Divs, s.Spans, s.Links, s.Images, s.Forms, s.Inputs, s.Buttons, s.Tables, s.Scripts, s.Styles)
	return b.String()
}

func writeField(b *bytes.Buffer, name string, v *string) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", name, *v)
}

// writeTable uses the union of row keys as columns, sorted for stable output.
func writeTable(b *bytes.Buffer, rows []extract.TableRow) {
	seen := map[string]bool{}
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	fmt.Fprintf(b, "| %s |\n", strings.Join(cols, " | "))
	fmt.Fprintf(b, "|%s\n", strings.Repeat(" --- |", len(cols)))
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = strings.ReplaceAll(row[c], "|", `\|`)
		}
		fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
