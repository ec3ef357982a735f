// Package export renders stored searches as Markdown or HTML reports.
package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/researchlens/internal/database"
)

// Format is a report output format.
type Format string

const (
	Markdown Format = "markdown"
	HTML     Format = "html"
)

// ParseFormat accepts "markdown", "md" or "html". Empty means Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return Markdown, nil
	case "html":
		return HTML, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType is the HTTP content type for f.
func (f Format) ContentType() string {
	if f == HTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Extension is the file extension for f.
func (f Format) Extension() string {
	if f == HTML {
		return ".html"
	}
	return ".md"
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render produces the report for rec in format f.
func Render(rec *database.HistoryRecord, f Format) (string, error) {
	body := MarkdownReport(rec)
	if f != HTML {
		return body, nil
	}
	return htmlDocument(rec.Query, body)
}

// MarkdownReport renders the summary followed by numbered sources.
func MarkdownReport(rec *database.HistoryRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rec.Query)
	fmt.Fprintf(&b, "*Mode: %s · Searched: %s*\n\n", rec.SearchMode, rec.CreatedAt)

	b.WriteString("## Summary\n\n")
	b.WriteString(strings.TrimSpace(rec.Summary))
	b.WriteString("\n")

	if len(rec.Citations) > 0 {
		b.WriteString("\n---\n\n## Sources\n\n")
		var refs []string
		for _, c := range rec.Citations {
			line := fmt.Sprintf("%d. [%s](%s) (%s, accessed %s)", c.ID, escapeLinkText(c.Title), c.URL, c.Source, c.AccessDate)
			if c.Snippet != "" {
				line += "\n   " + strings.ReplaceAll(strings.TrimSpace(c.Snippet), "\n", " ")
			}
			refs = append(refs, line)
		}
		b.WriteString(strings.Join(refs, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func htmlDocument(title, markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(title), buf.String()), nil
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
