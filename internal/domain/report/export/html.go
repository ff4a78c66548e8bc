package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// WriteHTML renders the on-screen preview.
func WriteHTML(w io.Writer, doc Document) error {
	if err := markdown.Convert([]byte(Markdown(doc)), w); err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	return nil
}

// Markdown builds the preview source.
func Markdown(doc Document) string {
	l := doc.Layout
	c := l.Customer

	var b bytes.Buffer
	b.WriteString("# " + mdText(l.ReportTitle) + "\n\n")

	for _, line := range []string{c.Date, c.CustomerName, c.PropertyName, c.Address, c.CityLine()} {
		if line != "" {
			b.WriteString(mdText(line) + "  \n")
		}
	}
	b.WriteString("\n**" + mdText(l.RePrefix+" "+c.PropertyName) + "**\n\n")
	b.WriteString(mdText(l.DearPrefix+" "+c.CustomerName) + ",\n\n")
	for _, p := range letter(doc) {
		b.WriteString(mdText(p) + "\n\n")
	}
	b.WriteString(mdText(l.SignatureName) + "  \n" + mdText(l.SignatureTitle) + "\n\n")

	b.WriteString("## " + mdText(l.SectionTitles.DetailsTitle) + "\n\n")
	headers := tableHeaders(doc.Report.Headers)
	b.WriteString(mdRow(headers))
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	details := unitDetails(doc.Report)
	for _, u := range doc.Report.Units {
		b.WriteString(mdRow(tableRow(u, details[u.Unit])))
	}
	b.WriteString("\nToilets installed: " + strconv.Itoa(doc.Report.ToiletTotal) + "\n\n")

	if len(doc.Report.Notes) > 0 {
		b.WriteString("## " + mdText(l.SectionTitles.Notes) + "\n\n")
		for _, e := range doc.Report.Notes {
			b.WriteString("- **" + mdText(e.DisplayUnit) + "**: " + mdText(e.Note) + "\n")
		}
	}
	return b.String()
}

func mdRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(mdText(c), "|", `\|`)
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`", `#`, `\#`, `[`, `\[`, `]`, `\]`, `<`, `&lt;`,
	"\n", " ",
)

// mdText escapes inline markdown so user text renders literally.
func mdText(s string) string {
	return mdEscaper.Replace(strings.TrimSpace(s))
}
