package extractor

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Markdown converts a lecture page into Markdown notes with tables rendered
// as pipe tables.
func Markdown(html string) (string, error) {
	content, err := Content(html)
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	converter.AddRules(md.Rule{
		Filter: []string{"table"},
		Replacement: func(_ string, table *goquery.Selection, _ *md.Options) *string {
			out := tableToMarkdown(table)
			if out == "" {
				return nil
			}
			return md.String("\n\n" + out + "\n\n")
		},
	})

	out, err := converter.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}

// tableToMarkdown returns "" for a table without a header row so the
// converter falls back to its default handling.
func tableToMarkdown(t *goquery.Selection) string {
	header := t.Find("thead tr").First()
	if header.Length() == 0 {
		header = t.Find("tr").First()
	}
	headers := cells(header)
	if len(headers) == 0 {
		return ""
	}

	rows := t.Find("tbody tr")
	if t.Find("thead").Length() == 0 {
		rows = t.Find("tr").Slice(1, goquery.ToEnd)
	}

	var b strings.Builder
	writeRow(&b, headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&b, sep)
	rows.Each(func(_ int, row *goquery.Selection) {
		if c := cells(row); len(c) > 0 {
			writeRow(&b, c)
		}
	})
	return strings.TrimSuffix(b.String(), "\n")
}

func cells(row *goquery.Selection) []string {
	var out []string
	row.Find("th, td").Each(func(_ int, c *goquery.Selection) {
		out = append(out, strings.ReplaceAll(strings.TrimSpace(c.Text()), "|", `\|`))
	})
	return out
}

func writeRow(b *strings.Builder, cols []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cols, " | "))
	b.WriteString(" |\n")
}
