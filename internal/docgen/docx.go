package docgen

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/rotisserie/eris"
)

// Converter renders markdown content into a binary document format.
type Converter interface {
	Convert(markdown string) ([]byte, error)
}

// DocxConverter renders markdown into a minimal WordprocessingML package.
// It covers the structures the generation stages emit: headings, pipe
// tables, and plain paragraphs.
type DocxConverter struct{}

// NewDocxConverter creates a DocxConverter.
func NewDocxConverter() *DocxConverter {
	return &DocxConverter{}
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentFooter = `</w:body></w:document>`

func (c *DocxConverter) Convert(markdown string) ([]byte, error) {
	var body strings.Builder
	body.WriteString(documentHeader)

	lines := strings.Split(markdown, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "### "):
			writeHeading(&body, strings.TrimPrefix(line, "### "), "Heading3")
		case strings.HasPrefix(line, "## "):
			writeHeading(&body, strings.TrimPrefix(line, "## "), "Heading2")
		case strings.HasPrefix(line, "# "):
			writeHeading(&body, strings.TrimPrefix(line, "# "), "Heading1")
		case isTableRow(line):
			end := i
			for end < len(lines) && isTableRow(strings.TrimRight(lines[end], " \t")) {
				end++
			}
			writeTable(&body, lines[i:end])
			i = end - 1
		default:
			writeParagraph(&body, strings.TrimPrefix(line, "- "))
		}
	}

	body.WriteString(documentFooter)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", body.String()},
	} {
		f, err := zw.Create(part.name)
		if err != nil {
			return nil, eris.Wrapf(err, "docgen: create %s", part.name)
		}
		if _, err := f.Write([]byte(part.content)); err != nil {
			return nil, eris.Wrapf(err, "docgen: write %s", part.name)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, eris.Wrap(err, "docgen: close archive")
	}
	return buf.Bytes(), nil
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|") && strings.Count(line, "|") >= 2
}

// isSeparatorRow reports whether a table row is the |---|---| divider.
func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		trimmed := strings.Trim(c, " :-")
		if trimmed != "" {
			return false
		}
	}
	return true
}

func splitCells(line string) []string {
	line = strings.Trim(strings.TrimSpace(line), "|")
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func writeHeading(b *strings.Builder, text, style string) {
	b.WriteString(`<w:p><w:pPr><w:pStyle w:val="`)
	b.WriteString(style)
	b.WriteString(`"/></w:pPr><w:r><w:t xml:space="preserve">`)
	xmlEscape(b, text)
	b.WriteString(`</w:t></w:r></w:p>`)
}

func writeParagraph(b *strings.Builder, text string) {
	b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
	xmlEscape(b, text)
	b.WriteString(`</w:t></w:r></w:p>`)
}

func writeTable(b *strings.Builder, rows []string) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblBorders>` +
		`<w:top w:val="single"/><w:bottom w:val="single"/>` +
		`<w:left w:val="single"/><w:right w:val="single"/>` +
		`<w:insideH w:val="single"/><w:insideV w:val="single"/>` +
		`</w:tblBorders></w:tblPr>`)
	for _, row := range rows {
		cells := splitCells(row)
		if isSeparatorRow(cells) {
			continue
		}
		b.WriteString(`<w:tr>`)
		for _, cell := range cells {
			b.WriteString(`<w:tc><w:p><w:r><w:t xml:space="preserve">`)
			xmlEscape(b, cell)
			b.WriteString(`</w:t></w:r></w:p></w:tc>`)
		}
		b.WriteString(`</w:tr>`)
	}
	b.WriteString(`</w:tbl>`)
}

func xmlEscape(b *strings.Builder, text string) {
	_ = xml.EscapeText(b, []byte(text))
}
