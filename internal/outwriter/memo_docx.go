package outwriter

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`

const docxCore = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>%s</dc:title>
<dc:creator>fundscore</dc:creator>
</cp:coreProperties>`

// Font sizes in half-points.
var docxHeadingSize = map[int]int{1: 36, 2: 28, 3: 24}

const (
	docxBodySize  = 21
	docxTableSize = 18
)

// RenderMemoDOCX packs the markdown memo into a minimal WordprocessingML document.
func RenderMemoDOCX(markdown, title string) ([]byte, error) {
	var body strings.Builder
	for _, b := range parseMemoBlocks(markdown) {
		writeDocxBlock(&body, b)
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="709" w:footer="709" w:gutter="0"/></w:sectPr>` +
		`</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"docProps/core.xml", fmt.Sprintf(docxCore, xmlEscape(title))},
		{"word/document.xml", document},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", p.name, err)
		}
		if _, err := fw.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish DOCX: %w", err)
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// docxRun writes one w:r with its run properties.
func docxRun(sb *strings.Builder, r textRun, size int) {
	sb.WriteString("<w:r><w:rPr>")
	if r.Bold {
		sb.WriteString("<w:b/>")
	}
	if r.Italic {
		sb.WriteString("<w:i/>")
	}
	if r.Link != "" {
		sb.WriteString(`<w:color w:val="0969DA"/><w:u w:val="single"/>`)
	}
	fmt.Fprintf(sb, `<w:sz w:val="%d"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r>`, size, xmlEscape(r.Text))
}

func docxParagraph(sb *strings.Builder, runs []textRun, size int, props string) {
	sb.WriteString("<w:p>")
	if props != "" {
		sb.WriteString("<w:pPr>" + props + "</w:pPr>")
	}
	for _, r := range runs {
		docxRun(sb, r, size)
	}
	sb.WriteString("</w:p>")
}

func writeDocxBlock(sb *strings.Builder, b memoBlock) {
	switch b.Kind {
	case blockHeading:
		size, ok := docxHeadingSize[b.Level]
		if !ok {
			size = docxBodySize
		}
		docxParagraph(sb, []textRun{{Text: b.Plain(), Bold: true}}, size, `<w:spacing w:before="240" w:after="120"/>`)
	case blockParagraph:
		docxParagraph(sb, b.Runs, docxBodySize, "")
	case blockQuote:
		docxParagraph(sb, b.Runs, docxBodySize, `<w:ind w:left="567"/>`)
	case blockBullet:
		runs := append([]textRun{{Text: "• "}}, b.Runs...)
		docxParagraph(sb, runs, docxBodySize, `<w:ind w:left="567" w:hanging="283"/>`)
	case blockTable:
		writeDocxTable(sb, b.Rows)
	}
}

func writeDocxTable(sb *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	sb.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(sb, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="D0D7DE"/>`, side)
	}
	sb.WriteString(`</w:tblBorders></w:tblPr>`)
	for i, row := range rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc><w:tcPr><w:tcW w:w=\"0\" w:type=\"auto\"/>")
			if i == 0 {
				sb.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="EBEEF1"/>`)
			}
			sb.WriteString("</w:tcPr>")
			docxParagraph(sb, []textRun{{Text: cell, Bold: i == 0}}, docxTableSize, "")
			sb.WriteString("</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	// Word requires a paragraph between consecutive tables.
	sb.WriteString("<w:p/>")
}
