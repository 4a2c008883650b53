package outwriter

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

type blockKind int

const (
	blockHeading blockKind = iota
	blockParagraph
	blockBullet
	blockQuote
	blockTable
)

// textRun is a span of inline text with one style.
type textRun struct {
	Text   string
	Bold   bool
	Italic bool
	Link   string
}

// memoBlock is one block-level element of the memo, flattened for the
// PDF and DOCX writers which have no markdown of their own.
type memoBlock struct {
	Kind  blockKind
	Level int
	Runs  []textRun
	Rows  [][]string // first row is the header
}

// Plain joins the runs into unstyled text.
func (b memoBlock) Plain() string {
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// parseMemoBlocks walks the goldmark AST of a markdown memo.
func parseMemoBlocks(markdown string) []memoBlock {
	source := []byte(markdown)
	doc := newMarkdown().Parser().Parse(text.NewReader(source))

	var blocks []memoBlock
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = appendBlocks(blocks, n, source)
	}
	return blocks
}

func appendBlocks(blocks []memoBlock, n ast.Node, source []byte) []memoBlock {
	switch node := n.(type) {
	case *ast.Heading:
		return append(blocks, memoBlock{Kind: blockHeading, Level: node.Level, Runs: inlineRuns(node, source, textRun{})})
	case *ast.Paragraph, *ast.TextBlock:
		return append(blocks, memoBlock{Kind: blockParagraph, Runs: inlineRuns(node, source, textRun{})})
	case *ast.List:
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			var runs []textRun
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				runs = append(runs, inlineRuns(c, source, textRun{})...)
			}
			blocks = append(blocks, memoBlock{Kind: blockBullet, Level: 1, Runs: runs})
		}
		return blocks
	case *ast.Blockquote:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			blocks = append(blocks, memoBlock{Kind: blockQuote, Runs: inlineRuns(c, source, textRun{Italic: true})})
		}
		return blocks
	case *extast.Table:
		var rows [][]string
		for r := node.FirstChild(); r != nil; r = r.NextSibling() {
			var row []string
			for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
				row = append(row, memoBlock{Runs: inlineRuns(cell, source, textRun{})}.Plain())
			}
			rows = append(rows, row)
		}
		return append(blocks, memoBlock{Kind: blockTable, Rows: rows})
	default:
		return blocks
	}
}

// inlineRuns flattens the inline children of n, inheriting style.
func inlineRuns(n ast.Node, source []byte, style textRun) []textRun {
	var runs []textRun
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			r := style
			r.Text = string(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				r.Text += " "
			}
			runs = append(runs, r)
		case *ast.String:
			r := style
			r.Text = string(node.Value)
			runs = append(runs, r)
		case *ast.Emphasis:
			s := style
			if node.Level >= 2 {
				s.Bold = true
			} else {
				s.Italic = true
			}
			runs = append(runs, inlineRuns(node, source, s)...)
		case *ast.Link:
			s := style
			s.Link = string(node.Destination)
			runs = append(runs, inlineRuns(node, source, s)...)
		case *ast.AutoLink:
			r := style
			r.Text = string(node.URL(source))
			r.Link = r.Text
			runs = append(runs, r)
		default:
			runs = append(runs, inlineRuns(c, source, style)...)
		}
	}
	return runs
}
