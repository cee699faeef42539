// Package xmltext scans the text nodes of XML documents for citations.
//
// Markup is never scanned: only text and CDATA nodes under the elements an
// XPath expression selects are passed to the scanner. Mark wraps each
// citation in an element of its own, OSIS style:
//
//	<p>See <reference osisRef="John.3.16">John 3:16</reference>.</p>
//
// The xmlquery parser is built on encoding/xml, which does not fetch
// external entities.
package xmltext

import (
	"bytes"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/scan"
)

// DefaultXPath selects every element of the document.
const DefaultXPath = "/*"

// Document is a parsed XML document.
type Document struct {
	root *xmlquery.Node
	// declared is false when the parser made up the <?xml?> declaration.
	declared bool
}

// Hit is a citation found in one text node.
type Hit struct {
	Path string `json:"path"` // element path of the text node, e.g. /osis/div/p
	scan.Match
}

// MarkOptions names the element and attribute Mark creates.
type MarkOptions struct {
	Element string // default "reference"
	Attr    string // default "osisRef"
}

// Parse reads an XML document.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", "", err)
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewParse("XML", "", err.Error(), err)
	}
	head := bytes.TrimLeft(data, "\ufeff \t\r\n")
	return &Document{root: root, declared: bytes.HasPrefix(head, []byte("<?xml"))}, nil
}

// ParseString is Parse for in-memory documents.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Select returns the nodes matched by expr. An empty expr selects
// DefaultXPath.
func (d *Document) Select(expr string) ([]*xmlquery.Node, error) {
	if expr == "" {
		expr = DefaultXPath
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, errors.NewParse("XPath", "", expr+": "+err.Error(), err)
	}
	return xmlquery.QuerySelectorAll(d.root, compiled), nil
}

// Extract returns the citations in the text under the nodes expr selects,
// in document order.
func (d *Document) Extract(s *scan.Scanner, expr string) ([]Hit, error) {
	nodes, err := d.textNodes(expr, "")
	if err != nil {
		return nil, err
	}
	var hits []Hit
	for _, n := range nodes {
		path := nodePath(n.Parent)
		for _, m := range s.ExtractAll(n.Data) {
			hits = append(hits, Hit{Path: path, Match: m})
		}
	}
	return hits, nil
}

// Mark wraps each citation in the text under the nodes expr selects in a
// new element carrying the citation's OSIS id, and returns the number of
// citations wrapped. Text already inside such an element is skipped, so
// marking twice changes nothing. CDATA sections are left alone.
func (d *Document) Mark(s *scan.Scanner, expr string, opts MarkOptions) (int, error) {
	if opts.Element == "" {
		opts.Element = "reference"
	}
	if opts.Attr == "" {
		opts.Attr = "osisRef"
	}

	nodes, err := d.textNodes(expr, opts.Element)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, n := range nodes {
		if n.Type != xmlquery.TextNode {
			continue
		}
		matches := s.ExtractAll(n.Data)
		if len(matches) == 0 {
			continue
		}

		prev, pos := n, 0
		insert := func(next *xmlquery.Node) {
			xmlquery.AddImmediateSibling(prev, next)
			prev = next
		}
		for _, m := range matches {
			if m.Offset > pos {
				insert(textNode(n.Data[pos:m.Offset]))
			}
			el := &xmlquery.Node{Type: xmlquery.ElementNode, Data: opts.Element}
			xmlquery.AddAttr(el, opts.Attr, m.Ref.OSIS())
			xmlquery.AddChild(el, textNode(m.Text))
			insert(el)
			pos = m.Offset + len(m.Text)
			count++
		}
		if pos < len(n.Data) {
			insert(textNode(n.Data[pos:]))
		}
		xmlquery.RemoveFromTree(n)
	}
	return count, nil
}

// String serializes the document. An XML declaration is written only when
// the input had one.
func (d *Document) String() string {
	var b strings.Builder
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.DeclarationNode && !d.declared {
			continue
		}
		b.WriteString(n.OutputXML(true))
	}
	return b.String()
}

// WriteTo writes the serialized document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}

// textNodes collects, in document order and without duplicates, the text
// and CDATA nodes under the nodes expr selects. Text below an element named
// skip is left out.
func (d *Document) textNodes(expr, skip string) ([]*xmlquery.Node, error) {
	selected, err := d.Select(expr)
	if err != nil {
		return nil, err
	}

	seen := make(map[*xmlquery.Node]bool)
	var out []*xmlquery.Node
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		switch n.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if !seen[n] && !under(n, skip) {
				seen[n] = true
				out = append(out, n)
			}
		case xmlquery.ElementNode, xmlquery.DocumentNode:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	for _, n := range selected {
		walk(n)
	}
	return out, nil
}

func under(n *xmlquery.Node, element string) bool {
	if element == "" {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == xmlquery.ElementNode && p.Data == element {
			return true
		}
	}
	return false
}

func textNode(s string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.TextNode, Data: s}
}

// nodePath returns the slash-separated element names from the root to n.
func nodePath(n *xmlquery.Node) string {
	var parts []string
	for ; n != nil; n = n.Parent {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		name := n.Data
		if n.Prefix != "" {
			name = n.Prefix + ":" + name
		}
		parts = append(parts, name)
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return b.String()
}
