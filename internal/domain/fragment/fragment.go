// Package fragment splits result markup into list items.
package fragment

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Items returns the outer HTML of every top-level <li> of a results
// fragment, in document order. Nested lists stay inside their parent item.
func Items(markup string) ([]string, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, nil
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "ul", DataAtom: atom.Ul}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse results fragment: %w", err)
	}

	var items []string
	var walk func(n *html.Node) error
	walk = func(n *html.Node) error {
		if n.Type == html.ElementNode && n.DataAtom == atom.Li {
			var buf bytes.Buffer
			if err := html.Render(&buf, n); err != nil {
				return fmt.Errorf("render item: %w", err)
			}
			items = append(items, buf.String())
			return nil
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, n := range nodes {
		if err := walk(n); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Text returns the visible text of a fragment with whitespace collapsed.
func Text(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(sb.String()), " ")
}
