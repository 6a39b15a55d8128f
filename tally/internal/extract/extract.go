// Package extract turns serialised DOM fragments into the plain text and
// image list the pipeline fingerprints and parses.
//
// Extraction is deliberately fail-soft: a fragment that cannot be parsed is
// simply not an event. Nothing in this package returns an error.
package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Line extracts the visible text and the ordered list of <img src> values
// from an HTML fragment. Whitespace runs collapse to single spaces. Any
// parse failure or empty input yields ("", nil).
func Line(fragment string) (text string, images []string) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return "", nil
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			case atom.Img:
				if src := attr(n, "src"); src != "" {
					images = append(images, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	return strings.Join(strings.Fields(sb.String()), " "), images
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
