// Package message turns an inbound alert body into the single line of text
// the extraction rules run against.
package message

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoTextFound is returned when neither the text nor the HTML field of a
// body yields any usable text.
var ErrNoTextFound = errors.New("no alert text found in message body (neither text nor HTML)")

// Body is the raw message as delivered by the upstream trigger.
type Body struct {
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	HTML string `json:"html,omitempty" yaml:"html,omitempty"`
}

// Normalize returns the text to parse. Plain text is used verbatim when
// present; otherwise the text content of the HTML body element is extracted
// and whitespace is collapsed.
func Normalize(b Body) (string, error) {
	if strings.TrimSpace(b.Text) != "" {
		return b.Text, nil
	}

	if strings.TrimSpace(b.HTML) != "" {
		text, err := htmlText(b.HTML)
		if err != nil {
			return "", err
		}
		if text = CollapseWhitespace(text); text != "" {
			return text, nil
		}
	}

	return "", ErrNoTextFound
}

// CollapseWhitespace replaces every whitespace run with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// htmlText extracts the text content of the <body> element, or of the whole
// document when no body element exists.
func htmlText(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}

	node := findBody(root)
	if node == nil {
		node = root
	}

	var sb strings.Builder
	writeText(&sb, node)
	return sb.String(), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		// script and style contents are not rendered text
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
		if n.DataAtom == atom.Br {
			sb.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
}
