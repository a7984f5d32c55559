package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockedElements are removed together with their children.
var blockedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Iframe:   true,
	atom.Frame:    true,
	atom.Frameset: true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Link:     true,
	atom.Meta:     true,
	atom.Base:     true,
	atom.Form:     true,
	atom.Title:    true,
}

var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
	"background": true,
	"poster":     true,
}

// fetchAttributes make the browser load a resource while printing. Only
// inline data:image URLs survive, so rendering never reaches the network.
var fetchAttributes = map[string]bool{
	"src":        true,
	"srcset":     true,
	"poster":     true,
	"background": true,
	"lowsrc":     true,
	"dynsrc":     true,
	"data":       true,
}

// Sanitize parses an HTML fragment with the HTML5 parser, drops active
// content and returns the normalized markup.
func Sanitize(fragment string) (string, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if dropNode(n) {
			continue
		}
		cleanTree(n)
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

func dropNode(n *html.Node) bool {
	switch n.Type {
	case html.ElementNode:
		if n.DataAtom == atom.Style {
			return unsafeCSS(textContent(n))
		}
		return blockedElements[n.DataAtom]
	case html.CommentNode, html.DoctypeNode:
		return true
	}
	return false
}

func cleanTree(n *html.Node) {
	if n.Type == html.ElementNode {
		n.Attr = cleanAttributes(n.Data, n.Attr)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if dropNode(c) {
			n.RemoveChild(c)
		} else {
			cleanTree(c)
		}
		c = next
	}
}

func cleanAttributes(element string, attrs []html.Attribute) []html.Attribute {
	// Links are followed only on click; everywhere else (svg image, use) an
	// href is fetched.
	linkElement := element == "a" || element == "area"
	out := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" {
			key = strings.ToLower(a.Namespace) + ":" + key
		}
		if strings.HasPrefix(key, "on") {
			continue
		}
		if urlAttributes[key] && unsafeURL(a.Val) {
			continue
		}
		if fetchAttributes[key] && !inlineImage(a.Val) {
			continue
		}
		if (key == "href" || key == "xlink:href") && !linkElement && !inlineImage(a.Val) {
			continue
		}
		if key == "style" && unsafeCSS(a.Val) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// unsafeCSS reports styles that can run script or load external resources.
// Backslashes are refused outright since CSS escapes can spell either.
func unsafeCSS(css string) bool {
	compact := strings.ToLower(stripSpace(css))
	for _, marker := range []string{"url(", "@import", "image-set(", "javascript:", "expression(", "\\"} {
		if strings.Contains(compact, marker) {
			return true
		}
	}
	return false
}

func inlineImage(raw string) bool {
	return strings.HasPrefix(strings.ToLower(stripSpace(raw)), "data:image/")
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func stripSpace(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r <= ' ' || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// unsafeURL reports script-bearing URLs, ignoring the whitespace and control
// characters browsers skip when reading the scheme.
func unsafeURL(raw string) bool {
	lower := strings.ToLower(stripSpace(raw))
	return strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "vbscript:") ||
		strings.HasPrefix(lower, "data:text/html")
}
