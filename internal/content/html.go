package content

import (
	"strings"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "tr": true, "section": true, "article": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true, "template": true,
}

// HTMLToText extracts readable text from blog markup. Block elements become
// line breaks; scripts and styles are dropped. Plain text passes through.
func HTMLToText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return normalizeSpace(markup)
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return normalizeSpace(markup)
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteString("\n")
		}
	}
	walk(doc)

	return normalizeSpace(sb.String())
}

// normalizeSpace collapses runs of spaces inside lines and drops empty lines.
func normalizeSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
