package mimetree

import (
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// EmptyHTML is returned when an HTML body cannot be turned into text
const EmptyHTML = "empty"

// The strict policy removes every element and skips the contents of
// script and style.
var htmlPolicy = bluemonday.StrictPolicy()

// HTMLToText extracts the textual content of an HTML document and removes
// every "\n\n" sequence in a single pass.
func HTMLToText(s string) string {
	sanitized := htmlPolicy.SanitizeReader(strings.NewReader(s))

	doc, err := html.Parse(sanitized)
	if err != nil {
		slog.Debug("failed to parse html body", "error", err)
		return EmptyHTML
	}

	var sb strings.Builder
	collectText(&sb, doc)

	return strings.ReplaceAll(sb.String(), "\n\n", "")
}

func collectText(sb *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(sb, c)
	}
}
