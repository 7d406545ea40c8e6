package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func textNodes(node *html.Node, out []string) []string {
	if node == nil {
		return out
	}
	if node.Type == html.TextNode {
		return append(out, node.Data)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		out = textNodes(child, out)
	}
	return out
}

// JoinedText returns every text node under the selection joined by sep,
// the nodes themselves are left untouched.
func JoinedText(sel *goquery.Selection, sep string) string {
	var nodes []string
	for _, n := range sel.Nodes {
		nodes = textNodes(n, nodes)
	}
	return strings.Join(nodes, sep)
}

// StrippedText trims every text node under the selection and concatenates
// the non-empty results.
func StrippedText(sel *goquery.Selection) string {
	var nodes []string
	for _, n := range sel.Nodes {
		nodes = textNodes(n, nodes)
	}
	var out strings.Builder
	for _, text := range nodes {
		out.WriteString(strings.TrimSpace(text))
	}
	return out.String()
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText drops non-printable characters and collapses runs of whitespace,
// it is meant for display rather than comparison.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}
