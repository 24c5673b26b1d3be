package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// SelectFragment narrows a fetched page down to the part most likely to hold
// the recipe, in preference order: a WP Recipe Maker block, a schema.org
// Recipe element, the main element, then the body. Returns the rendered HTML
// of the chosen node.
func SelectFragment(page string) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", ErrNoRecipeContent
	}

	node := findNode(doc, hasClass("wprm-recipe"))
	if node == nil {
		node = findNode(doc, hasItemtype("schema.org/Recipe"))
	}
	if node == nil {
		node = findNode(doc, isElement("main"))
	}
	if node == nil {
		node = findNode(doc, isElement("body"))
	}
	if node == nil {
		node = doc
	}

	if strings.TrimSpace(textContent(node)) == "" {
		return "", ErrNoRecipeContent
	}

	var b strings.Builder
	if err := html.Render(&b, node); err != nil {
		return "", ErrNoRecipeContent
	}
	return b.String(), nil
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, attr := range n.Attr {
			if attr.Key != "class" {
				continue
			}
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
		return false
	}
}

func hasItemtype(fragment string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, attr := range n.Attr {
			if attr.Key == "itemtype" && strings.Contains(attr.Val, fragment) {
				return true
			}
		}
		return false
	}
}

func isElement(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Data == tag
	}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
