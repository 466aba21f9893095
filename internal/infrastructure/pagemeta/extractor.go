// Package pagemeta builds a page context from a saved HTML document, the
// same fields the extension's content script collects from a live page.
package pagemeta

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/crwatch/backend/internal/domain"
)

// collected maps the meta attribute value to the page context key
var collected = map[string]string{
	"description":    domain.MetaDescription,
	"title":          domain.MetaTitle,
	"og:title":       domain.MetaOGTitle,
	"og:description": domain.MetaOGDescription,
}

// Extract parses an HTML document and returns its title and meta tags as a
// page context for pageURL. The first occurrence of each meta key wins.
func Extract(r io.Reader, pageURL string) (domain.PageContext, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return domain.PageContext{}, fmt.Errorf("parse html: %w", err)
	}

	ctx := domain.PageContext{
		URL:  pageURL,
		Meta: make(map[string]string),
	}
	if parsed, err := url.Parse(pageURL); err == nil {
		ctx.Hostname = parsed.Hostname()
	}

	var titleFound bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if !titleFound {
					titleFound = true
					ctx.Title = collapseSpace(textOf(n))
				}
			case "meta":
				key, content := metaAttributes(n)
				if key != "" && content != "" {
					if _, seen := ctx.Meta[key]; !seen {
						ctx.Meta[key] = content
					}
				}
			case "svg":
				// <title> inside inline SVG is not the document title
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return ctx, nil
}

func metaAttributes(n *html.Node) (key, content string) {
	var name, property string
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "name":
			name = strings.ToLower(strings.TrimSpace(attr.Val))
		case "property":
			property = strings.ToLower(strings.TrimSpace(attr.Val))
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}

	if k, ok := collected[property]; ok {
		return k, content
	}
	if k, ok := collected[name]; ok {
		return k, content
	}
	return "", ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
