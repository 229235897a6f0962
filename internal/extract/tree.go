package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultTreeDepth bounds CreateTree when a negative depth is passed.
const DefaultTreeDepth = 5

// TreeNode is one element of a depth-bounded element tree. Text is set only
// when the element's sole child is a text node.
type TreeNode struct {
	Tag      string      `json:"tag" yaml:"tag"`
	ID       *string     `json:"id" yaml:"id"`
	Classes  []string    `json:"classes" yaml:"classes"`
	Text     *string     `json:"text" yaml:"text"`
	Children []*TreeNode `json:"children" yaml:"children"`
}

// PageStats counts elements by category across the whole document.
type PageStats struct {
	TotalElements int `json:"totalElements" yaml:"totalElements"`
	Divs          int `json:"divs" yaml:"divs"`
	Spans         int `json:"spans" yaml:"spans"`
	Links         int `json:"links" yaml:"links"`
	Images        int `json:"images" yaml:"images"`
	Forms         int `json:"forms" yaml:"forms"`
	Inputs        int `json:"inputs" yaml:"inputs"`
	Buttons       int `json:"buttons" yaml:"buttons"`
	Tables        int `json:"tables" yaml:"tables"`
	Scripts       int `json:"scripts" yaml:"scripts"`
	Styles        int `json:"styles" yaml:"styles"`
}

// CreateTree builds the tree rooted at the first element matching selector,
// or returns nil when nothing matches.
func CreateTree(p *Page, selector string, maxDepth int) *TreeNode {
	return TreeFromSelection(p.first(selector), maxDepth)
}

// TreeFromSelection builds the tree rooted at the first node of s. The root
// is depth 0; nodes at maxDepth are included with no children.
func TreeFromSelection(s *goquery.Selection, maxDepth int) *TreeNode {
	if s == nil || s.Length() == 0 {
		return nil
	}
	if maxDepth < 0 {
		maxDepth = DefaultTreeDepth
	}
	root := s.Get(0)
	if root.Type != html.ElementNode {
		return nil
	}
	return buildTree(root, maxDepth, 0)
}

func buildTree(n *html.Node, maxDepth, depth int) *TreeNode {
	node := &TreeNode{
		Tag:      strings.ToLower(n.Data),
		Classes:  classList(n),
		Children: []*TreeNode{},
	}
	if id := nodeAttr(n, "id"); id != "" {
		node.ID = &id
	}
	if c := n.FirstChild; c != nil && c.NextSibling == nil && c.Type == html.TextNode {
		t := strings.TrimSpace(c.Data)
		node.Text = &t
	}
	if depth >= maxDepth {
		return node
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			node.Children = append(node.Children, buildTree(c, maxDepth, depth+1))
		}
	}
	return node
}

// classList splits the class attribute, dropping duplicates like DOMTokenList.
func classList(n *html.Node) []string {
	classes := []string{}
	seen := map[string]bool{}
	for _, c := range strings.Fields(nodeAttr(n, "class")) {
		if seen[c] {
			continue
		}
		seen[c] = true
		classes = append(classes, c)
	}
	return classes
}

func nodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Stats counts elements in the whole document, including the implied
// html, head and body elements.
func Stats(p *Page) PageStats {
	count := func(sel string) int { return p.doc.Find(sel).Length() }
	return PageStats{
		TotalElements: count("*"),
		Divs:          count("div"),
		Spans:         count("span"),
		Links:         count("a"),
		Images:        count("img"),
		Forms:         count("form"),
		Inputs:        count("input"),
		Buttons:       count("button"),
		Tables:        count("table"),
		Scripts:       count("script"),
		Styles:        count(`style, link[rel="stylesheet"]`),
	}
}
