// Package rewrite edits the links of a parsed page in place.
package rewrite

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hyperifyio/pagefacts/internal/extract"
)

// highlightStyle marks a converted link so it is visible on the page.
const highlightStyle = "border-bottom: 2px solid #FFA116"

// Rule rewrites anchors found under Scope whose resolved href contains Match
// by replacing every occurrence of From with To.
type Rule struct {
	Scope string `json:"scope" yaml:"scope"`
	Match string `json:"match" yaml:"match"`
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
}

// LeetCodeRule points problem links inside unordered lists from leetcode.cn
// to leetcode.com.
func LeetCodeRule() Rule {
	return Rule{
		Scope: "ul",
		Match: "leetcode.cn/problems/",
		From:  "leetcode.cn",
		To:    "leetcode.com",
	}
}

// Validate reports rules that cannot do anything useful.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Match) == "" || r.From == "" {
		return fmt.Errorf("rewrite rule needs match and from: %+v", r)
	}
	if err := extract.ValidateSelector(r.scope()); err != nil {
		return err
	}
	return nil
}

func (r Rule) scope() string {
	if strings.TrimSpace(r.Scope) == "" {
		return "body"
	}
	return r.Scope
}

// Change records one rewritten href.
type Change struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Result summarises an Apply call.
type Result struct {
	Converted int      `json:"converted" yaml:"converted"`
	Changes   []Change `json:"changes" yaml:"changes"`
}

// Apply runs rules in order against p and modifies matching anchors. Each
// anchor is rewritten at most once per rule, even under nested scopes. When
// To removes Match from the href, as the LeetCode rule does, applying the
// same rules again converts nothing.
func Apply(p *extract.Page, rules ...Rule) Result {
	res := Result{Changes: []Change{}}
	doc := p.Document()
	for _, r := range rules {
		if r.Match == "" || r.From == "" {
			continue
		}
		// Find deduplicates, so anchors under nested scopes appear once
		doc.Find(r.scope()).Find("a").Each(func(_ int, a *goquery.Selection) {
			original := p.Href(a)
			if original == "" || !strings.Contains(original, r.Match) {
				return
			}
			updated := strings.ReplaceAll(original, r.From, r.To)
			a.SetAttr("href", updated)
			a.SetAttr("title", "Converted from: "+original)
			a.SetAttr("style", appendStyle(a.AttrOr("style", ""), highlightStyle))
			res.Converted++
			res.Changes = append(res.Changes, Change{From: original, To: updated})
		})
	}
	return res
}

func appendStyle(existing, decl string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return decl + ";"
	}
	if !strings.HasSuffix(existing, ";") {
		existing += ";"
	}
	return existing + " " + decl + ";"
}

// Render serialises the whole document, including any rewrites.
func Render(p *extract.Page) (string, error) {
	var buf bytes.Buffer
	for _, n := range p.Document().Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}
