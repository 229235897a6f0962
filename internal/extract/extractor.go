package extract

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Extractor turns a page into a Snapshot. Implementations must not modify the page.
type Extractor interface {
	Extract(p *Page) Snapshot
}

// Snapshot is every facet of a page computed in one pass.
type Snapshot struct {
	URL         string        `json:"url,omitempty" yaml:"url,omitempty"`
	Title       string        `json:"title" yaml:"title"`
	Table       []TableRow    `json:"table" yaml:"table"`
	List        []ListItem    `json:"list" yaml:"list"`
	Links       []LinkInfo    `json:"links" yaml:"links"`
	Images      []ImageInfo   `json:"images" yaml:"images"`
	Form        *Form         `json:"form" yaml:"form"`
	Breadcrumbs []Breadcrumb  `json:"breadcrumbs" yaml:"breadcrumbs"`
	Definitions DefinitionMap `json:"definitions" yaml:"definitions"`
	CodeBlocks  []CodeBlock   `json:"codeBlocks" yaml:"codeBlocks"`
	Article     Article       `json:"article" yaml:"article"`
	Social      SocialLinks   `json:"social" yaml:"social"`
	Headings    []Heading     `json:"headings" yaml:"headings"`
	Tree        *TreeNode     `json:"tree" yaml:"tree"`
	Stats       PageStats     `json:"stats" yaml:"stats"`
}

// Options selects the elements each facet of a Snapshot is read from.
type Options struct {
	Table          string           `json:"table" yaml:"table"`
	List           string           `json:"list" yaml:"list"`
	Links          string           `json:"links" yaml:"links"`
	Images         string           `json:"images" yaml:"images"`
	Form           string           `json:"form" yaml:"form"`
	Breadcrumb     string           `json:"breadcrumb" yaml:"breadcrumb"`
	DefinitionList string           `json:"definitionList" yaml:"definitionList"`
	Code           string           `json:"code" yaml:"code"`
	Article        ArticleSelectors `json:"article" yaml:"article"`
	TreeRoot       string           `json:"treeRoot" yaml:"treeRoot"`
	TreeDepth      int              `json:"treeDepth" yaml:"treeDepth"`
}

// DefaultOptions targets the first element of each kind on the page.
func DefaultOptions() Options {
	return Options{
		Table:          "table",
		List:           "ul, ol",
		Links:          DefaultContainer,
		Images:         DefaultContainer,
		Form:           "form",
		Breadcrumb:     `nav[aria-label="breadcrumb"], .breadcrumb, .breadcrumbs`,
		DefinitionList: "dl",
		Code:           DefaultCodeSelector,
		Article:        DefaultArticleSelectors(),
		TreeRoot:       DefaultContainer,
		TreeDepth:      DefaultTreeDepth,
	}
}

// Extract runs every extractor with the selectors in o.
func (o Options) Extract(p *Page) Snapshot {
	snap := Snapshot{
		Title:       title(p),
		Table:       ParseTable(p, o.Table),
		List:        ParseList(p, o.List),
		Links:       ExtractLinks(p, o.Links),
		Images:      ExtractImages(p, o.Images),
		Form:        ParseForm(p, o.Form),
		Breadcrumbs: ParseBreadcrumbs(p, o.Breadcrumb),
		Definitions: ParseDefinitionList(p, o.DefinitionList),
		CodeBlocks:  ExtractCodeBlocks(p, o.Code),
		Article:     ParseArticle(p, o.Article),
		Social:      ExtractSocialLinks(p),
		Headings:    ExtractHeadings(p),
		Tree:        CreateTree(p, o.TreeRoot, o.TreeDepth),
		Stats:       Stats(p),
	}
	if p.base != nil {
		snap.URL = p.base.String()
	}
	return snap
}

// Selectors lists every non-empty selector in o keyed by option name.
func (o Options) Selectors() map[string]string {
	all := map[string]string{
		"table":           o.Table,
		"list":            o.List,
		"links":           o.Links,
		"images":          o.Images,
		"form":            o.Form,
		"breadcrumb":      o.Breadcrumb,
		"definitionList":  o.DefinitionList,
		"code":            o.Code,
		"article.title":   o.Article.Title,
		"article.author":  o.Article.Author,
		"article.date":    o.Article.Date,
		"article.content": o.Article.Content,
		"article.tags":    o.Article.Tags,
		"treeRoot":        o.TreeRoot,
	}
	for k, v := range all {
		if v == "" {
			delete(all, k)
		}
	}
	return all
}

// ValidateSelector reports whether sel is a CSS selector the extractors can
// evaluate. Invalid selectors otherwise behave as if they matched nothing.
func ValidateSelector(sel string) error {
	if _, err := cascadia.Compile(sel); err != nil {
		return fmt.Errorf("invalid selector %q: %w", sel, err)
	}
	return nil
}

func title(p *Page) string {
	return text(p.doc.Find("title").First())
}
