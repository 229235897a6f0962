package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultCodeSelector matches code blocks when no selector is given.
const DefaultCodeSelector = "pre code, pre, code"

var languageClass = regexp.MustCompile(`language-(\w+)`)

// CodeBlock is the raw text of a code element. Content is not trimmed.
type CodeBlock struct {
	Index    int    `json:"index" yaml:"index"`
	Language string `json:"language" yaml:"language"`
	Content  string `json:"content" yaml:"content"`
	Lines    int    `json:"lines" yaml:"lines"`
}

// Article holds the metadata of a page's main article. A nil field means the
// selector for it matched nothing.
type Article struct {
	Title     *string  `json:"title,omitempty" yaml:"title,omitempty"`
	Author    *string  `json:"author,omitempty" yaml:"author,omitempty"`
	Date      *string  `json:"date,omitempty" yaml:"date,omitempty"`
	Content   *string  `json:"content,omitempty" yaml:"content,omitempty"`
	Tags      []string `json:"tags" yaml:"tags"`
	WordCount int      `json:"wordCount" yaml:"wordCount"`
}

// ArticleSelectors picks the elements ParseArticle reads. Empty fields keep
// the default.
type ArticleSelectors struct {
	Title   string `json:"title" yaml:"title"`
	Author  string `json:"author" yaml:"author"`
	Date    string `json:"date" yaml:"date"`
	Content string `json:"content" yaml:"content"`
	Tags    string `json:"tags" yaml:"tags"`
}

// DefaultArticleSelectors returns the selectors used when none are overridden.
func DefaultArticleSelectors() ArticleSelectors {
	return ArticleSelectors{
		Title:   "h1",
		Author:  ".author",
		Date:    ".date, time",
		Content: "article, .content",
		Tags:    ".tags a, .tag",
	}
}

// Merge overlays the non-empty fields of o on s.
func (s ArticleSelectors) Merge(o ArticleSelectors) ArticleSelectors {
	s.Title = orDefault(o.Title, s.Title)
	s.Author = orDefault(o.Author, s.Author)
	s.Date = orDefault(o.Date, s.Date)
	s.Content = orDefault(o.Content, s.Content)
	s.Tags = orDefault(o.Tags, s.Tags)
	return s
}

// Heading is an h1-h6 element.
type Heading struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
	ID    string `json:"id" yaml:"id"`
	Tag   string `json:"tag" yaml:"tag"`
}

// ExtractCodeBlocks returns every element matching selector in document
// order. The language comes from the first language-<word> in the class
// attribute, or "unknown".
func ExtractCodeBlocks(p *Page, selector string) []CodeBlock {
	blocks := []CodeBlock{}
	p.doc.Find(orDefault(selector, DefaultCodeSelector)).Each(func(i int, s *goquery.Selection) {
		content := s.Text()
		blocks = append(blocks, CodeBlock{
			Index:    i,
			Language: codeLanguage(s.AttrOr("class", "")),
			Content:  content,
			Lines:    strings.Count(content, "\n") + 1,
		})
	})
	return blocks
}

func codeLanguage(class string) string {
	if m := languageClass.FindStringSubmatch(class); m != nil {
		return m[1]
	}
	return "unknown"
}

// ParseArticle reads each article field independently with overrides merged
// over DefaultArticleSelectors.
func ParseArticle(p *Page, overrides ArticleSelectors) Article {
	sels := DefaultArticleSelectors().Merge(overrides)
	a := Article{
		Title:   p.firstText(sels.Title),
		Author:  p.firstText(sels.Author),
		Date:    p.firstText(sels.Date),
		Content: p.firstText(sels.Content),
		Tags:    []string{},
	}
	p.doc.Find(sels.Tags).Each(func(_ int, tag *goquery.Selection) {
		a.Tags = append(a.Tags, text(tag))
	})
	if a.Content != nil {
		a.WordCount = len(strings.Fields(*a.Content))
	}
	return a
}

// ExtractHeadings returns h1-h6 in document order.
func ExtractHeadings(p *Page) []Heading {
	headings := []Heading{}
	p.doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		tag := goquery.NodeName(h)
		headings = append(headings, Heading{
			Level: int(tag[1] - '0'),
			Text:  text(h),
			ID:    h.AttrOr("id", ""),
			Tag:   tag,
		})
	})
	return headings
}
