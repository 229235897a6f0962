package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseTable_HeadersAndRows(t *testing.T) {
	p := FromHTML([]byte(`<table>
      <thead><tr><th>Name</th><th>Age</th></tr></thead>
      <tbody>
        <tr><td>Alice</td><td>30</td></tr>
        <tr><td>Bob</td><td>25</td></tr>
      </tbody>
    </table>`), "")

	got := ParseTable(p, "table")
	want := []TableRow{
		{"Name": "Alice", "Age": "30"},
		{"Name": "Bob", "Age": "25"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTable_SynthesizesMissingHeaders(t *testing.T) {
	p := FromHTML([]byte(`<table>
      <thead><tr><th>Key</th><th></th></tr></thead>
      <tbody><tr><td>a</td><td>b</td><td>c</td></tr></tbody>
    </table>`), "")

	rows := ParseTable(p, "table")
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	want := TableRow{"Key": "a", "column_1": "b", "column_2": "c"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Fatalf("expected %v, got %v", want, rows[0])
	}
}

// Rows shorter than the header only carry keys for the cells they have.
func TestParseTable_ShortRow(t *testing.T) {
	p := FromHTML([]byte(`<table>
      <thead><tr><th>A</th><th>B</th><th>C</th></tr></thead>
      <tbody><tr><td>1</td></tr></tbody>
    </table>`), "")

	got := ParseTable(p, "table")
	want := []TableRow{{"A": "1"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTable_NotFound(t *testing.T) {
	p := FromHTML([]byte(`<p>no tables here</p>`), "")
	rows := ParseTable(p, "table")
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestParseList_ItemsAndLinks(t *testing.T) {
	p := FromHTML([]byte(`<ul id="l"><li>One <a href="/1">1</a></li><li>Two</li></ul>`), "https://example.com/base/")

	items := ParseList(p, "#l")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Text != "One 1" {
		t.Fatalf("unexpected text %q", items[0].Text)
	}
	if items[0].HTML != `One <a href="/1">1</a>` {
		t.Fatalf("unexpected html %q", items[0].HTML)
	}
	if len(items[0].Links) != 1 || items[0].Links[0].Href != "https://example.com/1" {
		t.Fatalf("unexpected links %#v", items[0].Links)
	}
	if items[1].Links == nil || len(items[1].Links) != 0 {
		t.Fatalf("expected empty links for second item, got %#v", items[1].Links)
	}
}

func TestParseDefinitionList_DropsLeadingDefinition(t *testing.T) {
	p := FromHTML([]byte(`<dl>
      <dd>orphan</dd>
      <dt>Term</dt><dd>one</dd><dd>two</dd>
      <dt>Next</dt>
    </dl>`), "")

	got := ParseDefinitionList(p, "dl")
	want := DefinitionMap{"Term": {"one", "two"}, "Next": {}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, defs := range got {
		for _, d := range defs {
			if d == "orphan" {
				t.Fatalf("leading definition must be dropped")
			}
		}
	}
}

func TestExtractLinks_SkipsMissingHref(t *testing.T) {
	p := FromHTML([]byte(`<body>
      <a href="/docs" title="Docs" target="_blank"> Docs </a>
      <a>no href</a>
      <a href="">empty</a>
      <a href="   ">blank</a>
    </body>`), "")

	links := ExtractLinks(p, "")
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %#v", links)
	}
	want := LinkInfo{Text: "Docs", Href: "/docs", Title: "Docs", Target: "_blank"}
	if links[0] != want {
		t.Fatalf("expected %+v, got %+v", want, links[0])
	}
	for _, l := range links {
		if l.Href == "" {
			t.Fatalf("link with empty href returned: %+v", l)
		}
	}
}

func TestExtractLinks_ResolvesAgainstBase(t *testing.T) {
	p := FromHTML([]byte(`<div id="c"><a href="../up">up</a></div><a href="/outside">x</a>`), "https://example.com/a/b/")
	links := ExtractLinks(p, "#c")
	if len(links) != 1 || links[0].Href != "https://example.com/a/up" {
		t.Fatalf("unexpected links %#v", links)
	}
	if got := ExtractLinks(p, "#missing"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty result for missing container, got %#v", got)
	}
}

func TestFromHTML_HonoursBaseElement(t *testing.T) {
	p := FromHTML([]byte(`<head><base href="https://cdn.example.org/root/"></head><body><a href="x">x</a></body>`), "")
	links := ExtractLinks(p, "body")
	if len(links) != 1 || links[0].Href != "https://cdn.example.org/root/x" {
		t.Fatalf("unexpected links %#v", links)
	}
}

func TestExtractImages(t *testing.T) {
	p := FromHTML([]byte(`<img src="/a.png" alt="A" title="t" width="40" height="abc"><img>`), "https://example.com/")
	imgs := ExtractImages(p, "")
	if len(imgs) != 2 {
		t.Fatalf("expected 2 images, got %d", len(imgs))
	}
	want := ImageInfo{Src: "https://example.com/a.png", Alt: "A", Title: "t", Width: 40, Height: 0}
	if imgs[0] != want {
		t.Fatalf("expected %+v, got %+v", want, imgs[0])
	}
	if imgs[1] != (ImageInfo{}) {
		t.Fatalf("expected zero image info, got %+v", imgs[1])
	}
}

func TestParseForm(t *testing.T) {
	p := FromHTML([]byte(`<form id="f" action="/submit" method="POST">
      <input name="q" placeholder="Search" required>
      <input name="mail" type="EMAIL" value="a@b.c">
      <input name="agree" type="checkbox">
      <input name="odd" type="bogus">
      <select name="size"><option value="s">S</option><option value="m" selected>M</option></select>
      <select name="tags" multiple><option>x</option></select>
      <textarea name="note">hello</textarea>
    </form>`), "https://example.com/page")

	f := ParseForm(p, "#f")
	if f == nil {
		t.Fatalf("expected form")
	}
	if f.Action != "https://example.com/submit" || f.Method != "post" {
		t.Fatalf("unexpected action/method %q %q", f.Action, f.Method)
	}
	want := []FormField{
		{Name: "q", Type: "text", Placeholder: "Search", Required: true},
		{Name: "mail", Type: "email", Value: "a@b.c"},
		{Name: "agree", Type: "checkbox", Value: "on"},
		{Name: "odd", Type: "text"},
		{Name: "size", Type: "select-one", Value: "m"},
		{Name: "tags", Type: "select-multiple"},
		{Name: "note", Type: "textarea", Value: "hello"},
	}
	if !reflect.DeepEqual(f.Fields, want) {
		t.Fatalf("expected %+v, got %+v", want, f.Fields)
	}
}

func TestParseForm_DefaultsAndMissing(t *testing.T) {
	p := FromHTML([]byte(`<form method="put"></form>`), "https://example.com/here")
	f := ParseForm(p, "form")
	if f == nil || f.Method != "get" || f.Action != "https://example.com/here" {
		t.Fatalf("unexpected form %+v", f)
	}
	if f.Fields == nil || len(f.Fields) != 0 {
		t.Fatalf("expected empty fields, got %#v", f.Fields)
	}
	if ParseForm(p, "#nope") != nil {
		t.Fatalf("expected nil for missing form")
	}
}

func TestParseBreadcrumbs(t *testing.T) {
	p := FromHTML([]byte(`<nav class="breadcrumb">
      <a href="/">Home</a><span class="sep">/</span>
      <a href="/docs">Docs</a><span class="current active">Page</span>
    </nav>`), "https://example.com/docs/page")

	crumbs := ParseBreadcrumbs(p, ".breadcrumb")
	if len(crumbs) != 4 {
		t.Fatalf("expected 4 crumbs, got %d", len(crumbs))
	}
	if crumbs[0].Href == nil || *crumbs[0].Href != "https://example.com/" || crumbs[0].Text != "Home" {
		t.Fatalf("unexpected first crumb %+v", crumbs[0])
	}
	if crumbs[1].Href != nil || crumbs[1].Text != "/" {
		t.Fatalf("span must have nil href, got %+v", crumbs[1])
	}
	if !crumbs[3].IsActive || crumbs[3].Href != nil || crumbs[2].IsActive {
		t.Fatalf("unexpected active flags %+v", crumbs)
	}
}

func TestExtractCodeBlocks_Language(t *testing.T) {
	p := FromHTML([]byte("<pre><code class=\"language-python extra\">print(1)\nprint(2)</code></pre><code>x</code>"), "")

	blocks := ExtractCodeBlocks(p, "code")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Language != "python" || blocks[0].Lines != 2 || blocks[0].Content != "print(1)\nprint(2)" {
		t.Fatalf("unexpected first block %+v", blocks[0])
	}
	if blocks[1].Language != "unknown" || blocks[1].Index != 1 || blocks[1].Lines != 1 {
		t.Fatalf("unexpected second block %+v", blocks[1])
	}
}

func TestExtractCodeBlocks_DefaultSelectorDocumentOrder(t *testing.T) {
	p := FromHTML([]byte(`<pre><code class="language-go">a</code></pre>`), "")
	blocks := ExtractCodeBlocks(p, "")
	if len(blocks) != 2 {
		t.Fatalf("expected pre and code, got %+v", blocks)
	}
	if blocks[0].Language != "unknown" || blocks[1].Language != "go" {
		t.Fatalf("expected pre before code, got %+v", blocks)
	}
}

func TestParseArticle(t *testing.T) {
	p := FromHTML([]byte(`<h1> Title </h1>
      <time>2024-01-02</time>
      <div class="body">  one two
        three </div>
      <article>ignored by override</article>
      <div class="tags"><a>go</a><a>html</a></div>`), "")

	a := ParseArticle(p, ArticleSelectors{Content: ".body"})
	if a.Title == nil || *a.Title != "Title" {
		t.Fatalf("unexpected title %v", a.Title)
	}
	if a.Author != nil {
		t.Fatalf("expected nil author, got %q", *a.Author)
	}
	if a.Date == nil || *a.Date != "2024-01-02" {
		t.Fatalf("unexpected date %v", a.Date)
	}
	if a.Content == nil || a.WordCount != 3 {
		t.Fatalf("unexpected content/wordCount %v %d", a.Content, a.WordCount)
	}
	if !reflect.DeepEqual(a.Tags, []string{"go", "html"}) {
		t.Fatalf("unexpected tags %v", a.Tags)
	}

	empty := ParseArticle(FromHTML([]byte(`<p>x</p>`), ""), ArticleSelectors{})
	if empty.Content != nil || empty.WordCount != 0 || empty.Tags == nil {
		t.Fatalf("unexpected empty article %+v", empty)
	}
}

func TestExtractSocialLinks_UnmatchedDropped(t *testing.T) {
	p := FromHTML([]byte(`<a href="https://twitter.com/x">t</a>
      <a href="https://example.com">e</a>
      <a href="HTTPS://GitHub.com/u">g</a>
      <a>no href</a>`), "")

	got := ExtractSocialLinks(p)
	want := SocialLinks{
		Twitter:   {"https://twitter.com/x"},
		Facebook:  {},
		LinkedIn:  {},
		Instagram: {},
		YouTube:   {},
		GitHub:    {"HTTPS://GitHub.com/u"},
		Other:     {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractSocialLinks_PriorityOrder(t *testing.T) {
	p := FromHTML([]byte(`<a href="https://facebook.com/share?u=https://github.com/x">f</a>`), "")
	got := ExtractSocialLinks(p)
	if len(got[Facebook]) != 1 || len(got[GitHub]) != 0 {
		t.Fatalf("expected facebook to win, got %v", got)
	}
}

func TestExtractHeadings(t *testing.T) {
	p := FromHTML([]byte(`<h2 id="a">Second</h2><h1>First</h1><h6> Six </h6>`), "")
	got := ExtractHeadings(p)
	want := []Heading{
		{Level: 2, Text: "Second", ID: "a", Tag: "h2"},
		{Level: 1, Text: "First", Tag: "h1"},
		{Level: 6, Text: "Six", Tag: "h6"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestCreateTree_DepthZero(t *testing.T) {
	p := FromHTML([]byte(`<div id="r"><p>hi</p><p><b>deep</b></p></div>`), "")
	tree := CreateTree(p, "#r", 0)
	if tree == nil {
		t.Fatalf("expected root node")
	}
	if tree.Tag != "div" || len(tree.Children) != 0 || tree.Children == nil {
		t.Fatalf("expected childless root, got %+v", tree)
	}
}

func TestCreateTree_TextAndClasses(t *testing.T) {
	p := FromHTML([]byte(`<div id="r" class="a b a"><p>hi</p><span>x<b>y</b></span></div>`), "")

	tree := CreateTree(p, "#r", DefaultTreeDepth)
	if tree.ID == nil || *tree.ID != "r" || tree.Text != nil {
		t.Fatalf("unexpected root %+v", tree)
	}
	if !reflect.DeepEqual(tree.Classes, []string{"a", "b"}) {
		t.Fatalf("unexpected classes %v", tree.Classes)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}
	para, span := tree.Children[0], tree.Children[1]
	if para.Text == nil || *para.Text != "hi" || para.ID != nil {
		t.Fatalf("unexpected paragraph %+v", para)
	}
	if span.Text != nil {
		t.Fatalf("mixed content must not set text")
	}
	if len(span.Children) != 1 || *span.Children[0].Text != "y" {
		t.Fatalf("unexpected span children %+v", span.Children)
	}

	shallow := CreateTree(p, "#r", 1)
	if len(shallow.Children) != 2 || len(shallow.Children[1].Children) != 0 {
		t.Fatalf("depth 1 must stop below the root's children")
	}
	if CreateTree(p, "#missing", 3) != nil {
		t.Fatalf("expected nil for missing root")
	}
}

func TestStats(t *testing.T) {
	p := FromHTML([]byte(`<html><head><style></style><link rel="stylesheet" href="a.css"></head>
      <body><div><span></span></div><a href="#">a</a><script></script></body></html>`), "")
	got := Stats(p)
	want := PageStats{TotalElements: 9, Divs: 1, Spans: 1, Links: 1, Scripts: 1, Styles: 2}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestLoad_DecodesCharset(t *testing.T) {
	p, err := Load(strings.NewReader("<title>caf\xe9</title>"), "text/html; charset=windows-1252", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := DefaultOptions().Extract(p)
	if snap.Title != "café" {
		t.Fatalf("expected decoded title, got %q", snap.Title)
	}
	if _, err := Load(strings.NewReader("x"), "text/html; charset=not-a-charset", ""); err == nil {
		t.Fatalf("expected error for unknown charset")
	}
}

func TestLoad_DecodesMetaCharset(t *testing.T) {
	input := "<html><head><meta charset=\"windows-1252\"><title>caf\xe9</title></head><body><p>na\xefve</p></body></html>"
	for _, ct := range []string{"", "text/html"} {
		p, err := Load(strings.NewReader(input), ct, "")
		if err != nil {
			t.Fatalf("load with content type %q: %v", ct, err)
		}
		if got := DefaultOptions().Extract(p).Title; got != "café" {
			t.Fatalf("content type %q: expected café, got %q", ct, got)
		}
		if got := p.Document().Find("p").Text(); got != "naïve" {
			t.Fatalf("content type %q: expected naïve, got %q", ct, got)
		}
	}
}

func TestLoad_UndeclaredUTF8PassesThrough(t *testing.T) {
	// non-ASCII appears only after the 1024 byte prescan window
	input := "<html><head><title>t</title></head><body>" + strings.Repeat("<p>x</p>", 200) + "<h1>Grüße</h1></body></html>"
	p, err := Load(strings.NewReader(input), "", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := p.Document().Find("h1").Text(); got != "Grüße" {
		t.Fatalf("expected Grüße, got %q", got)
	}
}

func TestLoad_EmptyInput(t *testing.T) {
	p, err := Load(strings.NewReader(""), "", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := Stats(p).TotalElements; got != 3 {
		t.Fatalf("expected html, head and body only, got %d elements", got)
	}
}

func TestValidateSelector(t *testing.T) {
	if err := ValidateSelector("div.a > p, .b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateSelector("div["); err == nil {
		t.Fatalf("expected error for invalid selector")
	}
	p := FromHTML([]byte(`<table><tbody><tr><td>a</td></tr></tbody></table>`), "")
	if rows := ParseTable(p, "div["); len(rows) != 0 {
		t.Fatalf("invalid selector must match nothing, got %v", rows)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	page := []byte(`<html><head><title>T</title></head><body>
      <h1>Head</h1><article>some words here</article>
      <table><thead><tr><th>A</th></tr></thead><tbody><tr><td>1</td></tr></tbody></table>
      <ul><li><a href="https://youtube.com/v">v</a></li></ul>
      <dl><dt>k</dt><dd>v</dd></dl>
      <pre><code class="language-sh">ls</code></pre>
    </body></html>`)
	p := FromHTML(page, "https://example.com/")

	first := DefaultOptions().Extract(p)
	second := DefaultOptions().Extract(p)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical snapshots")
	}
	if first.Title != "T" || first.URL != "https://example.com/" {
		t.Fatalf("unexpected title/url %q %q", first.Title, first.URL)
	}
	if len(first.Social[YouTube]) != 1 || first.Article.WordCount != 3 {
		t.Fatalf("unexpected snapshot %+v", first)
	}
}
