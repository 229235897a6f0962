package extract

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// Page is a parsed HTML document plus the URL it was loaded from. Every
// extractor in this package reads a Page and never modifies it.
type Page struct {
	doc  *goquery.Document
	base *url.URL
}

// NewPage wraps an already parsed document. base may be nil, in which case
// href-like attributes are returned as written.
func NewPage(doc *goquery.Document, base *url.URL) *Page {
	if doc == nil {
		doc = goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	p := &Page{doc: doc, base: base}
	p.applyBaseElement()
	return p
}

// FromHTML parses input and never fails: malformed input yields an empty page,
// which every extractor treats as "nothing found".
func FromHTML(input []byte, baseURL string) *Page {
	p, err := Load(bytes.NewReader(input), "", baseURL)
	if err != nil {
		return NewPage(nil, parseBase(baseURL))
	}
	return p
}

// Load parses HTML from r. contentType is the optional Content-Type header
// value; a non UTF-8 charset parameter is decoded before parsing.
func Load(r io.Reader, contentType string, baseURL string) (*Page, error) {
	rd, err := decodeCharset(r, contentType)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(rd)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return NewPage(doc, parseBase(baseURL)), nil
}

// Document exposes the underlying goquery document.
func (p *Page) Document() *goquery.Document { return p.doc }

// Base returns the URL relative references are resolved against, or nil.
func (p *Page) Base() *url.URL { return p.base }

var utf8BOM = []byte("\xef\xbb\xbf")

// decodeCharset converts r to UTF-8. The encoding comes from a byte-order
// mark, the Content-Type charset parameter or a <meta> declaration in the
// first 1024 bytes, in that order. Undeclared input that is valid UTF-8 is
// passed through unchanged. A charset parameter naming an unknown encoding is
// an error.
func decodeCharset(r io.Reader, contentType string) (io.Reader, error) {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if label := strings.TrimSpace(params["charset"]); label != "" {
			if e, _ := charset.Lookup(label); e == nil {
				return nil, fmt.Errorf("unsupported charset %q", label)
			}
		}
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	e, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return bytes.NewReader(bytes.TrimPrefix(body, utf8BOM)), nil
	}
	return transform.NewReader(bytes.NewReader(body), e.NewDecoder()), nil
}

func parseBase(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}

// applyBaseElement honours <base href>, resolved against the load URL.
func (p *Page) applyBaseElement() {
	href, ok := p.doc.Find("base[href]").First().Attr("href")
	if !ok {
		return
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return
	}
	if p.base != nil {
		p.base = p.base.ResolveReference(ref)
		return
	}
	if ref.IsAbs() {
		p.base = ref
	}
}

// resolve turns an attribute value into the URL a browser would report for it.
func (p *Page) resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if p.base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return p.base.ResolveReference(ref).String()
}

// urlAttr reads a URL-valued attribute. Absent attributes give "".
func (p *Page) urlAttr(s *goquery.Selection, name string) string {
	v, ok := s.Attr(name)
	if !ok {
		return ""
	}
	return p.resolve(v)
}

// first returns the first element matching selector in document order, or nil.
func (p *Page) first(selector string) *goquery.Selection {
	s := p.doc.Find(selector).First()
	if s.Length() == 0 {
		return nil
	}
	return s
}

func (p *Page) firstText(selector string) *string {
	s := p.first(selector)
	if s == nil {
		return nil
	}
	t := text(s)
	return &t
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// Href returns the resolved href of s, or "" when it has none.
func (p *Page) Href(s *goquery.Selection) string {
	return p.urlAttr(s, "href")
}
