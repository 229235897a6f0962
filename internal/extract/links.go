package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultContainer is the container used when a links or images selector is empty.
const DefaultContainer = "body"

// LinkInfo describes an anchor with a usable href.
type LinkInfo struct {
	Text   string `json:"text" yaml:"text"`
	Href   string `json:"href" yaml:"href"`
	Title  string `json:"title" yaml:"title"`
	Target string `json:"target" yaml:"target"`
}

// ImageInfo describes an <img>. Width and Height come from the element's
// attributes and are 0 when missing or not integers.
type ImageInfo struct {
	Src    string `json:"src" yaml:"src"`
	Alt    string `json:"alt" yaml:"alt"`
	Title  string `json:"title" yaml:"title"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// Breadcrumb is one step of a breadcrumb trail. Href is nil for spans and
// anchors without a target.
type Breadcrumb struct {
	Text     string  `json:"text" yaml:"text"`
	Href     *string `json:"href" yaml:"href"`
	IsActive bool    `json:"isActive" yaml:"isActive"`
}

// Social platform keys of SocialLinks.
const (
	Twitter   = "twitter"
	Facebook  = "facebook"
	LinkedIn  = "linkedin"
	Instagram = "instagram"
	YouTube   = "youtube"
	GitHub    = "github"
	Other     = "other"
)

// SocialLinks groups anchor hrefs by platform. Every platform key is present.
type SocialLinks map[string][]string

// socialPlatforms is checked in order; the first platform whose token occurs
// in the lowercased href wins.
var socialPlatforms = []struct {
	name   string
	tokens []string
}{
	{Twitter, []string{"twitter.com", "x.com"}},
	{Facebook, []string{"facebook.com"}},
	{LinkedIn, []string{"linkedin.com"}},
	{Instagram, []string{"instagram.com"}},
	{YouTube, []string{"youtube.com"}},
	{GitHub, []string{"github.com"}},
}

// ExtractLinks lists the anchors inside the first element matching
// containerSelector. Anchors whose href is missing or empty are skipped.
func ExtractLinks(p *Page, containerSelector string) []LinkInfo {
	links := []LinkInfo{}
	container := p.first(orDefault(containerSelector, DefaultContainer))
	if container == nil {
		return links
	}
	container.Find("a").Each(func(_ int, a *goquery.Selection) {
		href := p.urlAttr(a, "href")
		if href == "" {
			return
		}
		links = append(links, LinkInfo{
			Text:   text(a),
			Href:   href,
			Title:  a.AttrOr("title", ""),
			Target: a.AttrOr("target", ""),
		})
	})
	return links
}

// ExtractImages lists the images inside the first element matching containerSelector.
func ExtractImages(p *Page, containerSelector string) []ImageInfo {
	images := []ImageInfo{}
	container := p.first(orDefault(containerSelector, DefaultContainer))
	if container == nil {
		return images
	}
	container.Find("img").Each(func(_ int, img *goquery.Selection) {
		images = append(images, ImageInfo{
			Src:    p.urlAttr(img, "src"),
			Alt:    img.AttrOr("alt", ""),
			Title:  img.AttrOr("title", ""),
			Width:  intAttr(img, "width"),
			Height: intAttr(img, "height"),
		})
	})
	return images
}

// ParseBreadcrumbs returns the anchors and spans of the first matching
// breadcrumb container in document order.
func ParseBreadcrumbs(p *Page, selector string) []Breadcrumb {
	crumbs := []Breadcrumb{}
	nav := p.first(selector)
	if nav == nil {
		return crumbs
	}
	nav.Find("a, span").Each(func(_ int, item *goquery.Selection) {
		c := Breadcrumb{Text: text(item), IsActive: item.HasClass("active")}
		if goquery.NodeName(item) == "a" {
			if href := p.urlAttr(item, "href"); href != "" {
				c.Href = &href
			}
		}
		crumbs = append(crumbs, c)
	})
	return crumbs
}

// ExtractSocialLinks classifies every anchor on the page by platform.
// Anchors that match no platform are not recorded; Other stays empty.
func ExtractSocialLinks(p *Page) SocialLinks {
	out := SocialLinks{}
	for _, pl := range socialPlatforms {
		out[pl.name] = []string{}
	}
	out[Other] = []string{}

	p.doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href := p.urlAttr(a, "href")
		lower := strings.ToLower(href)
		for _, pl := range socialPlatforms {
			if containsAny(lower, pl.tokens) {
				out[pl.name] = append(out[pl.name], href)
				return
			}
		}
	})
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func intAttr(s *goquery.Selection, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.AttrOr(name, "")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
