package extract

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// TableRow maps a column label to the trimmed cell text.
type TableRow map[string]string

// ListItem is one <li> of a parsed list.
type ListItem struct {
	Text  string `json:"text" yaml:"text"`
	HTML  string `json:"html" yaml:"html"`
	Links []Link `json:"links" yaml:"links"`
}

// Link is an anchor found inside a list item.
type Link struct {
	Text string `json:"text" yaml:"text"`
	Href string `json:"href" yaml:"href"`
}

// DefinitionMap maps each <dt> term to the <dd> texts that follow it.
type DefinitionMap map[string][]string

// ParseTable reads the first table matching selector. Header cells come from
// thead; body rows are zipped against them by position, and cells without a
// usable header are keyed column_<index>.
func ParseTable(p *Page, selector string) []TableRow {
	rows := []TableRow{}
	table := p.first(selector)
	if table == nil {
		return rows
	}

	var headers []string
	table.Find("thead th, thead td").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, text(th))
	})

	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		row := TableRow{}
		tr.Find("td, th").Each(func(i int, cell *goquery.Selection) {
			row[columnKey(headers, i)] = text(cell)
		})
		rows = append(rows, row)
	})
	return rows
}

func columnKey(headers []string, i int) string {
	if i < len(headers) && headers[i] != "" {
		return headers[i]
	}
	return "column_" + strconv.Itoa(i)
}

// ParseList returns every <li> under the first element matching selector,
// nested items included.
func ParseList(p *Page, selector string) []ListItem {
	items := []ListItem{}
	list := p.first(selector)
	if list == nil {
		return items
	}
	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		inner, _ := li.Html()
		links := []Link{}
		li.Find("a").Each(func(_ int, a *goquery.Selection) {
			links = append(links, Link{Text: text(a), Href: p.urlAttr(a, "href")})
		})
		items = append(items, ListItem{Text: text(li), HTML: inner, Links: links})
	})
	return items
}

// ParseDefinitionList scans the direct children of the first matching <dl>.
// A <dt> opens a new entry; each following <dd> is appended to it. A <dd>
// with no open term is dropped, and a repeated term starts over empty.
func ParseDefinitionList(p *Page, selector string) DefinitionMap {
	out := DefinitionMap{}
	dl := p.first(selector)
	if dl == nil {
		return out
	}
	current := ""
	dl.Children().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "dt":
			current = text(child)
			out[current] = []string{}
		case "dd":
			// an empty term label does not accept definitions
			if current != "" {
				out[current] = append(out[current], text(child))
			}
		}
	})
	return out
}
