package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Form describes a <form> and its controls in document order.
type Form struct {
	Action string      `json:"action" yaml:"action"`
	Method string      `json:"method" yaml:"method"`
	Fields []FormField `json:"fields" yaml:"fields"`
}

// FormField is an input, select or textarea. Type and Value follow what a
// browser reports for the control before any user interaction.
type FormField struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Value       string `json:"value" yaml:"value"`
	Placeholder string `json:"placeholder" yaml:"placeholder"`
	Required    bool   `json:"required" yaml:"required"`
}

var inputTypes = map[string]bool{
	"button": true, "checkbox": true, "color": true, "date": true,
	"datetime-local": true, "email": true, "file": true, "hidden": true,
	"image": true, "month": true, "number": true, "password": true,
	"radio": true, "range": true, "reset": true, "search": true,
	"submit": true, "tel": true, "text": true, "time": true,
	"url": true, "week": true,
}

// ParseForm reads the first form matching selector, or returns nil.
func ParseForm(p *Page, selector string) *Form {
	form := p.first(selector)
	if form == nil {
		return nil
	}
	out := &Form{
		Action: formAction(p, form),
		Method: formMethod(form),
		Fields: []FormField{},
	}
	form.Find("input, select, textarea").Each(func(_ int, control *goquery.Selection) {
		_, required := control.Attr("required")
		out.Fields = append(out.Fields, FormField{
			Name:        control.AttrOr("name", ""),
			Type:        fieldType(control),
			Value:       fieldValue(control),
			Placeholder: control.AttrOr("placeholder", ""),
			Required:    required,
		})
	})
	return out
}

// formAction falls back to the document URL like form.action does.
func formAction(p *Page, form *goquery.Selection) string {
	if v, ok := form.Attr("action"); ok && strings.TrimSpace(v) != "" {
		return p.resolve(v)
	}
	if p.base != nil {
		return p.base.String()
	}
	return ""
}

func formMethod(form *goquery.Selection) string {
	switch m := strings.ToLower(strings.TrimSpace(form.AttrOr("method", ""))); m {
	case "post", "dialog":
		return m
	default:
		return "get"
	}
}

func fieldType(control *goquery.Selection) string {
	switch goquery.NodeName(control) {
	case "select":
		if _, ok := control.Attr("multiple"); ok {
			return "select-multiple"
		}
		return "select-one"
	case "textarea":
		return "textarea"
	}
	t := strings.ToLower(strings.TrimSpace(control.AttrOr("type", "")))
	if !inputTypes[t] {
		return "text"
	}
	return t
}

func fieldValue(control *goquery.Selection) string {
	switch goquery.NodeName(control) {
	case "textarea":
		return control.Text()
	case "select":
		opt := control.Find("option[selected]").First()
		if opt.Length() == 0 {
			if _, multiple := control.Attr("multiple"); multiple {
				return ""
			}
			opt = control.Find("option").First()
		}
		if opt.Length() == 0 {
			return ""
		}
		if v, ok := opt.Attr("value"); ok {
			return v
		}
		return strings.Join(strings.Fields(opt.Text()), " ")
	}
	v, ok := control.Attr("value")
	if !ok {
		switch fieldType(control) {
		case "checkbox", "radio":
			return "on"
		}
	}
	return v
}
