// pkg/browser/selector.go
package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// Kind says how a Selector value is interpreted.
type Kind int

const (
	CSS Kind = iota
	Class
	ID
	XPath
)

func (k Kind) String() string {
	switch k {
	case CSS:
		return "css"
	case Class:
		return "class"
	case ID:
		return "id"
	case XPath:
		return "xpath"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

/*
Selector points at one element on the page. Optional selectors get the short
wait budget and are expected to be absent sometimes.
*/
type Selector struct {
	Kind     Kind
	Value    string
	Optional bool
}

func ByCSS(value string) Selector   { return Selector{Kind: CSS, Value: value} }
func ByClass(value string) Selector { return Selector{Kind: Class, Value: value} }
func ByID(value string) Selector    { return Selector{Kind: ID, Value: value} }
func ByXPath(value string) Selector { return Selector{Kind: XPath, Value: value} }

func (s Selector) AsOptional() Selector {
	s.Optional = true
	return s
}

// StaleAttribute marks elements tagged by MarkStale.
const StaleAttribute = "data-courtgrid-stale"

// Fresh narrows s to elements that do not carry StaleAttribute.
func (s Selector) Fresh() Selector {
	fresh := s
	if query, ok := s.css(); ok {
		fresh.Kind, fresh.Value = CSS, query+":not(["+StaleAttribute+"])"
		return fresh
	}
	fresh.Value = "(" + s.Value + ")[not(@" + StaleAttribute + ")]"
	return fresh
}

func (s Selector) String() string {
	return s.Kind.String() + "=" + s.Value
}

// css rewrites class and id selectors as CSS. XPath has no CSS form.
func (s Selector) css() (string, bool) {
	switch s.Kind {
	case CSS:
		return s.Value, true
	case Class:
		// "week-column facility-row" and "week-column.facility-row" both mean both classes
		classes := strings.FieldsFunc(s.Value, func(r rune) bool { return r == '.' || r == ' ' })
		return "." + strings.Join(classes, "."), true
	case ID:
		return "#" + strings.TrimPrefix(s.Value, "#"), true
	default:
		return "", false
	}
}

func (s Selector) query() (string, chromedp.QueryOption) {
	if query, ok := s.css(); ok {
		return query, chromedp.ByQuery
	}
	return s.Value, chromedp.BySearch
}
