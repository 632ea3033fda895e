package el

import "github.com/ripple-ui/ripple/pkg/vdom"

// voidElements cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// Content sectioning

func Header(args ...any) *vdom.VNode  { return E("header", args...) }
func Footer(args ...any) *vdom.VNode  { return E("footer", args...) }
func Main(args ...any) *vdom.VNode    { return E("main", args...) }
func Nav(args ...any) *vdom.VNode     { return E("nav", args...) }
func Section(args ...any) *vdom.VNode { return E("section", args...) }
func Article(args ...any) *vdom.VNode { return E("article", args...) }
func Aside(args ...any) *vdom.VNode   { return E("aside", args...) }
func H1(args ...any) *vdom.VNode      { return E("h1", args...) }
func H2(args ...any) *vdom.VNode      { return E("h2", args...) }
func H3(args ...any) *vdom.VNode      { return E("h3", args...) }
func H4(args ...any) *vdom.VNode      { return E("h4", args...) }

// Text content

func Div(args ...any) *vdom.VNode        { return E("div", args...) }
func P(args ...any) *vdom.VNode          { return E("p", args...) }
func Pre(args ...any) *vdom.VNode        { return E("pre", args...) }
func Blockquote(args ...any) *vdom.VNode { return E("blockquote", args...) }
func Ol(args ...any) *vdom.VNode         { return E("ol", args...) }
func Ul(args ...any) *vdom.VNode         { return E("ul", args...) }
func Li(args ...any) *vdom.VNode         { return E("li", args...) }
func Hr(args ...any) *vdom.VNode         { return E("hr", args...) }

// Inline text

func A(args ...any) *vdom.VNode      { return E("a", args...) }
func Span(args ...any) *vdom.VNode   { return E("span", args...) }
func Strong(args ...any) *vdom.VNode { return E("strong", args...) }
func Em(args ...any) *vdom.VNode     { return E("em", args...) }
func Code(args ...any) *vdom.VNode   { return E("code", args...) }
func Small(args ...any) *vdom.VNode  { return E("small", args...) }
func Br(args ...any) *vdom.VNode     { return E("br", args...) }

// Media

func Img(args ...any) *vdom.VNode { return E("img", args...) }

// Tables

func Table(args ...any) *vdom.VNode { return E("table", args...) }
func Thead(args ...any) *vdom.VNode { return E("thead", args...) }
func Tbody(args ...any) *vdom.VNode { return E("tbody", args...) }
func Tr(args ...any) *vdom.VNode    { return E("tr", args...) }
func Th(args ...any) *vdom.VNode    { return E("th", args...) }
func Td(args ...any) *vdom.VNode    { return E("td", args...) }

// Forms

func Form(args ...any) *vdom.VNode     { return E("form", args...) }
func Label(args ...any) *vdom.VNode    { return E("label", args...) }
func Input(args ...any) *vdom.VNode    { return E("input", args...) }
func Button(args ...any) *vdom.VNode   { return E("button", args...) }
func Select(args ...any) *vdom.VNode   { return E("select", args...) }
func OptionEl(args ...any) *vdom.VNode { return E("option", args...) }
func Textarea(args ...any) *vdom.VNode { return E("textarea", args...) }
