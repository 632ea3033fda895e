package el

import (
	"testing"

	"github.com/ripple-ui/ripple/pkg/vdom"
)

func TestElementWithAttributesAndChildren(t *testing.T) {
	n := Div(ID("app"), Class("box", "wide"),
		H1("hello"),
		P(Attr{Key: "lang", Value: "en"}, "world"),
	)

	if n.Kind != vdom.KindElement || n.Tag != "div" {
		t.Fatalf("got %s %q", n.Kind, n.Tag)
	}
	if n.Data.Attrs["id"] != "app" {
		t.Errorf("id = %q", n.Data.Attrs["id"])
	}
	if n.Data.Class != "box wide" {
		t.Errorf("class = %q", n.Data.Class)
	}
	if len(n.Children) != 2 {
		t.Fatalf("children = %d", len(n.Children))
	}
	if n.Children[0].Tag != "h1" || n.Children[1].Tag != "p" {
		t.Errorf("child tags = %q, %q", n.Children[0].Tag, n.Children[1].Tag)
	}
	if n.Children[1].Data.Attrs["lang"] != "en" {
		t.Errorf("lang = %q", n.Children[1].Data.Attrs["lang"])
	}
}

func TestStringShorthandBecomesTextChild(t *testing.T) {
	n := Span("hi")
	if len(n.Children) != 1 {
		t.Fatalf("children = %d", len(n.Children))
	}
	c := n.Children[0]
	if c.Kind != vdom.KindText || c.Text != "hi" {
		t.Errorf("got %s %q", c.Kind, c.Text)
	}
}

func TestKeyAttributeSetsNodeKey(t *testing.T) {
	n := Li(Key("row-3"), "three")
	if n.Key != "row-3" {
		t.Errorf("key = %q", n.Key)
	}
	if n.Data != nil && n.Data.Attrs["key"] != "" {
		t.Error("key leaked into the attribute map")
	}
}

func TestNilArgumentsIgnored(t *testing.T) {
	n := Div(nil, If(false, Span("hidden")), If(true, Span("shown")))
	if len(n.Children) != 1 {
		t.Fatalf("children = %d", len(n.Children))
	}
	if n.Children[0].Children[0].Text != "shown" {
		t.Errorf("text = %q", n.Children[0].Children[0].Text)
	}
}

func TestBareElementHasNoData(t *testing.T) {
	if n := Br(); n.Data != nil {
		t.Error("expected nil data bag")
	}
}

func TestStyleAndHandler(t *testing.T) {
	clicked := false
	n := Button(Style{Prop: "color", Value: "red"}, OnClick(func() { clicked = true }))
	if n.Data.Style["color"] != "red" {
		t.Errorf("style = %v", n.Data.Style)
	}
	fn, ok := n.Data.On["click"].(func())
	if !ok {
		t.Fatalf("click handler = %T", n.Data.On["click"])
	}
	fn()
	if !clicked {
		t.Error("handler not invoked")
	}
}

func TestAttrSliceSpread(t *testing.T) {
	common := []Attr{Type("text"), Placeholder("name")}
	n := Input(common)
	if n.Data.Attrs["type"] != "text" || n.Data.Attrs["placeholder"] != "name" {
		t.Errorf("attrs = %v", n.Data.Attrs)
	}
}

func TestMapBuildsKeyedChildren(t *testing.T) {
	items := []string{"a", "b", "c"}
	n := Ul(Map(items, func(s string) *vdom.VNode {
		return Li(Key(s), s)
	}))
	if len(n.Children) != 3 {
		t.Fatalf("children = %d", len(n.Children))
	}
	for i, want := range items {
		if n.Children[i].Key != want {
			t.Errorf("child %d key = %q", i, n.Children[i].Key)
		}
	}
}

func TestVoidElements(t *testing.T) {
	for _, tag := range []string{"br", "img", "input", "hr"} {
		if !IsVoidElement(tag) {
			t.Errorf("%s should be void", tag)
		}
	}
	if IsVoidElement("div") {
		t.Error("div should not be void")
	}
}
