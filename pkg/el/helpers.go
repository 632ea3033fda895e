package el

import (
	"strconv"
	"strings"
)

// Identity attributes

// Key sets the reconciliation key.
func Key(key string) Attr { return Attr{Key: "key", Value: key} }

// ID sets the id attribute.
func ID(id string) Attr { return Attr{Key: "id", Value: id} }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr {
	return Attr{Key: "class", Value: strings.Join(classes, " ")}
}

// Data creates a data-* attribute: Data("id", "42") is data-id="42".
func Data(key, value string) Attr { return Attr{Key: "data-" + key, Value: value} }

// Form and link attributes

// Type sets the type attribute.
func Type(t string) Attr { return Attr{Key: "type", Value: t} }

// Name sets the name attribute.
func Name(n string) Attr { return Attr{Key: "name", Value: n} }

// Value sets the value attribute.
func Value(v string) Attr { return Attr{Key: "value", Value: v} }

// Placeholder sets the placeholder attribute.
func Placeholder(p string) Attr { return Attr{Key: "placeholder", Value: p} }

// Href sets the href attribute.
func Href(href string) Attr { return Attr{Key: "href", Value: href} }

// Src sets the src attribute.
func Src(src string) Attr { return Attr{Key: "src", Value: src} }

// Alt sets the alt attribute.
func Alt(alt string) Attr { return Attr{Key: "alt", Value: alt} }

// Title sets the title attribute.
func Title(t string) Attr { return Attr{Key: "title", Value: t} }

// Disabled sets the disabled attribute.
func Disabled(disabled bool) Attr {
	return Attr{Key: "disabled", Value: strconv.FormatBool(disabled)}
}

// Accessibility attributes

// Role sets the role attribute.
func Role(role string) Attr { return Attr{Key: "role", Value: role} }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return Attr{Key: "aria-label", Value: label} }

// Events. Handler payloads are opaque here; the live runtime dispatches
// by event name.

func event(name string, fn any) Handler { return Handler{Event: name, Fn: fn} }

// OnClick handles click events.
func OnClick(fn any) Handler { return event("click", fn) }

// OnInput handles input events.
func OnInput(fn any) Handler { return event("input", fn) }

// OnChange handles change events.
func OnChange(fn any) Handler { return event("change", fn) }

// OnSubmit handles submit events.
func OnSubmit(fn any) Handler { return event("submit", fn) }

// OnKeyDown handles keydown events.
func OnKeyDown(fn any) Handler { return event("keydown", fn) }

// OnKeyUp handles keyup events.
func OnKeyUp(fn any) Handler { return event("keyup", fn) }

// OnFocus handles focus events.
func OnFocus(fn any) Handler { return event("focus", fn) }

// OnBlur handles blur events.
func OnBlur(fn any) Handler { return event("blur", fn) }
