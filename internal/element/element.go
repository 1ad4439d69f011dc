// Package element defines the declarative description of a UI fragment.
//
// A description is plain data: a tree of Elements and Text leaves with
// attributes and event bindings. View builders construct a fresh tree on
// every render pass; the reconciler consumes it once and discards it.
// Nothing here is validated. A malformed tree is a caller bug.
package element

// Node is either an Element or a Text leaf.
type Node interface {
	node()
}

// Text is a text leaf.
type Text string

func (Text) node() {}

// Value is an attribute value: String or Bool.
type Value interface {
	value()
}

// String is rendered verbatim as the attribute value.
type String string

func (String) value() {}

// Bool is rendered as a valueless attribute when true and omitted when false.
type Bool bool

func (Bool) value() {}

// Attrs maps attribute names to values.
type Attrs map[string]Value

// Event is delivered to a Handler when a bound event fires.
type Event struct {
	Type   string // "click", "change", ...
	Target string // id of the element the event was dispatched to
	Value  string // current control value, e.g. the chosen option of a select
}

// Handler receives events for a binding.
type Handler func(Event)

// Handlers maps event names to handlers.
type Handlers map[string]Handler

// Element is one tagged node of a description tree.
type Element struct {
	Tag      string
	Attrs    Attrs
	On       Handlers
	Children []Node
}

func (Element) node() {}

// New builds an Element with the given children and no attributes.
func New(tag string, children ...Node) Element {
	return Element{Tag: tag, Children: children}
}

// WithAttrs returns a copy of e with attrs set.
func (e Element) WithAttrs(attrs Attrs) Element {
	e.Attrs = attrs
	return e
}

// WithHandlers returns a copy of e with the event bindings set.
func (e Element) WithHandlers(on Handlers) Element {
	e.On = on
	return e
}
