// Package dom holds the concrete UI node tree that descriptions are
// materialized into.
//
// Nodes are golang.org/x/net/html nodes, so a document can be serialized
// for the browser with html.Render. Event listeners cannot live on an
// html.Node, so the Document keeps them in a side table keyed by node and
// drops them when the node is removed.
//
// A Document is not safe for concurrent use. It belongs to the event loop.
package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/muurk/pantti/internal/element"
)

// DefaultMountID is the id of the container views are drawn into.
const DefaultMountID = "gui"

// Document is a node tree plus the listeners bound to its elements.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]element.Handler
}

// NewDocument creates a minimal page whose body holds one empty mount
// point with the given id. An empty id creates a page without one.
func NewDocument(mountID string) *Document {
	root := &html.Node{Type: html.DocumentNode}
	htmlEl := newElement("html")
	head := newElement("head")
	body := newElement("body")
	root.AppendChild(htmlEl)
	htmlEl.AppendChild(head)
	htmlEl.AppendChild(body)

	if mountID != "" {
		mount := newElement("div")
		mount.Attr = []html.Attribute{{Key: "id", Val: mountID}}
		body.AppendChild(mount)
	}

	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]element.Handler),
	}
}

// Parse builds a Document from an existing page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]element.Handler),
	}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// ElementByID finds the first element in document order with the given id.
func (d *Document) ElementByID(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if v, ok := Attr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// CreateElement returns a detached element node.
func (d *Document) CreateElement(tag string) *html.Node {
	return newElement(tag)
}

// CreateTextNode returns a detached text node.
func (d *Document) CreateTextNode(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// AddListener binds h to event on n.
func (d *Document) AddListener(n *html.Node, event string, h element.Handler) {
	byEvent, ok := d.listeners[n]
	if !ok {
		byEvent = make(map[string][]element.Handler)
		d.listeners[n] = byEvent
	}
	byEvent[event] = append(byEvent[event], h)
}

// RemoveChildren detaches every child of n along with the listeners bound
// anywhere in the removed subtrees.
func (d *Document) RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		walk(c, func(m *html.Node) bool {
			delete(d.listeners, m)
			return true
		})
		c = next
	}
}

// ListenerCount returns the number of nodes with at least one listener.
func (d *Document) ListenerCount() int {
	return len(d.listeners)
}

// Dispatch delivers ev to the listeners bound for ev.Type on the element
// with targetID. It reports whether any listener ran.
func (d *Document) Dispatch(targetID string, ev element.Event) bool {
	target := d.ElementByID(targetID)
	if target == nil {
		return false
	}

	handlers := d.listeners[target][ev.Type]
	if len(handlers) == 0 {
		return false
	}

	// Handlers usually re-render, which rewrites the listener table.
	snapshot := make([]element.Handler, len(handlers))
	copy(snapshot, handlers)

	ev.Target = targetID
	for _, h := range snapshot {
		h(ev)
	}
	return true
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// TextContent concatenates the text of every text node under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(m *html.Node) bool {
		if m.Type == html.TextNode {
			b.WriteString(m.Data)
		}
		return true
	})
	return b.String()
}

func newElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// walk visits n and its descendants depth first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}
