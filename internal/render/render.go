// Package render materializes element descriptions into document nodes and
// mounts them.
//
// Rendering is a full replace: the mount point is emptied and the new tree
// appended. There is no diffing. Re-renders only happen on discrete state
// transitions, so rebuilding a handful of nodes each time is fine.
package render

import (
	"sort"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/muurk/pantti/internal/dom"
	"github.com/muurk/pantti/internal/element"
	"github.com/muurk/pantti/internal/logging"
)

// Renderer draws descriptions into one mount point of a document.
type Renderer struct {
	doc     *dom.Document
	mountID string

	// OnRender, when set, is called with the mount point after every
	// successful render, on the rendering goroutine.
	OnRender func(mount *html.Node)
}

// New creates a Renderer for the mount point with the given id.
func New(doc *dom.Document, mountID string) *Renderer {
	return &Renderer{doc: doc, mountID: mountID}
}

// MountID returns the id of the mount point.
func (r *Renderer) MountID() string {
	return r.mountID
}

// Materialize expands descriptions into detached nodes, binding every
// event handler as a document listener.
func (r *Renderer) Materialize(nodes ...element.Node) []*html.Node {
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, r.materialize(n)...)
	}
	return out
}

func (r *Renderer) materialize(n element.Node) []*html.Node {
	switch v := n.(type) {
	case element.Text:
		return []*html.Node{r.doc.CreateTextNode(string(v))}
	case element.Element:
		return []*html.Node{r.materializeElement(v)}
	case *element.Element:
		if v == nil {
			return nil
		}
		return []*html.Node{r.materializeElement(*v)}
	default:
		return nil
	}
}

func (r *Renderer) materializeElement(e element.Element) *html.Node {
	node := r.doc.CreateElement(e.Tag)

	for _, key := range sortedKeys(e.Attrs) {
		switch v := e.Attrs[key].(type) {
		case element.String:
			node.Attr = append(node.Attr, html.Attribute{Key: key, Val: string(v)})
		case element.Bool:
			if v {
				node.Attr = append(node.Attr, html.Attribute{Key: key})
			}
		}
	}

	for _, event := range sortedKeys(e.On) {
		if h := e.On[event]; h != nil {
			r.doc.AddListener(node, event, h)
		}
	}

	for _, child := range r.Materialize(e.Children...) {
		node.AppendChild(child)
	}

	return node
}

// Render replaces the contents of the mount point with the materialized
// descriptions. A missing mount point is logged and ignored.
func (r *Renderer) Render(nodes ...element.Node) {
	mount := r.doc.ElementByID(r.mountID)
	if mount == nil {
		logging.Warn("Mount point not found, skipping render",
			zap.String("mount_id", r.mountID),
		)
		return
	}

	r.doc.RemoveChildren(mount)

	for _, n := range r.Materialize(nodes...) {
		mount.AppendChild(n)
	}

	logging.Debug("Rendered view",
		zap.String("mount_id", r.mountID),
		zap.Int("top_level_nodes", len(nodes)),
		zap.Int("listeners", r.doc.ListenerCount()),
	)

	if r.OnRender != nil {
		r.OnRender(mount)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
