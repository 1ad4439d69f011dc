package tui

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/muurk/pantti/internal/dom"
)

// BlockKind says how a block is drawn.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockPreformatted
	BlockBreak
	BlockButton
	BlockSelect
	BlockCapture
)

// Option is one choice of a select block.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Block is one drawable piece of a screen.
type Block struct {
	Kind BlockKind
	ID   string
	Text string

	// Image is the src of an image inside a paragraph.
	Image string

	// Label and Options are set for selects.
	Label   string
	Options []Option
}

// Focusable reports whether the block takes key input.
func (b Block) Focusable() bool {
	return b.Kind == BlockButton || b.Kind == BlockSelect
}

// SelectedIndex returns the index of the selected option, or 0.
func (b Block) SelectedIndex() int {
	for i, o := range b.Options {
		if o.Selected {
			return i
		}
	}
	return 0
}

// Screen is a detached copy of the mount point contents.
type Screen struct {
	Blocks []Block
}

// Focusable returns the focusable blocks in document order.
func (s Screen) Focusable() []Block {
	var out []Block
	for _, b := range s.Blocks {
		if b.Focusable() {
			out = append(out, b)
		}
	}
	return out
}

// Find returns the block with the given id.
func (s Screen) Find(id string) (Block, bool) {
	for _, b := range s.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

// Project converts the children of mount into a Screen. Containers are
// flattened; a label is attached to the select that follows it.
func Project(mount *html.Node) Screen {
	p := projector{}
	if mount != nil {
		for c := mount.FirstChild; c != nil; c = c.NextSibling {
			p.node(c)
		}
	}
	return Screen{Blocks: p.blocks}
}

type projector struct {
	blocks []Block
	label  string
}

func (p *projector) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			p.blocks = append(p.blocks, Block{Kind: BlockParagraph, Text: text})
		}
		return
	case html.ElementNode:
	default:
		return
	}

	id, _ := dom.Attr(n, "id")

	switch n.DataAtom {
	case atom.P:
		b := Block{Kind: BlockParagraph, ID: id, Text: strings.TrimSpace(dom.TextContent(n))}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Img {
				b.Image, _ = dom.Attr(c, "src")
			}
		}
		p.blocks = append(p.blocks, b)
	case atom.Pre:
		p.blocks = append(p.blocks, Block{Kind: BlockPreformatted, ID: id, Text: dom.TextContent(n)})
	case atom.Br:
		p.blocks = append(p.blocks, Block{Kind: BlockBreak})
	case atom.Button:
		p.blocks = append(p.blocks, Block{Kind: BlockButton, ID: id, Text: strings.TrimSpace(dom.TextContent(n))})
	case atom.Video:
		p.blocks = append(p.blocks, Block{Kind: BlockCapture, ID: id})
	case atom.Label:
		p.label = strings.TrimSpace(dom.TextContent(n))
	case atom.Select:
		p.blocks = append(p.blocks, Block{Kind: BlockSelect, ID: id, Label: p.label, Options: options(n)})
		p.label = ""
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.node(c)
		}
	}
}

func options(sel *html.Node) []Option {
	var out []Option
	for c := sel.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Option {
			continue
		}
		value, _ := dom.Attr(c, "value")
		_, selected := dom.Attr(c, "selected")
		out = append(out, Option{
			Value:    value,
			Label:    strings.TrimSpace(dom.TextContent(c)),
			Selected: selected,
		})
	}
	return out
}
