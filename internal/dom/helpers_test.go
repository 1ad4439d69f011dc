package dom

import "golang.org/x/net/html"

func htmlAttr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
