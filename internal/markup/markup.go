// Package markup parses the subset of XML produced by authority search
// services into a small read-only element tree.
package markup

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// MalformedMarkupError reports input that could not be parsed into a tree.
type MalformedMarkupError struct {
	Offset int64
	Err    error
}

func (e *MalformedMarkupError) Error() string {
	return fmt.Sprintf("markup: malformed input at offset %d: %v", e.Offset, e.Err)
}

func (e *MalformedMarkupError) Unwrap() error {
	return e.Err
}

// Attr is a single element attribute keyed by its local name.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the parsed tree. Nodes are never mutated after Parse returns.
type Node struct {
	Tag   string
	Space string
	Attrs []Attr

	children []*Node
	text     strings.Builder
}

// Parse reads raw XML and returns its root element.
func Parse(raw string) (*Node, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &MalformedMarkupError{Err: eris.New("empty input")}
	}

	decoder := xml.NewDecoder(strings.NewReader(raw))
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "markup: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedMarkupError{Offset: decoder.InputOffset(), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local, Space: t.Name.Space}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &MalformedMarkupError{Offset: decoder.InputOffset(), Err: eris.New("multiple root elements")}
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, &MalformedMarkupError{Offset: decoder.InputOffset(), Err: eris.New("no root element")}
	}
	return root, nil
}

// Text returns the element's own character data, trimmed.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.text.String())
}

// Attr returns the named attribute and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Elements returns every direct child element in document order.
func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// Children returns the direct child elements with the given local name, in document order.
func (n *Node) Children(tag string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first direct child with the given local name, or nil.
func (n *Node) Child(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildText returns the trimmed text of the first matching child and whether
// the child exists.
func (n *Node) ChildText(tag string) (string, bool) {
	c := n.Child(tag)
	if c == nil {
		return "", false
	}
	return c.Text(), true
}

// Find follows a path of child tags and returns every element at its end.
// Repeated elements at any step fan out.
func (n *Node) Find(path ...string) []*Node {
	if n == nil {
		return nil
	}
	current := []*Node{n}
	for _, tag := range path {
		var next []*Node
		for _, c := range current {
			next = append(next, c.Children(tag)...)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// First is Find limited to the first match.
func (n *Node) First(path ...string) *Node {
	found := n.Find(path...)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// Descendants returns all elements below n with the given local name in
// document order. Matches are not searched for nested matches.
func (n *Node) Descendants(tag string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.children {
		if c.Tag == tag {
			out = append(out, c)
			continue
		}
		out = append(out, c.Descendants(tag)...)
	}
	return out
}
