// Package xmltree is a small mutable XML tree for editing OOXML parts.
//
// Names are kept exactly as written in the source ("w:p", "xmlns:w") instead of
// being resolved to namespace URIs, so a parsed part can be written back with the
// same prefixes and declarations Office expects.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"iter"
)

// Kind is the node type.
type Kind int

const (
	KindDocument Kind = iota
	KindElement
	KindText
	KindComment
	KindProcInst
	KindDirective
)

// Node is an element or one of the leaf kinds. Text holds the unescaped content
// of text, comment, directive and processing instruction nodes.
type Node struct {
	Kind     Kind
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
	Parent   *Node
}

// Attr is a raw attribute.
type Attr struct {
	Name  string
	Value string
}

// NewElement builds a detached element.
func NewElement(name string, attrs ...Attr) *Node {
	return &Node{Kind: KindElement, Name: name, Attrs: attrs}
}

// NewText builds a detached text node.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// Parse reads a whole XML document.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root := &Node{Kind: KindDocument}
	cur := root

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml token: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := NewElement(rawName(t.Name))
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: rawName(a.Name), Value: a.Value})
			}
			cur.Append(el)
			cur = el
		case xml.EndElement:
			if cur.Kind != KindElement || cur.Name != rawName(t.Name) {
				return nil, fmt.Errorf("unexpected closing tag </%s>", rawName(t.Name))
			}
			cur = cur.Parent
		case xml.CharData:
			cur.Append(NewText(string(t)))
		case xml.Comment:
			cur.Append(&Node{Kind: KindComment, Text: string(t)})
		case xml.ProcInst:
			cur.Append(&Node{Kind: KindProcInst, Name: t.Target, Text: string(t.Inst)})
		case xml.Directive:
			cur.Append(&Node{Kind: KindDirective, Text: string(t)})
		}
	}

	if cur != root {
		return nil, fmt.Errorf("unclosed element <%s>", cur.Name)
	}
	return root, nil
}

// Bytes serialises the tree rooted at n.
func (n *Node) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := n.encode(enc); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(enc *xml.Encoder) error {
	switch n.Kind {
	case KindDocument:
		for _, c := range n.Children {
			if err := c.encode(enc); err != nil {
				return err
			}
		}
		return nil
	case KindElement:
		start := xml.StartElement{Name: xml.Name{Local: n.Name}}
		for _, a := range n.Attrs {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
		}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := c.encode(enc); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	case KindText:
		return enc.EncodeToken(xml.CharData(n.Text))
	case KindComment:
		return enc.EncodeToken(xml.Comment(n.Text))
	case KindProcInst:
		return enc.EncodeToken(xml.ProcInst{Target: n.Name, Inst: []byte(n.Text)})
	case KindDirective:
		return enc.EncodeToken(xml.Directive(n.Text))
	}
	return fmt.Errorf("unknown node kind %d", n.Kind)
}

// Append adds c as the last child of n.
func (n *Node) Append(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// Insert adds c at position i among the children of n.
func (n *Node) Insert(i int, c *Node) {
	c.Parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// Remove detaches c from n. It returns the index c had, or -1.
func (n *Node) Remove(c *Node) int {
	for i, child := range n.Children {
		if child == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			c.Parent = nil
			return i
		}
	}
	return -1
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Child returns the first child element with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == KindElement && c.Name == name {
			return c
		}
	}
	return nil
}

// Elements yields the direct child elements of n.
func (n *Node) Elements() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, c := range n.Children {
			if c.Kind == KindElement && !yield(c) {
				return
			}
		}
	}
}

// Find yields, depth-first in document order, every descendant element named
// name. The subtree of a match is not searched.
func (n *Node) Find(name string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.find(name, yield)
	}
}

func (n *Node) find(name string, yield func(*Node) bool) bool {
	for _, c := range n.Children {
		if c.Kind != KindElement {
			continue
		}
		if c.Name == name {
			if !yield(c) {
				return false
			}
			continue
		}
		if !c.find(name, yield) {
			return false
		}
	}
	return true
}

// InnerText concatenates every descendant text node.
func (n *Node) InnerText() string {
	if n.Kind == KindText {
		return n.Text
	}
	var buf bytes.Buffer
	for _, c := range n.Children {
		buf.WriteString(c.InnerText())
	}
	return buf.String()
}

func rawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
