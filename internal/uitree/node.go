// Package uitree models the accessibility node snapshot shipped with each
// accessibility event. Nodes are read-only once decoded.
package uitree

import (
	"encoding/json"
	"errors"
)

// ErrRecycled is returned by every read on a node the OS reclaimed while
// the tree was being walked.
var ErrRecycled = errors.New("accessibility node has been recycled")

type Node struct {
	text               string
	contentDescription string
	className          string
	children           []*Node
	parent             *Node
	recycled           bool
}

type wireNode struct {
	Text               string  `json:"text,omitempty"`
	ContentDescription string  `json:"content_description,omitempty"`
	ClassName          string  `json:"class_name,omitempty"`
	Children           []*Node `json:"children,omitempty"`
	Recycled           bool    `json:"recycled,omitempty"`
}

// NewNode returns a detached node of the given class.
func NewNode(className string) *Node {
	return &Node{className: className}
}

func (n *Node) WithText(text string) *Node {
	n.text = text
	return n
}

func (n *Node) WithContentDescription(desc string) *Node {
	n.contentDescription = desc
	return n
}

// Append attaches children in order and sets their parent link.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// Recycle marks the node as reclaimed.
func (n *Node) Recycle() *Node {
	n.recycled = true
	return n
}

func (n *Node) Text() (string, error) {
	if n.recycled {
		return "", ErrRecycled
	}
	return n.text, nil
}

func (n *Node) ContentDescription() (string, error) {
	if n.recycled {
		return "", ErrRecycled
	}
	return n.contentDescription, nil
}

func (n *Node) ClassName() (string, error) {
	if n.recycled {
		return "", ErrRecycled
	}
	return n.className, nil
}

func (n *Node) Children() ([]*Node, error) {
	if n.recycled {
		return nil, ErrRecycled
	}
	return n.children, nil
}

// Parent returns nil for the root.
func (n *Node) Parent() (*Node, error) {
	if n.recycled {
		return nil, ErrRecycled
	}
	return n.parent, nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireNode{
		Text:               n.text,
		ContentDescription: n.contentDescription,
		ClassName:          n.className,
		Children:           n.children,
		Recycled:           n.recycled,
	})
}

// UnmarshalJSON decodes a node and its subtree and relinks parents.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = Node{
		text:               w.Text,
		contentDescription: w.ContentDescription,
		className:          w.ClassName,
		recycled:           w.Recycled,
	}
	n.Append(w.Children...)
	return nil
}

// FromMap decodes a node from a generic JSON object, as found inside a
// MessageEnvelope payload.
func FromMap(raw interface{}) (*Node, error) {
	if raw == nil {
		return nil, errors.New("node is missing")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
