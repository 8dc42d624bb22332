// Package mimetree models a parsed email as a tree of MIME parts and derives
// its structural signature and canonical plain-text body.
package mimetree

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/textproto"
)

// Node is a message or a message part. It is one of Text, *Leaf or *Multipart.
type Node interface {
	node()
}

// Text is a message that has already been flattened to plain text
type Text string

// Leaf is a terminal MIME part holding an undecoded payload
type Leaf struct {
	ContentType string
	Header      message.Header
	Raw         []byte // payload as it appeared on the wire (transfer-encoded)
}

// Multipart is an internal MIME node with ordered children
type Multipart struct {
	ContentType string
	Header      message.Header
	Parts       []Node
}

func (Text) node()       {}
func (*Leaf) node()      {}
func (*Multipart) node() {}

// NewLeaf creates a 7bit leaf with the given content type and body
func NewLeaf(contentType, body string) *Leaf {
	var h textproto.Header
	h.Set("Content-Type", contentType)
	return &Leaf{
		ContentType: contentType,
		Header:      message.Header{Header: h},
		Raw:         []byte(body),
	}
}

// NewMultipart creates a multipart node of the given subtype
func NewMultipart(subtype string, parts ...Node) *Multipart {
	contentType := "multipart/" + subtype
	var h textproto.Header
	h.Set("Content-Type", contentType)
	return &Multipart{
		ContentType: contentType,
		Header:      message.Header{Header: h},
		Parts:       parts,
	}
}

// Content decodes the leaf payload according to its Content-Transfer-Encoding
// and charset.
func (l *Leaf) Content() (string, error) {
	// message.New strips Content-Transfer-Encoding from the header it is given
	h := message.Header{Header: l.Header.Header.Copy()}
	entity, err := message.New(h, bytes.NewReader(l.Raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode part: %w", err)
	}

	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read part body: %w", err)
	}

	return string(body), nil
}

// Decoded returns the decoded content, or the raw payload if decoding fails
func (l *Leaf) Decoded() string {
	content, err := l.Content()
	if err != nil {
		slog.Debug("falling back to raw payload",
			"content_type", l.ContentType,
			"error", err,
		)
		return string(l.Raw)
	}
	return content
}

// Subject returns the decoded Subject header of a message node, or "" when
// the node carries no headers.
func Subject(n Node) string {
	var h message.Header
	switch n := n.(type) {
	case *Leaf:
		h = n.Header
	case *Multipart:
		h = n.Header
	default:
		return ""
	}

	subject, err := h.Text("Subject")
	if err != nil {
		// Undecodable encoded-words are kept verbatim
		return h.Get("Subject")
	}
	return subject
}
