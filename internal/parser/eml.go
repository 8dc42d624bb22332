// Package parser reads RFC 5322 messages into MIME trees.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/textproto"

	"github.com/felo/eml-vectorizer/internal/mimetree"
)

// defaultContentType applies when a part has no usable Content-Type
const defaultContentType = "text/plain"

// ParseEMLFile parses an .eml file into a MIME tree
func ParseEMLFile(filePath string) (mimetree.Node, error) {
	// Open the file
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Parse the email
	return ParseEML(f)
}

// ParseEML parses an email from a reader. Only an unreadable top-level header
// is an error; damaged parts below it are kept as far as they can be read.
func ParseEML(r io.Reader) (mimetree.Node, error) {
	br := bufio.NewReader(r)

	header, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	return readNode(message.Header{Header: header}, br), nil
}

// ParseEMLBytes parses an email held in memory
func ParseEMLBytes(raw []byte) (mimetree.Node, error) {
	return ParseEML(bytes.NewReader(raw))
}

// readNode builds the node for one entity whose header has been consumed
func readNode(header message.Header, body io.Reader) mimetree.Node {
	contentType, params := mediaType(header)

	if strings.HasPrefix(contentType, "multipart/") {
		if boundary := params["boundary"]; boundary != "" {
			return readMultipart(contentType, header, body, boundary)
		}
		slog.Warn("multipart part missing boundary, keeping it as a leaf",
			"content_type", contentType,
		)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		slog.Warn("failed to read part body, keeping what was read",
			"content_type", contentType,
			"error", err,
		)
	}

	if contentType == "message/rfc822" {
		if inner, err := ParseEMLBytes(raw); err == nil {
			return &mimetree.Multipart{
				ContentType: contentType,
				Header:      header,
				Parts:       []mimetree.Node{inner},
			}
		}
	}

	return &mimetree.Leaf{
		ContentType: contentType,
		Header:      header,
		Raw:         raw,
	}
}

// readMultipart reads the parts of a multipart entity. An entity whose
// boundary never opens a part is kept as a leaf holding its raw payload.
func readMultipart(contentType string, header message.Header, body io.Reader, boundary string) mimetree.Node {
	raw, err := io.ReadAll(body)
	if err != nil {
		slog.Warn("failed to read multipart body, keeping what was read",
			"content_type", contentType,
			"error", err,
		)
	}

	node := &mimetree.Multipart{
		ContentType: contentType,
		Header:      header,
	}

	mr := textproto.NewMultipartReader(bytes.NewReader(raw), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("failed to read next part, truncating multipart",
				"content_type", contentType,
				"parts", len(node.Parts),
				"error", err,
			)
			break
		}

		node.Parts = append(node.Parts, readNode(message.Header{Header: part.Header}, part))
	}

	if len(node.Parts) == 0 {
		slog.Warn("multipart has no parts, keeping it as a leaf",
			"content_type", contentType,
			"boundary", boundary,
		)
		return &mimetree.Leaf{
			ContentType: contentType,
			Header:      header,
			Raw:         raw,
		}
	}

	return node
}

// mediaType returns the lowercase media type of an entity, text/plain when
// the header is missing or unparseable.
func mediaType(header message.Header) (string, map[string]string) {
	if header.Get("Content-Type") == "" {
		return defaultContentType, nil
	}

	contentType, params, err := header.ContentType()
	if err != nil {
		slog.Debug("failed to parse content type, treating as plain text",
			"content_type", header.Get("Content-Type"),
			"error", err,
		)
		return defaultContentType, nil
	}
	return contentType, params
}
