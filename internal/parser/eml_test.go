package parser

import (
	"strings"
	"testing"

	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseEML_SimpleEmail tests parsing a basic plain text email
func TestParseEML_SimpleEmail(t *testing.T) {
	node, err := ParseEMLFile("testdata/simple.eml")

	require.NoError(t, err, "Should parse simple email without error")
	assert.Equal(t, "text/plain", mimetree.Structure(node))
	assert.Equal(t, "Simple Test Email", mimetree.Subject(node))

	body, ok := mimetree.Body(node)
	require.True(t, ok)
	assert.Equal(t, "This is a simple test email.\r\nIt has two lines.\r\n", body)
}

// TestParseEML_HTMLEmail tests that the plain alternative wins over HTML
func TestParseEML_HTMLEmail(t *testing.T) {
	node, err := ParseEMLFile("testdata/html-email.eml")

	require.NoError(t, err, "Should parse HTML email without error")
	assert.Equal(t, "multipart(text/plain, text/html)", mimetree.Structure(node))

	body, ok := mimetree.Body(node)
	require.True(t, ok)
	assert.Equal(t, "This is the plain text version.", body)
}

// TestParseEML_HTMLOnly tests quoted-printable HTML bodies and encoded subjects
func TestParseEML_HTMLOnly(t *testing.T) {
	node, err := ParseEMLFile("testdata/html-only.eml")

	require.NoError(t, err)
	assert.Equal(t, "text/html", mimetree.Structure(node))
	assert.Equal(t, "Große Angebote", mimetree.Subject(node))

	body, ok := mimetree.Body(node)
	require.True(t, ok)
	assert.Contains(t, body, "Limited offer & free shipping")
	assert.Contains(t, body, "Click now")
	assert.NotContains(t, body, "track()")
	assert.NotContains(t, body, "color")
	assert.NotContains(t, body, "\n\n")
}

// TestParseEML_WithAttachment tests nested multiparts, attachments and attached messages
func TestParseEML_WithAttachment(t *testing.T) {
	node, err := ParseEMLFile("testdata/with-attachment.eml")

	require.NoError(t, err, "Should parse email with attachment without error")
	assert.Equal(t,
		"multipart(multipart(text/plain, text/html), application/pdf, multipart(text/plain))",
		mimetree.Structure(node))

	body, ok := mimetree.Body(node)
	require.True(t, ok)
	assert.Equal(t, "This email has an attachment.", body, "base64 text part should be decoded")

	root, ok := node.(*mimetree.Multipart)
	require.True(t, ok)
	require.Len(t, root.Parts, 3)

	attached, ok := root.Parts[2].(*mimetree.Multipart)
	require.True(t, ok)
	assert.Equal(t, "message/rfc822", attached.ContentType)
	assert.Equal(t, "Forwarded", mimetree.Subject(attached.Parts[0]))
}

// TestParseEML_Windows1252Charset tests parsing emails with windows-1252 charset
func TestParseEML_Windows1252Charset(t *testing.T) {
	node, err := ParseEMLFile("testdata/windows-1252.eml")

	require.NoError(t, err, "Should parse windows-1252 email without error")

	body, ok := mimetree.Body(node)
	require.True(t, ok)
	assert.Contains(t, body, "café naïve")
}

// TestParseEML_MalformedBase64 tests that undecodable parts fall back to the raw payload
func TestParseEML_MalformedBase64(t *testing.T) {
	node, err := ParseEMLFile("testdata/malformed-base64.eml")

	require.NoError(t, err)

	body, ok := mimetree.Body(node)
	require.True(t, ok)
	assert.Equal(t, "!!this is not base64 at all!!\n", body)
}

// TestParseEML_NoTextPart tests a message without any eligible body
func TestParseEML_NoTextPart(t *testing.T) {
	node, err := ParseEMLFile("testdata/no-text.eml")

	require.NoError(t, err)
	assert.Equal(t, "multipart(image/gif)", mimetree.Structure(node))

	_, ok := mimetree.Body(node)
	assert.False(t, ok)
}

// TestParseEML_MissingBoundary tests that a multipart without boundary stays a leaf
func TestParseEML_MissingBoundary(t *testing.T) {
	node, err := ParseEMLFile("testdata/missing-boundary.eml")

	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mimetree.Structure(node))

	_, ok := mimetree.Body(node)
	assert.False(t, ok)
}

// TestParseEML_BoundaryNeverAppears tests that a multipart without any part stays a leaf
func TestParseEML_BoundaryNeverAppears(t *testing.T) {
	raw := strings.Join([]string{
		"From: sender@example.com",
		"Content-Type: multipart/mixed; boundary=never-used",
		"",
		"Buy cheap pills",
		"",
	}, "\r\n")

	node, err := ParseEML(strings.NewReader(raw))
	require.NoError(t, err)

	leaf, ok := node.(*mimetree.Leaf)
	require.True(t, ok, "A multipart with no parts should not become an empty internal node")
	assert.Equal(t, "multipart/mixed", mimetree.Structure(node))
	assert.Contains(t, string(leaf.Raw), "Buy cheap pills")

	_, ok = mimetree.Body(node)
	assert.False(t, ok)
}

// TestParseEML_DefaultContentType tests messages without or with a broken Content-Type
func TestParseEML_DefaultContentType(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{
			name:   "Missing header",
			header: "",
		},
		{
			name:   "Unparseable header",
			header: "Content-Type: ;;;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "From: sender@example.com\nSubject: Default type\n" + tt.header + "\nBody here\n"

			node, err := ParseEML(strings.NewReader(raw))
			require.NoError(t, err)
			assert.Equal(t, "text/plain", mimetree.Structure(node))

			body, ok := mimetree.Body(node)
			require.True(t, ok)
			assert.Equal(t, "Body here\n", body)
		})
	}
}

// TestParseEML_TruncatedMultipart tests that parts read before a broken boundary are kept
func TestParseEML_TruncatedMultipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: sender@example.com",
		"Content-Type: multipart/mixed; boundary=zzz",
		"",
		"--zzz",
		"Content-Type: text/plain",
		"",
		"first part",
		"--zzz",
		"Content-Type: text/html",
		"",
		"<p>never closed",
	}, "\r\n")

	node, err := ParseEML(strings.NewReader(raw))
	require.NoError(t, err)

	body, ok := mimetree.Body(node)
	require.True(t, ok)
	assert.Equal(t, "first part", body)
}

// TestParseEML_InvalidFile tests error handling for non-existent files
func TestParseEML_InvalidFile(t *testing.T) {
	_, err := ParseEMLFile("testdata/does-not-exist.eml")

	assert.Error(t, err, "Should return error for non-existent file")
	assert.Contains(t, err.Error(), "failed to open file")
}
