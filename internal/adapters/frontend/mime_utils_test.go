package frontend

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestExtractTextPlain(t *testing.T) {
	msg := readMessage(t, "From: a@example.com\r\nSubject: hi\r\n\r\nPlain body\r\n")

	text, err := extractTextFromMessage(msg)

	require.NoError(t, err)
	assert.Equal(t, "Plain body\r\n", text)
}

func TestExtractTextNestedMultipart(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: multipart/mixed; boundary=outer\r\n" +
		"\r\n" +
		"--outer\r\n" +
		"Content-Type: multipart/alternative; boundary=inner\r\n" +
		"\r\n" +
		"--inner\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"Caf=C3=A9 at noon?\r\n" +
		"--inner\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>Caf&eacute; at noon?</p>\r\n" +
		"--inner--\r\n" +
		"--outer\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Disposition: attachment; filename=notes.txt\r\n" +
		"\r\n" +
		"attached notes\r\n" +
		"--outer--\r\n"

	text, err := extractTextFromMessage(readMessage(t, raw))

	require.NoError(t, err)
	assert.Equal(t, "Café at noon?", text)
}

func TestExtractTextBase64Latin1(t *testing.T) {
	// "Olá" in ISO-8859-1 is 4f 6c e1, base64 "T2zh"
	raw := "Content-Type: multipart/mixed; boundary=b\r\n" +
		"\r\n" +
		"--b\r\n" +
		"Content-Type: text/plain; charset=iso-8859-1\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"T2zh\r\n" +
		"--b--\r\n"

	text, err := extractTextFromMessage(readMessage(t, raw))

	require.NoError(t, err)
	assert.Equal(t, "Olá", text)
}

func TestDecodeHeader(t *testing.T) {
	assert.Equal(t, "Réunion", decodeHeader("=?UTF-8?Q?R=C3=A9union?="))
	assert.Equal(t, "Olá", decodeHeader("=?ISO-8859-1?Q?Ol=E1?="))
	assert.Equal(t, "plain", decodeHeader("plain"))
}

func TestParseEmailInput(t *testing.T) {
	text, err := parseEmailInput([]byte("Can we reschedule?"))
	require.NoError(t, err)
	assert.Equal(t, "Can we reschedule?", text)

	text, err = parseEmailInput([]byte("Note: bring snacks\n\nSee you there"))
	require.NoError(t, err)
	assert.Equal(t, "Note: bring snacks\n\nSee you there", text)

	raw := "From: Ana <ana@example.com>\r\nSubject: =?UTF-8?Q?R=C3=A9union?=\r\n\r\nCan we move it?\r\n"
	text, err = parseEmailInput([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "From: Ana <ana@example.com>\nSubject: Réunion\n\nCan we move it?", text)
}

func TestMessageContentWithoutText(t *testing.T) {
	raw := "From: a@example.com\r\nContent-Type: multipart/mixed; boundary=b\r\n\r\n" +
		"--b\r\nContent-Type: image/png\r\n\r\nPNG\r\n--b--\r\n"

	text, err := messageContent(readMessage(t, raw))

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestMessageContentSubjectOnly(t *testing.T) {
	raw := "From: Ana <ana@example.com>\r\n" +
		"To: bob@example.org\r\n" +
		"Subject: Can we reschedule Thursday's sync?\r\n" +
		"\r\n"

	text, err := messageContent(readMessage(t, raw))

	require.NoError(t, err)
	assert.Equal(t, "From: Ana <ana@example.com>\nSubject: Can we reschedule Thursday's sync?", text)
}

func TestExtractTextHTMLOnlyMultipart(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: multipart/alternative; boundary=b\r\n" +
		"\r\n" +
		"--b\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><head><title>Invite</title><style>p { color: red; }</style></head>" +
		"<body><p>Hi <b>Ana</b>,</p><p>Can we meet&nbsp;Friday?</p>" +
		"<script>track()</script></body></html>\r\n" +
		"--b--\r\n"

	text, err := extractTextFromMessage(readMessage(t, raw))

	require.NoError(t, err)
	assert.Equal(t, "Hi Ana,\n\nCan we meet Friday?", text)
}

func TestExtractTextSinglePartHTML(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<div>Lunch&amp;learn at <i>noon</i>?</div><br>Thanks\r\n"

	text, err := extractTextFromMessage(readMessage(t, raw))

	require.NoError(t, err)
	assert.Equal(t, "Lunch&learn at noon?\n\nThanks", text)
	assert.NotContains(t, text, "<")
}
