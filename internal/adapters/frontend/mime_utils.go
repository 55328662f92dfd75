package frontend

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"
)

const maxMultipartDepth = 8

var headerDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// parseEmailInput returns the text a reply should be written to. Input that
// parses as an RFC 5322 message is reduced to its sender, subject and plain
// text body; anything else is used as is.
func parseEmailInput(raw []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil || !looksLikeMessage(msg.Header) {
		return string(raw), nil
	}
	return messageContent(msg)
}

func looksLikeMessage(header mail.Header) bool {
	for _, key := range []string{"From", "Subject", "Content-Type", "Message-Id", "Date"} {
		if header.Get(key) != "" {
			return true
		}
	}
	return false
}

// messageContent renders the parts of a message the model needs to answer it.
// A message with neither a text body nor a subject yields an empty string.
func messageContent(msg *mail.Message) (string, error) {
	body, err := extractTextFromMessage(msg)
	if err != nil {
		return "", err
	}
	body = strings.TrimSpace(body)
	if body == "" && strings.TrimSpace(msg.Header.Get("Subject")) == "" {
		return "", nil
	}

	var sb strings.Builder
	for _, key := range []string{"From", "Subject"} {
		if value := msg.Header.Get(key); value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", key, decodeHeader(value))
		}
	}
	if body == "" {
		return strings.TrimRight(sb.String(), "\n"), nil
	}
	sb.WriteString("\n")
	sb.WriteString(body)
	return sb.String(), nil
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages the text/plain parts are concatenated, including
// those of nested multiparts. HTML parts are only used when a multipart has
// no plain text.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	return extractText(
		msg.Header.Get("Content-Type"),
		msg.Header.Get("Content-Transfer-Encoding"),
		msg.Body,
		0,
	)
}

func extractText(contentType, transferEncoding string, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Missing or unparseable Content-Type is treated as plain text
		mediaType, params = "text/plain", nil
	}

	body = decodeTransferEncoding(body, transferEncoding)

	if !strings.HasPrefix(mediaType, "multipart/") {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("failed to read message body: %w", err)
		}
		text := decodeCharset(data, params["charset"])
		if mediaType == "text/html" {
			return htmlToText(text), nil
		}
		return text, nil
	}

	boundary := params["boundary"]
	if boundary == "" || depth >= maxMultipartDepth {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("failed to read message body: %w", err)
		}
		return string(data), nil
	}

	mr := multipart.NewReader(body, boundary)
	var texts, htmlTexts []string
	for {
		// NextRawPart leaves the transfer encoding to decodeTransferEncoding
		part, err := mr.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever text was read before the damage
			if len(texts) > 0 {
				break
			}
			return "", fmt.Errorf("failed to read multipart message: %w", err)
		}

		if isAttachment(part.Header.Get("Content-Disposition")) {
			continue
		}

		partType := part.Header.Get("Content-Type")
		partMedia, _, err := mime.ParseMediaType(partType)
		if partType == "" || err != nil {
			partMedia = "text/plain"
		}
		isHTML := partMedia == "text/html"
		if partMedia != "text/plain" && !isHTML && !strings.HasPrefix(partMedia, "multipart/") {
			continue
		}

		text, err := extractText(partType, part.Header.Get("Content-Transfer-Encoding"), part, depth+1)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		if isHTML {
			htmlTexts = append(htmlTexts, text)
		} else {
			texts = append(texts, strings.TrimRight(text, "\r\n"))
		}
	}

	if len(texts) == 0 {
		texts = htmlTexts
	}
	return strings.Join(texts, "\n"), nil
}

// htmlToText reduces an HTML body to its visible text, one block per line
func htmlToText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var sb strings.Builder
	hidden := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidyLines(sb.String())
		case html.TextToken:
			if hidden == 0 {
				sb.WriteString(collapseSpace(string(z.Text())))
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch tag := string(name); tag {
			case "script", "style", "title":
				if tt == html.StartTagToken {
					hidden++
				} else if tt == html.EndTagToken && hidden > 0 {
					hidden--
				}
			case "br", "p", "div", "li", "tr", "table", "blockquote",
				"h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteString("\n")
			}
		}
	}
}

// collapseSpace folds runs of whitespace into one space, keeping a single
// space at either end when the input had one.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	first := []rune(s)
	if unicode.IsSpace(first[0]) {
		out = " " + out
	}
	if unicode.IsSpace(first[len(first)-1]) {
		out += " "
	}
	return out
}

// tidyLines trims every line and keeps at most one blank line in a row
func tidyLines(s string) string {
	var lines []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(lines) > 0 {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		lines = append(lines, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isAttachment(disposition string) bool {
	d, _, err := mime.ParseMediaType(disposition)
	return err == nil && d == "attachment"
}

func decodeTransferEncoding(body io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	default:
		return body
	}
}

// decodeCharset converts data to UTF-8. Unknown charsets are passed through.
func decodeCharset(data []byte, charset string) string {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8", "us-ascii":
		return string(data)
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(data)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the value unchanged on failure
func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
