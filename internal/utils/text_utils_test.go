package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "unlimited", tp.TruncateText("unlimited", 0))

	out := tp.TruncateText("0123456789", 4)
	assert.Equal(t, "0123"+truncationMarker, out)
}

func TestTruncateTextKeepsRuneBoundary(t *testing.T) {
	tp := NewTextProcessor(nil)

	// "é" is two bytes; cutting at 2 would split it
	out := tp.TruncateText("aébc", 2)

	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "a\n"))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "héllo", tp.SanitizeUTF8("héllo"))
	assert.Equal(t, "hello", tp.SanitizeUTF8("hel\xfflo"))
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.ProcessText("ab\xffcdef", 4)
	assert.Equal(t, "abcd"+truncationMarker, out)
}
