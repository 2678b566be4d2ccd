package mailer

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	letterRenderer = goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		goldmark.WithRendererOptions(goldhtml.WithHardWraps()),
	)
	letterSanitizer = bluemonday.UGCPolicy()
)

// LetterToHTML renders a generated letter as an email body. Raw markup in the
// letter is escaped, markdown emphasis and lists are kept, single line breaks
// become <br>.
func LetterToHTML(letter string) string {
	letter = strings.TrimSpace(strings.ReplaceAll(letter, "\r\n", "\n"))
	if letter == "" {
		return ""
	}

	escaped := html.EscapeString(letter)

	var buf bytes.Buffer
	if err := letterRenderer.Convert([]byte(escaped), &buf); err != nil {
		return strings.ReplaceAll(escaped, "\n", "<br>")
	}

	return strings.TrimSpace(letterSanitizer.Sanitize(buf.String()))
}
