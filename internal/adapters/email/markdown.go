package email

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// RenderHTML converts a markdown reminder body into a standalone HTML email.
// Raw HTML in the source is omitted by the renderer.
// POST: Returns a complete <html> document titled with subject
func RenderHTML(subject, markdown string) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("render reminder markdown: %w", err)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family:Arial,sans-serif;line-height:1.5;color:#222">
%s</body></html>
`, html.EscapeString(subject), body.String()), nil
}
