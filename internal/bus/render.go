package bus

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// RenderMarkdown converts a wire-format payload (or any Markdown text) to
// HTML for the beekeeper-facing "task details --pretty" path.
// The literal payload delivered to a bee's pane is never passed through
// this; bees parse the raw fenced block directly.
func RenderMarkdown(payload string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(payload), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
