package bus

import (
	"fmt"
	"strings"
	"time"

	"github.com/beehive-swarm/beehive/internal/beename"
)

// WireMessage holds the fields FormatWireBlock renders into the payload a
// bee's interactive session sees. Its shape is fixed by spec.md §6: the LLMs
// have been prompted against this exact markup.
type WireMessage struct {
	From      beename.Name
	Type      string
	Subject   string
	TaskID    string
	Content   string
	MessageID int64
}

// FormatWireBlock composes the structured Markdown block delivered by the
// Injector, grounded in the teacher's FormatEscalation fixed-prefix idiom
// (pkg/protocol/types.go) generalized to a multi-line fenced block.
func FormatWireBlock(m WireMessage) string {
	subject := m.Subject
	if subject == "" {
		subject = "(none)"
	}
	taskRef := m.TaskID
	if taskRef == "" {
		taskRef = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## 📨 MESSAGE FROM %s\n\n", strings.ToUpper(string(m.From)))
	fmt.Fprintf(&b, "**Type:** %s\n", m.Type)
	fmt.Fprintf(&b, "**Subject:** %s\n", subject)
	fmt.Fprintf(&b, "**Task ID:** %s\n", taskRef)
	fmt.Fprintf(&b, "**Timestamp:** %s\n\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString("**Content:**\n")
	b.WriteString(m.Content)
	b.WriteString("\n\n---\n")
	return b.String()
}
