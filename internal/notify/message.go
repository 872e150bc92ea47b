package notify

import (
	"fmt"
	"strings"

	"cyberguard/pkg/models"
)

// Message is one rendered alert notification.
type Message struct {
	Subject   string
	Body      string
	Recipient string
}

// Build renders the notification for a committed threat.
func Build(t *models.Threat, recipient string) *Message {
	var b strings.Builder
	b.WriteString("Warning: a security threat has been detected.\n\n")
	b.WriteString("--------------------------------------------------\n")
	fmt.Fprintf(&b, "Threat Type: %s\n", t.Category)
	fmt.Fprintf(&b, "Severity: %s\n", t.Severity)
	fmt.Fprintf(&b, "Risk Score: %d/100\n", t.Score)
	fmt.Fprintf(&b, "Timestamp: %s\n", t.OccurredAt.Format("2006-01-02 15:04:05"))
	b.WriteString("--------------------------------------------------\n\n")
	fmt.Fprintf(&b, "Description:\n%s\n\n", t.Description)

	if len(t.Recommendations) > 0 {
		b.WriteString("Recommended Actions:\n")
		for _, action := range t.Recommendations {
			fmt.Fprintf(&b, "- %s\n", action)
		}
		b.WriteString("\n")
	}
	if t.Mitigation != nil && len(t.Mitigation.Actions) > 0 {
		fmt.Fprintf(&b, "Automated Responses (%s):\n", t.Mitigation.Status)
		for _, action := range t.Mitigation.Actions {
			fmt.Fprintf(&b, "- %s\n", action)
		}
		b.WriteString("\n")
	}

	b.WriteString("Please investigate immediately.\n\n- CyberGuard\n")

	return &Message{
		Subject:   fmt.Sprintf("SECURITY ALERT: %s threat detected", t.Severity),
		Body:      b.String(),
		Recipient: recipient,
	}
}
