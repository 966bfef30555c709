package notify

import (
	"fmt"
	"strings"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// Telegram messages use HTML parse mode. Text is kept non-technical:
// citizens see reference ids, departments and plain-language status
// lines, never internal field names.

const timestampLayout = "02 Jan 2006, 03:04 PM"

var priorityEmoji = map[domain.PriorityLevel]string{
	domain.PriorityLow:    "🟢",
	domain.PriorityMedium: "🟡",
	domain.PriorityHigh:   "🔴",
	domain.PriorityUrgent: "🚨",
}

var statusEmoji = map[domain.ComplaintStatus]string{
	domain.ComplaintStatusPending:      "📝",
	domain.ComplaintStatusAcknowledged: "👤",
	domain.ComplaintStatusInProgress:   "🔄",
	domain.ComplaintStatusResolved:     "✅",
	domain.ComplaintStatusClosed:       "📁",
}

var statusDescription = map[domain.ComplaintStatus]string{
	domain.ComplaintStatusPending:      "Your complaint has been received and is awaiting review.",
	domain.ComplaintStatusAcknowledged: "Your complaint has been acknowledged by the concerned department.",
	domain.ComplaintStatusInProgress:   "The department is actively working on your complaint.",
	domain.ComplaintStatusResolved:     "Your complaint has been resolved!",
	domain.ComplaintStatusClosed:       "This complaint has been closed.",
}

// FormatRegistration builds the confirmation sent right after a
// complaint is registered.
func FormatRegistration(complaint *domain.Complaint, departmentName string) string {
	emoji, ok := priorityEmoji[complaint.Priority]
	if !ok {
		emoji = priorityEmoji[domain.PriorityMedium]
	}

	var b strings.Builder
	b.WriteString("✅ <b>Complaint Registered Successfully!</b>\n\n")
	fmt.Fprintf(&b, "📋 <b>Issue:</b> %s\n", displayIssue(complaint.IssueType))
	fmt.Fprintf(&b, "📍 <b>Location:</b> %s\n", displayLocation(complaint.Location))
	fmt.Fprintf(&b, "🏢 <b>Department:</b> %s\n", departmentName)
	fmt.Fprintf(&b, "%s <b>Priority:</b> %s\n\n", emoji, titleCase(string(complaint.Priority)))
	fmt.Fprintf(&b, "🆔 <b>Reference ID:</b> <code>%s</code>\n", complaint.ID)
	fmt.Fprintf(&b, "⏱️ <b>Expected Resolution:</b> %d hours\n\n", complaint.SLAHours)
	b.WriteString("Save your Reference ID to check status anytime!\n")
	fmt.Fprintf(&b, "Type /status %s to track progress.\n\n", complaint.ID)
	b.WriteString("Thank you for helping improve Delhi! 🙏")
	return b.String()
}

// FormatStatus builds the reply to a /status lookup.
func FormatStatus(complaint *domain.Complaint, departmentName string) string {
	emoji, ok := statusEmoji[complaint.Status]
	if !ok {
		emoji = "📋"
	}
	description, ok := statusDescription[complaint.Status]
	if !ok {
		description = "Status unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>Complaint Status</b>\n\n", emoji)
	fmt.Fprintf(&b, "🆔 <b>Reference:</b> <code>%s</code>\n", complaint.ID)
	fmt.Fprintf(&b, "📋 <b>Issue:</b> %s\n", displayIssue(complaint.IssueType))
	fmt.Fprintf(&b, "🏢 <b>Department:</b> %s\n", departmentName)
	fmt.Fprintf(&b, "📍 <b>Location:</b> %s\n\n", displayLocation(complaint.Location))
	fmt.Fprintf(&b, "<b>Current Status:</b> %s\n", statusTitle(complaint.Status))
	b.WriteString(description)
	fmt.Fprintf(&b, "\n\n<i>Last updated: %s</i>", complaint.UpdatedAt.Format(timestampLayout))
	return b.String()
}

// FormatStatusUpdate builds the proactive notification pushed when a
// department changes a complaint's status.
func FormatStatusUpdate(complaint *domain.Complaint, departmentName string, oldStatus, newStatus domain.ComplaintStatus, note string) string {
	var base string
	switch newStatus {
	case domain.ComplaintStatusAcknowledged:
		base = fmt.Sprintf("Your complaint has been acknowledged by the %s team. They will begin work soon.", departmentName)
	case domain.ComplaintStatusInProgress:
		base = fmt.Sprintf("Good news! Work has begun on your complaint. The %s team is on it.", departmentName)
	case domain.ComplaintStatusResolved:
		base = "🎉 Your complaint has been resolved! Thank you for your patience."
	case domain.ComplaintStatusClosed:
		base = "This complaint has been closed. If you're not satisfied, please submit a new complaint."
	default:
		base = fmt.Sprintf("Your complaint status has changed from %s to %s.", statusTitle(oldStatus), statusTitle(newStatus))
	}

	var b strings.Builder
	b.WriteString("🔔 <b>Status Update</b>\n\n")
	fmt.Fprintf(&b, "🆔 <b>Reference:</b> <code>%s</code>\n", complaint.ID)
	fmt.Fprintf(&b, "📋 <b>Issue:</b> %s\n\n", displayIssue(complaint.IssueType))
	b.WriteString(base)
	if note != "" {
		fmt.Fprintf(&b, "\n\n💬 <b>Note from department:</b>\n<i>%s</i>", note)
	}
	fmt.Fprintf(&b, "\n\n<i>Updated: %s</i>", complaint.UpdatedAt.Format(timestampLayout))
	return b.String()
}

// FormatAdminMessage wraps a free-form message from the administrative team
// in the standard citizen-facing frame.
func FormatAdminMessage(complaintID, message string) string {
	var b strings.Builder
	b.WriteString("📢 <b>Message from SevaFlow</b>\n\n")
	fmt.Fprintf(&b, "Regarding complaint <code>%s</code>:\n\n", complaintID)
	b.WriteString(strings.TrimSpace(message))
	b.WriteString("\n\n<i>- Administrative Team</i>")
	return b.String()
}

// FormatWelcome builds the /start greeting.
func FormatWelcome(name string) string {
	greeting := "🙏 <b>Welcome to SevaFlow!</b>"
	if strings.TrimSpace(name) != "" {
		greeting = fmt.Sprintf("🙏 <b>Welcome to SevaFlow, %s!</b>", name)
	}
	return greeting + strings.TrimSuffix(`
<i>Your grievance assistant for Delhi</i>

📝 <b>To submit a complaint:</b>
Just describe your issue in your own words!

Example:
<i>"The streetlight near Laxmi Nagar metro gate has been off for 3 days"</i>

🔍 <b>To check status:</b>
/status SF-0001

📜 <b>To see all your complaints:</b>
/mycomplaints

❓ <b>For help:</b>
/help

Let's make Delhi better together! 🌟
`, "\n")
}

// FormatHelp builds the /help reply.
func FormatHelp() string {
	return strings.TrimSpace(`
🙏 <b>Welcome to SevaFlow</b>
<i>Your grievance assistant for Delhi</i>

<b>How to use:</b>

📝 <b>Submit a complaint:</b>
Just type your complaint in plain language!
Example: "The streetlight near Laxmi Nagar metro gate has been off for 3 days"

🔍 <b>Check status:</b>
/status SF-0001
(Replace with your Reference ID)

📜 <b>View your complaints:</b>
/mycomplaints

❌ <b>Cancel a complaint:</b>
/cancel SF-0001

❓ <b>Get help:</b>
/help

<b>Tips for faster resolution:</b>
• Include specific location details
• Mention how long the problem has existed
• Describe the issue clearly

We're here to help make Delhi better! 🌟
`)
}

// FormatMyComplaints builds the /mycomplaints listing, newest first.
func FormatMyComplaints(complaints []domain.Complaint) string {
	if len(complaints) == 0 {
		return "📋 You haven't submitted any complaints yet.\n\nTo submit a complaint, just describe your issue in plain language!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Your Complaints</b> (%d shown)\n\n", len(complaints))
	for _, c := range complaints {
		emoji, ok := statusEmoji[c.Status]
		if !ok {
			emoji = "📋"
		}
		fmt.Fprintf(&b, "%s <code>%s</code> - %s\n", emoji, c.ID, truncate(displayIssue(c.IssueType), 30))
		fmt.Fprintf(&b, "   Status: %s\n\n", statusTitle(c.Status))
	}
	return strings.TrimSpace(b.String())
}

func displayLocation(location string) string {
	if strings.TrimSpace(location) == "" {
		return domain.LocationUnknown
	}
	return location
}

func displayIssue(issueType string) string {
	if strings.TrimSpace(issueType) == "" {
		return "General issue"
	}
	return issueType
}

func statusTitle(status domain.ComplaintStatus) string {
	return titleCase(strings.ReplaceAll(string(status), "_", " "))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
