package extract

import (
	"fmt"
	"strings"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// SystemPrompt renders the classification instruction for the model,
// enumerating the registry's department names so the response can only
// reference departments that actually exist.
func SystemPrompt(departments []domain.Department) string {
	var b strings.Builder

	b.WriteString(`You are a government grievance classifier for Delhi, India.

Your role is to analyze citizen complaints and extract structured information.
You must ALWAYS respond with valid JSON only - no explanations, no markdown.

TASK:
Given a citizen's complaint text, extract:
1. issue_type: A brief category (e.g., "Streetlight outage", "Garbage not collected", "Water supply issue")
2. location: The specific location mentioned (street, area, landmark). If unclear, use "Not specified"
3. responsible_department: One of these departments:
`)
	for _, dept := range departments {
		if len(dept.Keywords) > 0 {
			b.WriteString(fmt.Sprintf("   - %s (%s)\n", dept.Name, strings.Join(dept.Keywords[:min(3, len(dept.Keywords))], ", ")))
		} else {
			b.WriteString(fmt.Sprintf("   - %s (anything else)\n", dept.Name))
		}
	}
	b.WriteString(`4. priority: "low", "medium", "high", or "urgent" based on:
   - URGENT: Life-threatening emergencies, fires, floods, collapses
   - HIGH: Safety hazards, crimes, dangerous conditions
   - MEDIUM: Service disruptions, broken infrastructure
   - LOW: Suggestions, minor inconveniences, requests
5. confidence: Your confidence in this classification (0.0 to 1.0)
6. summary: A one-line summary of the complaint in formal language

RESPONSE FORMAT (JSON only):
{
  "issue_type": "string",
  "location": "string",
  "responsible_department": "string",
  "priority": "low|medium|high|urgent",
  "confidence": 0.0-1.0,
  "summary": "string"
}

Be concise. Be accurate. Output ONLY valid JSON.`)

	return b.String()
}
