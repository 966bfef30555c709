package classify

import (
	"strings"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// Tier binds a priority level to the keywords that trigger it.
type Tier struct {
	Level    domain.PriorityLevel
	Keywords []string
}

// Classifier assigns a priority to complaint text by scanning keyword
// tiers from most to least severe. It is pure and deliberately
// independent of the extraction oracle so priority determination stays
// auditable without trusting the model.
type Classifier struct {
	tiers []Tier
}

// New builds a classifier over the given ordered tiers. Keywords are
// normalized to lowercase.
func New(tiers []Tier) *Classifier {
	normalized := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		keywords := make([]string, 0, len(t.Keywords))
		for _, kw := range t.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		normalized = append(normalized, Tier{Level: t.Level, Keywords: keywords})
	}
	return &Classifier{tiers: normalized}
}

// Default returns the classifier with the built-in trigger table. The
// urgent tier is reserved for life-threatening conditions; a citizen
// merely writing "urgent" lands in the high tier.
func Default() *Classifier {
	return New([]Tier{
		{Level: domain.PriorityUrgent, Keywords: []string{
			"emergency", "fire", "flooding", "flood", "collapse", "electrocution", "life threatening",
		}},
		{Level: domain.PriorityHigh, Keywords: []string{
			"urgent", "dangerous", "hazard", "safety", "crime", "accident", "injured",
		}},
		{Level: domain.PriorityMedium, Keywords: []string{
			"broken", "not working", "issue", "problem", "complaint", "damaged",
		}},
		{Level: domain.PriorityLow, Keywords: []string{
			"request", "suggestion", "feedback", "improvement",
		}},
	})
}

// Classify scans the tiers in order and returns the level of the first
// tier with any case-insensitive substring match; no match is medium.
func (c *Classifier) Classify(text string) domain.PriorityLevel {
	lower := strings.ToLower(text)
	for _, t := range c.tiers {
		for _, kw := range t.Keywords {
			if strings.Contains(lower, kw) {
				return t.Level
			}
		}
	}
	return domain.PriorityMedium
}
