package routing

import (
	"math"

	"github.com/spec-kit/grievance-service/internal/classify"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/registry"
)

// Engine turns complaint text plus an extraction result into the final
// routing decision. It is pure over its inputs and the registry
// snapshot: no I/O, no failure paths, every outcome explainable from
// the keyword tables.
type Engine struct {
	registry     *registry.Registry
	classifier   *classify.Classifier
	urgentFactor float64
	urgentFloor  int
}

// NewEngine builds the engine with the configured urgency policy.
func NewEngine(cfg config.RoutingConfig, reg *registry.Registry, classifier *classify.Classifier) *Engine {
	return &Engine{
		registry:     reg,
		classifier:   classifier,
		urgentFactor: cfg.UrgentSLAFactor,
		urgentFloor:  cfg.UrgentSLAFloorHours,
	}
}

// Route applies the decision sequence: keyword priority acts as a floor
// under the oracle's priority (the rule layer may raise, never lower),
// the department comes from the oracle's name hint or keyword matching,
// and urgent complaints get their SLA reduced by the configured factor
// down to the configured floor.
func (e *Engine) Route(text string, extraction domain.ExtractionResult) domain.RoutingDecision {
	priority := extraction.Priority
	if keywordPriority := e.classifier.Classify(text); keywordPriority.Rank() > priority.Rank() {
		priority = keywordPriority
	}

	dept, ok := e.registry.ResolveNameHint(extraction.ResponsibleDepartment)
	if !ok {
		dept = e.registry.MatchByKeywords(text)
	}

	sla := dept.SLAHours
	if priority == domain.PriorityUrgent {
		reduced := int(math.Round(float64(sla) * e.urgentFactor))
		if reduced < e.urgentFloor {
			reduced = e.urgentFloor
		}
		sla = reduced
	}

	return domain.RoutingDecision{
		Department: dept,
		Priority:   priority,
		SLAHours:   sla,
	}
}
