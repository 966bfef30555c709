package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/registry"
)

// Oracle wraps the language model behind the extraction contract: one
// call, one retry, bounded by a timeout, and any failure collapses into
// the degraded result. Callers never see an error from Extract, so a
// dead model can never fail a citizen-facing flow.
type Oracle struct {
	provider    Provider
	registry    *registry.Registry
	prompt      string
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewOracle builds the oracle. A nil provider runs it permanently
// degraded, which keeps intake alive with keyword routing only.
func NewOracle(cfg config.OracleConfig, reg *registry.Registry, provider Provider, logger *zap.Logger, metrics *observability.Metrics) *Oracle {
	return &Oracle{
		provider:    provider,
		registry:    reg,
		prompt:      SystemPrompt(reg.All()),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout(),
		logger:      logger,
		metrics:     metrics,
	}
}

// Extract classifies complaint text. The result is best-effort: a
// confidence of 0.0 marks the keyword fallback.
func (o *Oracle) Extract(ctx context.Context, text string) domain.ExtractionResult {
	if o.provider == nil {
		o.metrics.RecordExtraction("degraded")
		return o.degraded(text)
	}

	req := CompletionRequest{
		Model: o.model,
		Messages: []Message{
			{Role: RoleSystem, Content: o.prompt},
			{Role: RoleUser, Content: fmt.Sprintf("Citizen's complaint:\n\"%s\"", text)},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		JSONMode:    true,
	}

	// One attempt plus one retry, never more.
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		resp, err := o.provider.Complete(callCtx, req)
		cancel()
		if err != nil {
			o.logger.Warn("oracle call failed",
				zap.String("provider", o.provider.Name()),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		result, err := parsePayload(resp.Content)
		if err != nil {
			o.logger.Warn("oracle response rejected",
				zap.String("provider", o.provider.Name()),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		o.metrics.RecordExtraction("success")
		return result
	}

	o.metrics.RecordExtraction("degraded")
	return o.degraded(text)
}

// oraclePayload is the explicit response schema. Shape violations on the
// load-bearing fields reject the whole response; only location and
// summary get defaults.
type oraclePayload struct {
	IssueType             string  `json:"issue_type"`
	Location              string  `json:"location"`
	ResponsibleDepartment string  `json:"responsible_department"`
	Priority              string  `json:"priority"`
	Confidence            float64 `json:"confidence"`
	Summary               string  `json:"summary"`
}

func parsePayload(content string) (domain.ExtractionResult, error) {
	var payload oraclePayload
	if err := json.Unmarshal([]byte(stripFences(content)), &payload); err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("decoding oracle response: %w", err)
	}

	if strings.TrimSpace(payload.IssueType) == "" {
		return domain.ExtractionResult{}, fmt.Errorf("oracle response missing issue_type")
	}
	if strings.TrimSpace(payload.ResponsibleDepartment) == "" {
		return domain.ExtractionResult{}, fmt.Errorf("oracle response missing responsible_department")
	}
	priority, ok := domain.ParsePriority(payload.Priority)
	if !ok {
		return domain.ExtractionResult{}, fmt.Errorf("oracle response has invalid priority %q", payload.Priority)
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		return domain.ExtractionResult{}, fmt.Errorf("oracle response confidence %v outside [0,1]", payload.Confidence)
	}

	location := strings.TrimSpace(payload.Location)
	if strings.EqualFold(location, domain.LocationUnknown) {
		location = ""
	}

	return domain.ExtractionResult{
		IssueType:             strings.TrimSpace(payload.IssueType),
		Location:              location,
		ResponsibleDepartment: strings.TrimSpace(payload.ResponsibleDepartment),
		Priority:              priority,
		Confidence:            payload.Confidence,
		Summary:               strings.TrimSpace(payload.Summary),
	}, nil
}

// stripFences removes a markdown code fence the model may wrap around
// its JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func (o *Oracle) degraded(text string) domain.ExtractionResult {
	dept := o.registry.MatchByKeywords(text)
	return domain.ExtractionResult{
		IssueType:             degradedIssueType(text),
		Location:              "",
		ResponsibleDepartment: dept.Name,
		Priority:              domain.PriorityMedium,
		Confidence:            0,
		Summary:               truncateSummary(text, 100),
	}
}

// issueLabels maps trigger keywords to degraded issue labels, scanned in
// order so the result is deterministic.
var issueLabels = []struct {
	keyword string
	label   string
}{
	{"streetlight", "Streetlight issue"},
	{"pothole", "Pothole on road"},
	{"garbage", "Garbage collection issue"},
	{"water", "Water supply issue"},
	{"sewage", "Sewage or drainage issue"},
	{"traffic", "Traffic issue"},
	{"parking", "Parking problem"},
	{"crime", "Law and order issue"},
	{"road", "Road maintenance issue"},
	{"electricity", "Electricity issue"},
}

func degradedIssueType(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range issueLabels {
		if strings.Contains(lower, entry.keyword) {
			return entry.label
		}
	}
	return "General complaint"
}

func truncateSummary(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
