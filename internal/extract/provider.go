package extract

import (
	"context"
	"fmt"

	"github.com/spec-kit/grievance-service/internal/config"
)

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single message in a completion conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the parameters for a model completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
	JSONMode    bool
}

// CompletionResponse contains the result of a model completion call.
type CompletionResponse struct {
	Content      string
	Model        string
	FinishReason string
}

// Provider abstracts the language model backend behind the oracle.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// NewProvider builds the configured provider. A "none" provider returns
// nil, which runs the oracle in degraded-only mode.
func NewProvider(cfg config.OracleConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ORACLE_API_KEY is required for the openai provider")
		}
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return NewOllamaProvider(baseURL, cfg.Model), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider %q", cfg.Provider)
	}
}
