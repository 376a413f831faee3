package bughound

import "context"

// Role tags a message in a provider conversation.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single role-tagged message sent to a language model provider.
type Message struct {
	Role    Role
	Content string
}

// LLMProvider is implemented by user-supplied language model clients.
// Implementations should wrap transient failures (timeouts, rate limits,
// connection errors) with MarkTransient so the retrying invoker knows to
// retry them; everything else is treated as permanent.
type LLMProvider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// DocRetriever turns search queries into ranked documentation snippets.
// An empty result is valid; the verifier proceeds without docs.
type DocRetriever interface {
	Retrieve(ctx context.Context, queries []string) ([]DocResult, error)
}

// StaticAnalyzer is an optional external lint collaborator. Analyze returns
// free-form diagnostic text, or an empty string when the tool has nothing to
// say or is not installed. Errors are treated as "no hint available", never
// as fatal for the run.
type StaticAnalyzer interface {
	Name() string
	Analyze(ctx context.Context, code string) (string, error)
}
