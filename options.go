package bughound

import "go.uber.org/zap"

// defaultMaxIterations bounds how many times the verifier may run per task.
const defaultMaxIterations = 2

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProvider sets the language model client used by the reasoning nodes.
func WithProvider(p LLMProvider) Option {
	return func(pl *Pipeline) { pl.provider = p }
}

// WithRetriever sets the documentation retrieval backend. Without one the
// verifier runs with no docs, which usually keeps confidence low.
func WithRetriever(r DocRetriever) Option {
	return func(pl *Pipeline) { pl.retriever = r }
}

// WithStaticAnalyzers sets the lint collaborators consulted by the analyzer.
// Tools that are missing or fail are silently skipped.
func WithStaticAnalyzers(analyzers ...StaticAnalyzer) Option {
	return func(pl *Pipeline) { pl.analyzers = analyzers }
}

// WithRetryPolicy overrides the provider retry behavior.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(pl *Pipeline) { pl.policy = policy }
}

// WithMaxIterations sets the verification iteration ceiling.
func WithMaxIterations(n int) Option {
	return func(pl *Pipeline) {
		if n > 0 {
			pl.maxIterations = n
		}
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(pl *Pipeline) {
		if log != nil {
			pl.log = log
		}
	}
}
