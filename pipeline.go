package bughound

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// node is a single processing step: it consumes the task state and produces
// a partial update. Nodes never mutate state directly; the pipeline owns the
// merge.
type node interface {
	name() string
	run(ctx context.Context, state TaskState) (Update, error)
}

// destination names the two places control can go after verification.
type destination string

const (
	destDocRetriever destination = "doc_retriever"
	destReporter     destination = "reporter"
)

// routeAfterVerify is the single loop-closing decision. It sends the run to
// the reporter once the verifier is confident or the iteration ceiling is
// reached; otherwise back to retrieval for another pass. Because the
// verifier increments Iteration unconditionally, this terminates after at
// most MaxIterations verifier executions whatever the provider reports.
func routeAfterVerify(state TaskState) destination {
	if state.Confidence == ConfidenceHigh || state.Iteration >= state.MaxIterations {
		return destReporter
	}
	return destDocRetriever
}

// retrieverNode bridges the external DocRetriever into the pipeline. A
// missing or failing backend degrades to an empty result set.
type retrieverNode struct {
	retriever DocRetriever
	log       *zap.Logger
}

func (n *retrieverNode) name() string { return "doc_retriever" }

func (n *retrieverNode) run(ctx context.Context, state TaskState) (Update, error) {
	docs := []DocResult{}
	if n.retriever == nil || len(state.SearchQueries) == 0 {
		return Update{DocResults: &docs}, nil
	}
	results, err := n.retriever.Retrieve(ctx, state.SearchQueries)
	if err != nil {
		n.log.Warn("doc retrieval failed, continuing without docs", zap.Error(err))
		return Update{DocResults: &docs}, nil
	}
	if results != nil {
		docs = results
	}
	n.log.Debug("docs retrieved", zap.Int("count", len(docs)))
	return Update{DocResults: &docs}, nil
}

// Pipeline drives one task through analyze → retrieve → verify, looping on
// low confidence up to the iteration ceiling, then reports.
type Pipeline struct {
	provider      LLMProvider
	retriever     DocRetriever
	analyzers     []StaticAnalyzer
	policy        RetryPolicy
	maxIterations int
	log           *zap.Logger
}

// New constructs a Pipeline with optional configuration.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		maxIterations: defaultMaxIterations,
		policy:        DefaultRetryPolicy(),
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full pipeline for one task. The returned report always
// has non-empty BugLine and BugExplanation; degraded provider or retrieval
// backends produce fallback values rather than errors. Only a nil provider
// or an unexpected node failure is an error.
func (p *Pipeline) Run(ctx context.Context, task Task) (Report, error) {
	if p.provider == nil {
		return Report{}, errors.New("language model provider is not configured")
	}

	log := p.log.With(zap.String("id", task.ID))
	invoker := NewInvoker(p.provider, p.policy, log)

	analyze := &analyzerNode{invoker: invoker, analyzers: p.analyzers, maxIterations: p.maxIterations, log: log}
	retrieve := &retrieverNode{retriever: p.retriever, log: log}
	verify := &verifierNode{invoker: invoker, log: log}
	report := &reporterNode{log: log}

	state := TaskState{
		ID:            task.ID,
		Code:          task.Code,
		Context:       task.Context,
		Confidence:    ConfidenceLow,
		MaxIterations: p.maxIterations,
	}

	if err := p.step(ctx, analyze, &state); err != nil {
		return Report{}, err
	}
	for {
		if err := p.step(ctx, retrieve, &state); err != nil {
			return Report{}, err
		}
		if err := p.step(ctx, verify, &state); err != nil {
			return Report{}, err
		}
		if routeAfterVerify(state) == destReporter {
			break
		}
	}
	if err := p.step(ctx, report, &state); err != nil {
		return Report{}, err
	}

	return Report{ID: state.ID, BugLine: state.BugLine, BugExplanation: state.BugExplanation}, nil
}

func (p *Pipeline) step(ctx context.Context, n node, state *TaskState) error {
	upd, err := n.run(ctx, *state)
	if err != nil {
		return fmt.Errorf("%s: %w", n.name(), err)
	}
	state.Apply(upd)
	return nil
}
