package bughound

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// scriptedProvider serves canned replies keyed on the system prompt, one per
// node invocation.
type scriptedProvider struct {
	analyzer []string
	verifier []string

	analyzerIdx int
	verifierIdx int
}

func (s *scriptedProvider) next(list []string, idx *int) (string, error) {
	if *idx >= len(list) {
		return "", errors.New("no scripted response available")
	}
	resp := list[*idx]
	*idx++
	return resp, nil
}

func (s *scriptedProvider) Generate(_ context.Context, messages []Message) (string, error) {
	switch messages[0].Content {
	case analyzerSystemPrompt:
		return s.next(s.analyzer, &s.analyzerIdx)
	case verifierSystemPrompt:
		return s.next(s.verifier, &s.verifierIdx)
	default:
		return "", errors.New("unknown system prompt")
	}
}

// loopProvider replies identically to every verifier call; used to exercise
// the termination bound.
type loopProvider struct {
	analyzerReply string
	verifierReply string
	verifierCalls int
}

func (l *loopProvider) Generate(_ context.Context, messages []Message) (string, error) {
	switch messages[0].Content {
	case analyzerSystemPrompt:
		return l.analyzerReply, nil
	case verifierSystemPrompt:
		l.verifierCalls++
		return l.verifierReply, nil
	default:
		return "", errors.New("unknown system prompt")
	}
}

type fakeRetriever struct {
	docs    []DocResult
	queries [][]string
}

func (f *fakeRetriever) Retrieve(_ context.Context, queries []string) ([]DocResult, error) {
	f.queries = append(f.queries, queries)
	return f.docs, nil
}

func TestPipelineEndToEnd(t *testing.T) {
	provider := &scriptedProvider{
		analyzer: []string{
			"APIS:\nrdi.dc().iClamp()\n\nCANDIDATES:\n1|rdi.dc().iClamp(5,-2);|args reversed",
		},
		verifier: []string{
			"CONFIDENCE: low\nREFINED_QUERIES:\nrdi iClamp syntax parameters",
			"CONFIDENCE: high\nBUG_LINES: 1\nEXPLANATION: Line 1: iClamp arguments are reversed should be iClamp(-2, 5).",
		},
	}
	retriever := &fakeRetriever{docs: []DocResult{{Text: "iClamp(low, high) clamps current.", Score: "0.91"}}}

	pipeline := New(
		WithProvider(provider),
		WithRetriever(retriever),
		WithMaxIterations(2),
	)

	report, err := pipeline.Run(context.Background(), Task{
		ID:      "t1",
		Code:    "rdi.dc().iClamp(5,-2);",
		Context: "argument order is swapped",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.BugLine != "1" {
		t.Errorf("bug line = %q, want 1", report.BugLine)
	}
	if report.BugExplanation == "" {
		t.Error("expected non-empty explanation")
	}
	if provider.verifierIdx != 2 {
		t.Errorf("verifier executions = %d, want 2", provider.verifierIdx)
	}
	// The second retrieval pass must use the refined queries.
	if len(retriever.queries) != 2 {
		t.Fatalf("retrieval passes = %d, want 2", len(retriever.queries))
	}
	if got := retriever.queries[1]; len(got) != 1 || got[0] != "rdi iClamp syntax parameters" {
		t.Errorf("second retrieval queries = %v, want refined list only", got)
	}
}

func TestPipelineTerminationBound(t *testing.T) {
	for k := 1; k <= 3; k++ {
		t.Run(fmt.Sprintf("max_iterations_%d", k), func(t *testing.T) {
			provider := &loopProvider{
				analyzerReply: "APIS:\nrdi.dc().vForce()\n\nCANDIDATES:\n2|rdi.dc().vForce(99);|out of range",
				verifierReply: "CONFIDENCE: low\nEXPLANATION: still unsure",
			}
			pipeline := New(
				WithProvider(provider),
				WithRetriever(&fakeRetriever{}),
				WithMaxIterations(k),
			)

			report, err := pipeline.Run(context.Background(), Task{ID: "loop", Code: "rdi.dc().vForce(99);"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if provider.verifierCalls != k {
				t.Errorf("verifier executions = %d, want exactly %d", provider.verifierCalls, k)
			}
			if report.BugLine == "" || report.BugExplanation == "" {
				t.Errorf("terminal fields must be non-empty: %+v", report)
			}
		})
	}
}

func TestPipelineDegradesWhenProviderUnavailable(t *testing.T) {
	provider := &flakyProvider{failures: 100, err: MarkTransient(errors.New("503"))}
	pipeline := New(
		WithProvider(provider),
		WithMaxIterations(2),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 1}),
	)

	report, err := pipeline.Run(context.Background(), Task{ID: "down", Code: "x();"})
	if err != nil {
		t.Fatalf("a dead provider must degrade, not fail: %v", err)
	}
	if report.BugLine != unidentifiedBugLine {
		t.Errorf("bug line = %q, want %q", report.BugLine, unidentifiedBugLine)
	}
	if !strings.Contains(report.BugExplanation, "unavailable") {
		t.Errorf("explanation = %q, want degraded placeholder", report.BugExplanation)
	}
	// One analyzer call plus one verifier call per iteration, no retries.
	if provider.calls != 3 {
		t.Errorf("provider calls = %d, want 3", provider.calls)
	}
}

func TestPipelinePermanentProviderErrorAbortsRun(t *testing.T) {
	provider := &flakyProvider{failures: 100, err: errors.New("authentication failure")}
	pipeline := New(WithProvider(provider), WithRetryPolicy(RetryPolicy{MaxAttempts: 3}))

	_, err := pipeline.Run(context.Background(), Task{ID: "auth", Code: "x();"})
	if err == nil {
		t.Fatal("expected error for permanent provider failure")
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (no retry on permanent failure)", provider.calls)
	}
}

func TestPipelineRequiresProvider(t *testing.T) {
	_, err := New().Run(context.Background(), Task{ID: "x", Code: "y"})
	if err == nil {
		t.Fatal("expected error when no provider is configured")
	}
}

func TestPipelineWithoutRetrieverStillTerminates(t *testing.T) {
	provider := &loopProvider{
		analyzerReply: "APIS:\nrdi.dc().vForce()",
		verifierReply: "CONFIDENCE: low",
	}
	pipeline := New(WithProvider(provider), WithMaxIterations(2))

	report, err := pipeline.Run(context.Background(), Task{ID: "nodocs", Code: "rdi.dc().vForce(1);"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.verifierCalls != 2 {
		t.Errorf("verifier executions = %d, want 2", provider.verifierCalls)
	}
	if report.BugLine == "" {
		t.Error("expected non-empty bug line")
	}
}

func TestRouteAfterVerify(t *testing.T) {
	tests := []struct {
		name  string
		state TaskState
		want  destination
	}{
		{"high confidence", TaskState{Confidence: ConfidenceHigh, Iteration: 1, MaxIterations: 2}, destReporter},
		{"low within budget", TaskState{Confidence: ConfidenceLow, Iteration: 1, MaxIterations: 2}, destDocRetriever},
		{"low at ceiling", TaskState{Confidence: ConfidenceLow, Iteration: 2, MaxIterations: 2}, destReporter},
		{"high at ceiling", TaskState{Confidence: ConfidenceHigh, Iteration: 2, MaxIterations: 2}, destReporter},
		{"before any verification", TaskState{Confidence: ConfidenceLow, Iteration: 0, MaxIterations: 2}, destDocRetriever},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := routeAfterVerify(tt.state); got != tt.want {
				t.Errorf("routeAfterVerify(%+v) = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}
