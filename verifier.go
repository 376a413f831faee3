package bughound

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Character ceilings bounding the verification request size. Doc snippets
// are dropped whole once the running total hits maxDocChars; earlier
// snippets are never reshaped by later ones.
const (
	maxCodeChars    = 4000
	maxContextChars = 1000
	maxStaticChars  = 500
	maxSnippetChars = 1200
	maxDocChars     = 6000

	maxVerifyCandidates = 5
	maxVerifyDocs       = 5
)

const degradedVerifierNote = "Verification unavailable: the language model could not be reached."

// verifierNode cross-references candidate lines against retrieved docs and
// reports confidence. It increments the iteration counter exactly once per
// invocation, including on degraded runs, which is what keeps the retry loop
// bounded.
type verifierNode struct {
	invoker *Invoker
	log     *zap.Logger
}

func (n *verifierNode) name() string { return "verifier" }

func (n *verifierNode) run(ctx context.Context, state TaskState) (Update, error) {
	iteration := state.Iteration + 1

	text, err := n.invoker.Invoke(ctx, []Message{
		{Role: RoleSystem, Content: verifierSystemPrompt},
		{Role: RoleUser, Content: n.buildRequest(state)},
	})
	if err != nil {
		if !errors.Is(err, ErrProviderUnavailable) {
			return Update{}, err
		}
		n.log.Warn("verification degraded: provider unavailable",
			zap.Int("iteration", iteration), zap.Error(err))
		confidence := ConfidenceLow
		upd := Update{Confidence: &confidence, Iteration: &iteration}
		if strings.TrimSpace(state.BugExplanation) == "" {
			note := degradedVerifierNote
			upd.BugExplanation = &note
		}
		return upd, nil
	}

	sec := ParseSections(text)
	confidence := ConfidenceLow
	if sec.Confidence == string(ConfidenceHigh) {
		confidence = ConfidenceHigh
	}

	upd := Update{
		BugLine:        &sec.BugLines,
		BugExplanation: &sec.Explanation,
		Confidence:     &confidence,
		Iteration:      &iteration,
	}
	// Refined queries replace the previous ones, and only while confidence
	// is still low; otherwise the next retrieval pass (if any) reuses the
	// queries that got us here.
	if confidence == ConfidenceLow && len(sec.RefinedQueries) > 0 {
		upd.SearchQueries = &sec.RefinedQueries
	}

	n.log.Info("verification complete",
		zap.Int("iteration", iteration),
		zap.String("confidence", string(confidence)),
		zap.String("bug_lines", sec.BugLines))
	return upd, nil
}

func (n *verifierNode) buildRequest(state TaskState) string {
	numbered := truncate(numberLines(state.Code), maxCodeChars)

	var candidates []string
	for i, c := range state.CandidateLines {
		if i >= maxVerifyCandidates {
			break
		}
		candidates = append(candidates, fmt.Sprintf("L%s: %s - %s", c.LineNo, c.Content, c.Reason))
	}

	var snippets []string
	total := 0
	for i, d := range state.DocResults {
		if i >= maxVerifyDocs {
			break
		}
		snippet := clip(d.Text, maxSnippetChars)
		if total+len(snippet) > maxDocChars {
			break
		}
		score := d.Score
		if score == "" {
			score = "?"
		}
		snippets = append(snippets, fmt.Sprintf("[%s] %s", score, snippet))
		total += len(snippet)
	}
	docText := "No docs found."
	if len(snippets) > 0 {
		docText = strings.Join(snippets, "\n---\n")
	}

	return buildVerifierUserPrompt(
		numbered,
		clip(state.Context, maxContextChars),
		strings.Join(candidates, "\n"),
		docText,
		clip(state.StaticAnalysis, maxStaticChars),
	)
}

// truncate cuts text at max bytes and appends a truncation marker.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "\n... [truncated]"
}

// clip cuts text at max bytes without a marker.
func clip(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
