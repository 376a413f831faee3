package bughound

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"
)

const (
	maxQueryAPIs        = 8
	maxQueryCandidates  = 5
	maxTokensPerLine    = 2
	apiQuerySuffix      = " correct usage"
	tokenQueryTemplate  = "rdi %s syntax parameters"
	noStaticIssuesFound = "No static analysis issues found."
)

var callTokenRe = regexp.MustCompile(`([A-Za-z_]\w*)\s*\(`)

// analyzerNode extracts API calls and candidate bug lines from the snippet
// and derives the initial documentation search queries.
type analyzerNode struct {
	invoker       *Invoker
	analyzers     []StaticAnalyzer
	maxIterations int
	log           *zap.Logger
}

func (n *analyzerNode) name() string { return "analyzer" }

func (n *analyzerNode) run(ctx context.Context, state TaskState) (Update, error) {
	static := collectStaticHints(ctx, n.analyzers, state.Code, n.log)

	iteration := 0
	maxIter := n.maxIterations

	text, err := n.invoker.Invoke(ctx, []Message{
		{Role: RoleSystem, Content: analyzerSystemPrompt},
		{Role: RoleUser, Content: buildAnalyzerUserPrompt(state.Code, state.Context, static)},
	})
	if err != nil {
		if !errors.Is(err, ErrProviderUnavailable) {
			return Update{}, err
		}
		n.log.Warn("analysis degraded: provider unavailable", zap.Error(err))
		apis, candidates, queries := []string{}, []CandidateLine{}, []string{}
		return Update{
			ExtractedAPIs:  &apis,
			CandidateLines: &candidates,
			StaticAnalysis: &static,
			SearchQueries:  &queries,
			Iteration:      &iteration,
			MaxIterations:  &maxIter,
		}, nil
	}

	sec := ParseSections(text)
	queries := deriveSearchQueries(sec.APIs, sec.Candidates)

	n.log.Info("analysis complete",
		zap.Int("apis", len(sec.APIs)),
		zap.Int("candidates", len(sec.Candidates)),
		zap.Int("queries", len(queries)))

	return Update{
		ExtractedAPIs:  &sec.APIs,
		CandidateLines: &sec.Candidates,
		StaticAnalysis: &static,
		SearchQueries:  &queries,
		Iteration:      &iteration,
		MaxIterations:  &maxIter,
	}, nil
}

// deriveSearchQueries builds retrieval queries from the first 8 extracted
// APIs, then from call-like tokens in the first 5 candidate lines (up to two
// per candidate), skipping queries already present.
func deriveSearchQueries(apis []string, candidates []CandidateLine) []string {
	queries := make([]string, 0, maxQueryAPIs)
	for i, api := range apis {
		if i >= maxQueryAPIs {
			break
		}
		queries = append(queries, api+apiQuerySuffix)
	}

	for i, cand := range candidates {
		if i >= maxQueryCandidates {
			break
		}
		matches := callTokenRe.FindAllStringSubmatch(cand.Content, maxTokensPerLine)
		for _, m := range matches {
			q := fmt.Sprintf(tokenQueryTemplate, m[1])
			if !slices.Contains(queries, q) {
				queries = append(queries, q)
			}
		}
	}
	return queries
}

// collectStaticHints runs every configured lint collaborator and merges the
// non-empty outputs under [tool] banners. Failures and missing tools count
// as "nothing to report".
func collectStaticHints(ctx context.Context, analyzers []StaticAnalyzer, code string, log *zap.Logger) string {
	var parts []string
	for _, a := range analyzers {
		out, err := a.Analyze(ctx, code)
		if err != nil {
			log.Debug("static analyzer unavailable", zap.String("tool", a.Name()), zap.Error(err))
			continue
		}
		if out = strings.TrimSpace(out); out != "" {
			parts = append(parts, fmt.Sprintf("[%s]\n%s", a.Name(), out))
		}
	}
	if len(parts) == 0 {
		return noStaticIssuesFound
	}
	return strings.Join(parts, "\n\n")
}
