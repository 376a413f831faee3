// Package bughound locates the defective line(s) in short code snippets by
// combining language model reasoning with documentation lookup and optional
// static analysis hints.
//
// # Architecture
//
// Each task flows through a small fixed graph of nodes sharing one TaskState:
//
//  1. The analyzer extracts API calls and candidate bug lines from the
//     snippet and derives documentation search queries.
//  2. The doc retriever turns the queries into ranked snippets.
//  3. The verifier cross-references candidates against the snippets and
//     reports high or low confidence, optionally refining the queries.
//  4. On low confidence the run loops back to retrieval, at most
//     MaxIterations times; then the reporter normalizes the findings.
//
// The loop-back edge after verification is the only cycle, and the verifier
// increments the iteration counter on every execution, so a run always
// terminates within the configured ceiling even when the model never reports
// high confidence.
//
// Provider replies are freeform prose following a section-header protocol
// (APIS:, CANDIDATES:, CONFIDENCE:, ...). ParseSections tolerates missing or
// reordered headers and malformed rows, degrading to empty values; the model
// is treated as unreliable by construction.
//
// # Basic Usage
//
//	pipeline := bughound.New(
//	    bughound.WithProvider(myLLM),
//	    bughound.WithRetriever(retrieve.NewTavily(apiKey, "basic")),
//	    bughound.WithStaticAnalyzers(lint.NewHeuristics()),
//	    bughound.WithMaxIterations(2),
//	)
//
//	report, err := pipeline.Run(ctx, bughound.Task{
//	    ID:      "42",
//	    Code:    snippet,
//	    Context: "argument order is swapped",
//	})
//	fmt.Println(report.BugLine, report.BugExplanation)
//
// # Interfaces
//
// Implement LLMProvider to connect any language model:
//
//	type LLMProvider interface {
//	    Generate(ctx context.Context, messages []Message) (string, error)
//	}
//
// Implementations live in the llm subpackage. DocRetriever and
// StaticAnalyzer are the retrieval and lint extension points, with
// implementations in retrieve and lint.
package bughound
