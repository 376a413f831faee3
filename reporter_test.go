package bughound

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func runReporter(t *testing.T, state TaskState) TaskState {
	t.Helper()
	n := &reporterNode{log: zap.NewNop()}
	upd, err := n.run(context.Background(), state)
	if err != nil {
		t.Fatalf("reporter: %v", err)
	}
	state.Apply(upd)
	return state
}

func TestCleanLineNumbers(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"3,7", "3,7"},
		{"Line 3 and line 7 and 3 again", "3,7"},
		{"lines 12, 7 and 12", "12,7"},
		{"no digits here", "1"},
		{"", "1"},
	}
	for _, tt := range tests {
		if got := cleanLineNumbers(tt.in); got != tt.want {
			t.Errorf("cleanLineNumbers(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanLineNumbersIdempotent(t *testing.T) {
	once := cleanLineNumbers("Line 3 and line 7 and 3 again")
	twice := cleanLineNumbers(once)
	if once != twice {
		t.Errorf("normalization not idempotent: %q -> %q", once, twice)
	}
}

func TestReporterNormalizesVerifierOutput(t *testing.T) {
	state := runReporter(t, TaskState{
		BugLine:        "Line 3 and line 7",
		BugExplanation: "Line 3: iClamp arguments are reversed. Evidence: CONTEXT says the order is swapped.",
	})
	if state.BugLine != "3,7" {
		t.Errorf("bug line = %q, want 3,7", state.BugLine)
	}
	if strings.Contains(state.BugExplanation, "Evidence:") {
		t.Errorf("explanation still contains filler: %q", state.BugExplanation)
	}
	if state.BugExplanation == "" {
		t.Error("explanation must not be empty")
	}
}

func TestReporterFallsBackToCandidates(t *testing.T) {
	state := runReporter(t, TaskState{
		CandidateLines: []CandidateLine{
			{LineNo: "2", Content: "a", Reason: "wrong mode"},
			{LineNo: "5", Content: "b", Reason: "reversed args"},
			{LineNo: "9", Content: "c", Reason: "bad range"},
			{LineNo: "11", Content: "d", Reason: "ignored, beyond the first three"},
		},
	})
	if state.BugLine != "2,5,9" {
		t.Errorf("bug line = %q, want 2,5,9", state.BugLine)
	}
	if state.BugExplanation != "wrong mode; reversed args; bad range" {
		t.Errorf("explanation = %q", state.BugExplanation)
	}
}

func TestReporterDefaultOneTriggersFallback(t *testing.T) {
	// A bug_line that normalizes to the "1" default is treated as unusable
	// when candidates exist.
	state := runReporter(t, TaskState{
		BugLine:        "maybe line 1?",
		CandidateLines: []CandidateLine{{LineNo: "4", Reason: "typo in method name"}},
	})
	if state.BugLine != "4" {
		t.Errorf("bug line = %q, want 4", state.BugLine)
	}
}

func TestReporterSentinels(t *testing.T) {
	state := runReporter(t, TaskState{})
	if state.BugLine != unidentifiedBugLine {
		t.Errorf("bug line = %q, want %q", state.BugLine, unidentifiedBugLine)
	}
	if state.BugExplanation != inconclusiveExplanation {
		t.Errorf("explanation = %q, want %q", state.BugExplanation, inconclusiveExplanation)
	}
}

func TestReporterPreservesErrorSentinel(t *testing.T) {
	state := runReporter(t, TaskState{BugLine: "ERROR", BugExplanation: "processing error: boom"})
	if state.BugLine != "ERROR" {
		t.Errorf("bug line = %q, want ERROR passthrough", state.BugLine)
	}
}

func TestCleanExplanationCollapsesNoise(t *testing.T) {
	in := "Line 2:  wrong   mode . . Therefore, the test fails.  "
	got := cleanExplanation(in)
	if strings.Contains(got, "Therefore") {
		t.Errorf("filler not stripped: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("whitespace not collapsed: %q", got)
	}
}

func TestCleanExplanationResegmentsLongText(t *testing.T) {
	long := "Line 2: the mode constant is wrong and should be VTT. " +
		strings.Repeat("More detail about the failure mode goes on and on. ", 4) +
		"Line 7: the clamp arguments are reversed and should be swapped. Extra rationale follows here."
	got := cleanExplanation(long)
	if !strings.Contains(got, " | ") {
		t.Fatalf("expected segment separator in %q", got)
	}
	for _, seg := range strings.Split(got, " | ") {
		if !strings.HasPrefix(seg, "Line ") {
			t.Errorf("segment %q does not start with a line marker", seg)
		}
	}
}

func TestCleanExplanationEmptyStaysEmpty(t *testing.T) {
	if got := cleanExplanation("   "); got != "" {
		t.Errorf("cleanExplanation(blank) = %q, want empty", got)
	}
}
