package bughound

// Confidence is the verifier's self-reported certainty about its finding.
// The zero value is not meaningful; the pipeline initializes every run to
// ConfidenceLow so routing before the first verification behaves as "low".
type Confidence string

const (
	ConfidenceLow  Confidence = "low"
	ConfidenceHigh Confidence = "high"
)

// CandidateLine is a provisional bug location proposed by the analyzer,
// before any verification against documentation.
type CandidateLine struct {
	LineNo  string
	Content string
	Reason  string
}

// DocResult is one ranked documentation snippet returned by a DocRetriever.
type DocResult struct {
	Text  string
	Score string
}

// Task is the caller-supplied input for a single pipeline run. CorrectCode
// and Explanation are optional ground truth carried through for downstream
// evaluation; the pipeline itself never reads them.
type Task struct {
	ID          string
	Code        string
	Context     string
	CorrectCode string
	Explanation string
}

// Report carries the terminal fields of a completed run. BugLine is either a
// comma-joined list of line numbers, the "ERROR" sentinel set by the batch
// driver on failed rows, or "Unable to identify".
type Report struct {
	ID             string
	BugLine        string
	BugExplanation string
}

// TaskState is the shared record threaded through the pipeline. One instance
// exists per run, owned exclusively by the running Pipeline; nodes receive it
// by value and hand back partial Updates which the pipeline merges.
type TaskState struct {
	ID      string
	Code    string
	Context string

	ExtractedAPIs  []string
	CandidateLines []CandidateLine
	StaticAnalysis string
	SearchQueries  []string
	DocResults     []DocResult

	Confidence     Confidence
	BugLine        string
	BugExplanation string

	Iteration     int
	MaxIterations int
}

// Update is a partial update produced by a node. Nil fields are left
// untouched by Apply; non-nil fields overwrite the state, they never append.
type Update struct {
	ExtractedAPIs  *[]string
	CandidateLines *[]CandidateLine
	StaticAnalysis *string
	SearchQueries  *[]string
	DocResults     *[]DocResult
	Confidence     *Confidence
	BugLine        *string
	BugExplanation *string
	Iteration      *int
	MaxIterations  *int
}

// Apply merges a partial update into the state, field-level overwrite only.
func (s *TaskState) Apply(u Update) {
	if u.ExtractedAPIs != nil {
		s.ExtractedAPIs = *u.ExtractedAPIs
	}
	if u.CandidateLines != nil {
		s.CandidateLines = *u.CandidateLines
	}
	if u.StaticAnalysis != nil {
		s.StaticAnalysis = *u.StaticAnalysis
	}
	if u.SearchQueries != nil {
		s.SearchQueries = *u.SearchQueries
	}
	if u.DocResults != nil {
		s.DocResults = *u.DocResults
	}
	if u.Confidence != nil {
		s.Confidence = *u.Confidence
	}
	if u.BugLine != nil {
		s.BugLine = *u.BugLine
	}
	if u.BugExplanation != nil {
		s.BugExplanation = *u.BugExplanation
	}
	if u.Iteration != nil {
		s.Iteration = *u.Iteration
	}
	if u.MaxIterations != nil {
		s.MaxIterations = *u.MaxIterations
	}
}
