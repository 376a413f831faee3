// Package runner executes bughound over CSV batches: it loads snippet rows,
// runs the pipeline per row with rate limit cooldowns or bounded
// parallelism, and writes the results file.
package runner

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one input snippet. CorrectCode and Explanation are optional ground
// truth columns carried for evaluation; they never reach the pipeline's
// prompts.
type Row struct {
	ID          string
	Code        string
	Context     string
	CorrectCode string
	Explanation string
}

// Result is one output row.
type Result struct {
	ID             string
	BugLine        string
	BugExplanation string
}

// LoadRows reads the input CSV. Columns are matched by header name, so
// column order does not matter; unknown columns are ignored. The literal
// "nan" in an optional column counts as absent.
func LoadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return readRows(f)
}

func readRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"id", "code"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("input is missing the %q column", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	optional := func(record []string, name string) string {
		v := field(record, name)
		if v == "nan" {
			return ""
		}
		return v
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, Row{
			ID:          field(record, "id"),
			Code:        field(record, "code"),
			Context:     field(record, "context"),
			CorrectCode: optional(record, "correct_code"),
			Explanation: optional(record, "explanation"),
		})
	}
	return rows, nil
}

// WriteResults writes the output CSV with an id,bug_line,bug_explanation
// header.
func WriteResults(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	return writeResults(f, results)
}

func writeResults(w io.Writer, results []Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "bug_line", "bug_explanation"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		if err := writer.Write([]string{r.ID, r.BugLine, r.BugExplanation}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
