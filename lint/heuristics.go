package lint

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	maxVoltageRange = 30
	maxBurstSamples = 8192
)

var (
	vecEditModeRe     = regexp.MustCompile(`\.vecEditMode\s*\(`)
	iClampArgsRe      = regexp.MustCompile(`\.iClamp\s*\(\s*([^,]+),\s*([^)]+)\)`)
	vForceRangeRe     = regexp.MustCompile(`\.vForceRange\s*\(\s*(\d+)\s*(V|mV)?`)
	iMeasAnyCaseRe    = regexp.MustCompile(`(?i)\.imeas\s*\(`)
	iMeasExactRe      = regexp.MustCompile(`\.iMeas\s*\(`)
	vMeasAnyCaseRe    = regexp.MustCompile(`(?i)\.vmeas\s*\(`)
	vMeasExactRe      = regexp.MustCompile(`\.vMeas\s*\(`)
	iMeasRangeAnyRe   = regexp.MustCompile(`(?i)\.imeasrange\s*\(`)
	iMeasRangeExactRe = regexp.MustCompile(`\.iMeasRange\s*\(`)
	iMeansRe          = regexp.MustCompile(`(?i)\.imeans\s*\(`)
	vMeansRe          = regexp.MustCompile(`(?i)\.vmeans\s*\(`)
	doubleEndRe       = regexp.MustCompile(`\.end\s*\(\s*\)\s*\.end\s*\(`)
	doubleBurstRe     = regexp.MustCompile(`\.burst\s*\([^)]*\)\s*\.burst\s*\(`)
	samplesRe         = regexp.MustCompile(`\.samples\s*\(\s*(\d+)\s*\)`)
	leadingDigitRe    = regexp.MustCompile(`^\s*\d`)
	leadingMinusRe    = regexp.MustCompile(`^\s*-`)
)

// Heuristics flags common RDI API mistakes by pattern matching, without
// external tooling. It satisfies the same interface as the wrapped linters.
type Heuristics struct{}

// NewHeuristics constructs the RDI pattern checker.
func NewHeuristics() *Heuristics { return &Heuristics{} }

func (h *Heuristics) Name() string { return "rdi-heuristics" }

// Analyze scans the snippet line by line and returns one finding per line,
// or an empty string when the snippet looks clean.
func (h *Heuristics) Analyze(_ context.Context, code string) (string, error) {
	var issues []string
	beginSeen := false

	for i, raw := range strings.Split(code, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)

		if strings.Contains(line, "RDI_BEGIN") {
			beginSeen = true
		}
		if strings.Contains(line, "RDI_END") && !beginSeen {
			issues = append(issues, fmt.Sprintf("Line %d: RDI_END appears before RDI_BEGIN - wrong lifecycle order", lineNo))
		}

		if vecEditModeRe.MatchString(line) {
			issues = append(issues, fmt.Sprintf("Line %d: vecEditMode call, verify mode parameter (TA::VECD or TA::VTT)", lineNo))
		}

		if m := iClampArgsRe.FindStringSubmatch(line); m != nil {
			low, high := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
			if leadingDigitRe.MatchString(low) && leadingMinusRe.MatchString(high) {
				issues = append(issues, fmt.Sprintf("Line %d: iClamp(%s, %s) - possible reversed (low, high) order", lineNo, low, high))
			}
		}

		if m := vForceRangeRe.FindStringSubmatch(line); m != nil {
			if value, err := strconv.Atoi(m[1]); err == nil && value > maxVoltageRange {
				issues = append(issues, fmt.Sprintf("Line %d: vForceRange(%dV) may exceed max allowed (%dV for typical cards)", lineNo, value, maxVoltageRange))
			}
		}

		if strings.Contains(line, "push_forward") {
			issues = append(issues, fmt.Sprintf("Line %d: push_forward is not a standard vector method, should be push_back", lineNo))
		}

		if iMeasAnyCaseRe.MatchString(line) && !iMeasExactRe.MatchString(line) {
			issues = append(issues, fmt.Sprintf("Line %d: Possible typo - 'imeas' should be 'iMeas' (case-sensitive)", lineNo))
		}
		if vMeasAnyCaseRe.MatchString(line) && !vMeasExactRe.MatchString(line) {
			issues = append(issues, fmt.Sprintf("Line %d: Possible typo - 'vmeas' should be 'vMeas' (case-sensitive)", lineNo))
		}
		if iMeasRangeAnyRe.MatchString(line) && !iMeasRangeExactRe.MatchString(line) {
			issues = append(issues, fmt.Sprintf("Line %d: Possible typo - should be 'iMeasRange' (case-sensitive)", lineNo))
		}
		if iMeansRe.MatchString(line) {
			issues = append(issues, fmt.Sprintf("Line %d: 'iMeans' is not valid, should be 'iMeas'", lineNo))
		}
		if vMeansRe.MatchString(line) {
			issues = append(issues, fmt.Sprintf("Line %d: 'vMeans' is not valid, should be 'vMeas'", lineNo))
		}

		if doubleEndRe.MatchString(line) {
			issues = append(issues, fmt.Sprintf("Line %d: Duplicate .end() call detected", lineNo))
		}
		if doubleBurstRe.MatchString(line) {
			issues = append(issues, fmt.Sprintf("Line %d: Duplicate .burst() call detected, should likely be .execute()", lineNo))
		}

		if m := samplesRe.FindStringSubmatch(line); m != nil {
			if samples, err := strconv.Atoi(m[1]); err == nil && samples > maxBurstSamples {
				issues = append(issues, fmt.Sprintf("Line %d: samples(%d) exceeds max %d for burst site upload", lineNo, samples, maxBurstSamples))
			}
		}
	}

	return strings.Join(issues, "\n"), nil
}
