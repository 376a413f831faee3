package bughound

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	maxExplanationChars = 200
	maxSegmentChars     = 100
	candidateFallback   = 3

	unidentifiedBugLine      = "Unable to identify"
	inconclusiveExplanation  = "Analysis inconclusive."
	errorSentinel            = "ERROR"
	defaultNormalizedBugLine = "1"
)

var digitRunRe = regexp.MustCompile(`\d+`)

// fillerPatterns strip the verifier's hedging and meta-commentary. Each
// sentence-scoped pattern consumes through the next sentence terminator;
// trailing-qualifier patterns consume to end of text.
var fillerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)evidence:[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?i)context (?:says|states|mentions|quotes?)[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?i)docs (?:state|mention|show)[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?i)additionally,?[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?i)this implies that[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?i)which implies[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?i)the correct (?:code|answer|order)[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?i)therefore,?[^.!?]*[.!?]?`),
	regexp.MustCompile(`(?is)note:.*$`),
	regexp.MustCompile(`(?is)however,? without.*$`),
	regexp.MustCompile(`(?is)further verification.*$`),
	regexp.MustCompile(`(?is)these potential.*$`),
	regexp.MustCompile(`(?is)it is essential to verify.*$`),
	regexp.MustCompile(`(?is)the exact allowed ranges.*$`),
	regexp.MustCompile(`(?is)this would need to be verified.*$`),
}

var (
	whitespaceRe        = regexp.MustCompile(`\s+`)
	doublePeriodRe      = regexp.MustCompile(`\s*\.\s*\.`)
	spaceBeforePeriodRe = regexp.MustCompile(`\s+\.`)
	doubleCommaRe       = regexp.MustCompile(`,\s*,`)
	lineMarkerRe        = regexp.MustCompile(`Line \d+:`)
	firstSentenceRe     = regexp.MustCompile(`^(.*?[.!?])\s`)
)

// reporterNode normalizes the verifier's findings into the terminal report
// fields, falling back to analyzer candidates and finally to fixed sentinels
// so both fields are always non-empty.
type reporterNode struct {
	log *zap.Logger
}

func (n *reporterNode) name() string { return "reporter" }

func (n *reporterNode) run(_ context.Context, state TaskState) (Update, error) {
	bugLine := strings.TrimSpace(state.BugLine)
	if bugLine != "" && bugLine != errorSentinel {
		bugLine = cleanLineNumbers(bugLine)
	}
	explanation := cleanExplanation(state.BugExplanation)

	if bugLine == "" || bugLine == defaultNormalizedBugLine {
		if len(state.CandidateLines) > 0 {
			var lineNos, reasons []string
			for i, c := range state.CandidateLines {
				if i >= candidateFallback {
					break
				}
				if c.LineNo != "" {
					lineNos = append(lineNos, c.LineNo)
				}
				if c.Reason != "" {
					reasons = append(reasons, c.Reason)
				}
			}
			if len(lineNos) > 0 {
				bugLine = strings.Join(lineNos, ",")
			}
			if explanation == "" {
				explanation = strings.Join(reasons, "; ")
			}
		}
	}

	if bugLine == "" {
		bugLine = unidentifiedBugLine
	}
	if explanation == "" {
		explanation = inconclusiveExplanation
	}

	n.log.Info("report ready", zap.String("bug_line", bugLine))
	return Update{BugLine: &bugLine, BugExplanation: &explanation}, nil
}

// cleanLineNumbers extracts every digit run, deduplicates preserving
// first-seen order, and rejoins with commas. No digits at all normalizes to
// "1", which the reporter treats as "nothing usable" downstream.
func cleanLineNumbers(raw string) string {
	numbers := digitRunRe.FindAllString(raw, -1)
	if len(numbers) == 0 {
		return defaultNormalizedBugLine
	}
	seen := make(map[string]bool, len(numbers))
	unique := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if !seen[n] {
			seen[n] = true
			unique = append(unique, n)
		}
	}
	return strings.Join(unique, ",")
}

// cleanExplanation strips filler, collapses whitespace and stray
// punctuation, and compresses long multi-line reports down to the first
// sentence per "Line N:" segment.
func cleanExplanation(text string) string {
	result := strings.TrimSpace(text)
	if result == "" {
		return ""
	}

	for _, p := range fillerPatterns {
		result = p.ReplaceAllString(result, "")
	}

	result = strings.TrimSpace(whitespaceRe.ReplaceAllString(result, " "))
	result = doublePeriodRe.ReplaceAllString(result, ".")
	result = spaceBeforePeriodRe.ReplaceAllString(result, ".")
	result = doubleCommaRe.ReplaceAllString(result, ",")

	if len(result) > maxExplanationChars {
		if segments := splitByLineMarkers(result); len(segments) > 0 {
			result = strings.Join(segments, " | ")
		}
	}
	return strings.TrimSpace(result)
}

// splitByLineMarkers re-segments an overlong explanation at each "Line N:"
// marker, keeping only the first sentence of each segment. Returns nil when
// no marker is present.
func splitByLineMarkers(text string) []string {
	locs := lineMarkerRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	segments := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		seg := strings.TrimSpace(text[loc[0]:end])
		if m := firstSentenceRe.FindStringSubmatch(seg + " "); m != nil {
			seg = m[1]
		} else if len(seg) > maxSegmentChars {
			seg = seg[:maxSegmentChars]
		}
		segments = append(segments, seg)
	}
	return segments
}
