package bughound

import "strings"

// The reasoning prompts ask the model to reply in labeled sections, each
// header starting a line and running until the next recognized header or end
// of text. The model is unreliable: headers may be missing, reordered, or
// surrounded by commentary, and candidate rows may be malformed. Parsing
// degrades to empty values in every such case and never fails.

// Sections holds the typed fields recovered from one provider reply.
type Sections struct {
	APIs           []string
	Candidates     []CandidateLine
	Confidence     string
	BugLines       string
	Explanation    string
	RefinedQueries []string
}

// Order matters only for readability; BUG_LINE is the legacy singular label
// still emitted by some models, consulted when BUG_LINES is absent.
var sectionHeaders = []string{
	"APIS",
	"CANDIDATES",
	"CONFIDENCE",
	"BUG_LINES",
	"BUG_LINE",
	"EXPLANATION",
	"REFINED_QUERIES",
}

// ParseSections scans a provider reply for the labeled sections. Text before
// the first recognized header is ignored; a repeated header replaces the
// earlier occurrence.
func ParseSections(text string) Sections {
	content := make(map[string][]string)
	current := ""

	for _, line := range strings.Split(text, "\n") {
		if name, rest, ok := matchHeader(line); ok {
			current = name
			content[name] = nil
			if rest != "" {
				content[name] = append(content[name], rest)
			}
			continue
		}
		if current != "" {
			content[current] = append(content[current], line)
		}
	}

	sec := Sections{
		APIs:           listItems(content["APIS"]),
		Candidates:     parseCandidates(content["CANDIDATES"]),
		Confidence:     strings.ToLower(firstItem(content["CONFIDENCE"])),
		BugLines:       firstItem(content["BUG_LINES"]),
		Explanation:    strings.TrimSpace(strings.Join(content["EXPLANATION"], "\n")),
		RefinedQueries: listItems(content["REFINED_QUERIES"]),
	}
	if sec.BugLines == "" {
		sec.BugLines = firstItem(content["BUG_LINE"])
	}
	return sec
}

func matchHeader(line string) (name, rest string, ok bool) {
	trimmed := strings.TrimSpace(line)
	for _, h := range sectionHeaders {
		if strings.HasPrefix(trimmed, h+":") {
			return h, strings.TrimSpace(trimmed[len(h)+1:]), true
		}
	}
	return "", "", false
}

// listItems returns the non-empty, whitespace-trimmed lines of a section.
func listItems(lines []string) []string {
	var items []string
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			items = append(items, t)
		}
	}
	return items
}

// firstItem returns the first non-empty trimmed line of a section.
func firstItem(lines []string) string {
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			return t
		}
	}
	return ""
}

// parseCandidates parses "line|content|reason" rows. Rows that do not split
// into exactly three parts are discarded, not reported.
func parseCandidates(lines []string) []CandidateLine {
	var out []CandidateLine
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		parts := strings.Split(l, "|")
		if len(parts) != 3 {
			continue
		}
		out = append(out, CandidateLine{
			LineNo:  strings.TrimSpace(parts[0]),
			Content: strings.TrimSpace(parts[1]),
			Reason:  strings.TrimSpace(parts[2]),
		})
	}
	return out
}
