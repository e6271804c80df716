package workflow

import (
	"regexp"
	"strings"
)

// ClarificationChoice is one lettered option offered for a question.
type ClarificationChoice struct {
	Letter    string
	Text      string
	Rationale string
}

// ClarificationQuestion is a single numbered question within a section,
// along with whatever answer has been recorded for it so far.
type ClarificationQuestion struct {
	ID             string
	Title          string
	Question       string
	Choices        []ClarificationChoice
	Recommendation string
	Answer         string
}

// ClarificationSection groups questions under a markdown "## " heading.
type ClarificationSection struct {
	Heading   string
	Questions []ClarificationQuestion
}

// ClarificationFile is the parsed form of context/clarifications.md (and the
// step 0 concepts variant), built from its markdown once per read.
type ClarificationFile struct {
	Sections []ClarificationSection
}

var (
	sectionRe        = regexp.MustCompile(`^## (.+)$`)
	questionRe       = regexp.MustCompile(`^### (Q\d+):\s*(.+)$`)
	questionBodyRe   = regexp.MustCompile(`^\*\*Question\*\*:\s*(.+)$`)
	choiceRe         = regexp.MustCompile(`^\s*([a-z])\)\s*(.+?)(?:\s*—\s*(.+))?$`)
	recommendationRe = regexp.MustCompile(`^\*\*Recommendation\*\*:\s*(.+)$`)
	answerRe         = regexp.MustCompile(`^\*\*Answer\*\*:\s*(.*)$`)
)

// ParseClarificationFile reads a clarifications markdown document line by
// line, recognizing section headings, numbered questions, their lettered
// choices, a recommendation line, and an answer line (§4.5, grounded on
// parse_clarification_file). Unrecognized lines are ignored, matching the
// original's lenient, line-oriented parse.
func ParseClarificationFile(content string) ClarificationFile {
	var file ClarificationFile

	for _, line := range strings.Split(content, "\n") {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			file.Sections = append(file.Sections, ClarificationSection{Heading: strings.TrimSpace(m[1])})
			continue
		}

		if m := questionRe.FindStringSubmatch(line); m != nil {
			if len(file.Sections) == 0 {
				file.Sections = append(file.Sections, ClarificationSection{})
			}
			sec := &file.Sections[len(file.Sections)-1]
			sec.Questions = append(sec.Questions, ClarificationQuestion{
				ID:    m[1],
				Title: strings.TrimSpace(m[2]),
			})
			continue
		}

		q := currentQuestion(&file)
		if q == nil {
			continue
		}

		switch {
		case questionBodyRe.MatchString(line):
			q.Question = strings.TrimSpace(questionBodyRe.FindStringSubmatch(line)[1])
		case choiceRe.MatchString(line):
			m := choiceRe.FindStringSubmatch(line)
			q.Choices = append(q.Choices, ClarificationChoice{
				Letter:    m[1],
				Text:      strings.TrimSpace(m[2]),
				Rationale: strings.TrimSpace(m[3]),
			})
		case recommendationRe.MatchString(line):
			q.Recommendation = strings.TrimSpace(recommendationRe.FindStringSubmatch(line)[1])
		case answerRe.MatchString(line):
			q.Answer = strings.TrimSpace(answerRe.FindStringSubmatch(line)[1])
		}
	}

	return file
}

func currentQuestion(file *ClarificationFile) *ClarificationQuestion {
	if len(file.Sections) == 0 {
		return nil
	}
	sec := &file.Sections[len(file.Sections)-1]
	if len(sec.Questions) == 0 {
		return nil
	}
	return &sec.Questions[len(sec.Questions)-1]
}

// SerializeClarificationFile renders a ClarificationFile back to markdown in
// the same shape parse_clarification_file/serialize_clarification_file
// round-trip, so a clarifications.md re-written after an answer is recorded
// still parses identically to hand-written markdown.
func SerializeClarificationFile(file ClarificationFile) string {
	var b strings.Builder
	for si, section := range file.Sections {
		if si > 0 {
			b.WriteString("\n")
		}
		if section.Heading != "" {
			b.WriteString("## " + section.Heading + "\n\n")
		}
		for _, q := range section.Questions {
			b.WriteString("### " + q.ID + ": " + q.Title + "\n")
			b.WriteString("**Question**: " + q.Question + "\n")
			b.WriteString("**Choices**:\n")
			for _, c := range q.Choices {
				if c.Rationale == "" {
					b.WriteString("  " + c.Letter + ") " + c.Text + "\n")
				} else {
					b.WriteString("  " + c.Letter + ") " + c.Text + " — " + c.Rationale + "\n")
				}
			}
			if q.Recommendation != "" {
				b.WriteString("**Recommendation**: " + q.Recommendation + "\n")
			}
			if q.Answer != "" {
				b.WriteString("**Answer**: " + q.Answer + "\n")
			} else {
				b.WriteString("**Answer**:\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Unanswered lists the IDs of questions still missing an answer, in file
// order across all sections. ValidateDecisionsExist does not consult it; the
// step-5 precondition checks only for a non-empty decisions.md.
func (f ClarificationFile) Unanswered() []string {
	var out []string
	for _, sec := range f.Sections {
		for _, q := range sec.Questions {
			if strings.TrimSpace(q.Answer) == "" {
				out = append(out, q.ID)
			}
		}
	}
	return out
}
