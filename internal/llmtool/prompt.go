package llmtool

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// SectionKind fixes where a section lands in the rendered prompt. Sections
// always render in ascending kind order regardless of the order they were added.
type SectionKind int

const (
	SectionRole SectionKind = iota
	SectionDomain
	SectionInput
	SectionQuestion
	SectionPrior
	SectionObjective
	SectionGuidance
	SectionOutputShape
	SectionScratch
	SectionDelimiter
)

var sectionNames = [...]string{
	SectionRole:        "role",
	SectionDomain:      "domain",
	SectionInput:       "input",
	SectionQuestion:    "question",
	SectionPrior:       "prior",
	SectionObjective:   "objective",
	SectionGuidance:    "guidance",
	SectionOutputShape: "output_shape",
	SectionScratch:     "scratch",
	SectionDelimiter:   "delimiter",
}

func (k SectionKind) String() string {
	if k < 0 || int(k) >= len(sectionNames) {
		return fmt.Sprintf("section(%d)", int(k))
	}
	return sectionNames[k]
}

// Section is one heading plus body. Heading is written as-is, so callers
// choose the markdown level.
type Section struct {
	Kind    SectionKind
	Heading string
	Body    string
}

// Document collects typed sections and renders them in a fixed order.
type Document struct {
	sections []Section
}

// Add appends a section. Sections with both heading and body empty are dropped
// at render time.
func (d *Document) Add(kind SectionKind, heading, body string) *Document {
	d.sections = append(d.sections, Section{Kind: kind, Heading: heading, Body: body})
	return d
}

// Sections returns the sections of one kind in insertion order.
func (d *Document) Sections(kind SectionKind) []Section {
	var out []Section
	for _, s := range d.sections {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Render writes every section in kind order. Sections of the same kind keep
// insertion order.
func (d *Document) Render() string {
	ordered := make([]Section, len(d.sections))
	copy(ordered, d.sections)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Kind < ordered[j].Kind })

	var buf bytes.Buffer
	for _, s := range ordered {
		writeSection(&buf, s.Heading, s.Body)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, heading, body string) {
	if heading == "" && strings.TrimSpace(body) == "" {
		return
	}
	if heading != "" {
		buf.WriteString(heading)
		buf.WriteString("\n")
	}
	if body != "" {
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	buf.WriteString("\n")
}

// Fence wraps text in a code fence long enough that no backtick run inside
// text can close it early. The text itself is never altered.
func Fence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	fence := strings.Repeat("`", n)
	var b strings.Builder
	b.WriteString(fence)
	b.WriteString("\n")
	b.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(fence)
	return b.String()
}

// List renders items as a markdown bullet list, skipping blanks.
func List(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Numbered renders items as a 1-based numbered list, skipping blanks.
func Numbered(items []string) string {
	var buf strings.Builder
	i := 0
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		i++
		fmt.Fprintf(&buf, "%d. %s\n", i, item)
	}
	return strings.TrimRight(buf.String(), "\n")
}
