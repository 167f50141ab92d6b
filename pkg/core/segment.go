package core

import "strings"

// SegmentKind distinguishes the two kinds of body segments.
type SegmentKind int

const (
	// SegmentText is a run of prose between fenced code blocks.
	SegmentText SegmentKind = iota
	// SegmentCode is a fenced code block, fence lines included.
	SegmentCode
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentText:
		return "text"
	case SegmentCode:
		return "code"
	}
	return "unknown"
}

// Segment is a typed slice of a post body. Raw holds the exact source bytes
// of the segment, so concatenating the Raw fields of a split body reproduces
// the body byte for byte.
type Segment struct {
	Kind SegmentKind
	Raw  string

	// Lang and Body are populated for SegmentCode only: Lang is the first
	// word of the opening fence's info string, Body the literal lines
	// between the fences.
	Lang string
	Body string
}

// TextSegment builds a prose segment.
func TextSegment(text string) Segment {
	return Segment{Kind: SegmentText, Raw: text}
}

// CodeSegment builds a fenced code segment tagged with a language. The
// fence is lengthened as needed so the body cannot close it early.
func CodeSegment(lang, body string) Segment {
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	fence := "```"
	for strings.Contains(body, fence) {
		fence += "`"
	}
	return Segment{
		Kind: SegmentCode,
		Raw:  fence + lang + "\n" + body + fence + "\n",
		Lang: lang,
		Body: body,
	}
}

// SplitSegments splits a post body into prose and fenced code segments.
// Fences follow the usual markdown rules: a run of at least three backticks
// or tildes indented at most three spaces opens a block, and a run of the
// same character at least as long on its own line closes it. A fence that
// never closes yields an UnterminatedFenceError. Splitting is pure: the
// same body always produces the same segments.
func SplitSegments(body string) ([]Segment, error) {
	if body == "" {
		return nil, nil
	}

	var segs []Segment
	textStart := 0
	lineNo := 0

	i := 0
	for i < len(body) {
		lineNo++
		lineEnd, next := lineBounds(body, i)
		marker, runLen, info, ok := openingFence(trimCR(body[i:lineEnd]))
		if !ok {
			i = next
			continue
		}

		openLine := lineNo
		closed := false
		j := next
		for j < len(body) {
			lineNo++
			jEnd, jNext := lineBounds(body, j)
			if !closingFence(trimCR(body[j:jEnd]), marker, runLen) {
				j = jNext
				continue
			}
			if textStart < i {
				segs = append(segs, Segment{Kind: SegmentText, Raw: body[textStart:i]})
			}
			segs = append(segs, Segment{
				Kind: SegmentCode,
				Raw:  body[i:jNext],
				Lang: firstWord(info),
				Body: body[next:j],
			})
			textStart = jNext
			i = jNext
			closed = true
			break
		}
		if !closed {
			return nil, &UnterminatedFenceError{
				Line:  openLine,
				Fence: strings.Repeat(string(marker), runLen),
			}
		}
	}

	if textStart < len(body) {
		segs = append(segs, Segment{Kind: SegmentText, Raw: body[textStart:]})
	}
	return segs, nil
}

// JoinSegments reassembles a body from its segments. For any body,
// JoinSegments(SplitSegments(body)) returns the body unchanged.
func JoinSegments(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Raw)
	}
	return b.String()
}

// lineBounds returns the end of the line starting at start (exclusive of
// the newline) and the start of the following line.
func lineBounds(s string, start int) (end, next int) {
	if nl := strings.IndexByte(s[start:], '\n'); nl >= 0 {
		end = start + nl
		return end, end + 1
	}
	return len(s), len(s)
}

func trimCR(s string) string {
	return strings.TrimSuffix(s, "\r")
}

func openingFence(line string) (marker byte, runLen int, info string, ok bool) {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	if indent > 3 || indent == len(line) {
		return 0, 0, "", false
	}
	marker = line[indent]
	if marker != '`' && marker != '~' {
		return 0, 0, "", false
	}
	run := indent
	for run < len(line) && line[run] == marker {
		run++
	}
	if run-indent < 3 {
		return 0, 0, "", false
	}
	info = line[run:]
	// The info string of a backtick fence cannot itself contain backticks,
	// which keeps inline code spans from opening blocks.
	if marker == '`' && strings.IndexByte(info, '`') >= 0 {
		return 0, 0, "", false
	}
	return marker, run - indent, info, true
}

func closingFence(line string, marker byte, runLen int) bool {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	if indent > 3 {
		return false
	}
	run := indent
	for run < len(line) && line[run] == marker {
		run++
	}
	if run-indent < runLen {
		return false
	}
	return strings.TrimRight(line[run:], " \t") == ""
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
