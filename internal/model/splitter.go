// Package model talks to the OpenAI-compatible vision-language endpoint and
// splits its streamed replies into thinking and action text.
package model

import (
	"strings"
	"unicode/utf8"
)

// Marker literals that begin the action suffix of a model reply.
const (
	doMarker     = "do(action="
	finishMarker = "finish(message="
	answerOpen   = "<answer>"
	answerClose  = "</answer>"
	thinkOpen    = "<think>"
	thinkClose   = "</think>"
)

var markers = []string{finishMarker, doMarker}

// SplitResult is the final thinking/action classification of one reply.
type SplitResult struct {
	Thinking string
	Action   string
}

// Splitter classifies an incrementally arriving reply into a thinking prefix
// and a trailing action suffix. Thinking text is forwarded to the observer as
// it is finalized so the user sees reasoning live; action text is never sent
// to the observer raw.
type Splitter struct {
	observer func(string)

	raw      strings.Builder
	pending  strings.Builder
	inAction bool
}

// NewSplitter creates a splitter. A nil observer disables live output.
func NewSplitter(observer func(string)) *Splitter {
	if observer == nil {
		observer = func(string) {}
	}
	return &Splitter{observer: observer}
}

// Raw returns everything fed so far, unmodified.
func (s *Splitter) Raw() string {
	return s.raw.String()
}

// ActionStarted reports whether a marker has been seen and the stream is in
// the action phase.
func (s *Splitter) ActionStarted() bool {
	return s.inAction
}

// Feed appends one stream fragment. Fragments may split multi-byte
// characters and marker literals at arbitrary byte boundaries.
func (s *Splitter) Feed(fragment string) {
	if fragment == "" {
		return
	}
	s.raw.WriteString(fragment)
	if s.inAction {
		return
	}

	s.pending.WriteString(fragment)
	buf := s.pending.String()

	// The first marker occurrence governs the split.
	if idx, ok := firstMarker(buf); ok {
		s.observer(buf[:idx])
		s.pending.Reset()
		s.inAction = true
		return
	}

	// Hold back any tail that might still complete a marker, or an
	// incomplete multi-byte character, across the next fragment boundary.
	hold := holdPoint(buf)
	if hold > 0 {
		s.observer(buf[:hold])
		s.pending.Reset()
		s.pending.WriteString(buf[hold:])
	}
}

// Finish computes the final split. It always works from the full raw text,
// so the result is identical whether the reply arrived as one fragment or
// one byte at a time.
func (s *Splitter) Finish() SplitResult {
	raw := s.raw.String()

	if idx, ok := firstMarker(raw); ok {
		return SplitResult{
			Thinking: strings.TrimSpace(raw[:idx]),
			Action:   strings.TrimSpace(raw[idx:]),
		}
	}

	// Secondary envelope: <answer>...</answer> with optional <think> tags.
	// Some model versions emit this instead of the bare call markers.
	if open := strings.Index(raw, answerOpen); open >= 0 {
		thinking := stripThinkTags(raw[:open])
		rest := raw[open+len(answerOpen):]
		if end := strings.Index(rest, answerClose); end >= 0 {
			rest = rest[:end]
		}
		return SplitResult{
			Thinking: strings.TrimSpace(thinking),
			Action:   strings.TrimSpace(rest),
		}
	}

	// No recognizable envelope: the whole reply is the action.
	return SplitResult{Action: strings.TrimSpace(raw)}
}

func stripThinkTags(s string) string {
	s = strings.ReplaceAll(s, thinkOpen, "")
	return strings.ReplaceAll(s, thinkClose, "")
}

// firstMarker finds the earliest occurrence of any marker literal.
func firstMarker(s string) (int, bool) {
	best := -1
	for _, m := range markers {
		if idx := strings.Index(s, m); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best, best >= 0
}

// holdPoint returns the byte offset up to which the buffer can be safely
// emitted: everything after it is a strict prefix of a marker literal or an
// incomplete UTF-8 sequence that the next fragment may complete.
func holdPoint(s string) int {
	hold := len(s)
	for _, m := range markers {
		// Longest proper suffix of s that prefixes m.
		start := len(s) - len(m) + 1
		if start < 0 {
			start = 0
		}
		for j := start; j < len(s); j++ {
			if strings.HasPrefix(m, s[j:]) {
				if j < hold {
					hold = j
				}
				break
			}
		}
	}

	// Back off over a trailing incomplete multi-byte sequence.
	i := hold - 1
	for i >= 0 && hold-i < utf8.UTFMax && !utf8.RuneStart(s[i]) {
		i--
	}
	if i >= 0 && utf8.RuneStart(s[i]) && !utf8.FullRuneInString(s[i:hold]) {
		hold = i
	}
	return hold
}
