package actions

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	doPrefix     = "do("
	finishPrefix = "finish(message="
)

// ParseError is the structural failure reported when action text does not
// match the call grammar. Callers degrade it to a synthesized finish record;
// it must never abort a run.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed action call %q: %s", truncate(e.Input, 120), e.Reason)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Parse converts action-call text such as `do(action="Tap", element=[500, 300])`
// or `finish(message="Task done")` into a Record.
func Parse(input string) (*Record, error) {
	text := strings.TrimSpace(input)

	switch {
	case strings.HasPrefix(text, finishPrefix):
		return parseFinish(input, text)
	case strings.HasPrefix(text, doPrefix):
		if strings.HasPrefix(text, `do(action="Type"`) || strings.HasPrefix(text, `do(action="Type_Name"`) {
			return parseTypeCall(input, text)
		}
		return parseDo(input, text)
	default:
		return nil, &ParseError{Input: input, Reason: "expected do(...) or finish(...)"}
	}
}

func parseFinish(input, text string) (*Record, error) {
	body, ok := strings.CutSuffix(text[len(finishPrefix):], ")")
	if !ok {
		return nil, &ParseError{Input: input, Reason: "missing closing parenthesis"}
	}
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, `"`)
	body = strings.TrimSuffix(body, `"`)
	return NewFinishRecord(expandEscapes(body)), nil
}

// parseTypeCall extracts the text field of a Type call without the general
// scanner: typed text may legitimately contain commas, quotes, or brackets
// that would defeat key=value splitting.
func parseTypeCall(input, text string) (*Record, error) {
	const marker = `text="`
	start := strings.Index(text, marker)
	end := strings.LastIndex(text, `")`)
	if start < 0 || end < start+len(marker) {
		return nil, &ParseError{Input: input, Reason: "Type call missing quoted text field"}
	}
	typed := text[start+len(marker) : end]
	return NewDoRecord("Type", map[string]any{"text": typed}), nil
}

// scanState is the tagged state of the character scanner. InString and
// InArray are value sub-states; they cannot coexist with key reading.
type scanState int

const (
	stateKey scanState = iota
	stateValue
	stateInString
	stateInArray
)

func parseDo(input, text string) (*Record, error) {
	body, ok := strings.CutSuffix(text[len(doPrefix):], ")")
	if !ok {
		return nil, &ParseError{Input: input, Reason: "missing closing parenthesis"}
	}

	fields := map[string]any{}
	var key, value strings.Builder
	state := stateKey
	escaped := false

	flush := func() {
		k := strings.TrimSpace(key.String())
		if k != "" {
			fields[k] = interpretValue(value.String())
		}
		key.Reset()
		value.Reset()
		state = stateKey
	}

	for _, c := range body {
		if escaped {
			value.WriteRune(c)
			escaped = false
			continue
		}
		switch state {
		case stateKey:
			if c == '=' {
				state = stateValue
			} else {
				key.WriteRune(c)
			}
		case stateValue:
			switch c {
			case '\\':
				escaped = true
				value.WriteRune(c)
			case '"':
				state = stateInString
				value.WriteRune(c)
			case '[':
				state = stateInArray
				value.WriteRune(c)
			case ',':
				flush()
			default:
				value.WriteRune(c)
			}
		case stateInString:
			switch c {
			case '\\':
				escaped = true
				value.WriteRune(c)
			case '"':
				state = stateValue
				value.WriteRune(c)
			default:
				value.WriteRune(c)
			}
		case stateInArray:
			// Quotes and commas inside an array are plain characters; the
			// elements are comma-split during interpretation instead.
			if c == ']' {
				state = stateValue
			}
			value.WriteRune(c)
		}
	}
	if state == stateInString || state == stateInArray {
		return nil, &ParseError{Input: input, Reason: "unterminated string or array"}
	}
	flush()

	action, ok := fields["action"].(string)
	if !ok || action == "" {
		return nil, &ParseError{Input: input, Reason: "missing action field"}
	}
	rec := &Record{Kind: KindDo, Action: action, Fields: fields}
	return rec, nil
}

// interpretValue types a raw value text: quoted string, array, integer,
// float, boolean literal, then raw text, in that priority order.
func interpretValue(raw string) any {
	s := strings.TrimSpace(raw)

	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return expandEscapes(s[1 : len(s)-1])
	}

	if len(s) >= 2 && strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := s[1 : len(s)-1]
		if strings.TrimSpace(inner) == "" {
			return []any{}
		}
		parts := strings.Split(inner, ",")
		arr := make([]any, 0, len(parts))
		for _, p := range parts {
			arr = append(arr, interpretScalar(strings.TrimSpace(p)))
		}
		return arr
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true", "True":
		return true
	case "false", "False":
		return false
	}
	return s
}

// interpretScalar types one array element: integer, float, quote-stripped
// string.
func interpretScalar(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return strings.Trim(s, `"`)
}

func expandEscapes(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, "\\").Replace(s)
}
