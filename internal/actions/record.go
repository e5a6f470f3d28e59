// Package actions defines the action-call record, its text parser, and the
// dispatcher that turns records into device effects.
package actions

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the two record shapes a model can emit.
type Kind string

const (
	// KindDo is a device action request.
	KindDo Kind = "do"
	// KindFinish signals task completion.
	KindFinish Kind = "finish"
)

// Record is a parsed action call. Field values are string, int64, float64,
// bool, or []any of those.
type Record struct {
	Kind   Kind
	Action string
	Fields map[string]any
}

// NewDoRecord builds a device-action record.
func NewDoRecord(action string, fields map[string]any) *Record {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["action"] = action
	return &Record{Kind: KindDo, Action: action, Fields: fields}
}

// NewFinishRecord builds a completion record.
func NewFinishRecord(message string) *Record {
	return &Record{Kind: KindFinish, Fields: map[string]any{"message": message}}
}

// StringField returns a field as a string, with ok reporting presence.
func (r *Record) StringField(key string) (string, bool) {
	v, ok := r.Fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Message returns the message field, empty when absent.
func (r *Record) Message() string {
	s, _ := r.StringField("message")
	return s
}

// Coords returns a 2-element coordinate field as floats. Elements may arrive
// as integers or floats depending on how the model wrote them.
func (r *Record) Coords(key string) (x, y float64, ok bool) {
	v, found := r.Fields[key]
	if !found {
		return 0, 0, false
	}
	arr, isArr := v.([]any)
	if !isArr || len(arr) != 2 {
		return 0, 0, false
	}
	x, okX := asFloat(arr[0])
	y, okY := asFloat(arr[1])
	return x, y, okX && okY
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// CallString re-serializes the record into action-call syntax. Field order is
// deterministic so equal records render identically.
func (r *Record) CallString() string {
	if r.Kind == KindFinish {
		return fmt.Sprintf("finish(message=%s)", formatValue(r.Message()))
	}

	var b strings.Builder
	b.WriteString("do(action=")
	b.WriteString(formatValue(r.Action))
	for _, key := range r.fieldOrder() {
		b.WriteString(", ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(formatValue(r.Fields[key]))
	}
	b.WriteString(")")
	return b.String()
}

// fieldOrder lists non-action fields: well-known keys first, the rest sorted.
func (r *Record) fieldOrder() []string {
	known := []string{"element", "start", "end", "text", "app", "duration", "message"}
	seen := map[string]bool{"action": true}
	var order []string
	for _, k := range known {
		if _, ok := r.Fields[k]; ok {
			order = append(order, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range r.Fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		escaped := strings.NewReplacer("\\", `\\`, "\"", `\"`, "\n", `\n`, "\t", `\t`).Replace(t)
		return `"` + escaped + `"`
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(t)
	}
}
