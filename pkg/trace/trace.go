package trace

import (
	"encoding/json"
	"strconv"

	"github.com/matzehuels/tracetower/pkg/errors"
)

// Event is the tracer event that produced a snapshot.
type Event string

const (
	EventLine      Event = "line"
	EventCall      Event = "call"
	EventReturn    Event = "return"
	EventException Event = "exception"
	EventFinished  Event = "finished"
)

// ParseEvent maps a wire string to an Event, defaulting to [EventLine].
func ParseEvent(s string) Event {
	switch e := Event(s); e {
	case EventLine, EventCall, EventReturn, EventException, EventFinished:
		return e
	}
	return EventLine
}

// Snapshot is one recorded instant of the traced program.
type Snapshot struct {
	Index     int
	Line      *int // nil when the tracer reported no line (e.g. finished)
	Event     Event
	Variables []Field
	Output    string // cumulative program output, not a delta
}

// Lookup returns the named variable.
func (s *Snapshot) Lookup(name string) (Value, bool) {
	for _, f := range s.Variables {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Finished reports whether the snapshot is the tracer's final step.
func (s *Snapshot) Finished() bool { return s.Event == EventFinished }

// Hint is one entry of the payload's variable_map, kept as the raw string.
type Hint struct {
	Name string
	Role string
}

// Trace is an immutable, ordered snapshot sequence.
type Trace struct {
	Snapshots []Snapshot
	Hints     []Hint // raw variable_map, in payload order

	// Error is the tracer's own execution error message, shown verbatim.
	Error       string
	FinalOutput string
}

// Len returns the number of snapshots.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Snapshots)
}

// At returns snapshot i, or nil when i is out of range.
func (t *Trace) At(i int) *Snapshot {
	if t == nil || i < 0 || i >= len(t.Snapshots) {
		return nil
	}
	return &t.Snapshots[i]
}

// Normalize decodes a raw tracer payload.
//
// It never fails outright: when the payload is unreadable or carries no
// steps array it returns an empty, usable trace together with a
// MALFORMED_TRACE error describing what was wrong.
func Normalize(raw []byte) (*Trace, error) {
	var root Value
	if err := json.Unmarshal(raw, &root); err != nil {
		return &Trace{}, errors.Wrap(errors.ErrCodeMalformedTrace, err, "trace payload is not valid JSON")
	}
	return NormalizeValue(root)
}

// NormalizeValue is [Normalize] for an already decoded payload.
func NormalizeValue(root Value) (*Trace, error) {
	if !root.IsObject() {
		return &Trace{}, errors.New(errors.ErrCodeMalformedTrace, "trace payload is a %s, want an object", root.Kind())
	}

	t := &Trace{
		Hints:       hintsFrom(root),
		Error:       stringField(root, "error"),
		FinalOutput: stringField(root, "final_output"),
	}

	steps, ok := root.Field("steps")
	if !ok || steps.Kind() != KindSequence {
		return t, errors.New(errors.ErrCodeMalformedTrace, "trace payload has no steps array")
	}

	t.Snapshots = make([]Snapshot, len(steps.Items()))
	for i, step := range steps.Items() {
		t.Snapshots[i] = snapshotFrom(i, step)
	}
	return t, nil
}

func snapshotFrom(i int, step Value) Snapshot {
	s := Snapshot{Index: i, Event: EventLine}
	if !step.IsObject() {
		return s
	}
	if v, ok := step.Field("variables"); ok && v.IsObject() {
		s.Variables = v.Fields()
	}
	s.Output = stringField(step, "output")
	if v, ok := step.Field("event"); ok && v.Literal() == LiteralString && v.Kind() == KindScalar {
		s.Event = ParseEvent(v.Text())
	}
	if v, ok := step.Field("line"); ok && v.Kind() == KindScalar && v.Literal() == LiteralNumber {
		if n, err := strconv.Atoi(v.Text()); err == nil {
			s.Line = &n
		}
	}
	return s
}

func hintsFrom(root Value) []Hint {
	m, ok := root.Field("variable_map")
	if !ok || !m.IsObject() {
		return nil
	}
	var hints []Hint
	for _, f := range m.Fields() {
		if f.Value.Kind() == KindScalar && f.Value.Literal() == LiteralString {
			hints = append(hints, Hint{Name: f.Name, Role: f.Value.Text()})
		}
	}
	return hints
}

func stringField(v Value, name string) string {
	f, ok := v.Field(name)
	if !ok || f.Kind() != KindScalar || f.Literal() != LiteralString {
		return ""
	}
	return f.Text()
}
