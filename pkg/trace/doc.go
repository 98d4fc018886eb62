// Package trace holds the value model and the trace store.
//
// A trace is the output of an external program tracer: an ordered list of
// snapshots, each recording the paused line, the event kind, the visible
// variables and the program output so far. This package never executes
// anything; it only turns the tracer's JSON payload into immutable Go values.
//
// # Value Model
//
// Traced values are a tagged union ([Value]):
//
//   - Scalar: a display string (numbers keep their JSON literal text)
//   - Sequence: an ordered list of values
//   - Mapping: an ordered association of keys to values
//   - Reference: a user object with an optional type tag and ordered fields
//   - Cyclic: a placeholder the tracer inserted instead of a reference that
//     would otherwise recurse forever
//
// Objects carrying a "__type__" key decode as references; the tracer's
// "repr(Circular reference ...)" and "repr(Object too deep ...)" strings decode
// as [Cyclic]. Key order is preserved from the payload.
//
// # Trace Store
//
// [Normalize] is defensive: a missing "steps" array yields an empty trace
// plus a MALFORMED_TRACE error, and individual malformed steps degrade to
// defaults instead of aborting the whole trace:
//
//	tr, err := trace.Normalize(payload)
//	if err != nil {
//	    logger.Warn("degraded trace", "err", err) // tr is still usable
//	}
//	for _, s := range tr.Snapshots {
//	    fmt.Println(s.Index, s.Event, s.Output)
//	}
package trace
