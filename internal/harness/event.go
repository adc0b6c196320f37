package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/keychord/internal/engine"
	"github.com/roach88/keychord/internal/ir"
)

// ParseEvent parses scenario event notation: "press 12" for a physical key,
// "release 3/7" for key 7 on row 3.
func ParseEvent(s string) (engine.Event, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return engine.Event{}, fmt.Errorf("event %q: want \"press|release [row/]key\"", s)
	}

	var ev engine.Event
	switch fields[0] {
	case "press":
		ev.Kind = engine.KindPress
	case "release":
		ev.Kind = engine.KindRelease
	default:
		return engine.Event{}, fmt.Errorf("event %q: unknown kind %q", s, fields[0])
	}

	rowStr, keyStr, hasRow := strings.Cut(fields[1], "/")
	if !hasRow {
		keyStr, rowStr = rowStr, ""
	}

	if rowStr != "" {
		row, err := strconv.ParseUint(rowStr, 10, 8)
		if err != nil {
			return engine.Event{}, fmt.Errorf("event %q: bad row: %w", s, err)
		}
		ev.Key.Row = uint8(row)
	}

	id, err := strconv.ParseUint(keyStr, 10, 16)
	if err != nil {
		return engine.Event{}, fmt.Errorf("event %q: bad key: %w", s, err)
	}
	ev.Key.ID = engine.KeyID(id)

	return ev, nil
}

// recordOf converts an engine event to its trace record.
func recordOf(q engine.Queued) ir.EventRecord {
	return ir.EventRecord{
		Kind:  q.Event.Kind.String(),
		Row:   q.Event.Key.Row,
		Key:   uint16(q.Event.Key.ID),
		Since: q.Since,
	}
}

// sameEvent compares a record with an event, ignoring queue age.
func sameEvent(r ir.EventRecord, ev engine.Event) bool {
	return r.Kind == ev.Kind.String() && r.Row == ev.Key.Row && r.Key == uint16(ev.Key.ID)
}

// FormatEvent renders a record as "press 0/12", with "@age" appended when
// the event spent time in the chord queue.
func FormatEvent(r ir.EventRecord) string {
	s := fmt.Sprintf("%s %d/%d", r.Kind, r.Row, r.Key)
	if r.Since > 0 {
		s += "@" + strconv.Itoa(int(r.Since))
	}
	return s
}

// traceItem is one parsed trace_order entry.
type traceItem struct {
	deliver string
	emit    *engine.Event
}

func parseTraceItem(s string) (traceItem, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(s), " ")
	rest = strings.TrimSpace(rest)
	switch verb {
	case "deliver":
		if rest == "" {
			return traceItem{}, fmt.Errorf("item %q: chord name is required", s)
		}
		return traceItem{deliver: rest}, nil
	case "emit":
		ev, err := ParseEvent(rest)
		if err != nil {
			return traceItem{}, fmt.Errorf("item %q: %w", s, err)
		}
		return traceItem{emit: &ev}, nil
	default:
		return traceItem{}, fmt.Errorf("item %q: want \"deliver <chord>\" or \"emit <event>\"", s)
	}
}
