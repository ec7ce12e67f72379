package trace

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/Readm/pipeview/core"
)

// recordKind tags a normalized stream element by its field signature.
type recordKind int

const (
	recordIgnored recordKind = iota
	recordCycleMarker
	recordStageEvent
	recordCycleEvent
	recordBundle
)

func (k recordKind) String() string {
	switch k {
	case recordCycleMarker:
		return "cycle marker"
	case recordStageEvent:
		return "stage event"
	case recordCycleEvent:
		return "cycle stage event"
	case recordBundle:
		return "cycle bundle"
	default:
		return "ignored"
	}
}

// record is one stream element after normalization. Only the fields matching
// kind are populated.
type record struct {
	kind    recordKind
	element int
	cycle   int
	event   core.StageEvent
	bundle  *bundle
}

type bundle struct {
	events    []core.StageEvent
	registers []core.RegisterSnapshot
	memory    []core.MemorySnapshot
}

var bundleFields = []string{"logs", "stages", "events", "registers", "memory"}

// splitElements decodes the top-level JSON array without interpreting its elements.
func splitElements(raw []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed(-1, "", "expected a JSON array")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, malformed(-1, "", "%v", err)
	}
	return elems, nil
}

func decodeObject(element int, raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, malformed(element, "", "expected a JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, malformed(element, "", "%v", err)
	}
	return fields, nil
}

// normalize classifies one element and decodes the fields its kind requires.
func normalize(element int, raw json.RawMessage) (record, error) {
	fields, err := decodeObject(element, raw)
	if err != nil {
		return record{}, err
	}
	rec := record{element: element}

	_, hasCycle := fields["cycle"]
	_, hasInstruction := fields["instruction"]
	_, hasStage := fields["stage"]
	hasBundleField := false
	for _, name := range bundleFields {
		if _, ok := fields[name]; ok {
			hasBundleField = true
			break
		}
	}

	switch {
	case hasCycle && hasBundleField:
		rec.kind = recordBundle
		if rec.cycle, err = decodeCycle(element, fields["cycle"]); err != nil {
			return record{}, err
		}
		if rec.bundle, err = decodeBundle(element, fields); err != nil {
			return record{}, err
		}
	case hasCycle && hasInstruction && hasStage:
		// marker and event in one element: the event belongs to that cycle
		rec.kind = recordCycleEvent
		if rec.cycle, err = decodeCycle(element, fields["cycle"]); err != nil {
			return record{}, err
		}
		if rec.event, err = decodeStageEvent(element, fields, true); err != nil {
			return record{}, err
		}
	case hasCycle:
		rec.kind = recordCycleMarker
		if rec.cycle, err = decodeCycle(element, fields["cycle"]); err != nil {
			return record{}, err
		}
	case hasInstruction && hasStage:
		rec.kind = recordStageEvent
		if rec.event, err = decodeStageEvent(element, fields, true); err != nil {
			return record{}, err
		}
	default:
		rec.kind = recordIgnored
	}
	return rec, nil
}

func decodeBundle(element int, fields map[string]json.RawMessage) (*bundle, error) {
	b := &bundle{}
	for _, name := range []string{"logs", "stages", "events"} {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			continue
		}
		items, err := decodeArray(element, name, raw)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			obj, err := decodeObject(element, item)
			if err != nil {
				return nil, err
			}
			ev, err := decodeStageEvent(element, obj, false)
			if err != nil {
				return nil, err
			}
			b.events = append(b.events, ev)
		}
	}

	if raw, ok := fields["registers"]; ok && !isNull(raw) {
		items, err := decodeArray(element, "registers", raw)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			obj, err := decodeObject(element, item)
			if err != nil {
				return nil, err
			}
			nameField := "reg"
			if _, ok := obj[nameField]; !ok {
				nameField = "name"
			}
			name, err := decodeText(element, nameField, obj[nameField])
			if err != nil {
				return nil, err
			}
			value, err := decodeText(element, "value", obj["value"])
			if err != nil {
				return nil, err
			}
			b.registers = append(b.registers, core.RegisterSnapshot{Name: name, Value: value})
		}
	}

	if raw, ok := fields["memory"]; ok && !isNull(raw) {
		items, err := decodeArray(element, "memory", raw)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			obj, err := decodeObject(element, item)
			if err != nil {
				return nil, err
			}
			address, err := decodeText(element, "address", obj["address"])
			if err != nil {
				return nil, err
			}
			value, err := decodeText(element, "value", obj["value"])
			if err != nil {
				return nil, err
			}
			b.memory = append(b.memory, core.MemorySnapshot{Address: address, Value: value})
		}
	}
	return b, nil
}

// decodeStageEvent reads instruction, stage and message. Nested producers may
// leave out the instruction; such events are attributed to instruction 0.
func decodeStageEvent(element int, fields map[string]json.RawMessage, requireInstruction bool) (core.StageEvent, error) {
	var ev core.StageEvent

	rawInstr, ok := fields["instruction"]
	if ok {
		n, err := decodeInstruction(element, rawInstr)
		if err != nil {
			return ev, err
		}
		ev.Instruction = n
	} else if requireInstruction {
		return ev, malformed(element, "instruction", "missing")
	}

	rawStage, ok := fields["stage"]
	if !ok {
		return ev, malformed(element, "stage", "missing")
	}
	var stage string
	if err := json.Unmarshal(rawStage, &stage); err != nil {
		return ev, malformed(element, "stage", "expected a string")
	}
	ev.Stage = stage
	ev.Key = core.NormalizeStage(stage)
	if ev.Key == "" {
		return ev, malformed(element, "stage", "empty stage name")
	}

	if rawMsg, ok := fields["message"]; ok && !isNull(rawMsg) {
		if err := json.Unmarshal(rawMsg, &ev.Message); err != nil {
			return ev, malformed(element, "message", "expected a string")
		}
	}
	return ev, nil
}

func decodeCycle(element int, raw json.RawMessage) (int, error) {
	n, ok := decodeInteger(raw)
	if !ok || n <= 0 {
		return 0, malformed(element, "cycle", "expected a positive integer, got %s", bytes.TrimSpace(raw))
	}
	return n, nil
}

func decodeInstruction(element int, raw json.RawMessage) (int, error) {
	n, ok := decodeInteger(raw)
	if !ok || n < 0 {
		return 0, invalidInstruction(element, "expected a non-negative integer, got %s", bytes.TrimSpace(raw))
	}
	return n, nil
}

// decodeInteger accepts bare JSON number literals with an integral value, so
// "3", "3.0" and "3e0" all read as 3; "1.5" and "\"1\"" are rejected.
func decodeInteger(raw json.RawMessage) (int, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '-' && (trimmed[0] < '0' || trimmed[0] > '9')) {
		return 0, false
	}
	if n, err := strconv.Atoi(string(trimmed)); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
		return 0, false
	}
	return int(f), true
}

// maxExactInteger is the largest magnitude a float64 holds without rounding.
const maxExactInteger = 1 << 53

// decodeText reads a string, or the literal text of a number, for display fields.
func decodeText(element int, field string, raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", malformed(element, field, "missing")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", malformed(element, field, "%v", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", malformed(element, field, "expected a string or number")
	}
	return n.String(), nil
}

func decodeArray(element int, field string, raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed(element, field, "expected an array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, malformed(element, field, "%v", err)
	}
	return items, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
