package model

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// The schedule file is shared with other site tooling, so decoding keeps
// every member it does not recognise and encoding appends them, sorted by
// key, after the known fields.

type entryJSON ScheduleEntry

type scheduleJSON Schedule

var (
	entryFields    = jsonFields(reflect.TypeFor[entryJSON]())
	scheduleFields = jsonFields(reflect.TypeFor[scheduleJSON]())
)

func (e *ScheduleEntry) UnmarshalJSON(data []byte) error {
	var p entryJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownMembers(data, entryFields)
	if err != nil {
		return err
	}
	*e = ScheduleEntry(p)
	e.Extra = extra
	return nil
}

// MarshalJSON writes "alternatives" only when the slice is non-nil, so an
// entry that never had the key does not gain one.
func (e ScheduleEntry) MarshalJSON() ([]byte, error) {
	var tail []member
	if e.Alternatives != nil && len(e.Alternatives) == 0 {
		tail = append(tail, member{key: "alternatives", value: json.RawMessage("[]")})
	}
	return marshalObject(entryJSON(e), e.Extra, tail)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var p scheduleJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownMembers(data, scheduleFields)
	if err != nil {
		return err
	}
	*s = Schedule(p)
	s.Extra = extra
	return nil
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	return marshalObject(scheduleJSON(s), s.Extra, nil)
}

type member struct {
	key   string
	value json.RawMessage
}

// jsonFields lists the lower-cased JSON names of t's fields. Matching is
// case-insensitive like encoding/json's own.
func jsonFields(t reflect.Type) map[string]bool {
	out := make(map[string]bool, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		out[strings.ToLower(name)] = true
	}
	return out
}

func unknownMembers(data []byte, known map[string]bool) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, v := range all {
		if known[strings.ToLower(k)] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra, nil
}

// marshalObject encodes v without HTML escaping and appends tail and then
// extra as further members of the resulting object.
func marshalObject(v any, extra map[string]json.RawMessage, tail []member) ([]byte, error) {
	obj, err := encode(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 && len(tail) == 0 {
		return obj, nil
	}
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		tail = append(tail, member{key: k, value: extra[k]})
	}

	out := obj[:len(obj)-1]
	for _, m := range tail {
		key, err := encode(m.key)
		if err != nil {
			return nil, err
		}
		if len(out) > 1 {
			out = append(out, ',')
		}
		out = append(out, key...)
		out = append(out, ':')
		out = append(out, m.value...)
	}
	return append(out, '}'), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
