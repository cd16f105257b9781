package recordstore

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

type person struct {
	Name string `store:"name"`
	Age  int    `store:"age"`
	Boss *bool  `store:"boss"`
}

func newPerson(t *testing.T, opts ...Option) *Store[person] {
	t.Helper()
	s, err := New(person{Name: "John", Age: 23}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

// recorder collects the values a listener receives.
type recorder struct {
	values []any
}

func (r *recorder) listen(field string) Listener {
	return Listener{Field: field, Callback: func(v any) {
		r.values = append(r.values, v)
	}}
}

func (r *recorder) reset() {
	r.values = nil
}

// assertShape checks that every field has a listener set and nothing else does.
func assertShape[T any](t *testing.T, s *Store[T]) {
	t.Helper()
	if len(s.listeners) != len(s.shape.names) {
		t.Fatalf("len(listeners) = %d, want %d", len(s.listeners), len(s.shape.names))
	}
	for i, set := range s.listeners {
		if set == nil {
			t.Errorf("listeners[%d] (%s) = nil", i, s.shape.names[i])
		}
	}
	for id, i := range s.active {
		if _, ok := s.listeners[i].byID[id]; !ok {
			t.Errorf("active id %q not registered on %s", id, s.shape.names[i])
		}
	}
}

func TestNew_StructShape(t *testing.T) {
	s := newPerson(t)

	want := []string{"name", "age", "boss"}
	if got := s.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
	assertShape(t, s)
	for _, f := range want {
		if n := s.ListenerCount(f); n != 0 {
			t.Errorf("ListenerCount(%q) = %d, want 0", f, n)
		}
	}
}

func TestNew_StructTags(t *testing.T) {
	type record struct {
		Plain   string
		Renamed int    `store:"renamed,omitempty"`
		Skipped bool   `store:"-"`
		hidden  string
	}

	s, err := New(record{Plain: "p", Renamed: 1, Skipped: true, hidden: "h"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []string{"Plain", "renamed"}
	if got := s.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}

	if _, err := s.Get("Skipped"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Get(Skipped) error = %v, want ErrUnknownField", err)
	}

	// fields outside the shape survive Record()
	rec := s.Record()
	if !rec.Skipped || rec.hidden != "h" {
		t.Errorf("Record() = %+v, want Skipped and hidden preserved", rec)
	}
}

func TestNew_DuplicateFieldName(t *testing.T) {
	type record struct {
		A int `store:"x"`
		B int `store:"x"`
	}

	_, err := New(record{})
	if !errors.Is(err, ErrDuplicateField) {
		t.Errorf("New() error = %v, want ErrDuplicateField", err)
	}
}

func TestNew_MapShape(t *testing.T) {
	s, err := New(map[string]any{"name": "John", "age": 23, "boss": nil})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []string{"age", "boss", "name"}
	if got := s.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
	assertShape(t, s)

	boss, err := s.Get("boss")
	if err != nil {
		t.Fatalf("Get(boss) error = %v", err)
	}
	if boss != nil {
		t.Errorf("Get(boss) = %v, want nil", boss)
	}
}

func TestNew_NotRecord(t *testing.T) {
	if _, err := New(42); !errors.Is(err, ErrNotRecord) {
		t.Errorf("New(int) error = %v, want ErrNotRecord", err)
	}
	if _, err := New([]string{"a"}); !errors.Is(err, ErrNotRecord) {
		t.Errorf("New(slice) error = %v, want ErrNotRecord", err)
	}
	if _, err := New(map[int]string{1: "a"}); !errors.Is(err, ErrNotRecord) {
		t.Errorf("New(map[int]) error = %v, want ErrNotRecord", err)
	}
	if _, err := New(&person{}); !errors.Is(err, ErrNotRecord) {
		t.Errorf("New(*person) error = %v, want ErrNotRecord", err)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"nil logger", WithLogger(nil)},
		{"nil id generator", WithIDGenerator(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(person{}, tt.opt); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustNew() expected panic for non-record type")
		}
	}()
	MustNew("not a record")
}

func TestStore_Get(t *testing.T) {
	s := newPerson(t)

	name, err := s.Get("name")
	if err != nil {
		t.Fatalf("Get(name) error = %v", err)
	}
	if name != "John" {
		t.Errorf("Get(name) = %v, want John", name)
	}

	_, err = s.Get("email")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("Get(email) error = %v, want ErrUnknownField", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "email" || fe.Op != "get" {
		t.Errorf("Get(email) error = %#v, want FieldError{Op: get, Field: email}", err)
	}
}

func TestStore_ReadAfterWrite(t *testing.T) {
	boss := true

	tests := []struct {
		field string
		value any
		want  any
	}{
		{"name", "Joe", "Joe"},
		{"age", 99, 99},
		{"age", 0, 0},
		{"boss", &boss, &boss},
		{"boss", nil, (*bool)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			s := newPerson(t)
			if err := s.Set(Change{Field: tt.field, Value: tt.value}); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, err := s.Get(tt.field)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestStore_SetValidation(t *testing.T) {
	tests := []struct {
		name    string
		changes []Change
		wantErr error
	}{
		{
			name:    "unknown field",
			changes: []Change{{Field: "name", Value: "Joe"}, {Field: "email", Value: "x"}},
			wantErr: ErrUnknownField,
		},
		{
			name:    "wrong type",
			changes: []Change{{Field: "name", Value: "Joe"}, {Field: "age", Value: "old"}},
			wantErr: ErrTypeMismatch,
		},
		{
			name:    "nil for non-nillable",
			changes: []Change{{Field: "age", Value: nil}},
			wantErr: ErrTypeMismatch,
		},
		{
			name:    "duplicate field",
			changes: []Change{{Field: "age", Value: 1}, {Field: "age", Value: 2}},
			wantErr: ErrDuplicateField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newPerson(t)
			var rec recorder
			if _, err := s.AddListeners(rec.listen("name"), rec.listen("age")); err != nil {
				t.Fatalf("AddListeners() error = %v", err)
			}
			rec.reset()

			err := s.Set(tt.changes...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Set() error = %v, want %v", err, tt.wantErr)
			}

			// nothing written, nothing notified
			if got := s.Record(); got.Name != "John" || got.Age != 23 {
				t.Errorf("Record() = %+v, want unchanged", got)
			}
			if len(rec.values) != 0 {
				t.Errorf("listeners called %v, want no calls", rec.values)
			}
		})
	}
}

func TestStore_SetEmpty(t *testing.T) {
	s := newPerson(t)
	var rec recorder
	if _, err := s.AddListeners(rec.listen("age")); err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	rec.reset()

	if err := s.Set(); err != nil {
		t.Errorf("Set() error = %v, want nil", err)
	}
	if len(rec.values) != 0 {
		t.Errorf("listener called %v, want no calls", rec.values)
	}
}

func TestStore_CatchUpDelivery(t *testing.T) {
	s := newPerson(t)
	var name, age recorder

	_, err := s.AddListeners(name.listen("name"), age.listen("age"))
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	if !reflect.DeepEqual(name.values, []any{"John"}) {
		t.Errorf("name listener = %v, want [John]", name.values)
	}
	if !reflect.DeepEqual(age.values, []any{23}) {
		t.Errorf("age listener = %v, want [23]", age.values)
	}
}

func TestStore_ChangeDelivery(t *testing.T) {
	s := newPerson(t)
	recs := make([]recorder, 3)
	for i := range recs {
		if _, err := s.AddListeners(recs[i].listen("age")); err != nil {
			t.Fatalf("AddListeners() error = %v", err)
		}
		recs[i].reset()
	}

	if err := s.Set(Change{Field: "age", Value: 24}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	for i, r := range recs {
		if !reflect.DeepEqual(r.values, []any{24}) {
			t.Errorf("listener %d = %v, want [24]", i, r.values)
		}
	}
	if n := s.ListenerCount("age"); n != 3 {
		t.Errorf("ListenerCount(age) = %d, want 3", n)
	}
}

func TestStore_NoCrossTalk(t *testing.T) {
	s := newPerson(t)
	var name recorder
	if _, err := s.AddListeners(name.listen("name")); err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	name.reset()

	if err := s.Set(Change{Field: "age", Value: 30}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if len(name.values) != 0 {
		t.Errorf("name listener = %v, want no calls", name.values)
	}
}

func TestStore_BatchedSetOrderAndConsistency(t *testing.T) {
	s := newPerson(t)

	var log []string
	var seenAge any
	_, err := s.AddListeners(
		Listener{Field: "name", Callback: func(v any) {
			log = append(log, "name")
			seenAge, _ = s.Get("age")
		}},
		Listener{Field: "age", Callback: func(v any) {
			log = append(log, "age")
		}},
	)
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	log = nil

	err = s.Set(Change{Field: "name", Value: "Tim"}, Change{Field: "age", Value: 42})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if want := []string{"name", "age"}; !reflect.DeepEqual(log, want) {
		t.Errorf("notification order = %v, want %v", log, want)
	}
	if seenAge != 42 {
		t.Errorf("age read from name listener = %v, want 42", seenAge)
	}
}

func TestStore_AddListenersResult(t *testing.T) {
	s := newPerson(t)
	noop := func(any) {}

	subs, err := s.AddListeners(
		Listener{Field: "name", Callback: noop},
		Listener{Field: "age", Callback: noop},
	)
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	if len(subs) != 2 {
		t.Errorf("len(subs) = %d, want 2", len(subs))
	}
	if subs["name"] == "" || subs["age"] == "" {
		t.Errorf("subs = %v, want ids for name and age", subs)
	}
	if subs["name"] == subs["age"] {
		t.Errorf("subs share id %q", subs["name"])
	}
	if _, ok := subs["boss"]; ok {
		t.Error("subs has an entry for boss, want none")
	}
	assertShape(t, s)
}

func TestStore_AddListenersValidation(t *testing.T) {
	noop := func(any) {}

	tests := []struct {
		name      string
		listeners []Listener
		wantErr   error
	}{
		{
			name:      "unknown field",
			listeners: []Listener{{Field: "name", Callback: noop}, {Field: "email", Callback: noop}},
			wantErr:   ErrUnknownField,
		},
		{
			name:      "nil callback",
			listeners: []Listener{{Field: "name", Callback: noop}, {Field: "age"}},
			wantErr:   ErrNilCallback,
		},
		{
			name:      "duplicate field",
			listeners: []Listener{{Field: "age", Callback: noop}, {Field: "age", Callback: noop}},
			wantErr:   ErrDuplicateField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newPerson(t)

			subs, err := s.AddListeners(tt.listeners...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddListeners() error = %v, want %v", err, tt.wantErr)
			}
			if subs != nil {
				t.Errorf("AddListeners() subs = %v, want nil", subs)
			}
			for _, f := range s.Fields() {
				if n := s.ListenerCount(f); n != 0 {
					t.Errorf("ListenerCount(%q) = %d, want 0", f, n)
				}
			}
		})
	}
}

func TestStore_RemoveListenersStopsDelivery(t *testing.T) {
	s := newPerson(t)
	var name, age recorder

	subs, err := s.AddListeners(name.listen("name"), age.listen("age"))
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	name.reset()
	age.reset()

	if err := s.RemoveListeners(subs); err != nil {
		t.Fatalf("RemoveListeners() error = %v", err)
	}

	_ = s.Set(Change{Field: "name", Value: "Joe"})
	_ = s.Set(Change{Field: "name", Value: "Tim"}, Change{Field: "age", Value: 42})

	if len(name.values) != 0 || len(age.values) != 0 {
		t.Errorf("listeners called after removal: name=%v age=%v", name.values, age.values)
	}
	if len(s.active) != 0 {
		t.Errorf("len(active) = %d, want 0", len(s.active))
	}
	assertShape(t, s)
}

func TestStore_RemoveListenersUnknownIDIsNoop(t *testing.T) {
	s := newPerson(t)
	var age recorder

	subs, err := s.AddListeners(age.listen("age"))
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	// never issued
	if err := s.RemoveListeners(Subscriptions{"age": "does-not-exist"}); err != nil {
		t.Errorf("RemoveListeners(unknown id) error = %v, want nil", err)
	}
	// issued, but for another field
	if err := s.RemoveListeners(Subscriptions{"name": subs["age"]}); err != nil {
		t.Errorf("RemoveListeners(wrong field) error = %v, want nil", err)
	}
	if n := s.ListenerCount("age"); n != 1 {
		t.Fatalf("ListenerCount(age) = %d, want 1", n)
	}

	// removing twice is fine
	if err := s.RemoveListeners(subs); err != nil {
		t.Errorf("RemoveListeners() error = %v", err)
	}
	if err := s.RemoveListeners(subs); err != nil {
		t.Errorf("second RemoveListeners() error = %v, want nil", err)
	}
	if n := s.ListenerCount("age"); n != 0 {
		t.Errorf("ListenerCount(age) = %d, want 0", n)
	}
}

func TestStore_RemoveListenersUnknownField(t *testing.T) {
	s := newPerson(t)

	subs, err := s.AddListeners(Listener{Field: "age", Callback: func(any) {}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	err = s.RemoveListeners(Subscriptions{"age": subs["age"], "email": "1"})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("RemoveListeners() error = %v, want ErrUnknownField", err)
	}
	if n := s.ListenerCount("age"); n != 1 {
		t.Errorf("ListenerCount(age) = %d, want 1 (nothing removed on error)", n)
	}
}

func TestStore_Scenario(t *testing.T) {
	s := newPerson(t)
	var calls []any

	subs, err := s.AddListeners(Listener{Field: "age", Callback: func(v any) {
		calls = append(calls, v)
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	if !reflect.DeepEqual(calls, []any{23}) {
		t.Fatalf("after AddListeners calls = %v, want [23]", calls)
	}

	_ = s.Set(Change{Field: "name", Value: "Joe"})
	if !reflect.DeepEqual(calls, []any{23}) {
		t.Fatalf("after Set(name) calls = %v, want [23]", calls)
	}

	_ = s.Set(Change{Field: "age", Value: 24})
	if !reflect.DeepEqual(calls, []any{23, 24}) {
		t.Fatalf("after Set(age) calls = %v, want [23 24]", calls)
	}

	if err := s.RemoveListeners(Subscriptions{"age": subs["age"]}); err != nil {
		t.Fatalf("RemoveListeners() error = %v", err)
	}
	_ = s.Set(Change{Field: "age", Value: 25})
	if !reflect.DeepEqual(calls, []any{23, 24}) {
		t.Errorf("after removal calls = %v, want [23 24]", calls)
	}
}

func TestStore_ReentrantSetIsDeferred(t *testing.T) {
	s, err := New(map[string]int{"a": 0, "b": 0, "c": 0})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var log []string
	armed := false
	_, err = s.AddListeners(
		Listener{Field: "a", Callback: func(v any) {
			if !armed {
				return
			}
			log = append(log, "a1")
			_ = s.Set(Change{Field: "b", Value: 10})
		}},
		Listener{Field: "b", Callback: func(v any) {
			if armed {
				log = append(log, "b")
			}
		}},
		Listener{Field: "c", Callback: func(v any) {
			if armed {
				log = append(log, "c")
			}
		}},
	)
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	var bSeen any
	_, err = s.AddListeners(Listener{Field: "a", Callback: func(v any) {
		if armed {
			log = append(log, "a2")
			bSeen, _ = s.Get("b")
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	armed = true
	if err := s.Set(Change{Field: "a", Value: 1}, Change{Field: "c", Value: 5}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// the nested Set(b) is delivered after the whole outer pass
	if want := []string{"a1", "a2", "c", "b"}; !reflect.DeepEqual(log, want) {
		t.Errorf("delivery order = %v, want %v", log, want)
	}
	// but its write is visible immediately
	if bSeen != 10 {
		t.Errorf("b read during outer pass = %v, want 10", bSeen)
	}
}

func TestStore_NestedNotificationCarriesWrittenValue(t *testing.T) {
	s, err := New(map[string]int{"n": 0})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var got []any
	armed := false
	_, err = s.AddListeners(Listener{Field: "n", Callback: func(v any) {
		if !armed {
			return
		}
		got = append(got, v)
		if v.(int) < 3 {
			_ = s.Set(Change{Field: "n", Value: v.(int) + 1})
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	armed = true
	_ = s.Set(Change{Field: "n", Value: 1})

	if want := []any{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("values = %v, want %v", got, want)
	}
	if v, _ := s.Get("n"); v != 3 {
		t.Errorf("Get(n) = %v, want 3", v)
	}
}

func TestStore_RemoveDuringDelivery(t *testing.T) {
	s := newPerson(t)
	armed := false
	var calls []string

	var second Subscriptions
	_, err := s.AddListeners(Listener{Field: "age", Callback: func(any) {
		if armed {
			calls = append(calls, "first")
			_ = s.RemoveListeners(second)
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	second, err = s.AddListeners(Listener{Field: "age", Callback: func(any) {
		if armed {
			calls = append(calls, "second")
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	_, err = s.AddListeners(Listener{Field: "age", Callback: func(any) {
		if armed {
			calls = append(calls, "third")
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	armed = true
	_ = s.Set(Change{Field: "age", Value: 30})

	if want := []string{"first", "third"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	if n := s.ListenerCount("age"); n != 2 {
		t.Errorf("ListenerCount(age) = %d, want 2", n)
	}
}

func TestStore_SelfRemovalDuringDelivery(t *testing.T) {
	s := newPerson(t)
	armed := false
	counts := map[string]int{}

	var self Subscriptions
	_, err := s.AddListeners(Listener{Field: "age", Callback: func(any) {
		if armed {
			counts["before"]++
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	self, err = s.AddListeners(Listener{Field: "age", Callback: func(any) {
		if armed {
			counts["self"]++
			_ = s.RemoveListeners(self)
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	_, err = s.AddListeners(Listener{Field: "age", Callback: func(any) {
		if armed {
			counts["after"]++
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	armed = true
	_ = s.Set(Change{Field: "age", Value: 30})
	_ = s.Set(Change{Field: "age", Value: 31})

	want := map[string]int{"before": 2, "self": 1, "after": 2}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("counts = %v, want %v", counts, want)
	}
}

func TestStore_AddDuringDelivery(t *testing.T) {
	s := newPerson(t)
	armed := false
	var late []any

	_, err := s.AddListeners(Listener{Field: "age", Callback: func(any) {
		if !armed {
			return
		}
		armed = false
		_, _ = s.AddListeners(Listener{Field: "age", Callback: func(v any) {
			late = append(late, v)
		}})
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	armed = true
	_ = s.Set(Change{Field: "age", Value: 40})

	// catch-up only; the pass that added it does not call it again
	if want := []any{40}; !reflect.DeepEqual(late, want) {
		t.Errorf("late listener = %v, want %v", late, want)
	}
}

func TestStore_AddDuringDeliveryWithReusedID(t *testing.T) {
	// a generator that hands out "b" again once it is free
	ids := []SubscriptionID{"a", "b", "b"}
	s := newPerson(t, WithIDGenerator(func() SubscriptionID {
		id := ids[0]
		ids = ids[1:]
		return id
	}))

	armed := false
	var removed, late []any
	var victim Subscriptions

	_, err := s.AddListeners(Listener{Field: "age", Callback: func(any) {
		if !armed {
			return
		}
		armed = false
		_ = s.RemoveListeners(victim)
		subs, _ := s.AddListeners(Listener{Field: "age", Callback: func(v any) {
			late = append(late, v)
		}})
		if subs["age"] != "b" {
			t.Errorf("late listener id = %q, want %q", subs["age"], "b")
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	victim, err = s.AddListeners(Listener{Field: "age", Callback: func(v any) {
		if armed {
			removed = append(removed, v)
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	armed = true
	_ = s.Set(Change{Field: "age", Value: 24})

	if len(removed) != 0 {
		t.Errorf("removed listener calls = %v, want none", removed)
	}
	// catch-up only; the reused id does not pull it into the running pass
	if want := []any{24}; !reflect.DeepEqual(late, want) {
		t.Errorf("late listener = %v, want %v", late, want)
	}
	assertShape(t, s)
}

func TestStore_PanickingListenerIsIsolated(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := newPerson(t, WithLogger(logger))

	armed := false
	var healthy recorder
	_, err := s.AddListeners(Listener{Field: "age", Callback: func(any) {
		if armed {
			panic("intentional test panic")
		}
	}})
	if err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	if _, err := s.AddListeners(healthy.listen("age")); err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}
	healthy.reset()

	armed = true
	if err := s.Set(Change{Field: "age", Value: 50}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if !reflect.DeepEqual(healthy.values, []any{50}) {
		t.Errorf("healthy listener = %v, want [50]", healthy.values)
	}
	if !strings.Contains(buf.String(), "listener panicked") {
		t.Errorf("log output missing panic record: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "intentional test panic") {
		t.Errorf("log output missing panic value: %s", buf.String())
	}
}

func TestStore_DuplicateSubscriptionIDPanics(t *testing.T) {
	s := newPerson(t, WithIDGenerator(func() SubscriptionID { return "same" }))

	if _, err := s.AddListeners(Listener{Field: "age", Callback: func(any) {}}); err != nil {
		t.Fatalf("AddListeners() error = %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("AddListeners() expected panic on duplicate id")
		}
	}()
	_, _ = s.AddListeners(Listener{Field: "name", Callback: func(any) {}})
}

func TestStore_IDsAreUnique(t *testing.T) {
	gens := map[string]IDGenerator{
		"sequential": SequentialIDs(),
		"uuid":       UUIDs(),
	}

	for name, gen := range gens {
		t.Run(name, func(t *testing.T) {
			s := newPerson(t, WithIDGenerator(gen))
			seen := map[SubscriptionID]bool{}
			for i := 0; i < 100; i++ {
				subs, err := s.AddListeners(Listener{Field: "age", Callback: func(any) {}})
				if err != nil {
					t.Fatalf("AddListeners() error = %v", err)
				}
				id := subs["age"]
				if seen[id] {
					t.Fatalf("id %q issued twice", id)
				}
				seen[id] = true
			}
		})
	}
}

func TestStore_RecordIsCopy(t *testing.T) {
	s := newPerson(t)

	rec := s.Record()
	rec.Name = "Mallory"

	if got := s.Record().Name; got != "John" {
		t.Errorf("Record().Name = %q, want John", got)
	}

	_ = s.Set(Change{Field: "age", Value: 24})
	if got := s.Record().Age; got != 24 {
		t.Errorf("Record().Age = %d, want 24", got)
	}
}

func TestStore_MapRecordIsCopy(t *testing.T) {
	initial := map[string]any{"name": "John", "age": 23}
	s, err := New(initial)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// the store does not alias the caller's map
	initial["name"] = "Mallory"
	if v, _ := s.Get("name"); v != "John" {
		t.Errorf("Get(name) = %v, want John", v)
	}

	rec := s.Record()
	rec["age"] = 99
	if v, _ := s.Get("age"); v != 23 {
		t.Errorf("Get(age) = %v, want 23", v)
	}

	// any value fits an interface-typed field
	if err := s.Set(Change{Field: "age", Value: "twenty-four"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := s.Record()["age"]; got != "twenty-four" {
		t.Errorf("Record()[age] = %v, want twenty-four", got)
	}
}
