package taskresolve

import (
	"reflect"
	"testing"
)

var fixture = []TaskRef{
	{ID: "tid-1", Title: "Buy milk"},
	{ID: "tid-2", Title: "Call plumber"},
	{ID: "tid-3", Title: "Call dentist"},
	{ID: "tid-4", Title: "buy milk"},
	{ID: "tid-5", Title: "Renew passport"},
}

func TestResolveByID(t *testing.T) {
	m := Resolve("TID-2", fixture)
	if m.Outcome != Resolved || m.Task.ID != "tid-2" {
		t.Fatalf("got %+v", m)
	}
}

func TestResolveIDWinsOverTitle(t *testing.T) {
	tasks := []TaskRef{
		{ID: "report", Title: "Draft budget"},
		{ID: "tid-9", Title: "report"},
	}
	m := Resolve("report", tasks)
	if m.Outcome != Resolved || m.Task.ID != "report" {
		t.Fatalf("id tier should win, got %+v", m)
	}
}

func TestResolveExactTitleUnique(t *testing.T) {
	m := Resolve("renew passport", fixture)
	if m.Outcome != Resolved || m.Task.ID != "tid-5" {
		t.Fatalf("got %+v", m)
	}
}

func TestResolveExactTitleAmbiguous(t *testing.T) {
	m := Resolve("Buy Milk", fixture)
	if m.Outcome != Ambiguous {
		t.Fatalf("got %+v", m)
	}
	if len(m.Candidates) != 2 {
		t.Fatalf("candidates = %+v", m.Candidates)
	}
}

func TestResolveSubstringUnique(t *testing.T) {
	m := Resolve("passport", fixture)
	if m.Outcome != Resolved || m.Task.ID != "tid-5" {
		t.Fatalf("got %+v", m)
	}
}

func TestResolveSubstringAmbiguous(t *testing.T) {
	m := Resolve("call", fixture)
	if m.Outcome != Ambiguous {
		t.Fatalf("got %+v", m)
	}
	if len(m.Candidates) != 2 {
		t.Fatalf("candidates = %+v", m.Candidates)
	}
}

func TestResolveNotFound(t *testing.T) {
	m := Resolve("water the plants", fixture)
	if m.Outcome != NotFound {
		t.Fatalf("got %+v", m)
	}
	if m.Outcome == NotFound && len(m.Candidates) != 0 {
		t.Fatalf("not_found should carry no candidates: %+v", m)
	}
}

func TestResolveEmptyIdentifier(t *testing.T) {
	if m := Resolve("   ", fixture); m.Outcome != NotFound {
		t.Fatalf("got %+v", m)
	}
}

func TestResolveAllPreservesOrder(t *testing.T) {
	matches := ResolveAll([]string{"tid-1", "call", "nothing"}, fixture)
	if len(matches) != 3 {
		t.Fatalf("len = %d", len(matches))
	}
	want := []Outcome{Resolved, Ambiguous, NotFound}
	for i, m := range matches {
		if m.Outcome != want[i] {
			t.Fatalf("matches[%d] = %+v, want outcome %s", i, m, want[i])
		}
	}
}

func TestSplitIdentifiers(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want []string
	}{
		{"single", "buy milk", []string{"buy milk"}},
		{"comma string", "tid-1, tid-2 ,tid-3", []string{"tid-1", "tid-2", "tid-3"}},
		{"json array", []any{"a", "b, c"}, []string{"a", "b", "c"}},
		{"string slice", []string{"x", "y"}, []string{"x", "y"}},
		{"nil", nil, nil},
		{"empty pieces", " , , ", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitIdentifiers(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SplitIdentifiers(%v) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}
