package keyword

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Well ID":  "wellid",
		"$WELLID":  "wellid",
		"well_id":  "wellid",
		"well-id":  "wellid",
		"Plate #2": "plate2",
		"":         "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestList_Candidates(t *testing.T) {
	l := List{
		{"TUBE NAME", "t1"},
		{"$WELLID", "B07"},
		{"Well ID", "C3"},
		{"WELL", "D4"},
	}
	got := l.Candidates("Well ID")
	var keys []string
	for _, e := range got {
		keys = append(keys, e.Key)
	}
	want := []string{"Well ID", "$WELLID", "WELL"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Candidates() = %v, want %v", keys, want)
	}

	if e, ok := l.Find("wellid"); !ok || e.Key != "$WELLID" {
		t.Errorf("Find(wellid) = %v, %v", e, ok)
	}
	if _, ok := l.Find("operator"); ok {
		t.Error("Find(operator) should fail")
	}
	if l.Candidates("") != nil {
		t.Error("empty name should match nothing")
	}
}

func TestFilter(t *testing.T) {
	l := List{{"Time Point", " 24h "}, {"$WELLID", "A1"}}
	tests := []struct {
		f    Filter
		want bool
	}{
		{Filter{"Time Point", "24h"}, true},
		{Filter{"timepoint", "24h"}, true},
		{Filter{"Time Point", "48h"}, false},
		{Filter{"Donor", "24h"}, false},
	}
	for _, tt := range tests {
		if got := tt.f.Matches(l); got != tt.want {
			t.Errorf("%+v.Matches() = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	f, ok := ParseFilter(" Time Point = 24h ")
	if !ok || f.Key != "Time Point" || f.Value != "24h" {
		t.Errorf("ParseFilter() = %+v, %v", f, ok)
	}
	if _, ok := ParseFilter("novalue"); ok {
		t.Error("missing '=' should fail")
	}
	if _, ok := ParseFilter("=x"); ok {
		t.Error("empty key should fail")
	}
}

func TestValues(t *testing.T) {
	lists := []List{
		{{"Time", "24h"}},
		{{"Time", " 48h"}},
		{{"Time", "24h "}},
		{{"Other", "x"}},
	}
	got := Values(lists, "Time")
	if !reflect.DeepEqual(got, []string{"24h", "48h"}) {
		t.Errorf("Values() = %v", got)
	}
}
