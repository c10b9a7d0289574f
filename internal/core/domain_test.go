package core

import (
	"errors"
	"strconv"
	"testing"
)

func entries(pairs ...any) Entries {
	var out Entries
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, AllocationEntry{
			ID:         strconv.Itoa(i / 2),
			Label:      pairs[i].(string),
			Percentage: float64(pairs[i+1].(int)),
		})
	}
	return out
}

func TestIsValidTotal(t *testing.T) {
	cases := []struct {
		total float64
		ok    bool
	}{
		{100, true},
		{99.9, true},
		{100.1, true},
		{99.85, false},
		{100.2, false},
		{90, false},
		{0, false},
	}
	for _, tc := range cases {
		if got := IsValidTotal(tc.total); got != tc.ok {
			t.Fatalf("IsValidTotal(%v) = %v, want %v", tc.total, got, tc.ok)
		}
	}
}

func TestEntriesValidate(t *testing.T) {
	if err := entries("A", 50, "B", 50).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	err := entries("A", 60, "B", 30).Validate()
	var te *TotalError
	if !errors.As(err, &te) {
		t.Fatalf("expected TotalError, got %v", err)
	}
	if !errors.Is(err, ErrTotalMismatch) {
		t.Fatalf("expected ErrTotalMismatch in chain")
	}
	if te.Error() != "Total percentage is 90.0%. It should be 100%." {
		t.Fatalf("unexpected message %q", te.Error())
	}

	if err := entries("", 0, "B", 100).Validate(); !errors.Is(err, ErrMissingLabel) {
		t.Fatalf("expected ErrMissingLabel, got %v", err)
	}
	if err := entries("   ", 50, "B", 50).Validate(); !errors.Is(err, ErrMissingLabel) {
		t.Fatalf("blank label should fail, got %v", err)
	}
	if err := (Entries{}).Validate(); !errors.Is(err, ErrEmptyList) {
		t.Fatalf("expected ErrEmptyList, got %v", err)
	}
}

func TestEntriesRemove(t *testing.T) {
	single := entries("A", 100)
	out, ok := single.Remove("0")
	if ok || len(out) != 1 || out[0].Label != "A" || out[0].Percentage != 100 {
		t.Fatalf("removing the last entry must be a no-op, got %+v ok=%v", out, ok)
	}

	list := entries("A", 50, "B", 30, "C", 20)
	out, ok = list.Remove("1")
	if !ok || len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d ok=%v", len(out), ok)
	}
	if out.Index("1") != -1 {
		t.Fatalf("removed id still present")
	}
	if out[0].ID != "0" || out[1].ID != "2" {
		t.Fatalf("order not preserved: %+v", out)
	}
	if len(list) != 3 {
		t.Fatalf("input mutated")
	}

	if _, ok := list.Remove("missing"); ok {
		t.Fatalf("unknown id should not change the list")
	}
}

func TestEntriesFieldEdits(t *testing.T) {
	list := entries("A", 50, "B", 50)

	out, err := list.WithLabel("1", "  Beta ")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if out[1].Label != "  Beta " {
		t.Fatalf("label must be stored verbatim, got %q", out[1].Label)
	}
	if list[1].Label != "B" {
		t.Fatalf("input mutated")
	}

	out, err = list.WithPercentage("0", "150")
	if err != nil || out[0].Percentage != 100 || out[1].Percentage != 50 {
		t.Fatalf("unexpected result %+v err=%v", out, err)
	}

	if _, err := list.WithLabel("nope", "x"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := list.WithPercentage("nope", "1"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestAppendNewEntry(t *testing.T) {
	list := entries("A", 100)
	out := list.Append(NewEntry("new"))
	if len(out) != 2 || len(list) != 1 {
		t.Fatalf("append lengths wrong: out=%d in=%d", len(out), len(list))
	}
	e := out[1]
	if e.ID != "new" || e.Label != "" || e.Percentage != 0 || e.Color != "" {
		t.Fatalf("unexpected placeholder %+v", e)
	}
}

func TestEntriesTotal(t *testing.T) {
	if got := entries("A", 20, "B", 15, "C", 20, "D", 25, "E", 20).Total(); got != 100 {
		t.Fatalf("total = %v", got)
	}
}
