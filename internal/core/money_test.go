package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyRendering(t *testing.T) {
	cases := []struct {
		cents int64
		str   string
		plain string
	}{
		{5000, "50.00", "50"},
		{1250, "12.50", "12.5"},
		{1234, "12.34", "12.34"},
		{1, "0.01", "0.01"},
		{0, "0.00", "0"},
	}
	for _, tc := range cases {
		m := Money{Cents: tc.cents}
		if m.String() != tc.str {
			t.Errorf("String(%d) = %q, want %q", tc.cents, m.String(), tc.str)
		}
		if m.Plain() != tc.plain {
			t.Errorf("Plain(%d) = %q, want %q", tc.cents, m.Plain(), tc.plain)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var got struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.345, "b": "7,5", "c": 0.1}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.A.Cents != 1235 || got.B.Cents != 750 || got.C.Cents != 10 {
		t.Fatalf("unexpected cents: %+v", got)
	}

	out, err := json.Marshal(Money{Cents: 1999})
	if err != nil || string(out) != "19.99" {
		t.Fatalf("marshal = %s (err=%v)", out, err)
	}

	var bad Money
	if err := json.Unmarshal([]byte(`"abc"`), &bad); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}
