package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain integer", input: "45", want: 4500},
		{name: "two decimals", input: "45.99", want: 4599},
		{name: "one decimal", input: "45.9", want: 4590},
		{name: "comma separator", input: "45,99", want: 4599},
		{name: "leading dot", input: ".50", want: 50},
		{name: "third decimal rounds up", input: "1.005", want: 101},
		{name: "third decimal rounds down", input: "1.004", want: 100},
		{name: "whitespace trimmed", input: "  12.00  ", want: 1200},
		{name: "empty", input: "", wantErr: true},
		{name: "zero rejected", input: "0", wantErr: true},
		{name: "zero decimal rejected", input: "0.00", wantErr: true},
		{name: "negative rejected", input: "-5.00", wantErr: true},
		{name: "plus sign rejected", input: "+5.00", wantErr: true},
		{name: "letters rejected", input: "12a.00", wantErr: true},
		{name: "two dots rejected", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) expected error, got %v", tt.input, got)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseAmount(%q) error %v should wrap ErrValidation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.want {
				t.Errorf("ParseAmount(%q) = %d cents, want %d", tt.input, got.Cents, tt.want)
			}
		})
	}
}

func TestParseSignedAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "positive", input: "100.50", want: 10050},
		{name: "negative", input: "-100.50", want: -10050},
		{name: "zero", input: "0", want: 0},
		{name: "zero with decimals", input: "0.00", want: 0},
		{name: "negative zero", input: "-0.00", want: 0},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignedAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSignedAmount(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSignedAmount(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.want {
				t.Errorf("ParseSignedAmount(%q) = %d cents, want %d", tt.input, got.Cents, tt.want)
			}
		})
	}
}

func TestMoney_String(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{4599, "45.99"},
		{4500, "45.00"},
		{50, "0.50"},
		{-50, "-0.50"},
		{0, "0.00"},
		{-123456, "-1234.56"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoney_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 4599})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(b) != `"45.99"` {
		t.Errorf("Marshal = %s, want \"45.99\"", b)
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	a := Money{Cents: 10000}
	b := Money{Cents: 3000}

	if got := a.Add(b); got.Cents != 13000 {
		t.Errorf("Add = %d, want 13000", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 7000 {
		t.Errorf("Sub = %d, want 7000", got.Cents)
	}
}
