package scheduler

import (
	"errors"
	"testing"
)

func TestParseTimeToMinutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "midnight", input: "00:00", want: 0},
		{name: "8am", input: "08:00", want: 480},
		{name: "with minutes", input: "09:30", want: 570},
		{name: "noon", input: "12:00", want: 720},
		{name: "last minute", input: "23:59", want: 1439},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeToMinutes(tt.input)
			if err != nil {
				t.Fatalf("ParseTimeToMinutes(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeToMinutes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTimeToMinutes_RejectsMalformedInput(t *testing.T) {
	for _, input := range []string{"", "9:00", "09:0", "0900", "24:00", "23:60", "ab:cd", "09-00", " 09:00", "09:00 ", "-1:00"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseTimeToMinutes(input); !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("ParseTimeToMinutes(%q) error = %v, want ErrInvalidFormat", input, err)
			}
		})
	}
}

func TestMinutesToTimeString(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{input: 0, want: "00:00"},
		{input: 570, want: "09:30"},
		{input: 1439, want: "23:59"},
		{input: 1440, want: "00:00"},
		{input: 1500, want: "01:00"},
		{input: -1, want: "23:59"},
		{input: -1440, want: "00:00"},
	}

	for _, tt := range tests {
		if got := MinutesToTimeString(tt.input); got != tt.want {
			t.Errorf("MinutesToTimeString(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMinutesRoundTrip(t *testing.T) {
	for m := -3000; m <= 3000; m += 7 {
		got, err := ParseTimeToMinutes(MinutesToTimeString(m))
		if err != nil {
			t.Fatalf("round trip of %d failed: %v", m, err)
		}
		want := ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
		if got != want {
			t.Fatalf("round trip of %d = %d, want %d", m, got, want)
		}
	}
}

func TestDayOffset(t *testing.T) {
	offset, err := ParseDayOffset("10:15")
	if err != nil {
		t.Fatalf("ParseDayOffset returned error: %v", err)
	}
	if offset != DayOffset(615*60*1000) {
		t.Fatalf("unexpected offset %d", offset)
	}
	if offset.Minutes() != 615 || offset.String() != "10:15" {
		t.Fatalf("unexpected rendering %d %q", offset.Minutes(), offset.String())
	}

	end, err := ParseEndOffset("24:00")
	if err != nil || end != EndOfDay {
		t.Fatalf("ParseEndOffset(24:00) = %d, %v", end, err)
	}
	if EndOfDay.String() != "24:00" {
		t.Fatalf("EndOfDay renders as %q", EndOfDay.String())
	}
	if _, err := ParseDayOffset("24:00"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("start offsets must reject 24:00, got %v", err)
	}
}
