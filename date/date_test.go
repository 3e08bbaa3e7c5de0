package date

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"2025-10-17", New(2025, time.October, 17)},
		{"2025-7-1", New(2025, time.July, 1)},
		{"2025-10-17T00:00:00", New(2025, time.October, 17)},
		{"2025-10-17 15:04:05", New(2025, time.October, 17)},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("17/10/2025"); err == nil {
		t.Error("Parse(\"17/10/2025\") expected an error, got nil")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	d := New(2026, time.February, 20)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	if string(b) != `"2026-02-20"` {
		t.Errorf("Marshal() = %s, want %q", b, `"2026-02-20"`)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}
	if back != d {
		t.Errorf("round trip = %s, want %s", back, d)
	}
}

func TestScan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2025, time.March, 3, 10, 30, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Scan(time.Time) unexpected error: %v", err)
	}
	if d != New(2025, time.March, 3) {
		t.Errorf("Scan(time.Time) = %s, want 2025-03-03", d)
	}
	if err := d.Scan("2024-12-31"); err != nil {
		t.Fatalf("Scan(string) unexpected error: %v", err)
	}
	if d != New(2024, time.December, 31) {
		t.Errorf("Scan(string) = %s, want 2024-12-31", d)
	}
}

func TestAddNormalizes(t *testing.T) {
	d := New(2025, time.January, 31).Add(1)
	if d != New(2025, time.February, 1) {
		t.Errorf("Add(1) = %s, want 2025-02-01", d)
	}
}
