package report_test

import (
	"bytes"
	"rare-achievements/cmd/rare-achievements/rarestore"
	"rare-achievements/cmd/rare-achievements/report"
	"rare-achievements/steamhttp"
	"testing"
)

func TestFormatPercent(t *testing.T) {
	tests := map[float64]string{
		5:        "5.0",
		0.1:      "0.1",
		12.3456:  "12.35",
		99.999:   "100.0",
		0.004:    "0.0",
		42.10001: "42.1",
		0.125:    "0.12",
		0.625:    "0.62",
		1.115:    "1.11",
		2.675:    "2.67",
		0.375:    "0.38",
		0.285:    "0.28",
		10.005:   "10.01",
		0.145:    "0.14",
		3.5e-06:  "0.0",
	}

	for in, want := range tests {
		if got := report.FormatPercent(in); got != want {
			t.Fatalf("%v: expected %q, got %q", in, want, got)
		}
	}
}

func TestWrite(t *testing.T) {
	description := "Survive the manual override."

	records := []rarestore.DisplayRecord{
		{
			Entry:       rarestore.Entry{AppID: 620, Name: "ACH.A", Percentage: 1.2345},
			GameTitle:   "Portal 2",
			DisplayName: "Wake Up Call",
			Description: &description,
		},
		{
			Entry:       rarestore.Entry{AppID: 620, Name: "ACH.B", Percentage: 12.5},
			GameTitle:   "Portal 2",
			DisplayName: "You Monster",
		},
	}

	var buf bytes.Buffer

	if err := report.Write(&buf, records); err != nil {
		t.Fatalf("write: %s", err)
	}

	want := "1 - [Portal 2] Wake Up Call (%1.23)\n" +
		"Survive the manual override.\n\n" +
		"2 - [Portal 2] You Monster (%12.5)\n" +
		"Hidden achievement, description unavailable\n\n"

	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestResolve(t *testing.T) {
	schema := steamhttp.SchemaGame{
		AvailableGameStats: steamhttp.SchemaAvailableGameStats{
			Achievements: []steamhttp.SchemaAchievement{
				{Name: "A", DisplayName: "first"},
				{Name: "B", DisplayName: "second"},
				{Name: "A", DisplayName: "duplicate"},
			},
		},
	}

	a, ok := report.Resolve(schema, "A")
	if !ok || a.DisplayName != "first" {
		t.Fatalf("expected first match, got %+v (%t)", a, ok)
	}

	if _, ok := report.Resolve(schema, "missing"); ok {
		t.Fatalf("expected no match")
	}
}
