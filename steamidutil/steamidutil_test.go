package steamidutil_test

import (
	"rare-achievements/steamidutil"
	"testing"
)

func TestIDToInt64(t *testing.T) {
	id, err := steamidutil.IDToInt64("STEAM_0:0:11101")
	if err != nil {
		t.Fatalf("convert: %s", err)
	}

	if id != 76561197960287930 {
		t.Fatalf("expected 76561197960287930, got %d", id)
	}
}

func TestIDToInt64Invalid(t *testing.T) {
	for _, id := range []string{"", "STEAM_0:0", "STEAM_0:2:5", "STEAM_0:0:abc", "0:0:11101", "STEAM_0:0:-5", "STEAM_x:0:11101", "STEAM_:0:11101", "STEAM_10:0:11101"} {
		if _, err := steamidutil.IDToInt64(id); err == nil {
			t.Fatalf("expected error for %q", id)
		}
	}
}

func TestParseAccountID(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{in: "76561197960287930", want: 76561197960287930},
		{in: "  76561197960287930\n", want: 76561197960287930},
		{in: "STEAM_1:0:11101", want: 76561197960287930},
	}

	for _, tt := range tests {
		got, err := steamidutil.ParseAccountID(tt.in)
		if err != nil {
			t.Fatalf("parse %q: %s", tt.in, err)
		}

		if got != tt.want {
			t.Fatalf("parse %q: expected %d, got %d", tt.in, tt.want, got)
		}
	}

	for _, in := range []string{"", "gaben", "-5", "STEAM_0:0:-5"} {
		if _, err := steamidutil.ParseAccountID(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestIsIndividual(t *testing.T) {
	if !steamidutil.IsIndividual(76561197960287930) {
		t.Fatalf("expected individual")
	}

	if steamidutil.IsIndividual(103582791429521412) {
		t.Fatalf("expected group id to be rejected")
	}
}
