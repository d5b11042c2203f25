package nc

import "testing"

func TestNormalizeStripsDiacriticsAndCase(t *testing.T) {
	got := Normalize("Vazamento de Óleo no Motor")
	if got != "vazamento de oleo no motor" {
		t.Fatalf("Normalize() = %q", got)
	}
}

func TestNormalizeCollapsesNonAlphanumericRuns(t *testing.T) {
	got := Normalize("  Freio -- dianteiro / (direito)!! ")
	if got != "freio dianteiro direito" {
		t.Fatalf("Normalize() = %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Vazamento de Óleo",
		"pressão   BAIXA",
		"",
		"123 - ABC",
		"ção çedilha àgrave",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizeEmptyAndSymbolOnly(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("Normalize(\"\") = %q", got)
	}
	if got := Normalize("!!! --- ///"); got != "" {
		t.Fatalf("Normalize(symbols) = %q", got)
	}
}
