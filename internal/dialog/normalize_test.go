package dialog

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"greeting and self intro", "Hola, soy Juan Pérez", "Juan Pérez"},
		{"me llamo", "me llamo María García", "María García"},
		{"mi nombre es", "Buenas tardes, mi nombre es Pedro", "Pedro"},
		{"honorific", "señor García", "García"},
		{"abbreviated honorific", "Sra. López", "López"},
		{"trailing punctuation", "Juan Pérez.", "Juan Pérez"},
		{"plain name untouched", "Juan Pérez", "Juan Pérez"},
		{"empty", "", ""},
		{"only filler", "hola", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	inputs := []string{"Hola, soy Juan Pérez", "señora Ana María López", "Pedro"}
	for _, in := range inputs {
		once := NormalizeName(in)
		twice := NormalizeName(once)
		if once != twice {
			t.Errorf("NormalizeName not idempotent on %q: %q != %q", in, once, twice)
		}
	}
}

func TestDisplayToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Juan Pérez", "Juan"},
		{"12345 García", "García"},
		{"12345", "12345"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DisplayToken(tt.input); got != tt.want {
			t.Errorf("DisplayToken(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
