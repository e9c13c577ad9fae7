package downloader

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name unchanged", "Radiohead - Creep", "Radiohead - Creep"},
		{"invalid characters stripped", `AC/DC - Back <In> "Black"?`, "ACDC - Back In Black"},
		{"whitespace collapsed", "Too   many \t spaces ", "Too many spaces"},
		{"path separators removed", `..\..\evil/name`, "....evilname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitArtistCredit(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Radiohead", "Radiohead"},
		{"Run The Jewels, DJ Shadow", "Run The Jewels; DJ Shadow"},
		{"Simon & Garfunkel", "Simon; Garfunkel"},
		{"A, B & C", "A; B; C"},
	}

	for _, tt := range tests {
		if got := SplitArtistCredit(tt.input); got != tt.want {
			t.Errorf("SplitArtistCredit(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
