package matching

import (
	"testing"

	"github.com/4rft5/NavidroFM/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "The Beatles", "the beatles"},
		{"strips punctuation", "Don't Stop Me Now!", "dont stop me now"},
		{"collapses whitespace", "  two   spaces \t here ", "two spaces here"},
		{"keeps digits", "Blink-182", "blink182"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name         string
		artist       string
		title        string
		resultArtist string
		resultTitle  string
		want         int
	}{
		{"exact match scores 4", "Radiohead", "Creep", "Radiohead", "Creep", 4},
		{"exact after normalization", "Sigur Rós", "Hoppípolla", "sigur ros", "hoppipolla", 4},
		{"artist substring title exact", "Tyler", "See You Again", "Tyler, The Creator", "See You Again", 3},
		{"both substrings", "Tyler", "See You", "Tyler, The Creator", "See You Again", 2},
		{"disjoint artist rejected", "Radiohead", "Creep", "Muse", "Creep", 0},
		{"disjoint title rejected", "Radiohead", "Creep", "Radiohead", "Karma Police", 0},
		{"both disjoint rejected", "Radiohead", "Creep", "Muse", "Karma Police", 0},
		{"empty target rejected", "", "Creep", "Radiohead", "Creep", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.artist, tt.title, tt.resultArtist, tt.resultTitle); got != tt.want {
				t.Errorf("Score(%q, %q, %q, %q) = %d, want %d",
					tt.artist, tt.title, tt.resultArtist, tt.resultTitle, got, tt.want)
			}
		})
	}
}

func TestScoreSymmetricOnExactEquality(t *testing.T) {
	pairs := [][2]string{
		{"Boards of Canada", "Roygbiv"},
		{"MF DOOM", "Rapp Snitch Knishes"},
		{"a", "b"},
	}

	for _, p := range pairs {
		if got := Score(p[0], p[1], p[0], p[1]); got != 4 {
			t.Errorf("Score(%q, %q, same) = %d, want 4", p[0], p[1], got)
		}
	}
}

func TestBestMatch(t *testing.T) {
	t.Run("picks highest score", func(t *testing.T) {
		results := []models.SearchResult{
			{Artist: "Radiohead", Title: "Creep (Live)"},
			{Artist: "Radiohead", Title: "Creep"},
			{Artist: "Karaoke Band", Title: "Creep"},
		}

		idx, score := BestMatch("Radiohead", "Creep", results)
		if idx != 1 {
			t.Errorf("BestMatch index = %d, want 1", idx)
		}
		if score != 4 {
			t.Errorf("BestMatch score = %d, want 4", score)
		}
	})

	t.Run("ties broken by first-seen order", func(t *testing.T) {
		results := []models.SearchResult{
			{Artist: "Radiohead", Title: "Creep"},
			{Artist: "Radiohead", Title: "Creep"},
		}

		idx, _ := BestMatch("Radiohead", "Creep", results)
		if idx != 0 {
			t.Errorf("BestMatch index = %d, want 0", idx)
		}
	})

	t.Run("no eligible result", func(t *testing.T) {
		results := []models.SearchResult{
			{Artist: "Muse", Title: "Uprising"},
			{Artist: "Interpol", Title: "Evil"},
		}

		idx, score := BestMatch("Radiohead", "Creep", results)
		if idx != -1 || score != 0 {
			t.Errorf("BestMatch = (%d, %d), want (-1, 0)", idx, score)
		}
	})

	t.Run("empty result set", func(t *testing.T) {
		idx, _ := BestMatch("Radiohead", "Creep", nil)
		if idx != -1 {
			t.Errorf("BestMatch index = %d, want -1", idx)
		}
	})
}
