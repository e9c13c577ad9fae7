// Package matching implements the normalized-string scorer used to pick the
// best search result for a target (artist, title) pair.
//
// The same scorer runs against two different sources: the external catalog
// when deciding what to download, and the media-server library when resolving
// a downloaded track to a song id. Scoring is a pure function over normalized
// strings so it can be tested without any network call.
package matching

import (
	"regexp"
	"strings"

	"github.com/4rft5/NavidroFM/internal/models"
)

// MinScore is the lowest score accepted as a match: at least one exact field,
// or both fields matching as substrings.
const MinScore = 2

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Normalize lowercases, strips punctuation, and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = nonWord.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Score rates how well a result's (artist, title) pair matches the target.
//
// A result is eligible only when the normalized artists are mutual substrings
// and likewise the titles; ineligible results score 0. Eligible results earn
// +2 per exactly-equal field and +1 per substring-only field, for a maximum
// of 4.
func Score(targetArtist, targetTitle, resultArtist, resultTitle string) int {
	wantArtist := Normalize(targetArtist)
	wantTitle := Normalize(targetTitle)
	gotArtist := Normalize(resultArtist)
	gotTitle := Normalize(resultTitle)

	if wantArtist == "" || wantTitle == "" {
		return 0
	}

	artistMatch := strings.Contains(gotArtist, wantArtist) || strings.Contains(wantArtist, gotArtist)
	titleMatch := strings.Contains(gotTitle, wantTitle) || strings.Contains(wantTitle, gotTitle)
	if !artistMatch || !titleMatch {
		return 0
	}

	score := 0
	if wantArtist == gotArtist {
		score += 2
	} else {
		score++
	}
	if wantTitle == gotTitle {
		score += 2
	} else {
		score++
	}
	return score
}

// BestMatch returns the index and score of the highest-scoring eligible
// result, with ties broken by first-seen order. Index is -1 when no result
// reaches [MinScore].
func BestMatch(targetArtist, targetTitle string, results []models.SearchResult) (int, int) {
	best := -1
	bestScore := 0
	for i, r := range results {
		if s := Score(targetArtist, targetTitle, r.Artist, r.Title); s > bestScore {
			best = i
			bestScore = s
		}
	}
	if bestScore < MinScore {
		return -1, 0
	}
	return best, bestScore
}
