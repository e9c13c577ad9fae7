package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
	"golang.org/x/time/rate"
)

// stubFeed returns canned responses in sequence, repeating the last one.
type stubFeed struct {
	responses [][]models.Candidate
	errs      []error
	calls     int
}

func (s *stubFeed) Name() string { return "stub" }

func (s *stubFeed) Fetch(ctx context.Context) ([]models.Candidate, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if len(s.responses) == 0 {
		return nil, nil
	}
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func testFetcher() *Fetcher {
	return NewFetcher(shared.NewLogger(io.Discard), rate.NewLimiter(rate.Inf, 0))
}

func track(artist, title string) models.Candidate {
	return models.Candidate{Artist: artist, Title: title}
}

func manyTracks(n int) []models.Candidate {
	out := make([]models.Candidate, n)
	for i := range out {
		out[i] = track(fmt.Sprintf("Artist %d", i), fmt.Sprintf("Title %d", i))
	}
	return out
}

func TestFetchCandidates(t *testing.T) {
	t.Run("stops at backup multiplied target", func(t *testing.T) {
		feed := &stubFeed{responses: [][]models.Candidate{manyTracks(100)}}

		got := testFetcher().FetchCandidates(context.Background(), feed, 10)

		if len(got) != 10*BackupMultiplier {
			t.Errorf("got %d candidates, want %d", len(got), 10*BackupMultiplier)
		}
	})

	t.Run("deduplicates overlapping responses", func(t *testing.T) {
		feed := &stubFeed{responses: [][]models.Candidate{
			{track("A", "One"), track("B", "Two")},
			{track("a", "one"), track("C", "Three")},
			{track("A", "One"), track("B", "Two"), track("C", "Three")},
		}}

		got := testFetcher().FetchCandidates(context.Background(), feed, 5)

		if len(got) != 3 {
			t.Fatalf("got %d candidates, want 3", len(got))
		}
		seen := map[string]bool{}
		for _, c := range got {
			if seen[c.Key()] {
				t.Errorf("duplicate identity key %q in result", c.Key())
			}
			seen[c.Key()] = true
		}
	})

	t.Run("stops when feed repeats", func(t *testing.T) {
		feed := &stubFeed{responses: [][]models.Candidate{
			{track("A", "One")},
			{track("A", "One")},
		}}

		got := testFetcher().FetchCandidates(context.Background(), feed, 10)

		if len(got) != 1 {
			t.Errorf("got %d candidates, want 1", len(got))
		}
		if feed.calls != 2 {
			t.Errorf("feed queried %d times, want 2", feed.calls)
		}
	})

	t.Run("stops on empty response", func(t *testing.T) {
		feed := &stubFeed{}

		got := testFetcher().FetchCandidates(context.Background(), feed, 10)

		if len(got) != 0 {
			t.Errorf("got %d candidates, want 0", len(got))
		}
		if feed.calls != 1 {
			t.Errorf("feed queried %d times, want 1", feed.calls)
		}
	})

	t.Run("transport error keeps partial results", func(t *testing.T) {
		feed := &stubFeed{
			responses: [][]models.Candidate{{track("A", "One"), track("B", "Two")}},
			errs:      []error{nil, errors.New("connection reset")},
		}

		got := testFetcher().FetchCandidates(context.Background(), feed, 10)

		if len(got) != 2 {
			t.Errorf("got %d candidates, want 2 partial results", len(got))
		}
	})

	t.Run("skips entries missing artist or title", func(t *testing.T) {
		feed := &stubFeed{responses: [][]models.Candidate{
			{track("", "One"), track("A", ""), track("A", "One")},
		}}

		got := testFetcher().FetchCandidates(context.Background(), feed, 1)

		if len(got) != 1 {
			t.Fatalf("got %d candidates, want 1", len(got))
		}
		if got[0].Artist != "A" || got[0].Title != "One" {
			t.Errorf("unexpected candidate %+v", got[0])
		}
	})

	t.Run("caps total queries", func(t *testing.T) {
		// one new track per query never reaches 3×25
		responses := make([][]models.Candidate, maxQueries+5)
		for i := range responses {
			responses[i] = []models.Candidate{track(fmt.Sprintf("A%d", i), fmt.Sprintf("T%d", i))}
		}
		feed := &stubFeed{responses: responses}

		testFetcher().FetchCandidates(context.Background(), feed, 25)

		if feed.calls != maxQueries {
			t.Errorf("feed queried %d times, want %d", feed.calls, maxQueries)
		}
	})
}
