package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const feedFixture = `{"data":{"Catalog":{"searchStore":{"elements":[
 {"id":"free-1","title":"Active Game","namespace":"ns1",
  "catalogNs":{"mappings":[{"pageSlug":"active-game","pageType":"productHome"}]},
  "keyImages":[{"type":"Thumbnail","url":"https://img/thumb.png"},{"type":"OfferImageWide","url":"https://img/wide.png"}],
  "promotions":{"promotionalOffers":[{"promotionalOffers":[{"startDate":"2024-05-01T15:00:00.000Z","endDate":"2024-05-15T15:00:00.000Z"}]}],"upcomingPromotionalOffers":[]}},
 {"id":"expired","title":"Expired Game",
  "promotions":{"promotionalOffers":[{"promotionalOffers":[{"startDate":"2024-04-01T15:00:00.000Z","endDate":"2024-04-08T15:00:00.000Z"}]}]}},
 {"id":"later","title":"Later Game","productSlug":"later-game",
  "promotions":{"promotionalOffers":[],"upcomingPromotionalOffers":[{"promotionalOffers":[{"startDate":"2024-05-22T15:00:00.000Z","endDate":"2024-05-29T15:00:00.000Z"}]}]}},
 {"id":"sooner","title":"Sooner Game","urlSlug":"sooner",
  "promotions":{"upcomingPromotionalOffers":[{"promotionalOffers":[{"startDate":"2024-05-30T15:00:00.000Z"},{"startDate":"2024-05-15T15:00:00.000Z"}]}]}},
 {"id":"nopromo","title":"Paid Game","promotions":null}
]}}}}`

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c := NewClient(nil)
	c.FeedURL = ts.URL + "/feed"
	c.ContentURL = ts.URL + "/api"
	c.HTTP = ts.Client()
	c.Now = func() time.Time { return fixedNow }
	return c, ts
}

func TestFreeGames(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, feedFixture)
	})

	games, err := c.FreeGames(context.Background(), "en-US", "US")
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 1 || games[0].ID != "free-1" {
		t.Fatalf("unexpected games: %+v", games)
	}
	for _, want := range []string{"locale=en-US", "country=US", "allowCountries=US"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestUpcomingGamesSortedBySoonest(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedFixture)
	})

	games, err := c.UpcomingGames(context.Background(), "en-US", "US")
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 upcoming, got %d", len(games))
	}
	if games[0].ID != "sooner" || games[1].ID != "later" {
		t.Errorf("wrong order: %s, %s", games[0].ID, games[1].ID)
	}
	want := time.Date(2024, 5, 15, 15, 0, 0, 0, time.UTC)
	if games[0].UpcomingStart == nil || !games[0].UpcomingStart.Equal(want) {
		t.Errorf("upcoming start = %v, want %v", games[0].UpcomingStart, want)
	}
}

func TestFreeGamesCached(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, feedFixture)
	})

	for range 3 {
		if _, err := c.FreeGames(context.Background(), "en-US", "US"); err != nil {
			t.Fatal(err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 feed request, got %d", hits.Load())
	}

	if _, err := c.FreeGames(context.Background(), "de-DE", "DE"); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("different locale should miss the cache, hits=%d", hits.Load())
	}
}

func TestFreeGamesBadStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})

	if _, err := c.FreeGames(context.Background(), "en-US", "US"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	now := fixedNow
	mc := NewMemoryCache(time.Minute)
	mc.now = func() time.Time { return now }

	ctx := context.Background()
	mc.Set(ctx, "k", []Game{{ID: "a"}})
	if got, ok := mc.Get(ctx, "k"); !ok || len(got) != 1 {
		t.Fatal("expected hit")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := mc.Get(ctx, "k"); ok {
		t.Fatal("expected expiry")
	}
}
