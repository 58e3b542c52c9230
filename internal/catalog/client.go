package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"
)

const (
	DefaultFeedURL    = "https://store-site-backend-static.ak.epicgames.com/freeGamesPromotions"
	DefaultContentURL = "https://store-content.ak.epicgames.com/api"
)

var ErrBadStatus = errors.New("unexpected status")

// Client talks to the Epic store's public promotion and content endpoints.
type Client struct {
	FeedURL    string
	ContentURL string
	HTTP       *http.Client
	Cache      Cache
	Now        func() time.Time
}

func NewClient(cache Cache) *Client {
	if cache == nil {
		cache = NewMemoryCache(DefaultTTL)
	}
	return &Client{
		FeedURL:    DefaultFeedURL,
		ContentURL: DefaultContentURL,
		HTTP:       &http.Client{Timeout: 20 * time.Second},
		Cache:      cache,
		Now:        time.Now,
	}
}

type feedResponse struct {
	Data struct {
		Catalog struct {
			SearchStore struct {
				Elements []Game `json:"elements"`
			} `json:"searchStore"`
		} `json:"Catalog"`
	} `json:"data"`
}

// FreeGames returns the games whose promotion is active right now.
func (c *Client) FreeGames(ctx context.Context, locale, country string) ([]Game, error) {
	key := cacheKey(locale, country, "current")
	if games, ok := c.Cache.Get(ctx, key); ok {
		return games, nil
	}

	elements, err := c.feed(ctx, locale, country)
	if err != nil {
		return nil, err
	}

	now := c.Now().UTC()
	free := make([]Game, 0, len(elements))
	for _, g := range elements {
		if g.activeAt(now) {
			free = append(free, g)
		}
	}

	c.Cache.Set(ctx, key, free)
	return free, nil
}

// UpcomingGames returns games with a promotion starting in the future,
// soonest first.
func (c *Client) UpcomingGames(ctx context.Context, locale, country string) ([]Game, error) {
	key := cacheKey(locale, country, "upcoming")
	if games, ok := c.Cache.Get(ctx, key); ok {
		return games, nil
	}

	elements, err := c.feed(ctx, locale, country)
	if err != nil {
		return nil, err
	}

	now := c.Now().UTC()
	upcoming := make([]Game, 0, len(elements))
	for _, g := range elements {
		if start := g.nextStart(now); start != nil {
			g.UpcomingStart = start
			upcoming = append(upcoming, g)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].UpcomingStart.Before(*upcoming[j].UpcomingStart)
	})

	c.Cache.Set(ctx, key, upcoming)
	return upcoming, nil
}

func (c *Client) feed(ctx context.Context, locale, country string) ([]Game, error) {
	q := url.Values{}
	q.Set("locale", locale)
	q.Set("country", country)
	q.Set("allowCountries", country)

	var resp feedResponse
	if err := c.getJSON(ctx, c.FeedURL+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetch free games: %w", err)
	}
	return resp.Data.Catalog.SearchStore.Elements, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
