package digest

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/eliseohh/epicfreebot/internal/catalog"
	"github.com/eliseohh/epicfreebot/internal/store"
	"github.com/google/uuid"
)

type Store interface {
	Subscribers(ctx context.Context) ([]int64, error)
	OfferChats(ctx context.Context) ([]int64, error)
	OfferSubs(ctx context.Context, chatID int64) ([]store.OfferSub, error)
	MarkNotified(ctx context.Context, chatID int64, offerID string) error
}

type Catalog interface {
	FreeGames(ctx context.Context, locale, country string) ([]catalog.Game, error)
}

// Messenger delivers to a chat. *bot.Bot implements it.
type Messenger interface {
	Notify(ctx context.Context, chatID int64, text string) error
	SendFreeGames(ctx context.Context, chatID int64) error
}

type Job struct {
	store   Store
	catalog Catalog
	out     Messenger
	locale  string
	country string
}

func NewJob(s Store, c Catalog, out Messenger, locale, country string) *Job {
	return &Job{store: s, catalog: c, out: out, locale: locale, country: country}
}

// Report summarises one run.
type Report struct {
	RunID    string
	Chats    int
	Notified int
	Digests  int
	Failures int
}

// Run announces subscribed offers that became free, then sends the
// digest to every subscriber. A failure for one chat does not stop the others.
func (j *Job) Run(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.NewString()}

	subscribers, err := j.store.Subscribers(ctx)
	if err != nil {
		return rep, fmt.Errorf("digest %s: subscribers: %w", rep.RunID, err)
	}
	offerChats, err := j.store.OfferChats(ctx)
	if err != nil {
		return rep, fmt.Errorf("digest %s: offer chats: %w", rep.RunID, err)
	}

	free, err := j.catalog.FreeGames(ctx, j.locale, j.country)
	if err != nil {
		log.Printf("[digest.Run] run=%s catalog err=%v", rep.RunID, err)
		free = nil
	}
	freeIDs := make(map[string]bool, len(free))
	for _, g := range free {
		if id := g.OfferID(); id != "" {
			freeIDs[id] = true
		}
	}

	chats := union(subscribers, offerChats)
	rep.Chats = len(chats)
	log.Printf("[digest.Run] run=%s chats=%d free=%d", rep.RunID, len(chats), len(freeIDs))

	if len(freeIDs) > 0 {
		for _, chatID := range chats {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			n, failed := j.notifyOffers(ctx, rep.RunID, chatID, freeIDs)
			rep.Notified += n
			rep.Failures += failed
		}
	}

	for _, chatID := range subscribers {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		if err := j.out.SendFreeGames(ctx, chatID); err != nil {
			log.Printf("[digest.Run] run=%s digest chatID=%d err=%v", rep.RunID, chatID, err)
			rep.Failures++
			continue
		}
		rep.Digests++
	}

	log.Printf("[digest.Run] run=%s done notified=%d digests=%d failures=%d",
		rep.RunID, rep.Notified, rep.Digests, rep.Failures)
	return rep, nil
}

func (j *Job) notifyOffers(ctx context.Context, runID string, chatID int64, freeIDs map[string]bool) (sent, failed int) {
	subs, err := j.store.OfferSubs(ctx, chatID)
	if err != nil {
		log.Printf("[digest.notifyOffers] run=%s chatID=%d err=%v", runID, chatID, err)
		return 0, 1
	}

	for _, s := range subs {
		if s.Notified || !freeIDs[s.OfferID] {
			continue
		}
		title := s.Title
		if title == "" {
			title = s.OfferID
		}
		text := fmt.Sprintf("Now free: %s\n%s", title, catalog.ProductURL(s.PageSlug))
		if err := j.out.Notify(ctx, chatID, text); err != nil {
			log.Printf("[digest.notifyOffers] run=%s chatID=%d offerID=%s err=%v", runID, chatID, s.OfferID, err)
			failed++
			continue
		}
		if err := j.store.MarkNotified(ctx, chatID, s.OfferID); err != nil {
			log.Printf("[digest.notifyOffers] run=%s chatID=%d offerID=%s mark err=%v", runID, chatID, s.OfferID, err)
		}
		sent++
	}
	return sent, failed
}

func union(a, b []int64) []int64 {
	seen := make(map[int64]bool, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, ids := range [][]int64{a, b} {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
