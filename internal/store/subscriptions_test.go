package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSubscribeIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	added, err := db.Subscribe(ctx, 42)
	if err != nil || !added {
		t.Fatalf("first subscribe: added=%v err=%v", added, err)
	}
	added, err = db.Subscribe(ctx, 42)
	if err != nil || added {
		t.Fatalf("second subscribe: added=%v err=%v", added, err)
	}
	if _, err := db.Subscribe(ctx, 7); err != nil {
		t.Fatal(err)
	}

	ids, err := db.Subscribers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int64{42, 7}) {
		t.Errorf("subscribers = %v", ids)
	}

	ok, err := db.IsSubscribed(ctx, 42)
	if err != nil || !ok {
		t.Errorf("IsSubscribed(42) = %v, %v", ok, err)
	}
}

func TestUnsubscribe(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	removed, err := db.Unsubscribe(ctx, 1)
	if err != nil || removed {
		t.Fatalf("unsubscribe unknown: removed=%v err=%v", removed, err)
	}

	db.Subscribe(ctx, 1)
	removed, err = db.Unsubscribe(ctx, 1)
	if err != nil || !removed {
		t.Fatalf("unsubscribe known: removed=%v err=%v", removed, err)
	}
	if ok, _ := db.IsSubscribed(ctx, 1); ok {
		t.Error("still subscribed")
	}
}

func TestOfferSubscriptions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sub := OfferSub{ChatID: 5, OfferID: "o1", Title: "Game", PageSlug: "game"}
	if err := db.SubscribeOffer(ctx, sub); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkNotified(ctx, 5, "o1"); err != nil {
		t.Fatal(err)
	}

	subs, err := db.OfferSubs(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || !subs[0].Notified {
		t.Fatalf("expected one notified sub, got %+v", subs)
	}

	// Re-subscribing replaces the row and resets the flag.
	sub.Title = "Game Renamed"
	if err := db.SubscribeOffer(ctx, sub); err != nil {
		t.Fatal(err)
	}
	subs, _ = db.OfferSubs(ctx, 5)
	if len(subs) != 1 || subs[0].Notified || subs[0].Title != "Game Renamed" {
		t.Fatalf("unexpected subs after resubscribe: %+v", subs)
	}

	db.SubscribeOffer(ctx, OfferSub{ChatID: 9, OfferID: "o2", Title: "Other"})
	chats, err := db.OfferChats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(chats, []int64{5, 9}) {
		t.Errorf("offer chats = %v", chats)
	}

	if ok, _ := db.IsSubscribedToOffer(ctx, 5, "o1"); !ok {
		t.Error("expected subscription to o1")
	}
	removed, err := db.UnsubscribeOffer(ctx, 5, "o1")
	if err != nil || !removed {
		t.Fatalf("unsubscribe offer: removed=%v err=%v", removed, err)
	}
	if ok, _ := db.IsSubscribedToOffer(ctx, 5, "o1"); ok {
		t.Error("subscription to o1 survived")
	}
}
