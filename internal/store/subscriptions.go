package store

import (
	"context"
	"fmt"
	"log"
)

// OfferSub is a request to be told when one specific offer becomes free.
type OfferSub struct {
	ChatID   int64
	OfferID  string
	Title    string
	PageSlug string
	Notified bool
}

// Subscribe adds chatID to the daily digest. It reports false if the chat
// was already subscribed.
func (d *DB) Subscribe(ctx context.Context, chatID int64) (bool, error) {
	res, err := d.ExecContext(ctx, `INSERT OR IGNORE INTO subscribers (chat_id) VALUES (?)`, chatID)
	if err != nil {
		return false, fmt.Errorf("subscribe %d: %w", chatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		log.Printf("[store.Subscribe] chatID=%d", chatID)
	}
	return n > 0, nil
}

// Unsubscribe removes chatID from the digest. It reports false if the chat
// was not subscribed.
func (d *DB) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	res, err := d.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = ?`, chatID)
	if err != nil {
		return false, fmt.Errorf("unsubscribe %d: %w", chatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		log.Printf("[store.Unsubscribe] chatID=%d", chatID)
	}
	return n > 0, nil
}

func (d *DB) IsSubscribed(ctx context.Context, chatID int64) (bool, error) {
	var one int
	err := d.QueryRowContext(ctx, `SELECT 1 FROM subscribers WHERE chat_id = ?`, chatID).Scan(&one)
	return scanExists(err)
}

// Subscribers lists digest chats in subscription order.
func (d *DB) Subscribers(ctx context.Context) ([]int64, error) {
	return d.chatIDs(ctx, `SELECT chat_id FROM subscribers ORDER BY id`)
}

// SubscribeOffer stores or replaces the (chat, offer) row and resets its
// notified flag.
func (d *DB) SubscribeOffer(ctx context.Context, s OfferSub) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO offer_subs (chat_id, offer_id, title, page_slug, notified)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(chat_id, offer_id) DO UPDATE SET
			title = excluded.title,
			page_slug = excluded.page_slug,
			notified = 0`,
		s.ChatID, s.OfferID, s.Title, s.PageSlug)
	if err != nil {
		return fmt.Errorf("subscribe offer %s for %d: %w", s.OfferID, s.ChatID, err)
	}
	log.Printf("[store.SubscribeOffer] chatID=%d offerID=%s", s.ChatID, s.OfferID)
	return nil
}

func (d *DB) UnsubscribeOffer(ctx context.Context, chatID int64, offerID string) (bool, error) {
	res, err := d.ExecContext(ctx, `DELETE FROM offer_subs WHERE chat_id = ? AND offer_id = ?`, chatID, offerID)
	if err != nil {
		return false, fmt.Errorf("unsubscribe offer %s for %d: %w", offerID, chatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *DB) IsSubscribedToOffer(ctx context.Context, chatID int64, offerID string) (bool, error) {
	var one int
	err := d.QueryRowContext(ctx, `SELECT 1 FROM offer_subs WHERE chat_id = ? AND offer_id = ?`, chatID, offerID).Scan(&one)
	return scanExists(err)
}

// OfferSubs returns the offer subscriptions of one chat.
func (d *DB) OfferSubs(ctx context.Context, chatID int64) ([]OfferSub, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT chat_id, offer_id, title, page_slug, notified
		FROM offer_subs WHERE chat_id = ? ORDER BY rowid`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []OfferSub
	for rows.Next() {
		var s OfferSub
		if err := rows.Scan(&s.ChatID, &s.OfferID, &s.Title, &s.PageSlug, &s.Notified); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// OfferChats lists every chat holding at least one offer subscription.
func (d *DB) OfferChats(ctx context.Context) ([]int64, error) {
	return d.chatIDs(ctx, `SELECT DISTINCT chat_id FROM offer_subs ORDER BY chat_id`)
}

func (d *DB) MarkNotified(ctx context.Context, chatID int64, offerID string) error {
	_, err := d.ExecContext(ctx, `UPDATE offer_subs SET notified = 1 WHERE chat_id = ? AND offer_id = ?`, chatID, offerID)
	if err != nil {
		return fmt.Errorf("mark notified %s for %d: %w", offerID, chatID, err)
	}
	return nil
}

func (d *DB) chatIDs(ctx context.Context, query string) ([]int64, error) {
	rows, err := d.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
