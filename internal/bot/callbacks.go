package bot

import (
	"fmt"

	"github.com/eliseohh/epicfreebot/internal/catalog"
	"github.com/eliseohh/epicfreebot/internal/store"
	tele "gopkg.in/telebot.v3"
)

func (b *Bot) onFree(c tele.Context) error {
	_ = c.Respond()
	return b.handleFreeGames(c)
}

func (b *Bot) onUpcoming(c tele.Context) error {
	_ = c.Respond()
	return b.handleUpcoming(c)
}

func (b *Bot) onSubscribe(c tele.Context) error {
	_ = c.Respond()
	return b.subscribe(c, true)
}

func (b *Bot) onUnsubscribe(c tele.Context) error {
	_ = c.Respond()
	return b.unsubscribe(c, true)
}

// onOfferSub remembers an offer so the digest can announce it once it turns free.
func (b *Bot) onOfferSub(c tele.Context) error {
	_ = c.Respond()
	ctx, cancel := requestContext()
	defer cancel()

	offerID := c.Data()
	if offerID == "" {
		return nil
	}
	chatID := c.Chat().ID

	current, err := b.catalog.FreeGames(ctx, b.cfg.Locale, b.cfg.Country)
	if err != nil {
		logf("onOfferSub", chatID, err)
	}
	upcoming, err := b.catalog.UpcomingGames(ctx, b.cfg.Locale, b.cfg.Country)
	if err != nil {
		logf("onOfferSub", chatID, err)
	}

	sub := store.OfferSub{ChatID: chatID, OfferID: offerID, Title: offerID}
	if g, ok := findOffer(offerID, current, upcoming); ok {
		if g.Title != "" {
			sub.Title = g.Title
		}
		sub.PageSlug = g.PageSlug()
	}

	if err := b.db.SubscribeOffer(ctx, sub); err != nil {
		return err
	}
	b.clearKeyboard(c)
	return c.Send(fmt.Sprintf("You'll be notified when '%s' becomes free.", sub.Title))
}

func (b *Bot) onOfferUnsub(c tele.Context) error {
	_ = c.Respond()
	ctx, cancel := requestContext()
	defer cancel()

	offerID := c.Data()
	if offerID == "" {
		return nil
	}
	if _, err := b.db.UnsubscribeOffer(ctx, c.Chat().ID, offerID); err != nil {
		return err
	}
	b.clearKeyboard(c)
	return c.Send(msgOfferRemoved)
}

func findOffer(offerID string, lists ...[]catalog.Game) (catalog.Game, bool) {
	for _, games := range lists {
		for _, g := range games {
			if g.OfferID() == offerID {
				return g, true
			}
		}
	}
	return catalog.Game{}, false
}
