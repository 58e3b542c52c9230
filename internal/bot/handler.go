package bot

import (
	"unicode/utf8"

	"github.com/eliseohh/epicfreebot/internal/catalog"
	tele "gopkg.in/telebot.v3"
)

// Greeting is the reply to every plain text message.
const Greeting = "hello"

const (
	msgSubscribed       = "Subscribed. You'll get a daily reminder."
	msgAlreadySub       = "You're already subscribed."
	msgUnsubscribed     = "Unsubscribed."
	msgNotSubscribed    = "You were not subscribed."
	msgNoNotifications  = "You have no game notifications set."
	msgOfferRemoved     = "Game notification removed."
	maxNotificationRows = 12
)

func (b *Bot) handleText(c tele.Context) error {
	// Unregistered commands fall through to OnText in telebot.
	if isCommand(c.Message()) {
		return nil
	}
	return c.Send(Greeting)
}

func isCommand(m *tele.Message) bool {
	if m == nil {
		return false
	}
	return len(m.Entities) > 0 && m.Entities[0].Type == tele.EntityCommand && m.Entities[0].Offset == 0
}

func (b *Bot) handleStart(c tele.Context) error {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("Show Free Games", btnFree.Unique)),
		markup.Row(markup.Data("Show Upcoming", btnUpcoming.Unique)),
		markup.Row(
			markup.Data("Subscribe", btnSubscribe.Unique),
			markup.Data("Unsubscribe", btnUnsubscribe.Unique),
		),
	)

	return c.Send("Hi! Use /freegames to see this week's free Epic Games.\n"+
		"Use /subscribe to get a daily reminder while the bot is running.\n"+
		"Use /upcoming to see what's next and /notifications to manage game alerts.", markup)
}

func (b *Bot) handleFreeGames(c tele.Context) error {
	ctx, cancel := requestContext()
	defer cancel()
	return b.sendFreeGames(ctx, c.Chat())
}

func (b *Bot) handleUpcoming(c tele.Context) error {
	ctx, cancel := requestContext()
	defer cancel()
	return b.sendUpcoming(ctx, c.Chat())
}

func (b *Bot) handleSubscribe(c tele.Context) error {
	return b.subscribe(c, false)
}

func (b *Bot) handleUnsubscribe(c tele.Context) error {
	return b.unsubscribe(c, false)
}

func (b *Bot) subscribe(c tele.Context, fromButton bool) error {
	ctx, cancel := requestContext()
	defer cancel()

	added, err := b.db.Subscribe(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	if !added {
		return c.Send(msgAlreadySub)
	}
	if fromButton {
		b.clearKeyboard(c)
	}
	return c.Send(msgSubscribed)
}

func (b *Bot) unsubscribe(c tele.Context, fromButton bool) error {
	ctx, cancel := requestContext()
	defer cancel()

	removed, err := b.db.Unsubscribe(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	if !removed {
		return c.Send(msgNotSubscribed)
	}
	if fromButton {
		b.clearKeyboard(c)
	}
	return c.Send(msgUnsubscribed)
}

func (b *Bot) handleNotifications(c tele.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	subs, err := b.db.OfferSubs(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return c.Send(msgNoNotifications)
	}

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, min(len(subs), maxNotificationRows))
	for _, s := range subs[:min(len(subs), maxNotificationRows)] {
		title := s.Title
		if title == "" {
			title = s.OfferID
		}
		rows = append(rows, markup.Row(
			markup.URL(truncate(title, 48), catalog.ProductURL(s.PageSlug)),
			markup.Data("Unsubscribe", btnOfferUnsub.Unique, s.OfferID),
		))
	}
	markup.Inline(rows...)

	return c.Send("Your game notifications:", markup)
}

// clearKeyboard drops the inline keyboard from the message a button was
// pressed on. Failures are only logged.
func (b *Bot) clearKeyboard(c tele.Context) {
	msg := c.Message()
	if msg == nil || b.out == nil {
		return
	}
	if _, err := b.out.EditReplyMarkup(msg, nil); err != nil {
		logf("clearKeyboard", c.Chat().ID, err)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
