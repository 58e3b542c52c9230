package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"math"
	"time"

	tele "gopkg.in/telebot.v3"
)

const maxUpcoming = 6

func logf(op string, chatID int64, err error) {
	log.Printf("[bot.%s] chatID=%d err=%v", op, chatID, err)
}

// sendFreeGames posts one message (or album) per current free game.
func (b *Bot) sendFreeGames(ctx context.Context, to tele.Recipient) error {
	games, err := b.catalog.FreeGames(ctx, b.cfg.Locale, b.cfg.Country)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		_, err := b.out.Send(to, "No free games right now.")
		return err
	}

	trailers := b.catalog.ResolveTrailers(ctx, games, b.cfg.Locale)

	for i, g := range games {
		title := g.Title
		if title == "" {
			title = "Free Game"
		}
		caption := fmt.Sprintf("<b>%s</b>\n<a href=\"%s\">Claim on Epic Games Store</a>",
			html.EscapeString(title), g.StoreURL(b.cfg.Locale))
		image := g.ImageURL()

		var video string
		if i < len(trailers) {
			video = trailers[i].Direct
		}

		if image != "" && video != "" {
			album := tele.Album{
				&tele.Photo{File: tele.FromURL(image), Caption: caption},
				&tele.Video{File: tele.FromURL(video)},
			}
			_, err := b.out.SendAlbum(to, album, tele.ModeHTML)
			if err == nil {
				continue
			}
			log.Printf("[bot.sendFreeGames] album to=%s err=%v", to.Recipient(), err)
		}

		if err := b.sendCaptioned(to, image, caption, nil); err != nil {
			return err
		}

		if video != "" {
			if _, err := b.out.Send(to, &tele.Video{File: tele.FromURL(video)}); err != nil {
				log.Printf("[bot.sendFreeGames] video to=%s err=%v", to.Recipient(), err)
			}
		}
	}
	return nil
}

// sendUpcoming posts the next few upcoming free games with a notify toggle.
func (b *Bot) sendUpcoming(ctx context.Context, chat *tele.Chat) error {
	games, err := b.catalog.UpcomingGames(ctx, b.cfg.Locale, b.cfg.Country)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		_, err := b.out.Send(chat, "No upcoming free games found.")
		return err
	}

	now := b.now().UTC()
	for _, g := range games[:min(len(games), maxUpcoming)] {
		title := g.Title
		if title == "" {
			title = "Upcoming Free Game"
		}
		caption := fmt.Sprintf("<b>%s</b>\n%s\n<a href=\"%s\">View on Epic</a>",
			html.EscapeString(title), describeStart(g.UpcomingStart, now), g.StoreURL(b.cfg.Locale))

		if err := b.sendCaptioned(chat, g.ImageURL(), caption, b.offerMarkup(ctx, chat.ID, g.OfferID())); err != nil {
			return err
		}
	}
	return nil
}

// sendCaptioned sends a photo with caption, or the caption alone when there
// is no image or the photo is rejected.
func (b *Bot) sendCaptioned(to tele.Recipient, image, caption string, markup *tele.ReplyMarkup) error {
	opts := []interface{}{tele.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}

	if image != "" {
		_, err := b.out.Send(to, &tele.Photo{File: tele.FromURL(image), Caption: caption}, opts...)
		if err == nil {
			return nil
		}
		log.Printf("[bot.sendCaptioned] photo to=%s err=%v", to.Recipient(), err)
	}

	_, err := b.out.Send(to, caption, opts...)
	return err
}

func (b *Bot) offerMarkup(ctx context.Context, chatID int64, offerID string) *tele.ReplyMarkup {
	if offerID == "" {
		return nil
	}

	subscribed, err := b.db.IsSubscribedToOffer(ctx, chatID, offerID)
	if err != nil {
		logf("offerMarkup", chatID, err)
	}

	markup := &tele.ReplyMarkup{}
	if subscribed {
		markup.Inline(markup.Row(markup.Data("Unnotify This Game", btnOfferUnsub.Unique, offerID)))
	} else {
		markup.Inline(markup.Row(markup.Data("Notify When Free", btnOfferSub.Unique, offerID)))
	}
	return markup
}

// describeStart renders "in N days (MM.DD)" with N rounded up.
func describeStart(start *time.Time, now time.Time) string {
	if start == nil {
		return "Coming soon"
	}
	days := int(math.Ceil(start.Sub(now).Hours() / 24))
	plural := "s"
	if days == 1 {
		plural = ""
	}
	return fmt.Sprintf("in %d day%s (%s)", days, plural, start.UTC().Format("01.02"))
}
