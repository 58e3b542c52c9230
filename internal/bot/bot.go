package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/eliseohh/epicfreebot/internal/catalog"
	"github.com/eliseohh/epicfreebot/internal/store"
	tele "gopkg.in/telebot.v3"
)

// Catalog is the part of the store client the handlers use.
type Catalog interface {
	FreeGames(ctx context.Context, locale, country string) ([]catalog.Game, error)
	UpcomingGames(ctx context.Context, locale, country string) ([]catalog.Game, error)
	ResolveTrailers(ctx context.Context, games []catalog.Game, locale string) []catalog.Trailer
}

type Store interface {
	Subscribe(ctx context.Context, chatID int64) (bool, error)
	Unsubscribe(ctx context.Context, chatID int64) (bool, error)
	SubscribeOffer(ctx context.Context, s store.OfferSub) error
	UnsubscribeOffer(ctx context.Context, chatID int64, offerID string) (bool, error)
	IsSubscribedToOffer(ctx context.Context, chatID int64, offerID string) (bool, error)
	OfferSubs(ctx context.Context, chatID int64) ([]store.OfferSub, error)
}

// Sender is satisfied by *tele.Bot. Handlers that send outside of a
// reply (media, scheduled pushes, markup edits) go through it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
}

type Config struct {
	Token       string
	PollTimeout time.Duration
	Locale      string
	Country     string
}

type Bot struct {
	api     *tele.Bot
	out     Sender
	db      Store
	catalog Catalog
	cfg     Config
	now     func() time.Time
}

const requestTimeout = 60 * time.Second

func New(cfg Config, db Store, cat Catalog) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
		OnError: func(err error, c tele.Context) {
			if c != nil && c.Chat() != nil {
				log.Printf("[bot] chatID=%d err=%v", c.Chat().ID, err)
				return
			}
			log.Printf("[bot] err=%v", err)
		},
	}

	api, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	b := &Bot{
		api:     api,
		out:     api,
		db:      db,
		catalog: cat,
		cfg:     cfg,
		now:     time.Now,
	}
	b.register()
	return b, nil
}

// Start blocks until Stop is called.
func (b *Bot) Start() {
	log.Printf("Bot started: @%s", b.api.Me.Username)
	b.api.Start()
}

func (b *Bot) Stop() {
	b.api.Stop()
}

var (
	btnFree        = tele.Btn{Unique: "free"}
	btnUpcoming    = tele.Btn{Unique: "upcoming"}
	btnSubscribe   = tele.Btn{Unique: "subscribe"}
	btnUnsubscribe = tele.Btn{Unique: "unsubscribe"}
	btnOfferSub    = tele.Btn{Unique: "offer_sub"}
	btnOfferUnsub  = tele.Btn{Unique: "offer_unsub"}
)

func (b *Bot) register() {
	b.api.Handle("/start", b.handleStart)
	b.api.Handle("/freegames", b.handleFreeGames)
	b.api.Handle("/upcoming", b.handleUpcoming)
	b.api.Handle("/subscribe", b.handleSubscribe)
	b.api.Handle("/unsubscribe", b.handleUnsubscribe)
	b.api.Handle("/notifications", b.handleNotifications)

	b.api.Handle(&btnFree, b.onFree)
	b.api.Handle(&btnUpcoming, b.onUpcoming)
	b.api.Handle(&btnSubscribe, b.onSubscribe)
	b.api.Handle(&btnUnsubscribe, b.onUnsubscribe)
	b.api.Handle(&btnOfferSub, b.onOfferSub)
	b.api.Handle(&btnOfferUnsub, b.onOfferUnsub)

	// Everything else that is plain text.
	b.api.Handle(tele.OnText, b.handleText)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// SendFreeGames pushes the current free games to chatID.
func (b *Bot) SendFreeGames(ctx context.Context, chatID int64) error {
	return b.sendFreeGames(ctx, tele.ChatID(chatID))
}

// Notify sends a plain text message to chatID.
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	_, err := b.out.Send(tele.ChatID(chatID), text)
	return err
}
