package catalog

import (
	"strings"
	"time"
)

// StoreRoot is used whenever a game has no usable slug.
const StoreRoot = "https://store.epicgames.com/"

type Game struct {
	ID            string      `json:"id"`
	Namespace     string      `json:"namespace"`
	Title         string      `json:"title"`
	ProductSlug   string      `json:"productSlug"`
	URLSlug       string      `json:"urlSlug"`
	KeyImages     []KeyImage  `json:"keyImages"`
	CatalogNs     CatalogNs   `json:"catalogNs"`
	OfferMappings []Mapping   `json:"offerMappings"`
	Items         []Item      `json:"items"`
	Promotions    *Promotions `json:"promotions"`

	// Set on games returned by UpcomingGames.
	UpcomingStart *time.Time `json:"upcomingStart,omitempty"`
}

type KeyImage struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type CatalogNs struct {
	Namespace string    `json:"namespace"`
	Mappings  []Mapping `json:"mappings"`
}

type Mapping struct {
	PageSlug string `json:"pageSlug"`
	PageType string `json:"pageType"`
}

type Item struct {
	ID string `json:"id"`
}

type Promotions struct {
	PromotionalOffers         []OfferGroup `json:"promotionalOffers"`
	UpcomingPromotionalOffers []OfferGroup `json:"upcomingPromotionalOffers"`
}

type OfferGroup struct {
	PromotionalOffers []Window `json:"promotionalOffers"`
}

// Window is a promotion period. Dates are kept as strings because the feed
// occasionally carries nulls or malformed values.
type Window struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

var preferredImages = []string{
	"OfferImageWide",
	"DieselStoreFrontWide",
	"DieselStoreFront",
	"Thumbnail",
}

// ImageURL picks the best key image, or "" when the game has none.
func (g Game) ImageURL() string {
	for _, kind := range preferredImages {
		for _, img := range g.KeyImages {
			if img.Type == kind && img.URL != "" {
				return img.URL
			}
		}
	}
	if len(g.KeyImages) > 0 {
		return g.KeyImages[0].URL
	}
	return ""
}

// OfferID is the game's own id, falling back to its first item.
func (g Game) OfferID() string {
	if g.ID != "" {
		return g.ID
	}
	if len(g.Items) > 0 {
		return g.Items[0].ID
	}
	return ""
}

// NamespaceOrCatalog returns the namespace used for content lookups.
func (g Game) NamespaceOrCatalog() string {
	if ns := strings.TrimSpace(g.Namespace); ns != "" {
		return ns
	}
	return strings.TrimSpace(g.CatalogNs.Namespace)
}

// rawSlug walks the slug sources in precedence order.
func (g Game) rawSlug() string {
	for _, m := range g.CatalogNs.Mappings {
		if strings.EqualFold(m.PageType, "productHome") && m.PageSlug != "" {
			return m.PageSlug
		}
	}
	for _, m := range g.CatalogNs.Mappings {
		if m.PageSlug != "" {
			return m.PageSlug
		}
	}
	for _, m := range g.OfferMappings {
		if m.PageSlug != "" {
			return m.PageSlug
		}
	}
	if g.ProductSlug != "" {
		return g.ProductSlug
	}
	return g.URLSlug
}

// PageSlug is the bare product slug without any p/, bundles/ or store/ prefix.
func (g Game) PageSlug() string {
	slug := g.rawSlug()
	if slug == "" {
		return ""
	}
	parts := strings.Split(strings.TrimLeft(strings.TrimSpace(slug), "/"), "/")
	switch parts[0] {
	case "p", "bundles", "store":
		parts = parts[1:]
	}
	return strings.Join(parts, "/")
}

// StoreURL builds the store page link for locale.
func (g Game) StoreURL(locale string) string {
	slug := strings.TrimLeft(g.rawSlug(), "/")
	if slug == "" {
		return StoreRoot
	}
	for _, prefix := range []string{"p/", "bundles/", "store/"} {
		if strings.HasPrefix(slug, prefix) {
			return StoreRoot + locale + "/" + slug
		}
	}
	return StoreRoot + locale + "/p/" + slug
}

// ProductURL links a stored page slug, used where only the slug survived.
func ProductURL(pageSlug string) string {
	if pageSlug == "" {
		return StoreRoot
	}
	return StoreRoot + "en-US/p/" + pageSlug
}

// activeAt reports whether any current promotion window covers now.
// Unparseable dates count as open-ended.
func (g Game) activeAt(now time.Time) bool {
	if g.Promotions == nil {
		return false
	}
	for _, group := range g.Promotions.PromotionalOffers {
		for _, w := range group.PromotionalOffers {
			start, end, ok := w.bounds()
			if !ok {
				return true
			}
			if (start == nil || !start.After(now)) && (end == nil || now.Before(*end)) {
				return true
			}
		}
	}
	return false
}

// nextStart returns the earliest upcoming window start after now.
func (g Game) nextStart(now time.Time) *time.Time {
	if g.Promotions == nil {
		return nil
	}
	var best *time.Time
	for _, group := range g.Promotions.UpcomingPromotionalOffers {
		for _, w := range group.PromotionalOffers {
			start := parseDate(w.StartDate)
			if start == nil || !start.After(now) {
				continue
			}
			if best == nil || start.Before(*best) {
				best = start
			}
		}
	}
	return best
}

func (w Window) bounds() (start, end *time.Time, ok bool) {
	if w.StartDate != "" {
		if start = parseDate(w.StartDate); start == nil {
			return nil, nil, false
		}
	}
	if w.EndDate != "" {
		if end = parseDate(w.EndDate); end == nil {
			return nil, nil, false
		}
	}
	return start, end, true
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
