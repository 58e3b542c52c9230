package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
)

var ErrNoContent = errors.New("no product content found")

var hexSuffix = regexp.MustCompile(`(?i)-[0-9a-f]{6}$`)

// Trailer holds whatever video links the product page exposes.
// Either field may be empty.
type Trailer struct {
	Direct  string
	YouTube string
}

func (t Trailer) Empty() bool { return t.Direct == "" && t.YouTube == "" }

// Trailer fetches the product content document for pageSlug and scans it for
// a trailer. Several locales and slug spellings are tried because the content
// API is inconsistent about both.
func (c *Client) Trailer(ctx context.Context, pageSlug, locale, namespace string) (Trailer, error) {
	if pageSlug == "" {
		return Trailer{}, ErrNoContent
	}

	var doc map[string]any
	found := false
	for _, loc := range dedupe([]string{locale, "en", "en-GB"}) {
		for _, slug := range slugCandidates(pageSlug, namespace) {
			contentURL := fmt.Sprintf("%s/%s/content/products/%s", c.ContentURL, loc, slug)
			doc = nil
			if err := c.getJSON(ctx, contentURL, &doc); err != nil {
				if ctx.Err() != nil {
					return Trailer{}, ctx.Err()
				}
				log.Printf("[catalog.Trailer] slug=%s locale=%s err=%v", slug, loc, err)
				continue
			}
			if slug != pageSlug || loc != locale {
				log.Printf("[catalog.Trailer] fallback used %s -> %s (locale %s)", pageSlug, slug, loc)
			}
			found = true
			break
		}
		if found {
			break
		}
	}
	if !found {
		return Trailer{}, ErrNoContent
	}

	t := scanDocument(doc)
	if t.Empty() {
		log.Printf("[catalog.Trailer] no trailer for slug=%s", pageSlug)
	}
	return t, nil
}

func slugCandidates(slug, namespace string) []string {
	stripped := hexSuffix.ReplaceAllString(slug, "")
	out := []string{slug, stripped}
	if namespace != "" {
		out = append(out, namespace+"/"+slug, namespace+"/"+stripped)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// scanDocument looks at productHome modules first, then top-level modules,
// then the whole document.
func scanDocument(doc map[string]any) Trailer {
	var candidates []any
	if pages, ok := doc["pages"].([]any); ok {
		for _, p := range pages {
			page, ok := p.(map[string]any)
			if !ok {
				continue
			}
			kind, _ := page["_type"].(string)
			if kind == "" {
				kind, _ = page["type"].(string)
			}
			if strings.EqualFold(kind, "productHome") {
				candidates = append(candidates, page["modules"])
			}
		}
	}
	if len(candidates) == 0 {
		if modules, ok := doc["modules"]; ok {
			candidates = append(candidates, modules)
		}
	}

	var t Trailer
	for _, c := range candidates {
		t = t.merge(scan(c))
	}
	if t.Empty() {
		t = scan(doc)
	}
	return t
}

func (t Trailer) merge(o Trailer) Trailer {
	if t.Direct == "" {
		t.Direct = o.Direct
	}
	if t.YouTube == "" {
		t.YouTube = o.YouTube
	}
	return t
}

func isVideoFile(s string) bool {
	low := strings.ToLower(s)
	return strings.HasSuffix(low, ".mp4") || strings.HasSuffix(low, ".webm") ||
		strings.HasSuffix(low, ".mov") || strings.Contains(low, ".mp4")
}

func isYouTube(s string) bool {
	low := strings.ToLower(s)
	return strings.Contains(low, "youtube.com") || strings.Contains(low, "youtu.be")
}

func (t *Trailer) consider(v string) {
	v = strings.TrimSpace(v)
	if t.Direct == "" && isVideoFile(v) {
		t.Direct = v
	}
	if t.YouTube == "" && isYouTube(v) {
		t.YouTube = v
	}
}

func fromSources(v any) string {
	sources, ok := v.([]any)
	if !ok {
		return ""
	}
	for _, s := range sources {
		src, ok := s.(map[string]any)
		if !ok {
			continue
		}
		u, ok := src["src"].(string)
		if !ok || u == "" {
			u, ok = src["url"].(string)
		}
		if ok && isVideoFile(u) {
			return u
		}
	}
	return ""
}

func scan(v any) Trailer {
	var t Trailer
	switch node := v.(type) {
	case map[string]any:
		if p, _ := node["provider"].(string); p == "youtube" && t.YouTube == "" {
			if id, ok := node["id"].(string); ok && id != "" {
				t.YouTube = "https://youtu.be/" + id
			}
		}
		for _, k := range []string{"youTubeUrl", "youtubeUrl"} {
			if s, ok := node[k].(string); ok && s != "" && t.YouTube == "" {
				t.consider(s)
			}
		}
		if s, ok := node["videoUrl"].(string); ok && s != "" && t.Direct == "" {
			t.consider(s)
		}
		if video, ok := node["video"].(map[string]any); ok && t.Direct == "" {
			t.Direct = fromSources(video["sources"])
		}
		if t.Direct == "" {
			t.Direct = fromSources(node["sources"])
		}

		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch child := node[k].(type) {
			case map[string]any, []any:
				t = t.merge(scan(child))
			}
		}
	case []any:
		for _, item := range node {
			t = t.merge(scan(item))
		}
	case string:
		t.consider(node)
	}
	return t
}
