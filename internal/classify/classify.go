package classify

import (
	"net/url"
	"strings"
)

// Kind enumerates the identifier categories recognized by the classifier.
type Kind int

const (
	KindPixiv Kind = iota
	KindTwitter
	KindDanbooru
	// KindGelbooru is reserved. No source URL pattern is recognized for it
	// yet, so its result list is always empty.
	KindGelbooru
)

// String returns the lowercase category name.
func (k Kind) String() string {
	switch k {
	case KindPixiv:
		return "pixiv"
	case KindTwitter:
		return "twitter"
	case KindDanbooru:
		return "danbooru"
	case KindGelbooru:
		return "gelbooru"
	default:
		return "unknown"
	}
}

// Classification holds the identifiers extracted from one pool of
// candidate URLs. Each list is deduplicated and keeps first-seen order.
type Classification struct {
	PixivIDs    []string
	TwitterURLs []string
	DanbooruIDs []string
	GelbooruIDs []string
}

// Empty reports whether no identifier of any active category was found.
// GelbooruIDs is excluded; it cannot be populated yet.
func (c Classification) Empty() bool {
	return len(c.PixivIDs) == 0 && len(c.TwitterURLs) == 0 && len(c.DanbooruIDs) == 0
}

// Total returns the number of identifiers across all categories.
func (c Classification) Total() int {
	return len(c.PixivIDs) + len(c.TwitterURLs) + len(c.DanbooruIDs) + len(c.GelbooruIDs)
}

// Classify partitions candidate URLs into typed identifier lists.
// Malformed URLs and URLs on unrecognized hosts are silently dropped.
// Hosts are compared exactly after stripping a leading "www.", so
// lookalike domains that merely contain a known host never match.
func Classify(urls []string) Classification {
	var out Classification
	seenPixiv := map[string]struct{}{}
	seenTwitter := map[string]struct{}{}
	seenDanbooru := map[string]struct{}{}

	for _, raw := range urls {
		parsed, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || parsed.Host == "" {
			continue
		}
		host := canonicalHost(parsed)

		switch {
		case host == "pixiv.net":
			id := parsed.Query().Get("illust_id")
			if id == "" {
				continue
			}
			if _, ok := seenPixiv[id]; ok {
				continue
			}
			seenPixiv[id] = struct{}{}
			out.PixivIDs = append(out.PixivIDs, id)

		case host == "twitter.com" || host == "x.com":
			if _, ok := seenTwitter[raw]; ok {
				continue
			}
			seenTwitter[raw] = struct{}{}
			out.TwitterURLs = append(out.TwitterURLs, raw)

		case host == "danbooru.donmai.us":
			id := finalPathSegment(parsed.Path)
			if id == "" {
				continue
			}
			if _, ok := seenDanbooru[id]; ok {
				continue
			}
			seenDanbooru[id] = struct{}{}
			out.DanbooruIDs = append(out.DanbooruIDs, id)
		}
	}
	return out
}

func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func finalPathSegment(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
