package results

import (
	"strings"

	"saucebatch/internal/danbooru"
)

// Record is the per-file outcome retained for the JSON document. It
// contains only the identifiers found by that file's own search;
// enrichment-derived cross-links live in the deduplicated sets.
type Record struct {
	File        string   `json:"file"`
	PixivIDs    []string `json:"pixiv_ids"`
	TwitterURLs []string `json:"twitter_urls"`
	DanbooruIDs []string `json:"danbooru_ids"`
	GelbooruIDs []string `json:"gelbooru_ids"`
}

// Identifier pairs a deduplicated value with its provenance: the first
// file that contributed it.
type Identifier struct {
	Value string
	File  string
}

type identifierSet struct {
	index map[string]struct{}
	items []Identifier
}

func newIdentifierSet() *identifierSet {
	return &identifierSet{index: map[string]struct{}{}}
}

// add inserts value with the given provenance. Returns false for empty
// values and for values already present; the first file wins.
func (s *identifierSet) add(value, file string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if _, ok := s.index[value]; ok {
		return false
	}
	s.index[value] = struct{}{}
	s.items = append(s.items, Identifier{Value: value, File: file})
	return true
}

// Accumulator collects the run's deduplicated identifier sets, the
// board-post info map, and the ordered per-file records. It is owned
// exclusively by the orchestrator; there are no concurrent writers.
type Accumulator struct {
	pixiv     *identifierSet
	twitter   *identifierSet
	danbooruS *identifierSet
	boardInfo map[string]danbooru.PostInfo
	records   []Record
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		pixiv:     newIdentifierSet(),
		twitter:   newIdentifierSet(),
		danbooruS: newIdentifierSet(),
		boardInfo: map[string]danbooru.PostInfo{},
	}
}

// AddPixiv records an illustration ID. Returns true when newly added.
func (a *Accumulator) AddPixiv(value, file string) bool {
	return a.pixiv.add(value, file)
}

// AddTwitter records a social-media URL. Returns true when newly added.
func (a *Accumulator) AddTwitter(value, file string) bool {
	return a.twitter.add(value, file)
}

// AddDanbooru records a board-post ID. Returns true when newly added;
// the orchestrator enriches only those.
func (a *Accumulator) AddDanbooru(value, file string) bool {
	return a.danbooruS.add(value, file)
}

// SetBoardInfo stores or refreshes enrichment attributes for a post ID.
func (a *Accumulator) SetBoardInfo(info danbooru.PostInfo) {
	if info.ID == "" {
		return
	}
	a.boardInfo[info.ID] = info
}

// BoardInfo returns the stored attributes for a post ID.
func (a *Accumulator) BoardInfo(id string) (danbooru.PostInfo, bool) {
	info, ok := a.boardInfo[id]
	return info, ok
}

// AppendRecord appends one per-file record in processing order.
func (a *Accumulator) AppendRecord(rec Record) {
	a.records = append(a.records, rec)
}

// Records returns the per-file records in processing order.
func (a *Accumulator) Records() []Record {
	return a.records
}

// Pixiv returns the deduplicated illustration IDs in first-seen order.
func (a *Accumulator) Pixiv() []Identifier { return a.pixiv.items }

// Twitter returns the deduplicated social URLs in first-seen order.
func (a *Accumulator) Twitter() []Identifier { return a.twitter.items }

// Danbooru returns the deduplicated board-post IDs in first-seen order.
func (a *Accumulator) Danbooru() []Identifier { return a.danbooruS.items }

// Counts returns the sizes of the three deduplicated sets.
func (a *Accumulator) Counts() (pixiv, twitter, danbooruCount int) {
	return len(a.pixiv.items), len(a.twitter.items), len(a.danbooruS.items)
}
