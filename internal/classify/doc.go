// Package classify partitions reverse-image-search result URLs into
// typed identifier lists: pixiv illustration IDs, twitter/x URLs, and
// danbooru post IDs. A gelbooru category is reserved so callers keep a
// stable four-way shape, but no extraction rule exists for it yet.
//
// Classification is a pure transformation; it performs no I/O and never
// errors. Unrecognized or malformed URLs are dropped.
package classify
