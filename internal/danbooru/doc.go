// Package danbooru fetches board-post metadata used to enrich discovered
// post IDs: the linked pixiv illustration, a social source URL when one
// exists, parent/child relations, and the original media asset URL.
package danbooru
