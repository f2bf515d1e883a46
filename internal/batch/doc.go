// Package batch drives the per-file search pipeline over a folder of
// images: rate-limited search upload, URL classification, deduplicated
// accumulation with provenance, conditional board-post enrichment, and
// the terminal relocation of each file into no_results/ or
// search_complete/.
//
// Processing is strictly sequential. The pacer spaces uploads to honor
// the search service's rate limit; introducing parallelism here would
// bypass it. Per-file failures never abort the batch: failed files stay
// in the source folder and the runner moves on.
package batch
