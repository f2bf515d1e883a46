// Package results accumulates identifier findings during a batch run and
// writes the run artifacts: three deduplicated CSV tables, the optional
// per-file JSON document, and an SQLite report of per-file outcomes.
//
// The Accumulator keys each typed set on identifier value alone; when
// the same value arises from multiple files, the first file to
// contribute it keeps the provenance slot. Empty values are never
// inserted.
package results
