package listing

import "hash/fnv"

// Row identifiers are derived from the link text so that every scrape cycle
// maps the same link to the same id, making upserts idempotent without a
// preceding read. FNV-1a is stable across runs and platforms.

// LinkID returns the deterministic row id for a link, independent of source.
func LinkID(link string) int64 {
	h := fnv.New64a()
	h.Write([]byte(link))
	return int64(h.Sum64())
}

// StatusID returns the deterministic row id for a (source, link) pair. The
// separator keeps ("a", "bc") and ("ab", "c") from colliding.
func StatusID(source, link string) int64 {
	h := fnv.New64a()
	h.Write([]byte(source))
	h.Write([]byte{'|'})
	h.Write([]byte(link))
	return int64(h.Sum64())
}
