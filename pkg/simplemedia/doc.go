// Package simplemedia provides a reusable library for authenticated media
// uploads with pluggable entry and blob storage backends.
//
// It exposes a single Service interface that orchestrates bearer-token
// identity verification, media handling (direct storage or image+audio video
// synthesis), and per-subject entry persistence. Implementations of entry
// stores (shared file, per-subject object, Postgres) and blob stores
// (memory, filesystem, S3) are provided under subpackages.
//
// Every subject owns one ordered entry collection, created implicitly on
// first upload and mutated only by append and remove-by-id. The file and
// object substrates rewrite the whole collection per mutation; two concurrent
// mutations for the same subject can lose an update (last writer wins).
// Callers needing stronger consistency should use the Postgres substrate or
// serialize per subject.
package simplemedia
