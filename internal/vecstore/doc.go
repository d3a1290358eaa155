// Package vecstore provides vector similarity search over embedded
// document chunks.
//
// Three Store implementations cover different deployment shapes:
//
//   - MemoryStore: exact brute-force cosine search. The default; always
//     correct, fast enough for tens of thousands of vectors.
//   - HNSWIndex: approximate nearest-neighbor graph search for large
//     collections, with JSON persistence.
//   - ChromemStore: persistent store backed by chromem-go, for
//     collections that must survive restarts without re-embedding.
//
// The Registry manages named collections and pins each collection to
// the dimension of the first vector it receives. Upserting a vector of
// a different dimension resets the collection, since mixed dimensions
// would make every similarity score meaningless.
package vecstore
