package types

// VectorDoc is the unit stored in a vector store: an embedded passage with
// caller-supplied identity and arbitrary string metadata. IDs are unique
// within a store; upserting an existing ID replaces the document in place.
type VectorDoc struct {
	ID        string
	Text      string
	Embedding []float32
	Meta      map[string]string
}

// Retrieved is the output unit of a similarity query. Score is comparable
// across results of the same query (cosine in [-1, 1], or inner product
// over L2-normalized vectors).
type Retrieved struct {
	ID        string
	Score     float32
	Text      string
	Meta      map[string]string
	Embedding []float32
}

// Passage is a retrieved passage prepared for prompt assembly: the caller
// builds a labeled context block with numbered citation markers [n] from
// these. Index is 1-based and matches the citation marker.
type Passage struct {
	Index  int
	Source string
	Page   int
	Text   string
}
