package pipeline

// EmbedFunc is a function that generates a fixed-dimension embedding for text.
// The same function must be used for deduplication and reranking so that
// similarity scores are comparable.
type EmbedFunc func(text string) ([]float32, error)

// EntityExtractFunc extracts entity mentions from free text.
// The default implementation is a deliberately coarse pattern-based
// substitute for full NER; a model-backed implementation can be substituted
// without touching callers.
type EntityExtractFunc func(text string) []string
