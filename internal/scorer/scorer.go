package scorer

// Scores holds the text-similarity metrics for one reference/candidate pair.
// A nil field means that metric could not be computed.
type Scores struct {
	Bleu               *float64 `json:"bleu"`
	Rouge1             *float64 `json:"rouge1"`
	Rouge2             *float64 `json:"rouge2"`
	RougeL             *float64 `json:"rougeL"`
	SemanticSimilarity *float64 `json:"semantic"`
}

// Scorer computes similarity metrics for a reference/candidate pair. It never
// fails: a metric whose calculation broke comes back nil.
type Scorer interface {
	Score(reference, candidate string) Scores
}

// Noop produces no scores. Used when no scoring backend is configured.
type Noop struct{}

func (Noop) Score(reference, candidate string) Scores {
	return Scores{}
}
