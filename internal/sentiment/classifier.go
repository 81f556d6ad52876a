// Package sentiment integrates an external text-classification collaborator.
//
// The collaborator accepts an ordered, finite batch of strings and returns a
// same-length, same-order list of label/score pairs. The batch size is the
// only resource knob: it bounds how many texts are in flight per call.
package sentiment

import (
	"context"
	"fmt"
)

// Score is one classification result.
type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier scores a batch of texts. Implementations must return exactly one
// Score per input, in input order.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]Score, error)
}

// DefaultBatchSize is the number of texts sent per collaborator call when the
// caller does not choose one.
const DefaultBatchSize = 100

// ClassifyBatched scores texts in fixed-size batches and concatenates the
// results. A collaborator response of the wrong length is a fatal error: it
// would silently misalign scores with rows.
func ClassifyBatched(ctx context.Context, c Classifier, texts []string, batchSize int) ([]Score, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	out := make([]Score, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		scores, err := c.Classify(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("classify batch [%d:%d]: %w", start, end, err)
		}
		if len(scores) != len(batch) {
			return nil, fmt.Errorf("classifier returned %d scores for %d texts", len(scores), len(batch))
		}
		out = append(out, scores...)
	}
	return out, nil
}
