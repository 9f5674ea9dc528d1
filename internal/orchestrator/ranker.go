package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dusk-indust/ensemble/internal/embedding"
)

// Ranker orders model responses by semantic similarity to their prompt.
type Ranker struct {
	engine embedding.Engine
}

// NewRanker creates a Ranker backed by engine.
func NewRanker(engine embedding.Engine) *Ranker {
	return &Ranker{engine: engine}
}

// Rank embeds prompt and every response, scores each response by cosine
// similarity to the prompt and returns them best first. Ties keep the
// input order. Error sentinels are scored like any other text; blank
// responses score 0 without being embedded.
func (r *Ranker) Rank(ctx context.Context, prompt string, responses []ModelResponse) ([]RankedResponse, error) {
	ranked := make([]RankedResponse, 0, len(responses))
	if len(responses) == 0 {
		return ranked, nil
	}

	query, err := r.engine.Embed(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("embed prompt: %w", err)
	}

	for _, resp := range responses {
		if strings.TrimSpace(resp.Text) == "" {
			ranked = append(ranked, RankedResponse{Model: resp.Model, Text: resp.Text})
			continue
		}
		vec, err := r.engine.Embed(ctx, resp.Text)
		if err != nil {
			return nil, fmt.Errorf("embed response from %s: %w", resp.Model, err)
		}
		score, err := embedding.CosineSimilarity(query, vec)
		if err != nil {
			return nil, fmt.Errorf("score response from %s: %w", resp.Model, err)
		}
		ranked = append(ranked, RankedResponse{
			Model: resp.Model,
			Text:  resp.Text,
			Score: roundScore(score),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

func roundScore(s float64) float64 {
	return math.Round(s*1e4) / 1e4
}
