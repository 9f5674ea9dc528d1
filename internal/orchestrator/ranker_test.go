package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanker_OrdersBySimilarity(t *testing.T) {
	engine := &mapEngine{vectors: map[string][]float32{
		"prompt": {1, 0},
		"far":    {0, 1},
		"near":   {1, 0},
		"mid":    {1, 1},
	}}

	got, err := NewRanker(engine).Rank(context.Background(), "prompt", []ModelResponse{
		{Model: "a", Text: "far"},
		{Model: "b", Text: "mid"},
		{Model: "c", Text: "near"},
	})
	require.NoError(t, err)

	want := []RankedResponse{
		{Model: "c", Text: "near", Score: 1},
		{Model: "b", Text: "mid", Score: 0.7071},
		{Model: "a", Text: "far", Score: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
	}
}

func TestRanker_BlankResponseScoresZero(t *testing.T) {
	// No vector for "": embedding it would fail the whole subtask.
	engine := &mapEngine{vectors: map[string][]float32{
		"prompt": {1, 0},
		"answer": {1, 1},
	}}

	got, err := NewRanker(engine).Rank(context.Background(), "prompt", []ModelResponse{
		{Model: "tinyllama", Text: ""},
		{Model: "phi3", Text: "answer"},
		{Model: "gemma", Text: " \n"},
	})
	require.NoError(t, err)

	want := []RankedResponse{
		{Model: "phi3", Text: "answer", Score: 0.7071},
		{Model: "tinyllama", Text: "", Score: 0},
		{Model: "gemma", Text: " \n", Score: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
	}
}

func TestRanker_TiesKeepInputOrder(t *testing.T) {
	engine := &mapEngine{fallback: []float32{1, 2, 3}}

	got, err := NewRanker(engine).Rank(context.Background(), "p", []ModelResponse{
		{Model: "first", Text: "x"},
		{Model: "second", Text: "y"},
		{Model: "third", Text: "z"},
	})
	require.NoError(t, err)

	var models []string
	for _, r := range got {
		models = append(models, r.Model)
	}
	assert.Equal(t, []string{"first", "second", "third"}, models)
}

func TestRanker_ScoresAreSortedAndBounded(t *testing.T) {
	engine := &mapEngine{vectors: map[string][]float32{
		"p":  {0.3, -0.2, 0.9},
		"r1": {-0.3, 0.2, -0.9},
		"r2": {0.1, 0.1, 0.1},
		"r3": {0.5, 0.5, 0},
		"r4": {0.3, -0.2, 0.8},
	}}
	var responses []ModelResponse
	for _, text := range []string{"r1", "r2", "r3", "r4"} {
		responses = append(responses, ModelResponse{Model: text, Text: text})
	}

	got, err := NewRanker(engine).Rank(context.Background(), "p", responses)
	require.NoError(t, err)
	require.Len(t, got, len(responses))

	for i, r := range got {
		assert.GreaterOrEqual(t, r.Score, -1.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		assert.Equal(t, r.Score, roundScore(r.Score), "score must carry at most 4 decimals")
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, r.Score)
		}
	}
}

func TestRanker_ErrorSentinelIsRanked(t *testing.T) {
	engine := &mapEngine{
		vectors:  map[string][]float32{"p": {1, 0}, "good": {1, 0}},
		fallback: []float32{0, 1},
	}

	got, err := NewRanker(engine).Rank(context.Background(), "p", []ModelResponse{
		{Model: "bad", Text: ErrorText("bad", errors.New("down"))},
		{Model: "ok", Text: "good"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ok", got[0].Model)
	assert.Equal(t, "[Error from bad]: down", got[1].Text)
}

func TestRanker_Empty(t *testing.T) {
	got, err := NewRanker(&mapEngine{err: errors.New("must not embed")}).Rank(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRanker_EmbedError(t *testing.T) {
	_, err := NewRanker(&mapEngine{err: errors.New("engine offline")}).Rank(context.Background(), "p", []ModelResponse{{Model: "a", Text: "t"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine offline")
}

func TestRanker_DimensionMismatch(t *testing.T) {
	engine := &mapEngine{vectors: map[string][]float32{"p": {1, 0}, "t": {1, 0, 0}}}

	_, err := NewRanker(engine).Rank(context.Background(), "p", []ModelResponse{{Model: "a", Text: "t"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score response from a")
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 0.7071, roundScore(0.70710678))
	assert.Equal(t, 0.1235, roundScore(0.12349))
	assert.Equal(t, -0.5, roundScore(-0.50001))
	assert.Equal(t, 1.0, roundScore(0.99999))
}
