package reranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectMMRDegenerateCases(t *testing.T) {
	assert.Nil(t, SelectMMR(nil, 5, DefaultLambda))
	assert.Nil(t, SelectMMR([]Candidate{{ID: "a"}}, 0, DefaultLambda))

	one := []Candidate{{ID: "a", Score: 0.9, Vector: []float32{1, 0}}}
	got := SelectMMR(one, 3, DefaultLambda)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestSelectMMRFirstPickIsMostRelevant(t *testing.T) {
	cands := []Candidate{
		{ID: "low", Score: 0.2, Vector: []float32{0, 1}},
		{ID: "high", Score: 0.9, Vector: []float32{1, 0}},
		{ID: "mid", Score: 0.5, Vector: []float32{1, 1}},
	}
	got := SelectMMR(cands, 1, DefaultLambda)
	require.Len(t, got, 1)
	assert.Equal(t, "high", got[0].ID)
}

func TestSelectMMRPrefersDiversity(t *testing.T) {
	// "dup" is nearly identical to the best candidate and scores a
	// touch higher than the dissimilar "other". MMR should skip the
	// duplicate.
	cands := []Candidate{
		{ID: "best", Score: 0.95, Vector: []float32{1, 0}},
		{ID: "dup", Score: 0.94, Vector: []float32{0.999, 0.01}},
		{ID: "other", Score: 0.80, Vector: []float32{0, 1}},
	}

	got := SelectMMR(cands, 2, 0.5)
	require.Len(t, got, 2)
	assert.Equal(t, "best", got[0].ID)
	assert.Equal(t, "other", got[1].ID, "near-duplicate should lose to the diverse candidate")
}

func TestSelectMMRLambdaOneIsPlainTopK(t *testing.T) {
	cands := []Candidate{
		{ID: "a", Score: 0.9, Vector: []float32{1, 0}},
		{ID: "b", Score: 0.89, Vector: []float32{1, 0.001}},
		{ID: "c", Score: 0.1, Vector: []float32{0, 1}},
	}
	got := SelectMMR(cands, 2, 1)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID, "lambda=1 ignores diversity")
}

func TestSelectMMRDoesNotMutateInput(t *testing.T) {
	cands := []Candidate{
		{ID: "a", Score: 0.1, Vector: []float32{1, 0}},
		{ID: "b", Score: 0.9, Vector: []float32{0, 1}},
	}
	_ = SelectMMR(cands, 2, 0.5)
	assert.Equal(t, "a", cands[0].ID)
	assert.Equal(t, "b", cands[1].ID)
	assert.Equal(t, []float32{1, 0}, cands[0].Vector)
}

func TestSelectMMRTopKClamped(t *testing.T) {
	cands := []Candidate{
		{ID: "a", Score: 0.9, Vector: []float32{1, 0}},
		{ID: "b", Score: 0.5, Vector: []float32{0, 1}},
	}
	got := SelectMMR(cands, 10, 0.5)
	assert.Len(t, got, 2)
}
