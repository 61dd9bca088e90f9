package retrieval

import (
	"testing"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBM25_RanksTermOverlapHigher(t *testing.T) {
	pool := poolFromHits(
		domain.VectorHit{DocID: uuid.New(), Text: "O aviso prévio no despedimento coletivo é de 60 dias.", Score: 0.5},
		domain.VectorHit{DocID: uuid.New(), Text: "O subsídio de férias é pago antes do período de férias.", Score: 0.5},
	)
	sc := &StageContext{Query: "prazo de aviso prévio no despedimento", Pool: pool}

	ScoreBM25(sc, testLogger())

	items := pool.Items()
	require.Len(t, sc.BM25Scores, 2)
	assert.Greater(t, items[0].BM25Score, items[1].BM25Score)
	assert.Equal(t, sc.BM25Scores[0], items[0].BM25Score)
}

func TestScoreBM25_NoOverlapScoresZero(t *testing.T) {
	pool := poolFromHits(
		domain.VectorHit{DocID: uuid.New(), Text: "subsídio férias pagamento", Score: 0.5},
	)
	sc := &StageContext{Query: "despedimento aviso", Pool: pool}

	ScoreBM25(sc, testLogger())

	assert.Zero(t, pool.Items()[0].BM25Score)
}

func TestScoreBM25_EmptyPool(t *testing.T) {
	sc := &StageContext{Query: "qualquer coisa", Pool: NewCandidatePool()}
	ScoreBM25(sc, testLogger())
	assert.Empty(t, sc.BM25Scores)
}

func TestScoreBM25_StopwordsDoNotContribute(t *testing.T) {
	pool := poolFromHits(
		domain.VectorHit{DocID: uuid.New(), Text: "a o de da em no para com", Score: 0.5},
	)
	sc := &StageContext{Query: "a de o em", Pool: pool}

	ScoreBM25(sc, testLogger())

	assert.Zero(t, pool.Items()[0].BM25Score)
}

func TestBM25Index_RarerTermWeighsMore(t *testing.T) {
	idx := newBM25Index([]string{
		"arrendamento urbano contrato",
		"arrendamento rural contrato",
		"arrendamento habitacional despejo",
	})

	// "despejo" appears in one doc, "arrendamento" in all three.
	rare := idx.score([]string{"despejo"}, 2)
	common := idx.score([]string{"arrendamento"}, 2)
	assert.Greater(t, rare, common)
}
