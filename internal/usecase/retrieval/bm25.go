package retrieval

import (
	"log/slog"
	"math"
)

// BM25 parameters. Standard Robertson values; the index lives only for the
// duration of one request and covers the candidate pool, not the corpus.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// bm25Index is an in-memory lexical index over the candidate pool texts.
type bm25Index struct {
	docTokens [][]string
	docFreq   map[string]int
	avgDocLen float64
}

// newBM25Index tokenizes the given texts and builds term statistics.
func newBM25Index(texts []string) *bm25Index {
	idx := &bm25Index{
		docTokens: make([][]string, len(texts)),
		docFreq:   make(map[string]int),
	}

	totalLen := 0
	for i, text := range texts {
		tokens := tokenizeFiltered(text)
		idx.docTokens[i] = tokens
		totalLen += len(tokens)

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			idx.docFreq[tok]++
		}
	}
	if len(texts) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(texts))
	}
	return idx
}

// score computes the BM25 score of query against document i.
func (idx *bm25Index) score(queryTokens []string, i int) float64 {
	tokens := idx.docTokens[i]
	if len(tokens) == 0 {
		return 0
	}

	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}

	n := float64(len(idx.docTokens))
	docLen := float64(len(tokens))
	var score float64
	for _, q := range queryTokens {
		f := float64(tf[q])
		if f == 0 {
			continue
		}
		df := float64(idx.docFreq[q])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		score += idf * (f * (bm25K1 + 1)) / (f + bm25K1*(1-bm25B+bm25B*docLen/idx.avgDocLen))
	}
	return score
}

// ScoreBM25 builds a BM25 index over the candidate pool and scores the
// original query against every candidate (Stage 3a). This is a lexical
// correction layer over the retrieved subset, not a corpus-wide search.
func ScoreBM25(sc *StageContext, logger *slog.Logger) {
	items := sc.Pool.Items()
	texts := make([]string, len(items))
	for i, cand := range items {
		texts[i] = cand.Text
	}

	idx := newBM25Index(texts)
	queryTokens := tokenizeFiltered(sc.Query)

	sc.BM25Scores = make([]float64, len(items))
	for i, cand := range items {
		s := idx.score(queryTokens, i)
		sc.BM25Scores[i] = s
		cand.BM25Score = s
	}

	logger.Info("bm25_scoring_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("pool_size", len(items)),
		slog.Int("query_terms", len(queryTokens)))
}
