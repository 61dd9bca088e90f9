package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

const maxExpansions = 4

// expansionPrompt instructs the model to paraphrase the query. Few-shot
// examples pin the output contract: a JSON array between <json> markers,
// temporal constraints preserved verbatim.
const expansionPrompt = `És um gerador de variantes de pesquisa para legislação portuguesa.
Reescreve a pergunta do utilizador em 2 a 4 paráfrases que preservem o
sentido e quaisquer restrições temporais (anos, datas) exatamente.
Responde APENAS com um array JSON entre marcadores <json> e </json>.

Exemplo:
Pergunta: Qual o prazo de aviso prévio para despedimento em 2021?
<json>["Quantos dias de aviso prévio exige um despedimento em 2021?","Aviso prévio obrigatório no despedimento segundo a lei de 2021","Prazo legal de comunicação de despedimento em 2021"]</json>

Exemplo:
Pergunta: Tenho direito a subsídio de férias?
<json>["Quem tem direito ao subsídio de férias?","Condições de atribuição do subsídio de férias"]</json>`

// expandQuery asks the LLM for 2-4 paraphrases of the query. On any failure
// (transport or parse) it degrades to no expansions, so retrieval proceeds
// with the original query alone. Never returns an error to the join.
func expandQuery(ctx context.Context, query string, llm domain.LLMClient, temperature float64, logger *slog.Logger) []string {
	messages := []domain.ChatMessage{
		{Role: "system", Content: expansionPrompt},
		{Role: "user", Content: fmt.Sprintf("Pergunta: %s", query)},
	}

	raw, err := llm.Complete(ctx, messages, temperature)
	if err != nil {
		logger.Warn("query_expansion_failed",
			slog.String("query", truncate(query, 100)),
			slog.String("error", err.Error()))
		return nil
	}

	parsed := parseModelPayload[[]string](raw)
	if !parsed.OK {
		logger.Warn("query_expansion_unparsable",
			slog.String("error", domain.ErrMalformedModelOutput.Error()),
			slog.String("raw", truncate(raw, 200)))
		return nil
	}

	expansions := make([]string, 0, maxExpansions)
	for _, q := range parsed.Val {
		q = strings.TrimSpace(q)
		if q == "" || strings.EqualFold(q, query) {
			continue
		}
		expansions = append(expansions, q)
		if len(expansions) == maxExpansions {
			break
		}
	}
	return expansions
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
