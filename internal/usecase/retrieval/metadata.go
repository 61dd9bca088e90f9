package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

// queryMetadata is the structured object the extraction prompt asks for.
type queryMetadata struct {
	LegislationDate string `json:"legislation_date"`
	QuestionDate    string `json:"question_date"`
	Summary         string `json:"summary"`
	Subject         string `json:"subject"`
	Region          string `json:"region"`
}

const metadataPrompt = `Extrai os metadados da pergunta jurídica do utilizador.
Responde APENAS com um objeto JSON entre marcadores <json> e </json> com as
chaves "legislation_date" (ano da legislação referida, ou vazio),
"question_date" (data mencionada na pergunta, ou vazio),
"summary" (resumo numa frase), "subject" (assunto jurídico) e
"region" (região portuguesa mencionada, ou vazio).

Exemplo:
Pergunta: Quais são os direitos de indemnização em caso de despedimento no Porto?
<json>{"legislation_date":"","question_date":"","summary":"Direitos de indemnização por despedimento","subject":"Indemnização por Despedimento","region":"Porto"}</json>`

// extractMetadata asks the LLM for a structured filter. When the query names
// no legislation year, the current calendar year is assumed. Parse failures
// degrade to an empty filter so retrieval proceeds unfiltered.
func extractMetadata(ctx context.Context, query string, llm domain.LLMClient, temperature float64, now time.Time, logger *slog.Logger) (domain.QueryFilter, AdditionalData) {
	messages := []domain.ChatMessage{
		{Role: "system", Content: metadataPrompt},
		{Role: "user", Content: fmt.Sprintf("Pergunta: %s", query)},
	}

	raw, err := llm.Complete(ctx, messages, temperature)
	if err != nil {
		logger.Warn("metadata_extraction_failed",
			slog.String("query", truncate(query, 100)),
			slog.String("error", err.Error()))
		return domain.QueryFilter{}, AdditionalData{}
	}

	parsed := parseModelPayload[queryMetadata](raw)
	if !parsed.OK {
		logger.Warn("metadata_extraction_unparsable",
			slog.String("error", domain.ErrMalformedModelOutput.Error()),
			slog.String("raw", truncate(raw, 200)))
		return domain.QueryFilter{}, AdditionalData{}
	}

	md := parsed.Val
	if md.LegislationDate == "" {
		md.LegislationDate = strconv.Itoa(now.Year())
	}

	filter := domain.QueryFilter{
		LegislationDate: md.LegislationDate,
		Region:          md.Region,
	}
	additional := AdditionalData{
		Summary: md.Summary,
		Subject: md.Subject,
	}
	return filter, additional
}
