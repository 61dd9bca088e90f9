package usecase

import (
	"fmt"
	"strings"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

// PromptContext transports one retrieved chunk into the generation prompt.
type PromptContext struct {
	DocID   string
	Title   string
	LawName string
	URL     string
	Text    string
	Score   float64
}

// PromptInput contains the pieces that feed into the prompt builder.
type PromptInput struct {
	Query    string
	Subject  string
	Contexts []PromptContext
}

// PromptBuilder builds the chat messages sent to the LLM.
type PromptBuilder interface {
	Build(input PromptInput) ([]domain.ChatMessage, error)
}

// XMLPromptBuilder creates structured prompts that separate context,
// instructions, and query into tagged sections.
type XMLPromptBuilder struct {
	additionalInstructions []string
}

// NewXMLPromptBuilder creates a prompt builder with optional extra
// instructions appended to the system message.
func NewXMLPromptBuilder(additionalInstructions ...string) PromptBuilder {
	return &XMLPromptBuilder{additionalInstructions: additionalInstructions}
}

// Build renders the messages for the chat API. Answers must cite sources by
// document index and never go beyond the provided excerpts.
func (b *XMLPromptBuilder) Build(input PromptInput) ([]domain.ChatMessage, error) {
	if input.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if len(input.Contexts) == 0 {
		return nil, fmt.Errorf("at least one context is required")
	}

	var sys strings.Builder
	sys.WriteString("<instructions>\n")
	sys.WriteString("És um assistente jurídico especializado em legislação portuguesa.\n")
	sys.WriteString("Responde em português europeu, apenas com base nos excertos fornecidos.\n")
	sys.WriteString("Cita cada afirmação com o índice do documento, no formato [1].\n")
	sys.WriteString("Se os excertos não cobrirem a pergunta, di-lo explicitamente.\n")
	for _, instr := range b.additionalInstructions {
		sys.WriteString(instr)
		sys.WriteString("\n")
	}
	sys.WriteString("</instructions>\n")

	sys.WriteString("<contexts>\n")
	for i, c := range input.Contexts {
		sys.WriteString(fmt.Sprintf("  <context index=\"%d\">\n", i+1))
		if c.LawName != "" {
			sys.WriteString("    <law>" + escapeXML(c.LawName) + "</law>\n")
		}
		if c.Title != "" {
			sys.WriteString("    <title>" + escapeXML(c.Title) + "</title>\n")
		}
		sys.WriteString("    <text>" + escapeXML(c.Text) + "</text>\n")
		sys.WriteString("  </context>\n")
	}
	sys.WriteString("</contexts>")

	var user strings.Builder
	if input.Subject != "" {
		user.WriteString("<assunto>" + escapeXML(input.Subject) + "</assunto>\n")
	}
	user.WriteString("<pergunta>" + escapeXML(input.Query) + "</pergunta>")

	return []domain.ChatMessage{
		{Role: "system", Content: sys.String()},
		{Role: "user", Content: user.String()},
	}, nil
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
