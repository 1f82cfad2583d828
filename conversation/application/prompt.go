package application

import (
	"fmt"
	"strings"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/conversation/domain"
	knowledgeDomain "github.com/AzielCF/az-agent/knowledge/domain"
	"github.com/dustin/go-humanize"
)

const (
	defaultBusinessName = "our business"
	DefaultHistoryTurns = 10
)

var instructions = []string{
	"Provide helpful, accurate information based on the knowledge base",
	"If the user provides contact information, acknowledge it and ask if they'd like to be contacted",
	"If they want to schedule an appointment, guide them through the process",
	"If they're interested in purchasing, ask qualifying questions and recommend products",
	"Be conversational and engaging",
	"If you don't know something, say so and offer to help them find the information",
}

// PromptInput is everything the system prompt is assembled from. Agent may be nil.
type PromptInput struct {
	Agent        *agentDomain.Agent
	Intent       domain.Intent
	Knowledge    []knowledgeDomain.Passage
	History      []domain.HistoryEntry
	HistoryTurns int
}

// BuildSystemPrompt renders the persona, sales context, retrieved knowledge,
// recent history and the fixed instruction list.
func BuildSystemPrompt(in PromptInput) string {
	var b strings.Builder

	name := defaultBusinessName
	if in.Agent != nil && in.Agent.Name != "" {
		name = in.Agent.Name
	}
	fmt.Fprintf(&b, "You are a helpful AI assistant for %s. ", name)

	if a := in.Agent; a != nil {
		if a.Description != "" {
			fmt.Fprintf(&b, "About the business: %s. ", strings.TrimRight(a.Description, ". "))
		}
		if a.Personality != "" {
			fmt.Fprintf(&b, "Your personality: %s. ", a.Personality)
		}
		switch a.Language {
		case agentDomain.LanguageHebrew:
			b.WriteString("Respond in Hebrew. ")
		case agentDomain.LanguageArabic:
			b.WriteString("Respond in Arabic. ")
		}
	}
	b.WriteString("\nYou are designed to help users with information, capture leads, schedule appointments, and guide them through purchases.\n")

	fmt.Fprintf(&b, "\nCurrent conversation context:\n- User intent: %s\n", in.Intent)
	b.WriteString("- Agent capabilities: Lead capture, appointment scheduling, product information, sales guidance\n")

	if a := in.Agent; a != nil && a.SalesConfig.Enabled {
		writeSales(&b, a.SalesConfig)
	}

	b.WriteString("\nRelevant knowledge base information:\n")
	if len(in.Knowledge) == 0 {
		b.WriteString("(none)\n")
	}
	for _, p := range in.Knowledge {
		b.WriteString("- ")
		b.WriteString(p.Content)
		b.WriteString("\n")
	}

	turns := in.HistoryTurns
	if turns <= 0 {
		turns = DefaultHistoryTurns
	}
	history := in.History
	if len(history) > turns {
		history = history[len(history)-turns:]
	}
	if len(history) > 0 {
		b.WriteString("\nPrevious conversation:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "%s: %s\n", h.Sender, h.Message)
		}
	}

	b.WriteString("\nInstructions:\n")
	for i, line := range instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}
	b.WriteString("\nRespond naturally and helpfully.")
	return b.String()
}

func writeSales(b *strings.Builder, sales agentDomain.SalesConfig) {
	if sales.SalesScript != "" {
		fmt.Fprintf(b, "\nSales script:\n%s\n", sales.SalesScript)
	}
	if len(sales.Products) > 0 {
		b.WriteString("\nProducts:\n")
		for _, p := range sales.Products {
			fmt.Fprintf(b, "- %s: %s", p.Name, humanize.CommafWithDigits(p.Price, 2))
			if p.Description != "" {
				fmt.Fprintf(b, " (%s)", p.Description)
			}
			b.WriteString("\n")
		}
	}
	if len(sales.QualifyingQuestions) > 0 {
		b.WriteString("\nQualifying questions to ask when relevant:\n")
		for _, q := range sales.QualifyingQuestions {
			fmt.Fprintf(b, "- %s\n", q)
		}
	}
}
