package research

import (
	"fmt"
	"strings"
)

type promptTemplate struct {
	system string
	user   string // %s query, %s sources
}

var prompts = map[Mode]promptTemplate{
	ModeGeneral: {
		system: "You are a helpful research assistant. Provide clear, concise, and accurate information with proper citations.",
		user: `Question: "%s"

Based on the following sources, provide a comprehensive answer with:
1. Clear explanation
2. Key points with citations
3. Additional context
4. Relevant examples

Sources:
%s`,
	},
	ModeResearch: {
		system: "You are an academic research assistant. Provide comprehensive, well-sourced information with proper citations. Focus on accuracy and depth.",
		user: `Research Question: "%s"

Based on the following sources, provide a detailed research summary with:
1. Executive summary
2. Key findings with citations
3. Academic context
4. Areas for further research

Sources:
%s`,
	},
	ModeNews: {
		system: "You are a news analyst. Focus on current events, recent developments, and factual reporting with proper source attribution.",
		user: `News Topic: "%s"

Based on the following sources, provide a news summary with:
1. Current situation overview
2. Key developments and timeline
3. Different perspectives if applicable
4. Source reliability notes

Sources:
%s`,
	},
	ModeTutorial: {
		system: "You are an educational instructor. Provide step-by-step explanations that are easy to understand and actionable.",
		user: `Learning Topic: "%s"

Based on the following sources, create a learning guide with:
1. Simple explanation of the concept
2. Step-by-step breakdown
3. Practical examples
4. Learning resources and next steps

Sources:
%s`,
	},
}

// BuildPrompt renders the system and user instructions for mode.
func BuildPrompt(mode Mode, query string, sources []SourceItem) (system, user string) {
	tmpl, ok := prompts[mode]
	if !ok {
		tmpl = prompts[ModeGeneral]
	}
	return tmpl.system, fmt.Sprintf(tmpl.user, query, formatSources(sources))
}

func formatSources(sources []SourceItem) string {
	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("[%d] %s\n%s\nSource: %s\nURL: %s\n", i+1, s.Title, s.Snippet, s.Source, s.URL)
	}
	return strings.Join(blocks, "\n")
}

// ExtractiveSummary lists every source when no provider produced a summary.
func ExtractiveSummary(query string, sources []SourceItem) string {
	lines := make([]string, len(sources))
	for i, s := range sources {
		lines[i] = fmt.Sprintf("%d. %s: %s", i+1, s.Title, s.Snippet)
	}
	return fmt.Sprintf("Based on %d source(s), here's what I found about \"%s\":\n\n%s",
		len(sources), query, strings.Join(lines, "\n\n"))
}
