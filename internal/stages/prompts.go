package stages

import (
	"fmt"
	"strings"

	"newsforge/internal/core"
)

// genreGuidance steers the outline prompt per genre. Every genre in the
// closed set has an entry; the catch-all gets general news guidance.
var genreGuidance = map[core.Genre]string{
	core.GenreTechnology:    "Focus on what the technology does, who ships it, and what changes for users or the industry.",
	core.GenreBusiness:      "Focus on the companies and markets involved, the financial stakes, and the likely economic impact.",
	core.GenreScience:       "Focus on the finding, the method behind it, and what it means for the field. Keep claims proportional to the evidence.",
	core.GenreHealth:        "Focus on what is known, who is affected, and what experts recommend. Avoid medical advice.",
	core.GenreSports:        "Focus on the result, the key moments, and what it means for the season or competition.",
	core.GenreEntertainment: "Focus on the release or event, the people involved, and the audience reception.",
	core.GenreCulture:       "Focus on the work or event, its context, and why it resonates now.",
	core.GenreLifestyle:     "Focus on the trend, who is adopting it, and practical takeaways for readers.",
	core.GenrePolitics:      "Focus on the decision or event, the actors involved, and the concrete consequences. Keep a neutral register.",
	core.GenreOther:         "Focus on the essential who, what, when, where, and why of the story.",
}

func buildOutlinePrompt(topic core.Topic) string {
	guidance := genreGuidance[topic.Genre]
	if guidance == "" {
		guidance = genreGuidance[core.GenreOther]
	}

	var b strings.Builder
	b.WriteString("You are planning a news article. Create an outline for the story below.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", topic.Title)
	if topic.Abstract != "" {
		fmt.Fprintf(&b, "Abstract: %s\n", topic.Abstract)
	}
	fmt.Fprintf(&b, "Source: %s\n\n", topic.SourceName)
	b.WriteString(guidance)
	b.WriteString("\n\nRespond with JSON only, in exactly this shape:\n")
	b.WriteString(`{"genre": "<one of: technology, business, science, health, sports, entertainment, culture, lifestyle, politics, other>", "sections": [{"title": "...", "points": ["...", "..."]}], "summary": ["...", "...", "..."]}`)
	b.WriteString("\n\nRules: 3 to 5 sections, 2 to 4 points each. The summary must be exactly 3 bullets, each under 50 characters.")
	return b.String()
}

func buildDraftPrompt(topic core.Topic, outline *core.TopicOutline) string {
	var b strings.Builder
	b.WriteString("Write a complete news article in Markdown based on this outline. ")
	b.WriteString("Write flowing prose under section headings, not bullet lists. Do not invent facts beyond the outline and abstract. Do not include a top-level title heading.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", topic.Title)
	if topic.Abstract != "" {
		fmt.Fprintf(&b, "Abstract: %s\n", topic.Abstract)
	}
	b.WriteString("\nOutline:\n")
	for _, section := range outline.Sections {
		fmt.Fprintf(&b, "## %s\n", section.Title)
		for _, point := range section.Points {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}
	b.WriteString("\nRespond with the article body only.")
	return b.String()
}

func buildPolishPrompt(body string) string {
	var b strings.Builder
	b.WriteString("Polish the following Markdown article: fix grammar, tighten wording, and improve flow. ")
	b.WriteString("Do not change facts, structure, headings, or any block delimited by :::source markers. ")
	b.WriteString("Respond with the full polished article only.\n\n")
	b.WriteString(body)
	return b.String()
}

func buildVerifyPrompt(topic core.Topic, body string) string {
	var b strings.Builder
	b.WriteString("Review this news article for factual consistency with its source abstract, unsupported absolute claims, and misleading statements.\n\n")
	fmt.Fprintf(&b, "Source abstract: %s\n\n", topic.Abstract)
	b.WriteString("Article:\n")
	b.WriteString(body)
	b.WriteString("\n\nRespond with JSON only: {\"issues\": [\"...\"], \"suggestions\": [\"...\"]}. Empty arrays are fine.")
	return b.String()
}

func buildScorePrompt(topics []core.Topic) string {
	var b strings.Builder
	b.WriteString("Rate how newsworthy each story is for a general audience, 0-100.\n\n")
	for i, topic := range topics {
		fmt.Fprintf(&b, "%d. %s", i+1, topic.Title)
		if topic.Abstract != "" {
			fmt.Fprintf(&b, " — %s", topic.Abstract)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nRespond with a JSON array only: [{\"title\": \"...\", \"score\": 0, \"reason\": \"...\"}]")
	return b.String()
}
