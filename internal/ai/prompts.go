package ai

import (
	"fmt"
	"strings"
)

// Sampling and output-size parameters shared by all draft generation calls.
const (
	Temperature = 0.7

	// Token ceilings per request kind. The body ceiling is configurable
	// and defaults to DefaultContentTokens.
	TitleMaxTokens       = 60
	DescriptionMaxTokens = 160
	DefaultContentTokens = 2000

	maxTitleLength       = 60
	maxDescriptionLength = 160
)

// BuildTitlePrompt asks for an SEO title for an article about the topic.
func BuildTitlePrompt(topic string) string {
	return fmt.Sprintf(`Generate an SEO-optimized, engaging title for an article about "%s".
The title should be concise (under 60 characters), compelling, and include relevant keywords.
Return only the title text without quotes or additional formatting.`, escapeForPrompt(topic))
}

// BuildContentPrompt asks for the article body in markdown.
func BuildContentPrompt(topic, keywords, tone string) string {
	keywordLine := ""
	if keywords != "" {
		keywordLine = fmt.Sprintf("Include these keywords naturally throughout the article: %s.\n\n", escapeForPrompt(keywords))
	}

	return fmt.Sprintf(`Write a comprehensive, SEO-optimized article about "%s".

%sThe article should have:
- An engaging introduction
- Well-structured sections with headings
- A conclusion

Use a %s tone and make it engaging for readers.
Format the article in markdown.`, escapeForPrompt(topic), keywordLine, escapeForPrompt(tone))
}

// BuildDescriptionPrompt asks for a meta description. It consumes the
// generated title, which is why this request runs after the title one.
func BuildDescriptionPrompt(topic, title string) string {
	return fmt.Sprintf(`Write a compelling meta description for an article titled "%s" about "%s".
The description should be under 160 characters, include relevant keywords, and entice readers to click.
Return only the description text without quotes or additional formatting.`, escapeForPrompt(title), escapeForPrompt(topic))
}

// escapeForPrompt escapes special characters for use in prompts
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}
