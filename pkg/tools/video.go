package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Bzcasper/mcp-gateway/pkg/mcp"
)

// CategoryVideo groups the video generation tools.
const CategoryVideo = "video_generation"

// VideoProvider registers the video script and search-term tools. Generation
// is deterministic and local so the wire contract does not depend on an
// upstream model being reachable.
type VideoProvider struct {
	logger *slog.Logger
}

// NewVideoProvider creates a new video tool provider.
func NewVideoProvider(logger *slog.Logger) (provider *VideoProvider) {
	provider = &VideoProvider{
		logger: logger,
	}
	return provider
}

// Register adds the video tools to the registry.
func (p *VideoProvider) Register(registry *mcp.Registry) {
	registry.Register(mcp.Tool{
		Name:        "generate_video_script",
		Description: "Generate a narration script for a short-form video about the given subject. Returns the subject, the script text, and the paragraph count.",
		Category:    CategoryVideo,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"video_subject": map[string]interface{}{
					"type":        "string",
					"description": "Subject of the video (e.g. 'Ocean life')",
				},
				"paragraph_number": map[string]interface{}{
					"type":        "integer",
					"description": "Number of script paragraphs to generate (default: 1)",
					"default":     1,
					"minimum":     1,
					"maximum":     10,
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Script language code (default: 'en')",
					"default":     "en",
				},
			},
			"required": []string{"video_subject"},
		},
	}, p.executeGenerateScript)

	registry.Register(mcp.Tool{
		Name:        "generate_video_terms",
		Description: "Generate stock-footage search terms for a video subject. Returns an ordered list of short search phrases.",
		Category:    CategoryVideo,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"video_subject": map[string]interface{}{
					"type":        "string",
					"description": "Subject of the video",
				},
				"amount": map[string]interface{}{
					"type":        "integer",
					"description": "Number of search terms to generate (default: 5)",
					"default":     5,
					"minimum":     1,
					"maximum":     20,
				},
			},
			"required": []string{"video_subject"},
		},
	}, p.executeGenerateTerms)
}

// executeGenerateScript handles the generate_video_script tool.
func (p *VideoProvider) executeGenerateScript(ctx context.Context, args map[string]interface{}, _ *mcp.InvocationContext) (result interface{}, err error) {
	subject := strings.TrimSpace(stringArg(args, "video_subject", ""))
	if subject == "" {
		err = errors.New("video_subject is required")
		return result, err
	}

	paragraphs := intArg(args, "paragraph_number", 1)
	language := stringArg(args, "language", "en")

	script := buildScript(subject, paragraphs)

	p.logger.InfoContext(ctx, "generated video script",
		slog.String("subject", subject),
		slog.Int("paragraphs", paragraphs))

	result = map[string]interface{}{
		"subject":    subject,
		"script":     script,
		"paragraphs": paragraphs,
		"language":   language,
	}
	return result, err
}

// executeGenerateTerms handles the generate_video_terms tool.
func (p *VideoProvider) executeGenerateTerms(ctx context.Context, args map[string]interface{}, _ *mcp.InvocationContext) (result interface{}, err error) {
	subject := strings.TrimSpace(stringArg(args, "video_subject", ""))
	if subject == "" {
		err = errors.New("video_subject is required")
		return result, err
	}

	amount := intArg(args, "amount", 5)
	terms := buildSearchTerms(subject, amount)

	p.logger.InfoContext(ctx, "generated video search terms",
		slog.String("subject", subject),
		slog.Int("amount", len(terms)))

	result = map[string]interface{}{
		"subject": subject,
		"terms":   terms,
	}
	return result, err
}

// buildScript assembles a narration script from paragraph templates.
func buildScript(subject string, paragraphs int) (script string) {
	templates := []string{
		"Today we're diving into %s. It's one of those subjects that rewards a closer look, and over the next few moments you'll see why.",
		"What makes %s so compelling is the detail most people never notice. Once you see it, you can't unsee it.",
		"There's a common misconception about %s, and clearing it up changes how you think about the whole topic.",
		"The story of %s didn't start where you might expect. Its origins shaped everything that came after.",
		"Experts who spend their lives studying %s agree on one thing: the more you learn, the more questions open up.",
		"If you only remember one thing about %s, make it this: the small details carry the big picture.",
		"Looking ahead, %s is changing fast, and what comes next may surprise even the people closest to it.",
		"That's the heart of %s. Thanks for watching, and if this sparked your curiosity, there's plenty more where that came from.",
	}

	if paragraphs < 1 {
		paragraphs = 1
	}
	if paragraphs > len(templates) {
		paragraphs = len(templates)
	}

	lines := make([]string, 0, paragraphs)
	for i := 0; i < paragraphs; i++ {
		lines = append(lines, fmt.Sprintf(templates[i], subject))
	}

	script = strings.Join(lines, "\n\n")
	return script
}

// buildSearchTerms derives stock-footage search phrases from the subject.
func buildSearchTerms(subject string, amount int) (terms []string) {
	suffixes := []string{
		"close up", "aerial view", "time lapse", "slow motion", "cinematic",
		"b-roll", "macro shot", "at sunset", "documentary footage", "4k nature",
		"wide shot", "underwater", "landscape", "detail shot", "panning shot",
		"establishing shot", "drone footage", "night", "golden hour", "texture",
	}

	if amount < 1 {
		amount = 1
	}
	if amount > len(suffixes) {
		amount = len(suffixes)
	}

	lowered := strings.ToLower(subject)
	terms = make([]string, 0, amount)
	for i := 0; i < amount; i++ {
		terms = append(terms, lowered+" "+suffixes[i])
	}

	return terms
}
