package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Bzcasper/mcp-gateway/pkg/config"
	"github.com/Bzcasper/mcp-gateway/pkg/mcp"
)

// CategorySpeech groups the speech synthesis tools.
const CategorySpeech = "speech_synthesis"

// defaultVoices is used when the configuration supplies none.
var defaultVoices = []config.Voice{
	{Name: "en-US-JennyNeural", Language: "en-US", Gender: "female"},
	{Name: "en-US-GuyNeural", Language: "en-US", Gender: "male"},
	{Name: "en-GB-SoniaNeural", Language: "en-GB", Gender: "female"},
}

// SpeechProvider registers the speech synthesis tools. Synthesis is delegated
// to an upstream TTS HTTP service; when no endpoint is configured the tools
// stay registered and fail with an explicit error when called.
type SpeechProvider struct {
	endpoint     string
	apiKey       string
	voices       []config.Voice
	defaultVoice string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewSpeechProvider creates a new speech tool provider.
func NewSpeechProvider(endpoint, apiKey string, voices []config.Voice, defaultVoice string, logger *slog.Logger) (provider *SpeechProvider) {
	if len(voices) == 0 {
		voices = defaultVoices
	}
	if defaultVoice == "" {
		defaultVoice = voices[0].Name
	}

	provider = &SpeechProvider{
		endpoint:     endpoint,
		apiKey:       apiKey,
		voices:       voices,
		defaultVoice: defaultVoice,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
	return provider
}

// voiceNames returns the configured voice names for the input schema enum.
func (p *SpeechProvider) voiceNames() (names []string) {
	names = make([]string, 0, len(p.voices))
	for _, v := range p.voices {
		names = append(names, v.Name)
	}
	return names
}

// Register adds the speech tools to the registry.
func (p *SpeechProvider) Register(registry *mcp.Registry) {
	registry.Register(mcp.Tool{
		Name:        "synthesize_speech",
		Description: "Synthesize narration audio from text using the configured TTS service. Returns base64-encoded audio.",
		Category:    CategorySpeech,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to synthesize",
				},
				"voice": map[string]interface{}{
					"type":        "string",
					"description": "Voice name to use",
					"enum":        p.voiceNames(),
					"default":     p.defaultVoice,
				},
				"speed": map[string]interface{}{
					"type":        "number",
					"description": "Playback speed multiplier (default: 1.0)",
					"default":     1.0,
					"minimum":     0.5,
					"maximum":     2.0,
				},
			},
			"required": []string{"text"},
		},
	}, p.executeSynthesize)

	registry.Register(mcp.Tool{
		Name:        "list_voices",
		Description: "List the speech synthesis voices this server offers.",
		Category:    CategorySpeech,
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}, p.executeListVoices)
}

// executeSynthesize handles the synthesize_speech tool.
func (p *SpeechProvider) executeSynthesize(ctx context.Context, args map[string]interface{}, _ *mcp.InvocationContext) (result interface{}, err error) {
	if p.endpoint == "" {
		err = errors.New("speech synthesis not configured (MCP_TTS_ENDPOINT not set)")
		return result, err
	}

	text, _ := args["text"].(string)
	if text == "" {
		err = errors.New("text is required")
		return result, err
	}

	voice := stringArg(args, "voice", p.defaultVoice)

	speed := 1.0
	if f, ok := args["speed"].(float64); ok {
		speed = f
	}

	payload := map[string]interface{}{
		"input": text,
		"voice": voice,
		"speed": speed,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		err = fmt.Errorf("encoding TTS request: %w", err)
		return result, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("building TTS request: %w", err)
		return result, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("calling TTS service: %w", err)
		return result, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("reading TTS response: %w", err)
		return result, err
	}

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("TTS service returned status %d: %s", resp.StatusCode, string(audio))
		return result, err
	}

	p.logger.InfoContext(ctx, "synthesized speech",
		slog.String("voice", voice),
		slog.Int("text_length", len(text)),
		slog.Int("audio_bytes", len(audio)))

	result = map[string]interface{}{
		"voice":        voice,
		"audio_base64": base64.StdEncoding.EncodeToString(audio),
		"byte_count":   len(audio),
	}
	return result, err
}

// executeListVoices handles the list_voices tool.
func (p *SpeechProvider) executeListVoices(_ context.Context, _ map[string]interface{}, _ *mcp.InvocationContext) (result interface{}, err error) {
	result = map[string]interface{}{
		"voices":        p.voices,
		"default_voice": p.defaultVoice,
	}
	return result, err
}
