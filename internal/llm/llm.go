package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/pavelanni/karne/internal/analysis"
	"github.com/pavelanni/karne/internal/cache"
	"github.com/pavelanni/karne/internal/llm/prompts"
	"github.com/pavelanni/karne/internal/model"
)

// Generation settings for analysis requests.
const (
	Temperature     float32 = 0.1
	MaxOutputTokens int32   = 16384

	// textOnlyThreshold is the extracted text length above which document
	// images are not sent.
	textOnlyThreshold = 100

	coachFallback = "Cevap yok."
)

var (
	ErrNoInput           = errors.New("no document content to analyze")
	ErrEmptyResponse     = errors.New("analysis service returned an empty response")
	ErrMalformedResponse = errors.New("analysis service response could not be decoded")
	ErrTruncated         = errors.New("analysis response was truncated")
	ErrRejected          = errors.New("document was rejected by the analysis service")
	ErrRateLimited       = errors.New("analysis service is rate limiting requests")
)

var dataURLRegex = regexp.MustCompile(`^data:(.+?);base64,(.+)$`)

// Payload is the content of one or more uploaded documents.
type Payload struct {
	// Images holds data URLs of the form data:<mime>;base64,<data>.
	Images []string
	// Text is text extracted from the documents, if any.
	Text string
}

// Part is one element of a request: either inline data or text.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// IsInline reports whether the part carries binary data.
func (p Part) IsInline() bool { return p.MIMEType != "" }

// Request is a single generation call.
type Request struct {
	Parts       []Part
	Temperature float32
	MaxTokens   int32
	JSON        bool
}

// ChatRequest is one turn of the coach conversation.
type ChatRequest struct {
	System  string
	History []model.ChatMessage
	Message string
}

// Backend is a provider of generative model calls.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
	Chat(ctx context.Context, req ChatRequest) (string, error)
	Ping(ctx context.Context) error
	Name() string
}

// ProviderError carries the HTTP status of a failed provider call.
type ProviderError struct {
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider status %d: %v", e.StatusCode, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Config selects and configures a backend.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client analyzes exam documents through a Backend.
type Client struct {
	backend Backend
	cache   *cache.Analyses
	timeout time.Duration
}

// New creates a client for the configured provider. A nil cache disables caching.
func New(ctx context.Context, cfg Config, c *cache.Analyses) (*Client, error) {
	var (
		b   Backend
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		b = NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderGemini:
		b, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	cl := NewWithBackend(b, c)
	cl.timeout = cfg.Timeout
	return cl, nil
}

// NewWithBackend creates a client around an existing backend.
func NewWithBackend(b Backend, c *cache.Analyses) *Client {
	return &Client{backend: b, cache: c}
}

// Analyze sends the payload to the analysis service and returns the
// sanitized result.
func (c *Client) Analyze(ctx context.Context, p Payload) (model.AnalysisResult, error) {
	key := cache.Fingerprint(p.Text, p.Images)
	if r, ok := c.cache.Get(key); ok {
		return r, nil
	}

	parts, err := buildParts(p)
	if err != nil {
		return model.AnalysisResult{}, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	slog.Info("sending analysis request", "backend", c.backend.Name(), "parts", len(parts))
	raw, err := c.backend.Generate(ctx, Request{
		Parts:       parts,
		Temperature: Temperature,
		MaxTokens:   MaxOutputTokens,
		JSON:        true,
	})
	if err != nil {
		return model.AnalysisResult{}, classify(err)
	}
	slog.Info("analysis response received", "duration", time.Since(start).Round(time.Millisecond))

	result, err := decode(raw)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	c.cache.Add(key, result)
	return result, nil
}

// Chat sends a coach message with prior history and the analysis as context.
func (c *Client) Chat(ctx context.Context, message string, history []model.ChatMessage, a model.AnalysisResult) (string, error) {
	var summary strings.Builder
	enc := json.NewEncoder(&summary)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a.ExecutiveSummary); err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	system, err := prompts.Coach(prompts.CoachData{
		StudentName: firstName(a.StudentInfo.Name),
		Summary:     strings.TrimSpace(summary.String()),
	})
	if err != nil {
		return "", fmt.Errorf("build coach prompt: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.backend.Chat(ctx, ChatRequest{System: system, History: history, Message: message})
	if err != nil {
		return "", classify(err)
	}
	if strings.TrimSpace(reply) == "" {
		return coachFallback, nil
	}
	return reply, nil
}

// Ping checks that the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", c.backend.Name(), err)
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// buildParts applies the text-or-vision strategy. Sufficient extracted text
// is sent alone; otherwise the images go out with any short text as OCR
// context. The instructions always come last.
func buildParts(p Payload) ([]Part, error) {
	var parts []Part
	text := strings.TrimSpace(p.Text)

	if len([]rune(text)) > textOnlyThreshold {
		slog.Debug("text track selected", "chars", len([]rune(text)))
		body, err := prompts.TextPayload(text)
		if err != nil {
			return nil, err
		}
		parts = append(parts, Part{Text: body})
	} else {
		if len(p.Images) == 0 && text == "" {
			return nil, ErrNoInput
		}
		for i, img := range p.Images {
			part, ok := parseDataURL(img)
			if !ok {
				slog.Warn("skipping malformed document data", "index", i)
				continue
			}
			parts = append(parts, part)
		}
		if text != "" {
			ocr, err := prompts.OCRContext(text)
			if err != nil {
				return nil, err
			}
			parts = append(parts, Part{Text: ocr})
		}
		if len(parts) == 0 {
			return nil, ErrNoInput
		}
	}

	system, err := prompts.System()
	if err != nil {
		return nil, err
	}
	return append(parts, Part{Text: system}), nil
}

func parseDataURL(s string) (Part, bool) {
	m := dataURLRegex.FindStringSubmatch(s)
	if m == nil {
		return Part{}, false
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return Part{}, false
	}
	return Part{MIMEType: m[1], Data: data}, true
}

// decode strips code fences and sanitizes the response document.
func decode(raw string) (model.AnalysisResult, error) {
	raw = stripFences(raw)
	if raw == "" {
		return model.AnalysisResult{}, ErrEmptyResponse
	}
	result, err := analysis.SanitizeJSON([]byte(raw))
	if err != nil {
		slog.Debug("undecodable analysis response", "raw", truncate(raw, 500))
		return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return result, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// classify maps provider failures onto the package error kinds.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrTruncated) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "MAX_TOKENS") || strings.Contains(msg, "truncated") {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.StatusCode {
		case 400:
			return fmt.Errorf("%w: %v", ErrRejected, err)
		case 429:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}
	return fmt.Errorf("analysis request: %w", err)
}

func firstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return analysis.DefaultStudentName
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
