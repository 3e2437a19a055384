package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Advisor exposes LLM-backed negotiation guidance for a financing estimate.
// It is an opaque collaborator: no shared state with the pricing engine.
type Advisor interface {
	Enabled() bool
	Advise(ctx context.Context, input AdviceInput) (Advice, error)
}

// Config holds chat-completions API parameters.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// AdviceInput summarizes the estimate the buyer wants guidance on.
type AdviceInput struct {
	Question    string
	State       string
	BandID      string
	Term        int
	LoanAmount  float64
	LTV         float64
	Product     string
	BestLender  string
	BestAPRLow  float64
	BestAPRHigh float64
	BestPayment float64
	OfferCount  int
}

// Advice is the parsed agent reply.
type Advice struct {
	Reply string   `json:"reply"`
	Tips  []string `json:"tips"`
}

// Client implements Advisor against an OpenAI-compatible endpoint.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

var ErrDisabled = errors.New("advisor disabled")

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.4
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: temp,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Advise requests negotiation guidance for the supplied estimate summary.
func (c *Client) Advise(ctx context.Context, input AdviceInput) (Advice, error) {
	if c == nil || !c.Enabled() {
		return Advice{}, ErrDisabled
	}

	body, err := json.Marshal(c.buildPayload(input))
	if err != nil {
		return Advice{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Advice{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Advice{}, fmt.Errorf("advisor request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return Advice{}, fmt.Errorf("advisor status %d: %v", resp.StatusCode, apiErr)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Advice{}, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Advice{}, errors.New("advisor empty response")
	}

	content := extractJSONBlock(decoded.Choices[0].Message.Content)
	if content == "" {
		return Advice{}, errors.New("advisor empty reply")
	}

	var advice Advice
	if err := json.Unmarshal([]byte(content), &advice); err != nil {
		return Advice{}, fmt.Errorf("parse advisor reply: %w", err)
	}
	advice.Reply = strings.TrimSpace(advice.Reply)
	if advice.Reply == "" {
		return Advice{}, errors.New("advisor reply missing")
	}
	return advice, nil
}

func (c *Client) buildPayload(input AdviceInput) map[string]any {
	messages := []map[string]string{
		{
			"role":    "system",
			"content": "You are a vehicle financing negotiation coach. Reply with a strict JSON object containing keys reply and tips. reply is a short paragraph answering the buyer's question using the supplied offer figures; tips is an array of at most three concrete negotiation pointers. Never invent APRs or payments beyond the supplied figures. Emit nothing outside the JSON object.",
		},
		{
			"role":    "user",
			"content": c.buildUserPrompt(input),
		},
	}
	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		payload["max_tokens"] = c.maxTokens
	}
	return payload
}

func (c *Client) buildUserPrompt(input AdviceInput) string {
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "Question: %s\n", strings.TrimSpace(input.Question))
	fmt.Fprintf(builder, "State: %s\n", input.State)
	fmt.Fprintf(builder, "Score band: %s\n", input.BandID)
	fmt.Fprintf(builder, "Product: %s\n", input.Product)
	fmt.Fprintf(builder, "Loan amount: $%.2f over %d months (LTV %.2f)\n", input.LoanAmount, input.Term, input.LTV)
	fmt.Fprintf(builder, "Eligible lenders: %d\n", input.OfferCount)
	if input.BestLender != "" {
		fmt.Fprintf(builder, "Best offer: %s at %.2f%%-%.2f%% APR, about $%.2f/month\n",
			input.BestLender, input.BestAPRLow*100, input.BestAPRHigh*100, input.BestPayment)
	}
	builder.WriteString("Ground every number you mention in the figures above.\n")
	return builder.String()
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// extractJSONBlock strips markdown fences and surrounding prose from a model
// reply, returning the outermost JSON object.
func extractJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		if strings.HasSuffix(trimmed, "```") {
			trimmed = trimmed[:len(trimmed)-3]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}
