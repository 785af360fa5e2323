// Primary classification provider: OpenAI-style binary moderation endpoint.
//
// The endpoint returns, for a fixed set of native categories, a flag bit and
// a confidence score per category. Normalization picks the highest-scoring
// flagged native and translates it through the mapping table.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/devcabi-net/mirage-community-sub000/moderation"
	"github.com/devcabi-net/mirage-community-sub000/pkg/robusthttp"
)

const (
	DefaultEndpoint = "https://api.openai.com"

	moderationsPath = "/v1/moderations"

	// responses larger than this are malformed or hostile
	maxResponseBytes = 1 << 20
)

// DefaultTable maps the endpoint's native category names to internal
// categories. The flag bit returned by the provider is authoritative, so
// thresholds are zero here; table order is the tie-break for equal top
// scores.
func DefaultTable() moderation.MappingTable {
	return moderation.MappingTable{
		{Native: "hate", Category: moderation.CategoryHateSpeech},
		{Native: "hate/threatening", Category: moderation.CategoryHateSpeech},
		{Native: "harassment", Category: moderation.CategoryHarassment},
		{Native: "harassment/threatening", Category: moderation.CategoryHarassment},
		{Native: "self-harm", Category: moderation.CategorySelfHarm},
		{Native: "sexual", Category: moderation.CategoryNSFW},
		{Native: "violence", Category: moderation.CategoryViolence},
		{Native: "violence/graphic", Category: moderation.CategoryViolence},
	}
}

var _ moderation.Provider = (*Client)(nil)

type Client struct {
	client   *http.Client
	endpoint string
	apiKey   string
	table    moderation.MappingTable
}

type Config struct {
	// Endpoint is the API base URL; defaults to DefaultEndpoint.
	Endpoint string
	// APIKey is the bearer token. Required.
	APIKey string
	// HTTPClient overrides the default no-retry client. Optional.
	HTTPClient *http.Client
	// Table overrides the default native category mapping. Optional.
	Table moderation.MappingTable
}

func New(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai moderation: API key is required")
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := config.HTTPClient
	if client == nil {
		client = robusthttp.ProviderClient()
	}
	table := config.Table
	if table == nil {
		table = DefaultTable()
	}
	return &Client{
		client:   client,
		endpoint: endpoint,
		apiKey:   config.APIKey,
		table:    table,
	}, nil
}

func (c *Client) Name() string {
	return "openai"
}

type moderationRequest struct {
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []moderationEntry `json:"results"`
}

type moderationEntry struct {
	Flagged        bool               `json:"flagged"`
	Categories     map[string]bool    `json:"categories"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

// Classify submits content for binary classification and normalizes the
// response. Network and HTTP-status failures surface as
// ErrProviderUnavailable, undecodable or empty bodies as
// ErrProviderResponseInvalid.
func (c *Client) Classify(ctx context.Context, content string) (*moderation.Result, error) {
	body, err := json.Marshal(moderationRequest{Input: content})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", moderation.ErrProviderResponseInvalid, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+moderationsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", moderation.ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", moderation.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", moderation.ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", moderation.ErrProviderUnavailable, resp.StatusCode)
	}

	var decoded moderationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", moderation.ErrProviderResponseInvalid, err)
	}
	if len(decoded.Results) == 0 {
		return nil, fmt.Errorf("%w: empty results", moderation.ErrProviderResponseInvalid)
	}

	result, err := c.normalize(&decoded.Results[0])
	if err != nil {
		return nil, err
	}
	result.Raw = json.RawMessage(raw)
	return result, nil
}

// normalize picks the verdict out of one response entry. When the overall
// flag bit is clear the per-category scores are not scanned at all. Otherwise
// the highest-scoring flagged native wins, with ties resolved to the earlier
// table entry (strict-greater replacement). The selected severity is the
// provider's score unmodified, so a consumed score outside [0,1] makes the
// whole response invalid rather than leaking past the severity bounds.
func (c *Client) normalize(entry *moderationEntry) (*moderation.Result, error) {
	if !entry.Flagged {
		return moderation.Unflagged(), nil
	}

	best := moderation.Unflagged()
	for _, m := range c.table {
		if !entry.Categories[m.Native] {
			continue
		}
		score := entry.CategoryScores[m.Native]
		if score < 0 || score > 1 {
			return nil, fmt.Errorf("%w: score %v for %q out of range", moderation.ErrProviderResponseInvalid, score, m.Native)
		}
		if !best.Flagged || score > best.Severity {
			best = &moderation.Result{
				Flagged:  true,
				Category: m.Category,
				Severity: score,
			}
		}
	}
	return best, nil
}
