// Secondary classification provider: Perspective-style attribute scoring.
//
// Unlike the primary provider there is no server-side flag bit; the endpoint
// returns a continuous score per native attribute and the flag thresholds are
// applied client-side, per attribute, from the mapping table.
package perspective

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/devcabi-net/mirage-community-sub000/moderation"
	"github.com/devcabi-net/mirage-community-sub000/pkg/robusthttp"
)

const (
	DefaultEndpoint = "https://commentanalyzer.googleapis.com"

	analyzePath = "/v1alpha1/comments:analyze"

	maxResponseBytes = 1 << 20
)

// DefaultTable maps native attributes to internal categories with
// per-attribute flag thresholds. The thresholds are deliberately not uniform:
// sexual content needs a stronger signal than an insult before it counts as
// flagged. Table order is the tie-break for equal top scores.
func DefaultTable() moderation.MappingTable {
	return moderation.MappingTable{
		{Native: "SEVERE_TOXICITY", Category: moderation.CategoryHateSpeech, Threshold: 0.7},
		{Native: "IDENTITY_ATTACK", Category: moderation.CategoryHateSpeech, Threshold: 0.7},
		{Native: "THREAT", Category: moderation.CategoryViolence, Threshold: 0.8},
		{Native: "INSULT", Category: moderation.CategoryHarassment, Threshold: 0.75},
		{Native: "PROFANITY", Category: moderation.CategoryHarassment, Threshold: 0.8},
		{Native: "SEXUALLY_EXPLICIT", Category: moderation.CategoryNSFW, Threshold: 0.85},
		{Native: "TOXICITY", Category: moderation.CategoryOther, Threshold: 0.85},
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
	// APIKey is passed as the "key" query parameter. Required.
	APIKey string
	// HTTPClient overrides the default no-retry client. Optional.
	HTTPClient *http.Client
	// Table overrides the default attribute mapping. Optional.
	Table moderation.MappingTable
}

func New(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("perspective moderation: API key is required")
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
	return "perspective"
}

type analyzeRequest struct {
	Comment             analyzeComment      `json:"comment"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
	DoNotStore          bool                `json:"doNotStore"`
}

type analyzeComment struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	AttributeScores map[string]attributeScore `json:"attributeScores"`
}

type attributeScore struct {
	SummaryScore summaryScore `json:"summaryScore"`
}

type summaryScore struct {
	Value float64 `json:"value"`
}

// Classify submits content for attribute scoring and applies the per-attribute
// thresholds from the mapping table. Error surfacing matches the primary
// adapter: transport and status failures are ErrProviderUnavailable,
// undecodable bodies are ErrProviderResponseInvalid.
func (c *Client) Classify(ctx context.Context, content string) (*moderation.Result, error) {
	reqBody := analyzeRequest{
		Comment:             analyzeComment{Text: content},
		RequestedAttributes: make(map[string]struct{}, len(c.table)),
		DoNotStore:          true,
	}
	for _, native := range c.table.Natives() {
		reqBody.RequestedAttributes[native] = struct{}{}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", moderation.ErrProviderResponseInvalid, err)
	}

	endpoint := c.endpoint + analyzePath + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", moderation.ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var decoded analyzeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", moderation.ErrProviderResponseInvalid, err)
	}
	if decoded.AttributeScores == nil {
		return nil, fmt.Errorf("%w: missing attributeScores", moderation.ErrProviderResponseInvalid)
	}

	result, err := c.normalize(&decoded)
	if err != nil {
		return nil, err
	}
	result.Raw = json.RawMessage(raw)
	return result, nil
}

// normalize collects every attribute whose score exceeds its own threshold,
// then keeps the highest-scoring qualifier. Ties resolve to the earlier table
// entry (strict-greater replacement). No qualifier means a clean verdict.
// The endpoint contract is a probability in [0,1] per attribute; a score
// outside that range makes the whole response invalid, since it would
// otherwise flow through as an out-of-bounds severity.
func (c *Client) normalize(resp *analyzeResponse) (*moderation.Result, error) {
	best := moderation.Unflagged()
	for _, m := range c.table {
		attr, ok := resp.AttributeScores[m.Native]
		if !ok {
			continue
		}
		score := attr.SummaryScore.Value
		if score < 0 || score > 1 {
			return nil, fmt.Errorf("%w: score %v for %q out of range", moderation.ErrProviderResponseInvalid, score, m.Native)
		}
		if score <= m.Threshold {
			continue
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
