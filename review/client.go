// Package review drives the two structured-output model calls around an
// interview: casting the interviewer before it starts and auditing the
// transcript after it ends.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"verbal/log"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-flash-latest"
)

// Schema is the structured-output contract sent with each call. Field
// names and type tags follow the generateContent API.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// SetBaseURL points the client at a test server.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type generateRequest struct {
	Contents         []requestContent  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	Tools            []tool            `json:"tools,omitempty"`
}

type requestContent struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type tool struct {
	GoogleSearch struct{} `json:"googleSearch"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []textPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// generate runs one structured-output call and returns the raw JSON text
// the model produced.
func (c *Client) generate(ctx context.Context, prompt string, schema *Schema, withSearch bool) ([]byte, error) {
	reqBody := generateRequest{
		Contents: []requestContent{{Parts: []textPart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	}
	if withSearch {
		reqBody.Tools = []tool{{}}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("review call: %w", err)
	}
	defer resp.Body.Close()

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("review call: parse response: %w", err)
	}

	log.ReviewMetrics(log.ReviewMetricsData{
		Model:      c.model,
		PromptKB:   float64(len(payload)) / 1024,
		TotalMs:    float64(time.Since(start).Milliseconds()),
		StatusCode: resp.StatusCode,
	})

	if resp.StatusCode != http.StatusOK {
		if gr.Error != nil {
			return nil, fmt.Errorf("review call: API error %d: %s", gr.Error.Code, gr.Error.Message)
		}
		return nil, fmt.Errorf("review call: HTTP %d", resp.StatusCode)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("review call: empty response")
	}
	return []byte(gr.Candidates[0].Content.Parts[0].Text), nil
}
