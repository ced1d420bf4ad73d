package boleto

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/amand4priscil4/DetectaBB-Backend-3/utils"
)

// MLServiceClient talks to the Python analysis sidecar over REST. It
// implements all four collaborator contracts; each call maps to one sidecar
// endpoint.
type MLServiceClient struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
}

func NewMLServiceClient() (*MLServiceClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("ML_SERVICE_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("ML_SERVICE_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}

	timeout := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("ML_SERVICE_TIMEOUT_SECONDS")); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
			timeout = d
		}
	}

	return &MLServiceClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(os.Getenv("ML_SERVICE_API_KEY")),
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

func (c *MLServiceClient) post(ctx context.Context, path string, in interface{}, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHdr, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ml service %s: %v", utils.ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: ml service error %d on %s: %s",
			utils.ErrUpstreamUnavailable, resp.StatusCode, path, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ml service error %d on %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

func (c *MLServiceClient) ExtractText(ctx context.Context, fileBytes []byte, fileType string) (string, error) {
	in := map[string]string{
		"file_base64": base64.StdEncoding.EncodeToString(fileBytes),
		"file_type":   fileType,
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := c.post(ctx, "/ocr", in, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *MLServiceClient) ParseFields(ctx context.Context, text string) (*BoletoData, error) {
	in := map[string]string{"text": text}
	var out BoletoData
	if err := c.post(ctx, "/parse", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MLServiceClient) Validate(ctx context.Context, data *BoletoData) (*ValidationResult, error) {
	var out ValidationResult
	if err := c.post(ctx, "/validate", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MLServiceClient) Predict(ctx context.Context, data *BoletoData) (*ClassifierResult, error) {
	var out ClassifierResult
	if err := c.post(ctx, "/predict", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
