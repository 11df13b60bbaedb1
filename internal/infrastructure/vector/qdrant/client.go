package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

// Client is a minimal qdrant REST client. The collection uses cosine
// distance, so search scores are similarities: higher is better. Threshold
// values passed to SearchPoints must follow that convention.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i := range chunks {
		points = append(points, point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: map[string]any{
				"doc_id":      doc.ID,
				"filename":    doc.Filename,
				"category":    doc.Category,
				"chunk_index": i,
				"text":        chunks[i],
			},
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	var ack struct {
		Status string `json:"status"`
	}
	if err := c.sendJSON(ctx, http.MethodPut, url, map[string]any{"points": points}, &ack, "upsert"); err != nil {
		return err
	}
	return nil
}

// SearchPoints returns up to limit passages. A nil scoreThreshold disables
// filtering: the best limit matches come back regardless of score.
func (c *Client) SearchPoints(ctx context.Context, queryVector []float32, limit int, scoreThreshold *float64) ([]domain.RetrievedPassage, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if scoreThreshold != nil {
		reqBody["score_threshold"] = *scoreThreshold
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedPassage, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RetrievedPassage{
			Content:     getStringPayload(r.Payload, "text"),
			SourceLabel: passageLabel(r.Payload),
			Score:       r.Score,
		})
	}
	return out, nil
}

// CountPoints reports how many vectors the collection holds. A missing
// collection counts as empty rather than an error: before the first
// ingestion there is simply nothing to retrieve.
func (c *Client) CountPoints(ctx context.Context) (uint64, error) {
	url := fmt.Sprintf("%s/collections/%s/points/count", c.baseURL, c.collection)

	var countResp struct {
		Result struct {
			Count uint64 `json:"count"`
		} `json:"result"`
	}
	err := c.sendJSON(ctx, http.MethodPost, url, map[string]any{"exact": false}, &countResp, "count")
	if err != nil {
		var statusErr *httpStatusError
		if asHTTPStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return 0, nil
		}
		return 0, err
	}
	return countResp.Result.Count, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	var ack struct {
		Status string `json:"status"`
	}
	err := c.sendJSON(ctx, http.MethodPut, url, reqBody, &ack, "create collection")
	if err != nil {
		// Conflict means the collection already exists.
		var statusErr *httpStatusError
		if !asHTTPStatusError(err, &statusErr) || statusErr.StatusCode != http.StatusConflict {
			return err
		}
	}

	c.ensureMu.Lock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, url string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &httpStatusError{Operation: operation, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return nil
}

func passageLabel(payload map[string]any) string {
	filename := getStringPayload(payload, "filename")
	if filename == "" {
		return "document"
	}
	if idx, ok := payload["chunk_index"].(float64); ok {
		return fmt.Sprintf("%s#%d", filename, int(idx))
	}
	return filename
}

func getStringPayload(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return value
}
