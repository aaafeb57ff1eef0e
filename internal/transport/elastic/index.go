package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kailas-cloud/attachdex/internal/domain"
	"github.com/kailas-cloud/attachdex/internal/domain/batch"
	"github.com/kailas-cloud/attachdex/internal/domain/mapping"
)

// Index sends a document source to a routed single-document path.
func (c *Client) Index(ctx context.Context, path string, body []byte) error {
	if _, err := c.perform(ctx, http.MethodPut, path, "application/json", body); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexRequest, err)
	}
	return nil
}

type bulkResponse struct {
	Errors bool                      `json:"errors"`
	Items  []map[string]bulkItemBody `json:"items"`
}

type bulkItemBody struct {
	ID     string      `json:"_id"`
	Status int         `json:"status"`
	Error  *errorCause `json:"error,omitempty"`
}

// Bulk sends an NDJSON body to a routed bulk path and returns one response per action, in order.
func (c *Client) Bulk(ctx context.Context, path string, body []byte) ([]batch.ItemResponse, error) {
	data, err := c.perform(ctx, http.MethodPost, path, "application/x-ndjson", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexRequest, err)
	}

	var resp bulkResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w: %w", domain.ErrIndexRequest, err)
	}

	items := make([]batch.ItemResponse, 0, len(resp.Items))
	for _, entry := range resp.Items {
		// each entry holds exactly one action key (index, create, update, delete)
		for _, it := range entry {
			ir := batch.ItemResponse{ID: it.ID, Status: it.Status}
			if it.Error != nil {
				ir.Reason = it.Error.Type + ": " + it.Error.Reason
			}
			items = append(items, ir)
			break
		}
	}
	return items, nil
}

// ApplyMapping creates index with the full mapping, or updates the
// properties of an existing index.
func (c *Client) ApplyMapping(ctx context.Context, index string, m mapping.Mapping) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	exists, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	closeBody(exists.Body)

	switch exists.StatusCode {
	case http.StatusNotFound:
		body, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode mapping: %w", err)
		}
		res, err := c.es.Indices.Create(index,
			c.es.Indices.Create.WithContext(ctx),
			c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		)
		if err != nil {
			return fmt.Errorf("create index %s: %w", index, err)
		}
		return checkResponse(res.StatusCode, res.Body)
	case http.StatusOK:
		body, err := json.Marshal(map[string]any{"properties": m.Properties()})
		if err != nil {
			return fmt.Errorf("encode mapping: %w", err)
		}
		res, err := c.es.Indices.PutMapping([]string{index}, bytes.NewReader(body),
			c.es.Indices.PutMapping.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("put mapping %s: %w", index, err)
		}
		return checkResponse(res.StatusCode, res.Body)
	default:
		return fmt.Errorf("check index %s: %w", index, &ResponseError{Status: exists.StatusCode})
	}
}

func checkResponse(status int, body io.ReadCloser) error {
	defer closeBody(body)
	if status >= 200 && status <= 299 {
		return nil
	}
	data, _ := io.ReadAll(body)
	return parseResponseError(status, data)
}
