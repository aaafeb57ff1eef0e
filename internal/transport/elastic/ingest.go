package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// PutPipeline creates or replaces an ingest pipeline.
func (c *Client) PutPipeline(ctx context.Context, name string, body []byte) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Ingest.PutPipeline(name, bytes.NewReader(body),
		c.es.Ingest.PutPipeline.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("put pipeline %s: %w", name, err)
	}
	defer closeBody(res.Body)

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return parseResponseError(res.StatusCode, data)
	}
	return nil
}

type catPlugin struct {
	Name      string `json:"name"`
	Component string `json:"component"`
	Version   string `json:"version"`
}

// CatPlugins returns the distinct plugin component names installed on the cluster.
func (c *Client) CatPlugins(ctx context.Context) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Cat.Plugins(
		c.es.Cat.Plugins.WithContext(ctx),
		c.es.Cat.Plugins.WithFormat("json"),
	)
	if err != nil {
		return nil, fmt.Errorf("cat plugins: %w", err)
	}
	defer closeBody(res.Body)

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read cat plugins: %w", err)
	}
	if res.IsError() {
		return nil, parseResponseError(res.StatusCode, data)
	}

	var rows []catPlugin
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode cat plugins: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	components := make([]string, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.Component]; ok || r.Component == "" {
			continue
		}
		seen[r.Component] = struct{}{}
		components = append(components, r.Component)
	}
	return components, nil
}
