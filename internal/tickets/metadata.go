package tickets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"fanpass/internal/models"
)

// MetadataFetcher pulls the token URI document and keeps the fields
// clients care about.
type MetadataFetcher struct {
	Client *http.Client
}

func NewMetadataFetcher(client *http.Client) *MetadataFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &MetadataFetcher{Client: client}
}

func (f *MetadataFetcher) Fetch(ctx context.Context, tokenURI string) (*models.TokenMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token metadata: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token metadata returned status: %d", resp.StatusCode)
	}

	var metadata models.TokenMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode token metadata: %w", err)
	}
	return &metadata, nil
}
