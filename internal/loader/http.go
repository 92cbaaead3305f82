package loader

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-crudform/internal/transport"
)

func loadHTTP(ctx context.Context, client *transport.Client, url string) ([]byte, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("loader: unexpected status %d %s", resp.Status, http.StatusText(resp.Status))
	}
	return resp.Body, nil
}
