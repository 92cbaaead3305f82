package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-crudform/internal/transport"
	"github.com/goliatone/go-crudform/pkg/schema"
)

// Loader reads schema documents from files, an fs.FS, or the backend.
type Loader struct {
	fs     fs.FS
	client *transport.Client
}

// New constructs a Loader. A nil client disables remote sources and a nil
// files disables fs sources.
func New(files fs.FS, client *transport.Client) *Loader {
	return &Loader{fs: files, client: client}
}

// Load fetches the payload behind src and wraps it in a Document. An empty
// body is the empty schema.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if src == nil {
		return schema.Document{}, errors.New("loader: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case schema.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case schema.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case schema.SourceKindURL:
		if l.client == nil {
			return schema.Document{}, errors.New("loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.client, src.Location())
	default:
		err = fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return schema.Document{}, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("null")
	}
	return schema.NewDocument(src, data)
}
