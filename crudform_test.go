package crudform

import (
	"context"
	"io/fs"
	"strings"
	"testing"
)

func TestAssetsFSContainsStylesheet(t *testing.T) {
	data, err := fs.ReadFile(AssetsFS(), "crudform.css")
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	if !strings.Contains(string(data), "--color-primary") {
		t.Fatalf("expected stylesheet to reference theme variables")
	}
}

func TestEmbeddedTemplatesContainPage(t *testing.T) {
	if _, err := fs.Stat(EmbeddedTemplates(), "templates/page.tmpl"); err != nil {
		t.Fatalf("expected page template: %v", err)
	}
}

func TestGenerateHTMLUnknownPage(t *testing.T) {
	_, err := GenerateHTML(context.Background(), Config{}, "missing")
	if err == nil || !strings.Contains(err.Error(), "unknown page") {
		t.Fatalf("expected unknown page error, got %v", err)
	}
}
