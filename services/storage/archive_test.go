package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/usched/usched-api/config"
)

func TestLocalArchivePutDelete(t *testing.T) {
	dir := t.TempDir()
	archive, err := New(config.SpacesConfig{}, dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := UploadKey("BSCS", "Curriculum.XLSX")
	if !strings.HasPrefix(key, "curriculum/bscs/") || !strings.HasSuffix(key, ".xlsx") {
		t.Fatalf("unexpected key %q", key)
	}

	ctx := context.Background()
	if err := archive.Put(ctx, key, []byte("a,b\n"), "text/csv"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil || string(got) != "a,b\n" {
		t.Fatalf("stored %q, err %v", got, err)
	}

	if err := archive.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := archive.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestLocalArchiveRejectsEscapes(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalArchive: %v", err)
	}
	for _, key := range []string{"../outside.csv", "", "a/../../x"} {
		if err := archive.Put(context.Background(), key, nil, ""); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) err = %v, want ErrInvalidKey", key, err)
		}
	}
}
