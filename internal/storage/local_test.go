package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"alxtravel.com/app/internal/config"
)

func TestLocalPutAndDelete(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads/")

	res, err := l.Put(context.Background(), strings.NewReader("img"), PutInput{
		Folder:   "listings/abc",
		Filename: "Sea View.PNG",
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(res.Key, "listings/abc/sea-view-") || !strings.HasSuffix(res.Key, ".png") {
		t.Fatalf("unexpected key %q", res.Key)
	}
	if res.URL != "/uploads/"+res.Key {
		t.Fatalf("unexpected url %q", res.URL)
	}

	b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(res.Key)))
	if err != nil || string(b) != "img" {
		t.Fatalf("stored file = %q, %v", b, err)
	}

	if err := l.Delete(context.Background(), res.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.Delete(context.Background(), res.Key); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestLocalRejectsUnsupportedType(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")
	_, err := l.Put(context.Background(), strings.NewReader("x"), PutInput{Filename: "script.sh"})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestLocalDeleteRejectsTraversal(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")
	if err := l.Delete(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestFromConfig(t *testing.T) {
	s, err := FromConfig(context.Background(), config.StorageConfig{Driver: "local", LocalDir: t.TempDir(), LocalURLPrefix: "/u"})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := s.(*Local); !ok {
		t.Fatalf("got %T, want *Local", s)
	}
	if _, err := FromConfig(context.Background(), config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
