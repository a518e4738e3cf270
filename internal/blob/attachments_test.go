package blob_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"culturecore/internal/blob"
	blobfs "culturecore/internal/infra/blob/fs"
	blobmem "culturecore/internal/infra/blob/memory"
)

func TestSaveAttachmentStoresPayload(t *testing.T) {
	store := blobmem.New()
	attachments := blob.NewAttachments(store)
	ctx := context.Background()

	key, err := attachments.SaveAttachment(ctx, "operations/op1/photo.png", "image/png", []byte("bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if key != "operations/op1/photo.png" {
		t.Fatalf("unexpected key %q", key)
	}

	info, rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, []byte("bytes")) || info.ContentType != "image/png" {
		t.Fatalf("stored blob mismatch: %+v %q", info, data)
	}
}

func TestResolveURLFallsBackToKey(t *testing.T) {
	attachments := blob.NewAttachments(blobmem.New())
	url, err := attachments.ResolveURL(context.Background(), "some/key")
	if err != nil || url != "some/key" {
		t.Fatalf("memory fallback: url=%q err=%v", url, err)
	}
}

func TestResolveURLUsesPresigning(t *testing.T) {
	store, err := blobfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}
	attachments := blob.NewAttachments(store)
	url, err := attachments.ResolveURL(context.Background(), "some/key")
	if err != nil || !strings.HasPrefix(url, "http://") {
		t.Fatalf("fs presign: url=%q err=%v", url, err)
	}
}
