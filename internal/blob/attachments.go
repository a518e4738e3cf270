package blob

import (
	"bytes"
	"context"
	"errors"
)

// Attachments adapts a blob.Store to the attachment hook the core service
// expects. Keys are returned as stable references; a presigned URL is
// attached when the backend supports it.
type Attachments struct {
	store Store
}

// NewAttachments wraps a blob store for attachment persistence.
func NewAttachments(store Store) *Attachments {
	return &Attachments{store: store}
}

// SaveAttachment stores the payload under key and returns the stored key.
func (a *Attachments) SaveAttachment(ctx context.Context, key, contentType string, data []byte) (string, error) {
	info, err := a.store.Put(ctx, key, bytes.NewReader(data), PutOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return info.Key, nil
}

// ResolveURL returns a time-limited URL for a stored attachment, or the bare
// key when the backend cannot presign.
func (a *Attachments) ResolveURL(ctx context.Context, key string) (string, error) {
	url, err := a.store.PresignURL(ctx, key, SignedURLOptions{})
	if errors.Is(err, ErrUnsupported) {
		return key, nil
	}
	if err != nil {
		return "", err
	}
	return url, nil
}
