// Package store persists an application: its photo in object storage and its
// row in Postgres. The two writes are independent; a failed insert leaves the
// uploaded object behind unless the caller discards it.
package store

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"talent_intake_backend/internal/adapters/storage"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/leads/repository"
	"talent_intake_backend/internal/media"
)

// keyPrefix groups application photos inside the leads bucket.
const keyPrefix = "applications"

// StoredMedia identifies an uploaded photo.
type StoredMedia struct {
	Key string
	URL string
}

// Store writes application photos and lead rows.
type Store struct {
	objects storage.ObjectStore
	bucket  string
	leads   repository.LeadWriter
}

func New(objects storage.ObjectStore, bucket string, leads repository.LeadWriter) *Store {
	return &Store{objects: objects, bucket: bucket, leads: leads}
}

// ValidateImage checks the declared type and size against the storage limits.
func (s *Store) ValidateImage(contentType string, size int64) error {
	if err := s.objects.ValidateContentType(contentType); err != nil {
		return err
	}
	return s.objects.ValidateFileSize(size)
}

// Upload stores f under its already collision-free name and returns its public URL.
func (s *Store) Upload(ctx context.Context, f media.File) (StoredMedia, error) {
	key := path.Join(keyPrefix, f.Name)
	if err := s.objects.PutObject(ctx, s.bucket, key, f.ContentType, bytes.NewReader(f.Data), f.Size()); err != nil {
		return StoredMedia{}, fmt.Errorf("upload %s: %w", key, err)
	}
	return StoredMedia{Key: key, URL: s.objects.PublicURL(s.bucket, key)}, nil
}

// Insert writes the lead row. It is a single statement, so it either fully
// succeeds or leaves nothing behind.
func (s *Store) Insert(ctx context.Context, applicant domain.Applicant, m StoredMedia) (domain.Lead, error) {
	return s.leads.Insert(ctx, domain.NewLead{
		Applicant: applicant,
		ImageURL:  m.URL,
		ImageKey:  m.Key,
	})
}

// Discard deletes an uploaded photo whose lead row was never written.
func (s *Store) Discard(ctx context.Context, m StoredMedia) error {
	if m.Key == "" {
		return nil
	}
	return s.objects.DeleteObject(ctx, s.bucket, m.Key)
}
