package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type MinIOStore struct {
	client     *minio.Client
	bucketName string
}

func NewMinIOStore(client *minio.Client, bucketName string) *MinIOStore {
	return &MinIOStore{client: client, bucketName: bucketName}
}

// ObjectKey is where the document of a decision round is stored.
func ObjectKey(roomUID uuid.UUID, round int) string {
	return fmt.Sprintf("decisions/%s/%d.json", roomUID, round)
}

// PutDecision uploads the full decision document and returns its object key
func (m *MinIOStore) PutDecision(ctx context.Context, rec *Record) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to encode decision: %w", err)
	}

	objectName := ObjectKey(rec.RoomUID, rec.Round)

	_, err = m.client.PutObject(
		ctx,
		m.bucketName,
		objectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}

	return objectName, nil
}

// PresignedURL returns a temporary download link for a decision document
func (m *MinIOStore) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucketName, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return url.String(), nil
}
