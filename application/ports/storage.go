package ports

import "context"

// MessageFileStorage issues the presigned URLs clients use to upload and
// fetch raw message media. Signing is an external concern; the core only
// needs URLs it can hand out.
type MessageFileStorage interface {
	// UploadURL returns a presigned PUT URL for a pending message's media
	UploadURL(ctx context.Context, messageID, mimeType string) (string, error)

	// FetchURL returns a presigned GET URL for a message's media
	FetchURL(ctx context.Context, messageID string) (string, error)
}
