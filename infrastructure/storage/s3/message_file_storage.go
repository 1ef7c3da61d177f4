package s3

import (
	"context"
	"time"

	"converse-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// MessageFileStorage issues presigned URLs for message media. Objects are
// keyed by message id; the upload side writes under the pending id so the
// transcription pipeline can pick the object up by key.
type MessageFileStorage struct {
	presigner   *s3.PresignClient
	bucket      string
	uploadTTL   time.Duration
	downloadTTL time.Duration
	logger      *zap.Logger
}

// NewMessageFileStorage creates a presigned URL issuer over the given bucket.
func NewMessageFileStorage(client *s3.Client, bucket string, uploadTTL, downloadTTL time.Duration, logger *zap.Logger) *MessageFileStorage {
	return &MessageFileStorage{
		presigner:   s3.NewPresignClient(client),
		bucket:      bucket,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
		logger:      logger,
	}
}

// UploadURL returns a presigned PUT URL for a pending message's media.
func (s *MessageFileStorage) UploadURL(ctx context.Context, messageID, mimeType string) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(messageID)),
		ContentType: aws.String(mimeType),
	}, s3.WithPresignExpires(s.uploadTTL))
	if err != nil {
		s.logger.Error("failed to presign upload URL",
			zap.String("messageId", messageID),
			zap.Error(err))
		return "", errors.NewExternalError("s3", err)
	}

	return req.URL, nil
}

// FetchURL returns a presigned GET URL for a message's media.
func (s *MessageFileStorage) FetchURL(ctx context.Context, messageID string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(messageID)),
	}, s3.WithPresignExpires(s.downloadTTL))
	if err != nil {
		s.logger.Error("failed to presign fetch URL",
			zap.String("messageId", messageID),
			zap.Error(err))
		return "", errors.NewExternalError("s3", err)
	}

	return req.URL, nil
}

func objectKey(messageID string) string {
	return "messages/" + messageID
}
