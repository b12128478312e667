package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ZacBytes/caloric/config"
	"github.com/ZacBytes/caloric/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

var ErrStorageDisabled = errors.New("photo storage is not configured")

// ObjectPutter is the slice of the S3 client the photo service needs.
// *s3.Client satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type PhotoService struct {
	putter ObjectPutter
	cfg    config.S3Config
}

func NewPhotoService(putter ObjectPutter, cfg config.S3Config) *PhotoService {
	return &PhotoService{putter: putter, cfg: cfg}
}

// Upload stores a base64 data URI image under the user's prefix and returns
// its public URL.
func (s *PhotoService) Upload(ctx context.Context, userID uint, dataURI string) (string, error) {
	if s.putter == nil || s.cfg.Bucket == "" {
		return "", ErrStorageDisabled
	}

	contentType, data, err := utils.ParseImageDataURI(dataURI)
	if err != nil {
		return "", newValidationError("%v", err)
	}

	key := fmt.Sprintf("meal-photos/%d/%s%s", userID, uuid.New().String(), utils.ImageExtension(contentType))

	_, err = s.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key), nil
}
