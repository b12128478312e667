package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ZacBytes/caloric/config"
	"github.com/ZacBytes/caloric/utils"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePutter struct {
	input *s3.PutObjectInput
	err   error
}

func (p *capturePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	p.input = params
	if p.err != nil {
		return nil, p.err
	}
	return &s3.PutObjectOutput{}, nil
}

func testS3Config() config.S3Config {
	return config.S3Config{Region: "us-east-1", Bucket: "caloric-media"}
}

func TestPhotoUpload(t *testing.T) {
	putter := &capturePutter{}
	svc := NewPhotoService(putter, testS3Config())

	url, err := svc.Upload(context.Background(), 7, pngDataURI())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://caloric-media.s3.us-east-1.amazonaws.com/meal-photos/7/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	require.NotNil(t, putter.input)
	assert.Equal(t, "caloric-media", *putter.input.Bucket)
	assert.Equal(t, "image/png", *putter.input.ContentType)
	assert.True(t, strings.HasPrefix(*putter.input.Key, "meal-photos/7/"))

	_, want, err := utils.ParseImageDataURI(pngDataURI())
	require.NoError(t, err)
	got, err := io.ReadAll(putter.input.Body)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPhotoUpload_UniqueKeys(t *testing.T) {
	putter := &capturePutter{}
	svc := NewPhotoService(putter, testS3Config())
	ctx := context.Background()

	first, err := svc.Upload(ctx, 7, pngDataURI())
	require.NoError(t, err)
	second, err := svc.Upload(ctx, 7, pngDataURI())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPhotoUpload_RejectsBadImage(t *testing.T) {
	putter := &capturePutter{}
	svc := NewPhotoService(putter, testS3Config())

	_, err := svc.Upload(context.Background(), 7, "data:text/plain;base64,aGVsbG8=")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Nil(t, putter.input)
}

func TestPhotoUpload_StorageDisabled(t *testing.T) {
	svc := NewPhotoService(nil, config.S3Config{})

	_, err := svc.Upload(context.Background(), 7, pngDataURI())
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestPhotoUpload_UpstreamFailure(t *testing.T) {
	putter := &capturePutter{err: errors.New("access denied")}
	svc := NewPhotoService(putter, testS3Config())

	_, err := svc.Upload(context.Background(), 7, pngDataURI())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload photo")
}
