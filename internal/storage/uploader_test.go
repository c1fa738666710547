package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/digkill/bizimage/internal/config"
	"github.com/digkill/bizimage/internal/models"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func testConfig() Config {
	return Config{
		Region:        "us-east-1",
		AccessKey:     "ak",
		SecretKey:     "sk",
		Bucket:        "bizimage",
		PublicBaseURL: "https://cdn.example.com/",
	}
}

func TestUpload(t *testing.T) {
	client := &mockS3{}
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Bucket) == "bizimage" &&
			aws.ToString(in.Key) == "generated/product-to-scene/2026/03/07/img-1.jpg" &&
			aws.ToString(in.ContentType) == "image/jpeg" &&
			string(body) == "jpeg-bytes"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	u := NewUploaderWithClient(testConfig(), client)
	u.now = func() time.Time { return time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC) }

	url, err := u.Upload(context.Background(), "img-1", models.KindProductToScene, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/generated/product-to-scene/2026/03/07/img-1.jpg", url)
	client.AssertExpectations(t)
}

func TestUpload_Errors(t *testing.T) {
	client := &mockS3{}
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	u := NewUploaderWithClient(testConfig(), client)

	_, err := u.Upload(context.Background(), "id", models.KindTextToImage, nil, "image/png")
	assert.Error(t, err)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)

	_, err = u.Upload(context.Background(), "id", models.KindTextToImage, []byte{1}, "")
	assert.ErrorContains(t, err, "access denied")
}

func TestNewUploader_Validation(t *testing.T) {
	cfg := testConfig()
	cfg.Bucket = ""
	_, err := NewUploader(cfg)
	assert.ErrorContains(t, err, "bucket")

	cfg = testConfig()
	cfg.SecretKey = ""
	_, err = NewUploader(cfg)
	assert.ErrorContains(t, err, "credentials")

	u, err := NewUploader(testConfig())
	require.NoError(t, err)
	assert.Equal(t, "generated", u.cfg.Prefix)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.Config{S3Bucket: "b", S3Region: "r", S3Prefix: "p", S3UsePathStyle: true})
	assert.Equal(t, "b", cfg.Bucket)
	assert.Equal(t, "r", cfg.Region)
	assert.Equal(t, "p", cfg.Prefix)
	assert.True(t, cfg.UsePathStyle)
}

func TestExtensionFromContentType(t *testing.T) {
	assert.Equal(t, ".png", extensionFromContentType("IMAGE/PNG"))
	assert.Equal(t, ".webp", extensionFromContentType("image/webp"))
	assert.Equal(t, ".bin", extensionFromContentType("application/octet-stream"))
}
