package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/logger"
)

// MaxImageSize is the largest recipe image accepted for upload.
const MaxImageSize = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ObjectStore stores uploaded files and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type S3Store struct {
	cfg *config.S3Config
}

func NewS3Store(cfg *config.S3Config) *S3Store {
	return &S3Store{cfg: cfg}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.cfg.ObjectURL(key), nil
}

// ImageService uploads recipe images. A nil store means uploads are disabled.
type ImageService struct {
	store   ObjectStore
	recipes IRecipeService
}

func NewImageService(store ObjectStore, recipes IRecipeService) *ImageService {
	return &ImageService{store: store, recipes: recipes}
}

// Enabled reports whether an object store is configured.
func (s *ImageService) Enabled() bool {
	return s != nil && s.store != nil
}

// UploadRecipeImage stores the image and points the recipe at it.
func (s *ImageService) UploadRecipeImage(ctx context.Context, userID uuid.UUID, scope string, recipeID uuid.UUID, r io.Reader) (string, error) {
	if !s.Enabled() {
		return "", newError(ErrUnavailable, "image storage is not configured")
	}
	if err := s.recipes.CheckWritable(ctx, userID, scope, recipeID); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return "", newError(ErrInvalidInput, "image is empty")
	}
	if len(data) > MaxImageSize {
		return "", newError(ErrInvalidInput, "image exceeds %d MB", MaxImageSize>>20)
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", newError(ErrInvalidInput, "unsupported image type %s", contentType)
	}

	key := fmt.Sprintf("recipes/%s/%s.%s", recipeID, uuid.New(), ext)
	url, err := s.store.Put(ctx, key, contentType, data)
	if err != nil {
		return "", err
	}
	logger.Info(ctx, "recipe image uploaded", zap.String("recipe_id", recipeID.String()), zap.String("key", key))

	if _, err := s.recipes.SetImage(ctx, userID, scope, recipeID, url); err != nil {
		return "", err
	}
	return url, nil
}
