package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/Cascapera/social-automation/configs"
)

// Storage is the artifact store contract the orchestration services
// depend on. Sources, cuts, brand assets and job exports are addressed
// by object key.
type Storage interface {
	Upload(ctx context.Context, key string, file []byte, contentType string) error
	UploadFile(ctx context.Context, key, path, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	DownloadToTemp(ctx context.Context, key string) (string, error)
}

// StorageService implements Storage over an R2 bucket.
type StorageService struct {
	config cfg.Config
	client *s3.Client
}

func NewStorageService(c cfg.Config) *StorageService {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.R2.AccessKey, c.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		log.Fatal(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2.AccountID))
	})

	return &StorageService{config: c, client: client}
}

func (s *StorageService) Upload(ctx context.Context, key string, file []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UploadFile streams a local file into the bucket.
func (s *StorageService) UploadFile(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.R2.BucketName),
		Key:    aws.String(key),
	}
	if _, err := s.client.DeleteObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// PublicURL is the read URL any client (players, publishers) uses.
func (s *StorageService) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.config.R2.PublicBaseURL, key)
}

// DownloadToTemp fetches an object into a local temp file and returns
// its path. Callers remove the file.
func (s *StorageService) DownloadToTemp(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.R2.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer out.Body.Close()

	tempFile, err := os.CreateTemp("", "artifact-*.mp4")
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, out.Body); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("error saving object to temporary file: %w", err)
	}
	return tempFile.Name(), nil
}
