package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"vogueapi/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type AWSServiceProvider interface {
	InitClient(ctx context.Context) error
	PutObject(ctx context.Context, bucketName, fileKey string, content []byte, contentType string) error
	GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error)
}

// AWSService talks to Cloudflare R2 through the S3 API.
type AWSService struct {
	Storage         config.Storage
	S3Client        *s3.Client
	S3PresignClient *s3.PresignClient
}

func (awsService *AWSService) InitClient(ctx context.Context) error {
	accountId := awsService.Storage.AccountID
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountId),
		}, nil
	})
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithEndpointResolverWithOptions(r2Resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			awsService.Storage.AccessKeyID, awsService.Storage.AccessKeySecret, "",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	awsService.S3Client = s3.NewFromConfig(cfg)
	awsService.S3PresignClient = s3.NewPresignClient(awsService.S3Client)
	return nil
}

func (awsService *AWSService) PutObject(ctx context.Context, bucketName, fileKey string, content []byte, contentType string) error {
	if awsService.S3Client == nil {
		return fmt.Errorf("s3 client is not initialized")
	}
	_, err := awsService.S3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucketName),
		Key:         aws.String(fileKey),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", fileKey, err)
	}
	return nil
}

func (awsService *AWSService) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	if awsService.S3PresignClient == nil {
		return "", fmt.Errorf("s3 presign client is not initialized")
	}
	presignedGetRequest, err := awsService.S3PresignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(presignedURLExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign request: %w", err)
	}
	return presignedGetRequest.URL, nil
}

// LookImageKey is the object key for an archived look illustration.
func LookImageKey(publicID, mimeType string) string {
	ext := "png"
	switch mimeType {
	case "image/jpeg":
		ext = "jpg"
	case "image/webp":
		ext = "webp"
	}
	return fmt.Sprintf("looks/%s/%d.%s", publicID, time.Now().Unix(), ext)
}
