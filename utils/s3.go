package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DataURI is a decoded "data:<mime>;base64,<payload>" string.
type DataURI struct {
	ContentType string
	Ext         string
	Data        []byte
}

func ParseDataURI(raw string) (*DataURI, error) {
	meta, payload, ok := strings.Cut(raw, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("invalid base64 image")
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var ext string
	switch contentType {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	default:
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		} else if _, sub, ok := strings.Cut(contentType, "/"); ok {
			ext = "." + sub
		}
	}
	return &DataURI{ContentType: contentType, Ext: ext, Data: data}, nil
}

type S3Uploader struct {
	client    *s3.Client
	bucket    string
	region    string
	publicURL string
}

// NewS3Uploader uploads into bucket. publicURL (a CloudFront origin) is
// used for returned links when set.
func NewS3Uploader(cfg aws.Config, bucket, publicURL string) *S3Uploader {
	return &S3Uploader{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    cfg.Region,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// UploadDataURI stores a data-URI image under prefix and returns its URL.
func (u *S3Uploader) UploadDataURI(ctx context.Context, raw, prefix string) (string, error) {
	img, err := ParseDataURI(raw)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s-%d%s", prefix, time.Now().UnixNano(), img.Ext)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if u.publicURL != "" {
		return fmt.Sprintf("%s/%s", u.publicURL, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}
