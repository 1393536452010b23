// services/spaces.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const maxAvatarBytes = 5 << 20

// SpacesService mirrors user avatar images into DigitalOcean Spaces so
// profile rendering never depends on third-party NFT image hosts.
type SpacesService struct {
	client     *s3.Client
	httpClient *http.Client
	bucket     string
	region     string
	AvatarRoot string
}

func NewSpacesService(spacesKey, spacesSecret, region, bucket, avatarRoot string) *SpacesService {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		panic(fmt.Sprintf("Unable to load Spaces config: %v", err))
	}

	return &SpacesService{
		client:     s3.NewFromConfig(cfg),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		bucket:     bucket,
		region:     region,
		AvatarRoot: strings.TrimPrefix(avatarRoot, "/"),
	}
}

// MirrorAvatar downloads the image at sourceURL and stores it under the
// wallet's avatar key, returning the public CDN URL.
func (s *SpacesService) MirrorAvatar(ctx context.Context, wallet, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar source returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read avatar: %w", err)
	}
	if len(data) > maxAvatarBytes {
		return "", fmt.Errorf("avatar exceeds %d bytes", maxAvatarBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
		if !strings.HasPrefix(contentType, "image/") {
			return "", fmt.Errorf("avatar source is not an image (%s)", contentType)
		}
	}

	key := s.avatarKey(wallet)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=86400"),
		ACL:          types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return s.AvatarURL(wallet), nil
}

// DeleteAvatar removes the mirrored avatar, used when a user reverts to the
// default avatar.
func (s *SpacesService) DeleteAvatar(ctx context.Context, wallet string) error {
	key := s.avatarKey(wallet)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar %s: %w", key, err)
	}
	return nil
}

// AvatarURL returns the public CDN URL for a wallet's mirrored avatar.
func (s *SpacesService) AvatarURL(wallet string) string {
	return fmt.Sprintf("https://%s.%s.cdn.digitaloceanspaces.com/%s",
		s.bucket, s.region, s.avatarKey(wallet))
}

func (s *SpacesService) avatarKey(wallet string) string {
	return fmt.Sprintf("%s/%s.img", s.AvatarRoot, strings.ToLower(wallet))
}

func (s *SpacesService) GetBucket() string {
	return s.bucket
}

func (s *SpacesService) GetRegion() string {
	return s.region
}
