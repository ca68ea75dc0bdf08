package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type RemoteStoreConfig struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	Prefix          string
}

// objectAPI - часть s3.Client, которая нужна хранилищу.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3RemoteStore keeps one JSON array object per collection: <prefix>/<collection>.json.
type s3RemoteStore struct {
	client     objectAPI
	bucketName string
	prefix     string
	mu         sync.Mutex // read-modify-write для Upsert/Delete
}

func NewS3RemoteStore(ctx context.Context, cfg RemoteStoreConfig) (RemoteStore, error) {
	if cfg.EndpointURL == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return nil, errors.New("invalid remote store configuration: endpoint, keys and bucket are required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, _ string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               cfg.EndpointURL,
			SigningRegion:     region,
			HostnameImmutable: true,
		}, nil
	})

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for remote store: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return newS3RemoteStore(client, cfg.BucketName, cfg.Prefix), nil
}

func newS3RemoteStore(client objectAPI, bucket, prefix string) *s3RemoteStore {
	return &s3RemoteStore{client: client, bucketName: bucket, prefix: prefix}
}

func (s *s3RemoteStore) key(collection string) string {
	return path.Join(s.prefix, collection+".json")
}

func (s *s3RemoteStore) Enabled() bool { return true }

func (s *s3RemoteStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	key := s.key(collection)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get remote collection (key: %s): %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote collection (key: %s): %w", key, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("remote collection %s is not a JSON array: %w", collection, err)
	}
	return records, nil
}

func (s *s3RemoteStore) Put(ctx context.Context, collection string, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", collection, err)
	}

	key := s.key(collection)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload remote collection (key: %s): %w", key, err)
	}
	return nil
}

func (s *s3RemoteStore) Upsert(ctx context.Context, collection, id string, record json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.List(ctx, collection)
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range records {
		if existingID, err := recordID(existing); err == nil && existingID == id {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}
	return s.Put(ctx, collection, records)
}

func (s *s3RemoteStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.List(ctx, collection)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, existing := range records {
		if existingID, err := recordID(existing); err == nil && existingID == id {
			continue
		}
		kept = append(kept, existing)
	}
	return s.Put(ctx, collection, kept)
}
