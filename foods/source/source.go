// Package source loads the raw food composition table from wherever it is
// kept.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read foods file: %w", err)
	}
	return data, nil
}

type s3GetObjectAPI interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the table from a single S3 object.
type S3Source struct {
	bucket string
	key    string
	s3     s3GetObjectAPI
}

func NewS3Source(client s3GetObjectAPI, bucket, key string) *S3Source {
	return &S3Source{bucket: bucket, key: key, s3: client}
}

func (s *S3Source) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get foods object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// StaticSource is an in-memory Source for tests and embedded tables.
type StaticSource struct {
	data []byte
	err  error
}

func NewStaticSource(data []byte) *StaticSource {
	return &StaticSource{data: data}
}

func NewStaticSourceWithError() *StaticSource {
	return &StaticSource{err: errors.New("not found")}
}

func (s *StaticSource) Load(ctx context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}
