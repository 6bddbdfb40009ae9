package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{name: "single food", filename: "taco.jsonl", data: []byte(`{"codigo":"C0001","descricao":"Arroz"}` + "\n")},
		{name: "empty file", filename: "empty.jsonl", data: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.filename)
			require.NoError(t, os.WriteFile(path, tt.data, 0644))

			got, err := NewFileSource(path).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileSource(filepath.Join(dir, "nope.jsonl")).Load(context.Background())
		assert.Error(t, err)
	})
}

type fakeS3 struct {
	body  string
	err   error
	input *s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestS3Source(t *testing.T) {
	client := &fakeS3{body: "line\n"}
	got, err := NewS3Source(client, "tara-data", "foods/taco.jsonl").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(got))
	assert.Equal(t, "tara-data", aws.ToString(client.input.Bucket))
	assert.Equal(t, "foods/taco.jsonl", aws.ToString(client.input.Key))

	_, err = NewS3Source(&fakeS3{err: errors.New("NoSuchKey")}, "b", "k").Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://b/k")
}

func TestStaticSource(t *testing.T) {
	got, err := NewStaticSource([]byte("x")).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))

	_, err = NewStaticSourceWithError().Load(context.Background())
	assert.Error(t, err)
}
