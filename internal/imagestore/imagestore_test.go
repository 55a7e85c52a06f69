package imagestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 keeps objects in a map and can fail the first N puts.
type fakeS3 struct {
	objects  map[string][]byte
	types    map[string]string
	failPuts int
	puts     int
	deleted  []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts++
	if f.puts <= f.failPuts {
		return nil, errors.New("transient storage error")
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Key] = data
	f.types[*input.Key] = aws.ToString(input.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*input.Key]
	if !ok {
		return nil, errors.New("no such key")
	}
	contentType := f.types[*input.Key]
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String(contentType),
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *input.Key)
	f.deleted = append(f.deleted, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func testStore(client s3Client) *Store {
	return &Store{
		cfg:    Config{Bucket: "alcove-images"},
		client: client,
	}
}

func TestUploadAndGet(t *testing.T) {
	fake := newFakeS3()
	s := testStore(fake)

	key, err := s.Upload(context.Background(), "board.JPG", "image/jpeg", []byte("img-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(key, "products/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("key = %q, want products/<uuid>.jpg", key)
	}

	data, contentType, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "img-bytes" {
		t.Errorf("data = %q", data)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q", contentType)
	}
}

func TestUploadRetriesTransientFailures(t *testing.T) {
	fake := newFakeS3()
	fake.failPuts = 2
	s := testStore(fake)

	key, err := s.Upload(context.Background(), "board.png", "image/png", []byte("img"))
	if err != nil {
		t.Fatalf("upload should survive two transient failures: %v", err)
	}
	if _, ok := fake.objects[key]; !ok {
		t.Error("object missing after retried upload")
	}
	if fake.puts != 3 {
		t.Errorf("put attempts = %d, want 3", fake.puts)
	}
}

func TestUploadGivesUpEventually(t *testing.T) {
	fake := newFakeS3()
	fake.failPuts = 10
	s := testStore(fake)

	if _, err := s.Upload(context.Background(), "board.png", "image/png", []byte("img")); err == nil {
		t.Error("expected error when storage keeps failing")
	}
}

func TestDelete(t *testing.T) {
	fake := newFakeS3()
	s := testStore(fake)

	key, _ := s.Upload(context.Background(), "board.png", "image/png", []byte("img"))
	if err := s.Delete(context.Background(), key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := s.Get(context.Background(), key); err == nil {
		t.Error("deleted object should be gone")
	}
}

func TestURL(t *testing.T) {
	s := &Store{cfg: Config{Bucket: "b", PublicURL: "https://cdn.alcove.shop/"}}
	if got := s.URL("products/abc.jpg"); got != "https://cdn.alcove.shop/products/abc.jpg" {
		t.Errorf("url = %q", got)
	}

	s = &Store{cfg: Config{Bucket: "b"}}
	if got := s.URL("products/abc.jpg"); got != "" {
		t.Errorf("url without public base = %q, want empty", got)
	}
}

func TestNewUnconfigured(t *testing.T) {
	if New(Config{}) != nil {
		t.Error("unconfigured storage should return nil")
	}
	if New(Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}) == nil {
		t.Error("configured storage should not be nil")
	}
}
