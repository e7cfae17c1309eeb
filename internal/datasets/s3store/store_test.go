package s3store

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

	"github.com/eval-hub/eval-cloud/internal/logging"
)

type fakePutObject struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakePutObject) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	body, _ := io.ReadAll(params.Body)
	f.bodies = append(f.bodies, string(body))
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	if err := os.WriteFile(path, []byte(`{"query":"q"}`+"\n"), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	fake := &fakePutObject{}
	store := NewStoreWithClient(fake, "datasets", "/runs/", logging.Discard())

	dataset, err := store.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 put, got %d", len(fake.inputs))
	}
	key := aws.ToString(fake.inputs[0].Key)
	if !strings.HasPrefix(key, "runs/data-") || !strings.HasSuffix(key, ".jsonl") {
		t.Errorf("unexpected key %s", key)
	}
	if aws.ToString(fake.inputs[0].Bucket) != "datasets" {
		t.Errorf("unexpected bucket %s", aws.ToString(fake.inputs[0].Bucket))
	}
	if fake.bodies[0] != `{"query":"q"}`+"\n" {
		t.Errorf("unexpected body %q", fake.bodies[0])
	}
	if dataset.ID != "s3://datasets/"+key {
		t.Errorf("unexpected dataset id %s", dataset.ID)
	}
}

func TestUploadFileErrors(t *testing.T) {
	fake := &fakePutObject{err: errors.New("access denied")}
	store := NewStoreWithClient(fake, "datasets", "", logging.Discard())

	if _, err := store.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	if len(fake.inputs) != 0 {
		t.Errorf("expected no put for a missing file")
	}

	path := filepath.Join(t.TempDir(), "data.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	if _, err := store.UploadFile(context.Background(), path); err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected the put error, got %v", err)
	}
}

func TestNewStoreRequiresBucket(t *testing.T) {
	if _, err := NewStore(context.Background(), nil, logging.Discard()); err == nil {
		t.Fatalf("expected an error without configuration")
	}
}
