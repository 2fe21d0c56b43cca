//go:build integration

package postgres

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/tag-search/internal/config"
	"github.com/kozaktomas/tag-search/internal/minhash"
	"github.com/kozaktomas/tag-search/internal/store"
)

func setupTestContainer(t *testing.T) (*Store, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	// Open runs migrations as part of startup.
	s, err := Open(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to open store: %v", err)
	}

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
}

func TestStore(t *testing.T) {
	s, cleanup := setupTestContainer(t)
	if s == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	t.Run("AddAndReadTags", func(t *testing.T) {
		if err := s.AddImage(ctx, "lib/cat.png", []string{"Cat", "black"}); err != nil {
			t.Fatalf("AddImage: %v", err)
		}

		tags, err := s.TagsForImage(ctx, "lib/cat.png")
		if err != nil {
			t.Fatalf("TagsForImage: %v", err)
		}
		expected := store.TagSet{"cat": {}, "black": {}}
		if !reflect.DeepEqual(tags, expected) {
			t.Errorf("expected %v, got %v", expected, tags)
		}
	})

	t.Run("ScopedLookups", func(t *testing.T) {
		s.AddImage(ctx, "a/1.png", []string{"cat"})
		s.AddImage(ctx, "b/2.png", []string{"cat"})

		got, err := s.ImagesWithTag(ctx, "cat", store.Scope{"a"})
		if err != nil {
			t.Fatalf("ImagesWithTag: %v", err)
		}
		if !reflect.DeepEqual(got, store.ImageSet{"a/1.png": {}}) {
			t.Errorf("expected only a/1.png, got %v", got)
		}

		empty, err := s.AllImages(ctx, nil)
		if err != nil {
			t.Fatalf("AllImages: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected empty scope to match nothing, got %v", empty)
		}
	})

	t.Run("SignatureRoundTrip", func(t *testing.T) {
		s.AddImage(ctx, "sig/1.png", []string{"cat"})
		sig := minhash.NewGenerator(minhash.NumPermutations).Signature(map[string]struct{}{"cat": {}})

		if err := s.PutSignature(ctx, "sig/1.png", sig); err != nil {
			t.Fatalf("PutSignature: %v", err)
		}
		got, err := s.GetSignature(ctx, "sig/1.png")
		if err != nil {
			t.Fatalf("GetSignature: %v", err)
		}
		if !reflect.DeepEqual(got, sig) {
			t.Error("signature did not survive the database round trip")
		}
	})

	t.Run("ReimportReplacesTagsAndClearsSignature", func(t *testing.T) {
		s.AddImage(ctx, "re/1.png", []string{"cat"})
		sig := minhash.NewGenerator(minhash.NumPermutations).Signature(map[string]struct{}{"cat": {}})
		s.PutSignature(ctx, "re/1.png", sig)

		if err := s.AddImage(ctx, "re/1.png", []string{"dog"}); err != nil {
			t.Fatalf("AddImage (retag): %v", err)
		}

		tags, err := s.TagsForImage(ctx, "re/1.png")
		if err != nil {
			t.Fatalf("TagsForImage: %v", err)
		}
		if !reflect.DeepEqual(tags, store.TagSet{"dog": {}}) {
			t.Errorf("expected replaced tags, got %v", tags)
		}

		got, err := s.GetSignature(ctx, "re/1.png")
		if err != nil {
			t.Fatalf("GetSignature: %v", err)
		}
		if !got.Empty() {
			t.Error("expected signature cleared on re-import")
		}
	})

	t.Run("RemoveImage", func(t *testing.T) {
		s.AddImage(ctx, "rm/1.png", []string{"cat"})
		if err := s.RemoveImage(ctx, "rm/1.png"); err != nil {
			t.Fatalf("RemoveImage: %v", err)
		}

		got, err := s.AllImages(ctx, store.Scope{"rm"})
		if err != nil {
			t.Fatalf("AllImages: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected image removed, got %v", got)
		}
	})
}
