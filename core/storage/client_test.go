package storage_test

import (
	"context"
	"errors"
	"testing"

	"planner/core/storage"
	"planner/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewClient(t *testing.T) {
	for name, cfg := range map[string]storage.Config{
		"Plain":     {Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "planner"},
		"HTTP":      {Endpoint: "http://localhost:9000", AccessKey: "k", SecretKey: "s"},
		"HTTPS":     {Endpoint: "https://s3.amazonaws.com", AccessKey: "k", SecretKey: "s", UseSSL: true, Region: "us-east-1"},
		"NoTimeout": {Endpoint: "localhost:9000", TimeoutSeconds: -1},
	} {
		t.Run(name, func(t *testing.T) {
			client, err := storage.NewClient(cfg)
			assert.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "planner").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(ctx, client, "planner", ""))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Creates", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "planner").Return(false, nil)
		client.On("MakeBucket", ctx, "planner", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

		assert.NoError(t, storage.EnsureBucket(ctx, client, "planner", "eu-west-1"))
		client.AssertExpectations(t)
	})

	t.Run("CheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "planner").Return(false, errors.New("denied"))

		assert.Error(t, storage.EnsureBucket(ctx, client, "planner", ""))
	})
}
