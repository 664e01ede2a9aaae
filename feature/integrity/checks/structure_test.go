package checks

import (
	"context"
	"errors"
	"testing"

	"planner/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestCheckStructure(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "planner").Return(false, nil)

		_, err := CheckStructure(context.Background(), mockClient, "planner")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("All Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "planner").Return(true, nil)
		ch := make(chan minio.ObjectInfo)
		close(ch)
		mockClient.On("ListObjects", mock.Anything, "planner", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

		missing, err := CheckStructure(context.Background(), mockClient, "planner")
		assert.NoError(t, err)
		assert.Equal(t, RequiredFolders, missing)
	})

	t.Run("All Present", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "planner").Return(true, nil)

		for _, folder := range RequiredFolders {
			ch := make(chan minio.ObjectInfo, 1)
			ch <- minio.ObjectInfo{Key: folder + "/u1.ics"}
			close(ch)
			prefix := folder + "/"
			mockClient.On("ListObjects", mock.Anything, "planner", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
				return opts.Prefix == prefix
			})).Return((<-chan minio.ObjectInfo)(ch))
		}

		missing, err := CheckStructure(context.Background(), mockClient, "planner")
		assert.NoError(t, err)
		assert.Empty(t, missing)
	})

	t.Run("List Error Counts As Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "planner").Return(true, nil)
		ch := make(chan minio.ObjectInfo, 1)
		ch <- minio.ObjectInfo{Err: errors.New("denied")}
		close(ch)
		mockClient.On("ListObjects", mock.Anything, "planner", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

		missing, err := CheckStructure(context.Background(), mockClient, "planner")
		assert.NoError(t, err)
		assert.Equal(t, []string{"exports"}, missing)
	})
}

func TestFixStructure(t *testing.T) {
	t.Run("Creates Markers", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("PutObject", mock.Anything, "planner", "exports/", mock.Anything, int64(0), mock.Anything).
			Return(minio.UploadInfo{}, nil)

		err := FixStructure(context.Background(), mockClient, "planner", zap.NewNop(), []string{"exports"})
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Put Fails", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("PutObject", mock.Anything, "planner", "exports/", mock.Anything, int64(0), mock.Anything).
			Return(minio.UploadInfo{}, errors.New("read only"))

		err := FixStructure(context.Background(), mockClient, "planner", zap.NewNop(), []string{"exports"})
		assert.ErrorContains(t, err, "read only")
	})
}
