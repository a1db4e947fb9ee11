package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/jobsheet/pkg/logger"
)

func TestLocalStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	log := logger.NewMockLogger()
	store := NewLocalStoreWithLogger(dir, log)

	location, err := store.Save(context.Background(), "JobSheet_4821_2024-03-05.pdf", []byte("%PDF-1.3"), ContentTypePDF)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "JobSheet_4821_2024-03-05.pdf"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	_, err = os.Stat(location + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
	assert.True(t, log.HasMessage("INFO", "Saved job sheet"))
}

func TestLocalStoreSanitizesName(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStoreWithLogger(dir, logger.NewMockLogger())

	location, err := store.Save(context.Background(), "../../etc/passwd", []byte("x"), "")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(location))
}

func TestLocalStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewLocalStoreWithLogger(t.TempDir(), logger.NewMockLogger())
	_, err := store.Save(ctx, "a.pdf", []byte("x"), ContentTypePDF)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalStoreRemovesPartialWrite(t *testing.T) {
	orig := writeFile
	t.Cleanup(func() { writeFile = orig })
	writeFile = func(path string, data []byte) error {
		require.NoError(t, os.WriteFile(path, data[:2], 0600))
		return errors.New("disk full")
	}

	dir := t.TempDir()
	store := NewLocalStoreWithLogger(dir, logger.NewMockLogger())

	_, err := store.Save(context.Background(), "a.pdf", []byte("%PDF-1.3"), ContentTypePDF)
	require.ErrorContains(t, err, "disk full")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "neither the file nor its temp copy may remain")
}

type fakeS3 struct {
	err   error
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreSave(t *testing.T) {
	client := &fakeS3{}
	store := NewS3StoreWithClient(client, "facility-reports", "jobsheets/", logger.NewMockLogger())

	location, err := store.Save(context.Background(), "JobSheet_4821_2024-03-05.pdf", []byte("%PDF"), ContentTypePDF)
	require.NoError(t, err)

	assert.Equal(t, "s3://facility-reports/jobsheets/JobSheet_4821_2024-03-05.pdf", location)
	require.NotNil(t, client.input)
	assert.Equal(t, "facility-reports", aws.ToString(client.input.Bucket))
	assert.Equal(t, "jobsheets/JobSheet_4821_2024-03-05.pdf", aws.ToString(client.input.Key))
	assert.Equal(t, ContentTypePDF, aws.ToString(client.input.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, "%PDF", string(client.body))
}

func TestS3StoreKeyWithoutPrefix(t *testing.T) {
	store := NewS3StoreWithClient(&fakeS3{}, "b", "", nil)
	assert.Equal(t, "report.html", store.Key("report.html"))
}

func TestS3StoreError(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}
	store := NewS3StoreWithClient(client, "facility-reports", "", logger.NewMockLogger())

	_, err := store.Save(context.Background(), "a.pdf", []byte("x"), ContentTypePDF)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Contains(t, err.Error(), "facility-reports")
}
