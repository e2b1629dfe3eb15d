package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockroom/internal/adapters/storage"
	"github.com/ammerola/stockroom/internal/core/domain"
	"github.com/ammerola/stockroom/test/helpers"
)

// fakeS3 is an in-memory bucket implementing storage.S3API
type fakeS3 struct {
	mu            sync.Mutex
	objects       map[string][]byte
	contentTypes  map[string]string
	bucketExists  bool
	createdBucket *s3.CreateBucketInput
	putErr        error
}

func newFakeS3(bucketExists bool) *fakeS3 {
	return &fakeS3{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
		bucketExists: bucketExists,
	}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.contentTypes[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart upload not supported")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not supported")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not supported")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	out := &s3.ListObjectsV2Output{}
	for key, data := range f.objects {
		if !strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         int64(len(data)),
			LastModified: &now,
		})
	}
	return out, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if !f.bucketExists {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createdBucket = in
	f.bucketExists = true
	return &s3.CreateBucketOutput{}, nil
}

func newS3(t *testing.T, client *fakeS3, prefix string) *storage.S3PhotoStorage {
	t.Helper()
	s, err := storage.NewS3PhotoStorageWithClient(context.Background(), client, &storage.S3Config{
		Region: "us-east-1",
		Bucket: "photos",
		Prefix: prefix,
	}, helpers.TestLogger())
	require.NoError(t, err)
	return s
}

func TestS3PhotoStorage_CreatesMissingBucket(t *testing.T) {
	t.Run("default_region", func(t *testing.T) {
		client := newFakeS3(false)
		newS3(t, client, "")

		require.NotNil(t, client.createdBucket)
		assert.Equal(t, "photos", aws.ToString(client.createdBucket.Bucket))
		assert.Nil(t, client.createdBucket.CreateBucketConfiguration)
	})

	t.Run("other_region_sets_location", func(t *testing.T) {
		client := newFakeS3(false)
		_, err := storage.NewS3PhotoStorageWithClient(context.Background(), client, &storage.S3Config{
			Region: "eu-west-1",
			Bucket: "photos",
		}, helpers.TestLogger())
		require.NoError(t, err)

		require.NotNil(t, client.createdBucket.CreateBucketConfiguration)
		assert.Equal(t, types.BucketLocationConstraint("eu-west-1"),
			client.createdBucket.CreateBucketConfiguration.LocationConstraint)
	})

	t.Run("existing_bucket", func(t *testing.T) {
		client := newFakeS3(true)
		newS3(t, client, "")
		assert.Nil(t, client.createdBucket)
	})
}

func TestS3PhotoStorage_SaveOpenDelete(t *testing.T) {
	client := newFakeS3(true)
	s := newS3(t, client, "/uploads/")
	ctx := context.Background()

	ref, err := s.Save(ctx, "shot.PNG", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "uploads/"), ref)
	assert.True(t, strings.HasSuffix(ref, ".png"), ref)
	assert.Equal(t, "image/png", client.contentTypes[ref])

	rc, err := s.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(ctx, ref))
	_, err = s.Open(ctx, ref)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestS3PhotoStorage_SaveGuessesContentType(t *testing.T) {
	client := newFakeS3(true)
	s := newS3(t, client, "")

	ref, err := s.Save(context.Background(), "photo.jpg", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", client.contentTypes[ref])
}

func TestS3PhotoStorage_SaveFailureIsStorageWrite(t *testing.T) {
	client := newFakeS3(true)
	client.putErr = errors.New("access denied")
	s := newS3(t, client, "")

	_, err := s.Save(context.Background(), "photo.jpg", "", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorageWrite))
}

func TestS3PhotoStorage_ListHonoursPrefix(t *testing.T) {
	client := newFakeS3(true)
	client.objects["other/keep.jpg"] = []byte("x")
	s := newS3(t, client, "uploads")
	ctx := context.Background()

	ref, err := s.Save(ctx, "a.jpg", "", strings.NewReader("abc"))
	require.NoError(t, err)

	photos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, ref, photos[0].Ref)
	assert.Equal(t, int64(3), photos[0].Size)
}
