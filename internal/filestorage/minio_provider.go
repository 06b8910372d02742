package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	consts "github.com/listora/listora/internal/config"
)

func NewMinIOStorage(bucket, endpoint, accessKeyID, secretAccessKey string) *MinIOStorage {
	m, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: true,
	})
	if err != nil {
		panic(err)
	}
	return &MinIOStorage{
		client: m,
		bucket: bucket,
	}
}

type MinIOStorage struct {
	client *minio.Client
	bucket string
}

func (f *MinIOStorage) UploadFile(ctx context.Context, path string, content []byte) error {
	_, err := f.client.PutObject(ctx, f.bucket, path,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: http.DetectContentType(content)},
	)
	return err
}

func (f *MinIOStorage) GetFile(ctx context.Context, path string) ([]byte, error) {
	obj, err := f.client.GetObject(ctx, f.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (f *MinIOStorage) GetPublicURL(_ context.Context) (string, error) {
	return fmt.Sprintf("%s/%s", f.client.EndpointURL(), f.bucket), nil
}

func (f *MinIOStorage) GetPresignedURL(ctx context.Context, path string) (string, error) {
	u, err := f.client.PresignedGetObject(ctx, f.bucket, path, time.Minute*consts.PRESIGN_URL_EXPIRE_MINUTES, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (f *MinIOStorage) DeleteFile(ctx context.Context, path string) error {
	return f.client.RemoveObject(ctx, f.bucket, path, minio.RemoveObjectOptions{})
}
