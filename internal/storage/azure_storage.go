package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type azureStorage struct {
	client    *azblob.Client
	container string
}

// NewAzureStorage stores photos as blobs named "<area>/<filename>" inside
// a single container.
func NewAzureStorage(accountName, accountKey, container string) (ImageStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		&azblob.ClientOptions{
			ClientOptions: azcore.ClientOptions{
				Retry: policy.RetryOptions{MaxRetries: 3},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return newAzureStorageWithClient(client, container), nil
}

func newAzureStorageWithClient(client *azblob.Client, container string) *azureStorage {
	return &azureStorage{client: client, container: container}
}

func (s *azureStorage) Backend() string {
	return "azure"
}

// EnsureContainer creates the container when it does not exist yet.
func (s *azureStorage) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", s.container, err)
	}
	return nil
}

func (s *azureStorage) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}

	cr := &countingReader{r: r}
	if _, err := s.client.UploadStream(ctx, s.container, blobName(AreaUploads, name), cr, nil); err != nil {
		return cr.n, fmt.Errorf("upload failed: %w", err)
	}
	return cr.n, nil
}

func (s *azureStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	for _, area := range lookupOrder {
		// Download blob to stream
		resp, err := s.client.DownloadStream(ctx, s.container, blobName(area, name), nil)
		if err == nil {
			return resp.Body, nil
		}
		if !bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("download failed: %w", err)
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrObjectNotFound)
}

func blobName(area Area, name string) string {
	return path.Join(string(area), name)
}
