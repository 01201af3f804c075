package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	sealpost "github.com/sealpost/client-go"
)

// BlobStorage stores envelope blobs on the relay. Blob names are chosen
// client-side (random UUIDs) so an upload is a single idempotent PUT; the
// relay garbage-collects blobs after their lifetime.
type BlobStorage struct {
	client *Client
}

var _ sealpost.BlobStorage = (*BlobStorage)(nil)

// NewBlobStorage binds blob storage to a relay client.
func NewBlobStorage(c *Client) *BlobStorage {
	return &BlobStorage{client: c}
}

// CreateContainerIfNotExist asks the relay to provision the blob container.
// Already-exists answers are success.
func (s *BlobStorage) CreateContainerIfNotExist(ctx context.Context) error {
	resp, err := s.client.do(ctx, http.MethodPost, s.client.baseURL+"/blobs", nil, nil)
	if err != nil {
		return &sealpost.StorageError{Op: "create container", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict {
		return &sealpost.StorageError{Op: "create container", Err: parseAPIError(resp)}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Upload stores content under a fresh random name and returns its location.
// The relay holds the blob until expiration, rounded up to a whole minute.
func (s *BlobStorage) Upload(ctx context.Context, content io.Reader, expiration time.Time, contentType, contentEncoding string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", &sealpost.StorageError{Op: "upload", Err: err}
	}

	lifetime := time.Until(expiration)
	if lifetime <= 0 {
		return "", &sealpost.StorageError{Op: "upload", Err: fmt.Errorf("expiration %v is in the past", expiration)}
	}
	// Round up so the relay never collects the blob before its expiration.
	minutes := int((lifetime + time.Minute - 1) / time.Minute)

	target := fmt.Sprintf("%s/blobs/%s?lifetimeInMinutes=%d", s.client.baseURL, uuid.NewString(), minutes)

	headers := map[string]string{}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	if contentEncoding != "" {
		headers["Content-Encoding"] = contentEncoding
	}

	resp, err := s.client.do(ctx, http.MethodPut, target, headers, data)
	if err != nil {
		return "", &sealpost.StorageError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", &sealpost.StorageError{Op: "upload", Err: parseAPIError(resp)}
	}
	io.Copy(io.Discard, resp.Body)

	location := resp.Header.Get("Location")
	if location == "" {
		// Relay accepted the client-chosen name; the blob lives where we put it.
		u, _ := url.Parse(target)
		u.RawQuery = ""
		return u.String(), nil
	}
	return s.resolve(location), nil
}

// resolve makes a possibly relative Location header absolute.
func (s *BlobStorage) resolve(location string) string {
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	if ref.IsAbs() {
		return location
	}
	base, err := url.Parse(s.client.baseURL)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}

// Download fetches a blob by location. Expired or unknown blobs surface as a
// StorageError with NotFound set; the relay never serves stale content past
// a blob's expiration.
func (s *BlobStorage) Download(ctx context.Context, location string) ([]byte, error) {
	resp, err := s.client.do(ctx, http.MethodGet, location, nil, nil)
	if err != nil {
		return nil, &sealpost.StorageError{Op: "download", Location: location, Err: err}
	}
	if resp.StatusCode >= 400 {
		apiErr := parseAPIError(resp)
		return nil, &sealpost.StorageError{
			Op:       "download",
			Location: location,
			NotFound: apiErr.NotFound(),
			Err:      apiErr,
		}
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, &sealpost.StorageError{Op: "download", Location: location, Err: err}
	}
	return body, nil
}
