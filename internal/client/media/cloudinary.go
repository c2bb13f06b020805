package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cmsclient/internal/client/api"
)

const DefaultCloudinaryURL = "https://api.cloudinary.com/v1_1"

var ErrUploadFailed = errors.New("Error subiendo a Cloudinary")

// Result describes a stored asset.
type Result struct {
	URL      string `json:"secure_url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format,omitempty"`
	Bytes    int64  `json:"bytes,omitempty"`
}

type Uploader interface {
	Upload(ctx context.Context, f File) (Result, error)
}

// CloudinaryUploader signs each upload through Signer and posts the file
// straight to Cloudinary. No CMS credential is sent there.
type CloudinaryUploader struct {
	signer  Signer
	client  *http.Client
	baseURL string
	request SignRequest
}

// NewCloudinaryUploader uses req as the sign request for every upload.
// An empty baseURL means DefaultCloudinaryURL.
func NewCloudinaryUploader(signer Signer, client *http.Client, baseURL string, req SignRequest) *CloudinaryUploader {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultCloudinaryURL
	}
	return &CloudinaryUploader{
		signer:  signer,
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		request: req,
	}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, f File) (Result, error) {
	sig, err := u.signer.Sign(ctx, u.request)
	if err != nil {
		return Result{}, err
	}

	resourceType := sig.ResourceType
	if resourceType == "" {
		resourceType = "image"
	}
	endpoint := fmt.Sprintf("%s/%s/%s/upload", u.baseURL, sig.CloudName, resourceType)

	form := api.NewFormData().
		AddFile("file", f.Name, f.Data).
		Set("api_key", sig.APIKey).
		Set("timestamp", sig.Timestamp).
		Set("signature", sig.Signature)
	if sig.Folder != "" {
		form.Set("folder", sig.Folder)
	}
	if sig.PublicID != "" {
		form.Set("public_id", sig.PublicID)
	}
	if sig.Transformation != "" {
		form.Set("transformation", sig.Transformation)
	}
	if sig.Eager != "" {
		form.Set("eager", sig.Eager)
	}

	payload, contentType, err := form.Encode()
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Result{}, fmt.Errorf("%w (%d)", ErrUploadFailed, resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode upload response: %w", err)
	}
	return res, nil
}
