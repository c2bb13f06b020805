package media

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/cmsclient/internal/client/api"
)

const signPath = "/v1/media/sign"

type SignRequest struct {
	ResourceType      string `json:"resourceType,omitempty"`
	Folder            string `json:"folder,omitempty"`
	PublicID          string `json:"publicId,omitempty"`
	Eager             string `json:"eager,omitempty"`
	IncomingTransform string `json:"incomingTransform,omitempty"`
}

// Signature is the backend's signed upload grant.
type Signature struct {
	CloudName      string `json:"cloudName"`
	APIKey         string `json:"apiKey"`
	Signature      string `json:"signature"`
	Timestamp      string `json:"timestamp"`
	Folder         string `json:"folder,omitempty"`
	PublicID       string `json:"publicId,omitempty"`
	Transformation string `json:"transformation,omitempty"`
	Eager          string `json:"eager,omitempty"`
	ResourceType   string `json:"resourceType,omitempty"`
}

type Signer interface {
	Sign(ctx context.Context, req SignRequest) (Signature, error)
}

// APISigner asks the CMS backend for a signature.
type APISigner struct {
	d *api.Dispatcher
}

func NewAPISigner(d *api.Dispatcher) *APISigner {
	return &APISigner{d: d}
}

func (s *APISigner) Sign(ctx context.Context, req SignRequest) (Signature, error) {
	var sig Signature
	err := s.d.Call(ctx, api.Request{Method: http.MethodPost, Path: signPath, Body: api.JSON(req)}, &sig)
	if err != nil {
		return Signature{}, fmt.Errorf("sign upload: %w", err)
	}
	if sig.CloudName == "" || sig.Signature == "" {
		return Signature{}, fmt.Errorf("sign upload: incomplete signature")
	}
	return sig, nil
}
