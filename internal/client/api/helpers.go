package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/cmsclient/internal/client/apierror"
)

const mePath = "/v1/me"

func (d *Dispatcher) Get(ctx context.Context, path string) (*http.Response, error) {
	return d.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// Post sends body: nil for none, *FormData as multipart, a Body as is and
// anything else as JSON. Put and Patch follow the same rule.
func (d *Dispatcher) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return d.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: bodyOf(body)})
}

func (d *Dispatcher) Put(ctx context.Context, path string, body any) (*http.Response, error) {
	return d.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: bodyOf(body)})
}

func (d *Dispatcher) Patch(ctx context.Context, path string, body any) (*http.Response, error) {
	return d.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: bodyOf(body)})
}

func (d *Dispatcher) Delete(ctx context.Context, path string) (*http.Response, error) {
	return d.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Call sends r and decodes a successful JSON response into out (which may
// be nil).
func (d *Dispatcher) Call(ctx context.Context, r Request, out any) error {
	resp, err := d.Do(ctx, r)
	if err != nil {
		return err
	}
	return d.DecodeJSON(resp, out)
}

// DecodeJSON closes resp.Body. A non-2xx response becomes *apierror.Error;
// 401 and 403 are also ErrUnauthorized. An empty 2xx body leaves v as is.
func (d *Dispatcher) DecodeJSON(resp *http.Response, v any) error {
	if !ok(resp) {
		apiErr := &apierror.Error{NormalizedError: d.normalizer.Normalize(resp)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if v == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Me loads the current user into v. It reports false, without error, when
// the server answers with a non-2xx status.
func (d *Dispatcher) Me(ctx context.Context, v any) (bool, error) {
	resp, err := d.Get(ctx, mePath)
	if err != nil {
		return false, err
	}
	if !ok(resp) {
		drain(resp)
		return false, nil
	}
	if err := d.DecodeJSON(resp, v); err != nil {
		return false, err
	}
	return true, nil
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
