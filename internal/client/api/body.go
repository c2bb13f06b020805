package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const jsonContentType = "application/json"

// Body is a request payload. Build one with JSON, Raw or Form.
type Body interface {
	encode() (payload []byte, contentType string, err error)
}

type jsonBody struct{ v any }

type rawBody struct{ b []byte }

type formBody struct{ f *FormData }

// JSON encodes v as the request body.
func JSON(v any) Body { return jsonBody{v: v} }

// Raw sends b verbatim. It is treated as JSON unless the request sets its own
// Content-Type.
func Raw(b []byte) Body { return rawBody{b: b} }

// Form sends f as multipart/form-data. The multipart content type always
// wins over any Content-Type set on the request.
func Form(f *FormData) Body { return formBody{f: f} }

func (b jsonBody) encode() ([]byte, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", fmt.Errorf("encode json body: %w", err)
	}
	return data, jsonContentType, nil
}

func (b rawBody) encode() ([]byte, string, error) {
	return b.b, "", nil
}

func (b formBody) encode() ([]byte, string, error) {
	if b.f == nil {
		return NewFormData().Encode()
	}
	return b.f.Encode()
}

func isForm(b Body) bool {
	_, ok := b.(formBody)
	return ok
}

type formPart struct {
	name     string
	value    string
	filename string
	data     []byte
}

// FormData is an ordered multipart payload. Files are held in memory so the
// payload can be sent twice.
type FormData struct {
	parts []formPart
}

func NewFormData() *FormData {
	return &FormData{}
}

// Set appends a plain field.
func (f *FormData) Set(name, value string) *FormData {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// AddFile appends a file part; its content type is sniffed from data.
func (f *FormData) AddFile(name, filename string, data []byte) *FormData {
	f.parts = append(f.parts, formPart{name: name, filename: filename, data: data})
	return f
}

// Len is the number of parts.
func (f *FormData) Len() int { return len(f.parts) }

// Encode renders the payload and its multipart content type.
func (f *FormData) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range f.parts {
		if p.filename == "" {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", fmt.Errorf("write form field %s: %w", p.name, err)
			}
			continue
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(p.name), quoteEscaper.Replace(p.filename)))
		h.Set("Content-Type", http.DetectContentType(p.data))
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", p.name, err)
		}
		if _, err := pw.Write(p.data); err != nil {
			return nil, "", fmt.Errorf("write form file %s: %w", p.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// bodyOf maps a helper argument to a Body: nil means no body, *FormData a
// form, Body is used as is and anything else is JSON.
func bodyOf(v any) Body {
	switch b := v.(type) {
	case nil:
		return nil
	case *FormData:
		if b == nil {
			return nil
		}
		return Form(b)
	case Body:
		return b
	default:
		return JSON(v)
	}
}
