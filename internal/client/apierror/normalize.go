package apierror

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxBodySize caps how much of an error body is read.
	MaxBodySize = 1 << 20

	fallbackLabel   = "Campo"
	fallbackMessage = "Dato inválido"
)

var (
	upperRe = regexp.MustCompile(`([A-Z])`)
	urlRe   = regexp.MustCompile(`(?i)\burl\b`)
)

type FieldError struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// NormalizedError is the uniform view of a failed response. FieldErrors keep
// the server's order and are never nil.
type NormalizedError struct {
	Status      int          `json:"status"`
	Summary     string       `json:"text"`
	FieldErrors []FieldError `json:"fieldErrors"`
}

// Field returns the first error reported for key.
func (e NormalizedError) Field(key string) (FieldError, bool) {
	for _, fe := range e.FieldErrors {
		if fe.Field == key {
			return fe, true
		}
	}
	return FieldError{}, false
}

// ByField indexes field errors by field key; the first error per key wins and
// errors without a field are left out.
func (e NormalizedError) ByField() map[string]FieldError {
	out := make(map[string]FieldError, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		if fe.Field == "" {
			continue
		}
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe
		}
	}
	return out
}

type Normalizer struct {
	labels map[string]string
}

// NewNormalizer returns a normalizer using the built-in labels with
// overrides applied on top.
func NewNormalizer(overrides map[string]string) *Normalizer {
	labels := DefaultLabels()
	maps.Copy(labels, overrides)
	return &Normalizer{labels: labels}
}

var std = NewNormalizer(nil)

// Normalize reads (at most MaxBodySize bytes of) resp.Body and closes it.
func (n *Normalizer) Normalize(resp *http.Response) NormalizedError {
	if resp == nil {
		return n.NormalizeBody(0, nil)
	}
	var body []byte
	if resp.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
		_ = resp.Body.Close()
	}
	return n.NormalizeBody(resp.StatusCode, body)
}

func (n *Normalizer) NormalizeBody(status int, body []byte) NormalizedError {
	out := NormalizedError{
		Status:      status,
		Summary:     statusSummary(status),
		FieldErrors: []FieldError{},
	}

	switch s := Classify(body).(type) {
	case Unparseable:
	case PlainMessage:
		out.Summary = s.Message
	case Opaque:
		if s.Raw != "" {
			out.Summary = s.Raw
		}
	case EnvelopedError:
		if s.Message != "" {
			out.Summary = s.Message
		}
		for _, d := range s.Details {
			msg := d.Message
			if msg == "" {
				msg = s.Message
			}
			if msg == "" {
				msg = fallbackMessage
			}
			out.FieldErrors = append(out.FieldErrors, FieldError{
				Field:   d.Field,
				Label:   n.Humanize(d.Field),
				Message: msg,
			})
		}
		if len(out.FieldErrors) > 0 {
			first := out.FieldErrors[0]
			out.Summary = first.Message + ": " + first.Label
		}
	}
	return out
}

// Humanize maps a machine field name to a display label.
func (n *Normalizer) Humanize(field string) string {
	if field == "" {
		return fallbackLabel
	}
	last := field[strings.LastIndex(field, ".")+1:]
	if label, ok := n.labels[last]; ok && label != "" {
		return label
	}

	pretty := upperRe.ReplaceAllString(last, " $1")
	pretty = strings.TrimSpace(strings.ReplaceAll(pretty, "_", " "))
	pretty = urlRe.ReplaceAllString(pretty, "URL")
	if pretty == "" {
		return fallbackLabel
	}
	r, size := utf8.DecodeRuneInString(pretty)
	return string(unicode.ToUpper(r)) + pretty[size:]
}

// Humanize uses the built-in label table.
func Humanize(field string) string { return std.Humanize(field) }

// Normalize uses the built-in label table.
func Normalize(resp *http.Response) NormalizedError { return std.Normalize(resp) }

func statusSummary(status int) string {
	return fmt.Sprintf("Error %d", status)
}
