package apierror

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Shape is one recognised error payload layout.
type Shape interface {
	isShape()
}

// Unparseable is a body that is not valid JSON.
type Unparseable struct{}

// EnvelopedError is {error:{message, details}} or a top-level object that
// carries message/details directly.
type EnvelopedError struct {
	Message string
	Details []Detail
}

// PlainMessage is {message} without details.
type PlainMessage struct {
	Message string
}

// Opaque is any other JSON value, kept in compact form.
type Opaque struct {
	Raw string
}

func (Unparseable) isShape()    {}
func (EnvelopedError) isShape() {}
func (PlainMessage) isShape()   {}
func (Opaque) isShape()         {}

// Detail is one entry of a details array.
type Detail struct {
	Field   string
	Message string
}

// Classify decides the shape of body. It is total: every input maps to
// exactly one shape.
func Classify(body []byte) Shape {
	if len(strings.TrimSpace(string(body))) == 0 || !gjson.ValidBytes(body) {
		return Unparseable{}
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		if blank(root) {
			return Unparseable{}
		}
		return Opaque{Raw: compact(body)}
	}

	errv := root.Get("error")
	switch {
	case errv.IsObject():
		return EnvelopedError{
			Message: stringOf(errv.Get("message")),
			Details: details(errv.Get("details")),
		}
	case errv.Type == gjson.String && errv.Str != "":
		if msg := stringOf(root.Get("message")); msg != "" {
			return PlainMessage{Message: msg}
		}
		return PlainMessage{Message: errv.Str}
	}

	msg := root.Get("message")
	det := root.Get("details")
	if ds := details(det); len(ds) > 0 {
		return EnvelopedError{Message: stringOf(msg), Details: ds}
	}
	if m := stringOf(msg); m != "" {
		return PlainMessage{Message: m}
	}
	if errv.Exists() || msg.Exists() || det.Exists() {
		return EnvelopedError{}
	}
	return Opaque{Raw: compact(body)}
}

func details(v gjson.Result) []Detail {
	if !v.IsArray() {
		return nil
	}
	var out []Detail
	v.ForEach(func(_, d gjson.Result) bool {
		if d.Type == gjson.String {
			out = append(out, Detail{Message: d.Str})
			return true
		}
		field := stringOf(d.Get("field"))
		if field == "" {
			field = lastPathElement(d.Get("path"))
		}
		out = append(out, Detail{Field: field, Message: stringOf(d.Get("message"))})
		return true
	})
	return out
}

// lastPathElement accepts ["a", 0, "b"] as well as "a.b". Trailing array
// indexes are skipped so ["blocks", 3] names "blocks".
func lastPathElement(p gjson.Result) string {
	switch {
	case p.IsArray():
		items := p.Array()
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].Type == gjson.String && items[i].Str != "" {
				return items[i].Str
			}
		}
		return ""
	case p.Type == gjson.String:
		if i := strings.LastIndex(p.Str, "."); i >= 0 {
			return p.Str[i+1:]
		}
		return p.Str
	}
	return ""
}

// blank is true for null, "" and [], which carry nothing worth showing.
func blank(v gjson.Result) bool {
	switch {
	case v.Type == gjson.Null:
		return true
	case v.Type == gjson.String:
		return strings.TrimSpace(v.Str) == ""
	case v.IsArray():
		return len(v.Array()) == 0
	}
	return false
}

func stringOf(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func compact(body []byte) string {
	return gjson.GetBytes(body, "@ugly").Raw
}
