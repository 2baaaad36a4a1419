package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"

	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/pkg/ratelimiter"
)

// maxKeyBodySize bounds how much of a body KeyByIPAndEmail inspects.
const maxKeyBodySize = 64 << 10

// KeyByIPAndEmail keys requests by client IP and the email found in the given
// JSON or form field. A missing field counts as "anonymous". The body is
// restored for downstream handlers.
//
// JSON is read with encoding/json into a struct tagged with field, so the
// key sees the same value a handler decoding into `json:"<field>"` does:
// field names match case-insensitively, the last duplicate wins and
// trailing data after the first value is ignored. Form bodies are only
// consulted when the JSON decode yields no email.
func KeyByIPAndEmail(field string) KeyExtractor {
	target := reflect.StructOf([]reflect.StructField{{
		Name: "Value",
		Type: reflect.TypeFor[string](),
		Tag:  reflect.StructTag(fmt.Sprintf(`json:%q`, field)),
	}})

	return func(ctx handler.Context) string {
		r := ctx.Request()
		return ratelimiter.IPEmailKey(RequestIP(r), emailFromBody(r, field, target))
	}
}

func emailFromBody(r *http.Request, field string, target reflect.Type) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodySize))
	r.Body = &replayBody{Reader: io.MultiReader(bytes.NewReader(buf), r.Body), Closer: r.Body}
	if err != nil || len(buf) == 0 {
		return ""
	}

	if email := emailFromJSON(buf, target); email != "" {
		return email
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(buf))
		if err != nil {
			return ""
		}
		return values.Get(field)
	}
	return ""
}

func emailFromJSON(buf []byte, target reflect.Type) string {
	v := reflect.New(target)
	// Decode errors are ignored; a value decoded before the error still counts.
	_ = json.NewDecoder(bytes.NewReader(buf)).Decode(v.Interface())
	return v.Elem().Field(0).String()
}

// replayBody serves the already read prefix then the rest of the original body.
type replayBody struct {
	io.Reader
	io.Closer
}
