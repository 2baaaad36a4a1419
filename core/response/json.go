package response

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/handler"
)

// JSON renders v as application/json with 200 OK.
func JSON(v any) handler.Response {
	return JSONWithStatus(v, http.StatusOK)
}

// JSONWithStatus renders v as application/json with the given status.
// A zero status means 200, or 204 when v is nil.
func JSONWithStatus(v any, status int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if status == 0 {
			if v == nil {
				status = http.StatusNoContent
			} else {
				status = http.StatusOK
			}
		}

		w.WriteHeader(status)

		// No body for 204 or 304
		switch status {
		case http.StatusNoContent, http.StatusNotModified:
			return nil
		}

		return json.NewEncoder(w).Encode(v)
	}
}

// NoContent renders an empty 204.
func NoContent() handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}
