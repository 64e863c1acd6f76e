package validators

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const maxQuantityBody = 1 << 12

// ParseQuantity reads the requested quantity from a JSON body, then the
// "quantity" form field. ok is false when neither yields an integer and the
// caller keeps the current quantity.
func ParseQuantity(r *http.Request) (int, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxQuantityBody))
	if err != nil {
		return 0, false
	}
	if q, ok := quantityFromJSON(body); ok {
		return q, true
	}
	return atoi(formQuantity(r, body))
}

func quantityFromJSON(body []byte) (int, bool) {
	var payload struct {
		Quantity json.RawMessage `json:"quantity"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil || len(payload.Quantity) == 0 {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(payload.Quantity, &n); err == nil {
		return atoi(n.String())
	}
	var s string
	if err := json.Unmarshal(payload.Quantity, &s); err == nil {
		return atoi(s)
	}
	return 0, false
}

func formQuantity(r *http.Request, body []byte) string {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		clone := r.Clone(r.Context())
		clone.Body = io.NopCloser(bytes.NewReader(body))
		if err := clone.ParseMultipartForm(maxQuantityBody); err != nil {
			return ""
		}
		return clone.FormValue("quantity")
	case "application/json":
		return ""
	default:
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return ""
		}
		return values.Get("quantity")
	}
}

func atoi(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	q, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return q, true
}

// WantsJSON reports whether the client asked for a JSON reply rather than a
// redirect.
func WantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}
