package request

import (
	"mime"
	"net/http"
	"time"

	"smartparking/pkg/platform/httputil"
)

// Timeout answers 503 with a JSON body once d elapses, the status WriteError
// uses for CodeTimeout. http.TimeoutHandler writes its body through w
// directly, so the JSON Content-Type is set on w up front; on the normal path
// the handler's own headers replace it.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, d, `{"error":"timeout","code":"timeout"}`)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			th.ServeHTTP(w, r)
		})
	}
}

// BodyLimit wraps the body in http.MaxBytesReader. The overflow surfaces as
// a read error in whatever decodes the body.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON answers 415 when a write request declares anything other
// than application/json. A missing Content-Type passes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasBody(r.Method) && !declaresJSON(r.Header.Get("Content-Type")) {
			httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{
				Error:            "invalid_content_type",
				ErrorDescription: "Content-Type must be application/json",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func declaresJSON(ct string) bool {
	if ct == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == "application/json"
}
