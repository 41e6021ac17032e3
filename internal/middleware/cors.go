package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

const corsMaxAge = 10 * 60

var (
	corsAllowHeaders  = strings.Join([]string{"Content-Type", "Accept-Language", "X-Locale", requestIDHeader}, ", ")
	corsAllowMethods  = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}, ",")
	corsExposeHeaders = strings.Join([]string{requestIDHeader, "Location", "Retry-After", "Content-Language"}, ", ")
)

// CORS lets the allow-listed browser origins drive the API. "*" allows any
// origin; the origin is still echoed so credentials keep working.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allow := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allow[strings.TrimRight(origin, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origin != "" && (allow["*"] || allow[origin])
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
