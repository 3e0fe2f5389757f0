package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/simplifaq/simplifaq/internal/httpx"
)

var likeSanitizer = regexp.MustCompile(`[^a-zA-Z0-9 \-_.]`)

// sanitizeLike strips characters that would act as LIKE metacharacters or
// otherwise pollute the pattern.
func sanitizeLike(q string) string {
	return strings.ToLower(likeSanitizer.ReplaceAllString(strings.TrimSpace(q), ""))
}

// pagination reads limit (1-200, default 50) and page (1-based) parameters.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// queryUint parses a positive integer query parameter or writes a 400.
func queryUint(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_"+name, nil)
		return 0, false
	}
	return uint(n), true
}
