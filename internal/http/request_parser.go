package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// decodeJSON reads one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", errBadRequest)
	}
	return id, nil
}

// parseRange reads optional from/to query parameters (YYYY-MM-DD).
func parseRange(q url.Values) (ledger.DateRange, error) {
	var rng ledger.DateRange
	for key, dst := range map[string]*core.Date{"from": &rng.From, "to": &rng.To} {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return ledger.DateRange{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errBadRequest, key)
		}
		*dst = d
	}
	return rng, nil
}

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
