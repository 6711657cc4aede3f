package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

// parseTransactionType reads ?type=, defaulting to EXPENSE.
func parseTransactionType(r *http.Request) (core.TransactionType, error) {
	v := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("type")))
	if v == "" {
		return core.Expense, nil
	}
	t := core.TransactionType(v)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown type %q", v)
	}
	return t, nil
}

// parseTopN reads ?n=; zero means the aggregator default.
func parseTopN(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("n"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("n must be between 0 and 100")
	}
	return n, nil
}

// sanitizeInput trims and drops control characters except tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
