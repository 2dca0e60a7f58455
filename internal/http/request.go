package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"haushaltskasse/internal/ledger"
	"haushaltskasse/internal/middleware/trace"

	"github.com/shopspring/decimal"
)

const (
	maxBodyBytes   = 64 << 10
	maxImportBytes = 10 << 20

	// maxAmountExponent bounds numbers like 1e3 before they are expanded.
	maxAmountExponent = 12
)

// amount accepts a JSON number or a numeric string. Numbers are expanded to
// plain decimal notation, so 1e3 reads as "1000".
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amount(strings.TrimSpace(s))
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("amount must be a number: %s", b)
	}
	if d.Exponent() > maxAmountExponent {
		return fmt.Errorf("amount out of range: %s", b)
	}
	*a = amount(d.String())
	return nil
}

// decodeJSON reads a single JSON object from the body into dst. Decoding
// failures are reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body too large", ledger.ErrValidation)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", ledger.ErrValidation)
		}
		return fmt.Errorf("%w: malformed JSON: %v", ledger.ErrValidation, err)
	}
	return nil
}

// sanitizeInput trims s and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

func requestID(r *http.Request) string {
	return trace.RequestIDFromRequest(r)
}
