// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, never *sqlite.DB, so tests run them
// against in-memory fakes. They return apperror kinds and know nothing
// about HTTP.
//
// Update methods take *Input structs whose fields are pointers: a nil
// field means "leave as is", which is what PATCH needs.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/portfolio/internal/apperror"
)

// checkLength records an error unless value has between min and max runes.
// Blank values are reported as missing rather than too short.
func checkLength(v *apperror.Validator, field, value string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n == 0 && min > 0:
		v.Add(field, field+" is required")
	case n < min:
		v.Add(field, fmt.Sprintf("%s must be at least %d characters", field, min))
	case max > 0 && n > max:
		v.Add(field, fmt.Sprintf("%s must be %d characters or less", field, max))
	}
}

// isHTTPURL reports whether s is an absolute http or https URL.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isEmail accepts a bare address ("ann@example.com"), not a display-name
// form ("Ann <ann@example.com>").
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(addr.Address, ".")
}

// cleanList trims every entry, drops blanks and returns a non-nil slice.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// trimmed returns the trimmed value of p, or fallback when p is nil.
func trimmed(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return strings.TrimSpace(*p)
}

// logFailure logs err at Error unless it is an expected outcome (not found,
// validation, conflict) that the client is simply told about.
func logFailure(logger *slog.Logger, msg string, err error, attrs ...any) {
	if errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrConflict) {
		return
	}
	logger.Error(msg, append(attrs, slog.String("error", err.Error()))...)
}

// requireID rejects an empty path id before it reaches the database.
func requireID(resource, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.ValidationFailed("id", resource+" id is required")
	}
	return nil
}
