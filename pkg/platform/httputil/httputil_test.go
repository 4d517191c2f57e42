package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "credchain/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "document is required"), http.StatusBadRequest, "validation_error"},
		{"unauthenticated", dErrors.New(dErrors.CodeUnauthorized, "missing token"), http.StatusUnauthorized, "unauthorized"},
		{"invalid credentials", dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password"), http.StatusUnauthorized, "invalid_credentials"},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "role not allowed"), http.StatusForbidden, "forbidden"},
		{"expired", dErrors.New(dErrors.CodeExpired, "verification token expired"), http.StatusGone, "expired"},
		{"chain rejected", dErrors.New(dErrors.CodeChainRejected, "duplicate certificate id"), http.StatusUnprocessableEntity, "chain_rejected"},
		{"chain unavailable", dErrors.New(dErrors.CodeChainUnavailable, "ledger unreachable"), http.StatusServiceUnavailable, "chain_unavailable"},
		{"uncoded", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body["error"] != tt.code {
				t.Fatalf("expected error code %s, got %q", tt.code, body["error"])
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Token string `json:"token"`
	}

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"abc"}`))
		var p payload
		if err := DecodeJSON(r, &p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Token != "abc" {
			t.Fatalf("expected token abc, got %q", p.Token)
		}
	})

	for name, body := range map[string]string{
		"malformed":     `{"token":`,
		"unknown field": `{"token":"abc","extra":1}`,
		"trailing data": `{"token":"abc"} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			var p payload
			err := DecodeJSON(r, &p)
			if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
				t.Fatalf("expected bad_request, got %v", err)
			}
		})
	}
}
