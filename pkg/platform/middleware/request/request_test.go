package request

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/pkg/requestcontext"
)

func serve(t *testing.T, inbound string) (seen string, rr *httptest.ResponseRecorder) {
	t.Helper()
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(HeaderRequestID, inbound)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return seen, rr
}

func TestRequestIDPropagatesInbound(t *testing.T) {
	seen, rr := serve(t, "abc-123")
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get(HeaderRequestID))
}

func TestRequestIDReplacesInvalid(t *testing.T) {
	seen, rr := serve(t, "bad id with spaces\n")
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get(HeaderRequestID))
}
