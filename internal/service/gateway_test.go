package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGatewayUpgradeStorage(t *testing.T) {
	var got upgradeBody

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "gw" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		assert.Equal(t, "/gateway/upgrade", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL+"/", "gw", "secret")
	require.NoError(t, g.UpgradeStorage(context.Background(), "abc-team@drive.test", 4<<30))

	assert.Equal(t, "abc-team@drive.test", got.Email)
	assert.Equal(t, int64(4<<30), got.Bytes)

	bad := NewHTTPGateway(srv.URL, "gw", "wrong")
	err := bad.UpgradeStorage(context.Background(), "abc-team@drive.test", 1)
	assert.ErrorIs(t, err, apperr.ErrGatewayFailed)

	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindUpstream, kind)
}
