package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.ErrShareNotFound, http.StatusNotFound},
		{apperr.ErrLockConflict, http.StatusConflict},
		{apperr.ErrUnauthorizedRemovalAttempt, http.StatusForbidden},
		{apperr.ErrUserHasMissingKeys, http.StatusBadRequest},
		{apperr.MalformedMetadata("size_bytes", "nan"), http.StatusBadRequest},
		{apperr.ErrGatewayFailed.Wrap(errors.New("x")), http.StatusBadGateway},
		{apperr.ErrVaultKeyMissing, http.StatusInternalServerError},
		{apperr.ErrTeamMemberLimitReached, http.StatusPaymentRequired},
		{fmt.Errorf("checkout, %w", apperr.ErrTeamsNotPaid), http.StatusPaymentRequired},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.err), "%v", tt.err)
	}

	joinOverrides := []Override{{apperr.ErrTeamNotFound, http.StatusConflict}}
	assert.Equal(t, http.StatusConflict, Status(apperr.ErrTeamNotFound, joinOverrides...))
	assert.Equal(t, http.StatusNotFound, Status(apperr.ErrTeamInvitationNotFound, joinOverrides...))
}

func TestErrorHidesUpstreamMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err      error
		status   int
		wantMsg  string
		wantCode string
	}{
		{apperr.ErrPaymentsFailed.Wrap(errors.New("sk_live_123 rejected")), http.StatusBadGateway, "Upstream service failed", "payments_failed"},
		{apperr.ErrTeamsNotPaid, http.StatusPaymentRequired, "team is not paid", "teams_not_paid"},
		{apperr.ErrUserNotFound, http.StatusNotFound, "user not found", "user_not_found"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error", ""},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("requestID", "rid")

		Error(c, tt.err)

		assert.Equal(t, tt.status, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tt.wantMsg, body["error"])
		assert.Equal(t, tt.wantCode, body["code"])
		assert.Equal(t, "rid", body["requestID"])
	}
}
