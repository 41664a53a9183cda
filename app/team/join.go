package team

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/gin-gonic/gin"
)

// A vanished team or invitee means the invitation is stale rather than missing
var joinOverrides = []respond.Override{
	{Err: apperr.ErrTeamNotFound, Status: http.StatusConflict},
	{Err: apperr.ErrUserNotFound, Status: http.StatusConflict},
}

// Join accepts the invitation behind :token. No session is needed, the token
// is the credential.
func Join(c *gin.Context, d *internal.Deps) {
	team, err := d.Teams.AcceptInvitation(c.Request.Context(), c.Param("token"))
	if err != nil {
		respond.Error(c, err, joinOverrides...)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"team": gin.H{
			"id":   team.ID,
			"name": team.Name,
		},
	})
}
