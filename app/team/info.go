package team

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/gin-gonic/gin"
)

// Info returns the team the caller administers
func Info(c *gin.Context, d *internal.Deps) {
	team, err := d.Teams.GetAdminTeam(c.Request.Context(), c.MustGet("userEmail").(string))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"team":    team,
		"isAdmin": true,
	})
}

// MemberInfo returns the credentials a member uses to act as the team,
// with a token scoped to the team account
func MemberInfo(c *gin.Context, d *internal.Deps) {
	info, token, err := d.Teams.TeamInfo(c.Request.Context(), c.MustGet("userEmail").(string))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userTeam":   info,
		"tokenTeams": token,
	})
}
