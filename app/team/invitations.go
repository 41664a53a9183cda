package team

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/pkg/validators"
	"github.com/gin-gonic/gin"
)

func Invitations(c *gin.Context, d *internal.Deps) {
	invs, err := d.Teams.ListInvitations(c.Request.Context(), c.MustGet("userEmail").(string))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, invs)
}

func RevokeInvitation(c *gin.Context, d *internal.Deps) {
	id, err := validators.UintID(c.Param("id"))
	if err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	if err := d.Teams.RevokeInvitation(c.Request.Context(), id, c.MustGet("userEmail").(string)); err != nil {
		respond.Error(c, err)
		return
	}

	c.Status(http.StatusOK)
}
