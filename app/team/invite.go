package team

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/internal/service"
	"github.com/fork-archive-hub/drive-server/pkg/validators"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// The bridge password of the invitation is always the team's own, so a
// bridgePass sent by older clients is ignored
type inviteBody struct {
	Email        string `json:"email"`
	MnemonicTeam string `json:"mnemonicTeam"`
}

func Invite(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	admin := c.MustGet("userEmail").(string)

	var data inviteBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.BadRequest(c, "Invalid request body")
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	res, err := d.Teams.SendInvitation(c.Request.Context(), admin, service.InvitationRequest{
		Email:    data.Email,
		Mnemonic: data.MnemonicTeam,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
