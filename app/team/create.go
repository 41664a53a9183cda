package team

import (
	"net/http"
	"strings"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createBody struct {
	Name           string `json:"name"`
	BridgeMnemonic string `json:"bridgeMnemonic"`
}

// Create registers a team administered by the caller. Its seats and storage
// come with the checkout.
func Create(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	email := c.MustGet("userEmail").(string)

	var data createBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.BadRequest(c, "Invalid request body")
		return
	}

	if strings.TrimSpace(data.Name) == "" {
		respond.BadRequest(c, "Team name can't be empty")
		return
	}

	team, err := d.Teams.CreateTeam(c.Request.Context(), email, data.Name, data.BridgeMnemonic)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, team)
}
