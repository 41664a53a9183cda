package team

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type checkoutBody struct {
	Mnemonic          string `json:"mnemonic"`
	CheckoutSessionID string `json:"checkoutSessionId"`
}

// Checkout completes the paid checkout of the caller's team
func Checkout(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data checkoutBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.BadRequest(c, "Invalid request body")
		return
	}

	if data.CheckoutSessionID == "" {
		respond.BadRequest(c, "checkoutSessionId can't be empty")
		return
	}

	team, err := d.Upgrades.CompleteTeamsCheckoutSession(c.Request.Context(), service.CheckoutCompletion{
		SessionID: data.CheckoutSessionID,
		Mnemonic:  data.Mnemonic,
		Email:     c.MustGet("userEmail").(string),
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	zap.L().Info("Checkout completed", zap.Uint("team_id", team.ID), zap.String("requestID", requestID))
	c.JSON(http.StatusOK, team)
}
