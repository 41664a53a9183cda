package team

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/pkg/validators"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Members(c *gin.Context, d *internal.Deps) {
	members, err := d.Teams.ListMembers(c.Request.Context(), c.MustGet("userEmail").(string))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

type removeBody struct {
	MemberToDelete string `json:"memberToDelete"`
}

func RemoveMember(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	admin := c.MustGet("userEmail").(string)

	var data removeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.BadRequest(c, "Invalid request body")
		return
	}

	if err := validators.EmailValidator(data.MemberToDelete); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	if err := d.Teams.RemoveMember(c.Request.Context(), data.MemberToDelete, admin); err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": data.MemberToDelete})
}
