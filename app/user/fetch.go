package user

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/gin-gonic/gin"
)

// Fetch returns the caller along with whether their key pair is uploaded
func Fetch(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()

	user, err := d.Repos.Users.FindByID(ctx, c.MustGet("userID").(string))
	if err != nil {
		respond.Error(c, err)
		return
	}

	hasKeys, err := d.Repos.Keys.Exists(ctx, user.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"hasKeys": hasKeys,
	})
}
