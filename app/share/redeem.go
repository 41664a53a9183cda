package share

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/gin-gonic/gin"
)

func Redeem(c *gin.Context, d *internal.Deps) {
	share, err := d.Shares.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, share)
}

func RedeemFolder(c *gin.Context, d *internal.Deps) {
	share, err := d.Shares.RedeemFolder(c.Request.Context(), c.Param("token"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, share)
}
