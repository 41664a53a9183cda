package share

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/gin-gonic/gin"
)

// List returns the live shares of the caller
func List(c *gin.Context, d *internal.Deps) {
	shares, err := d.Shares.List(c.Request.Context(), c.MustGet("userID").(string))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, shares)
}

func Delete(c *gin.Context, d *internal.Deps) {
	if err := d.Shares.Delete(c.Request.Context(), c.MustGet("userID").(string), c.Param("token")); err != nil {
		respond.Error(c, err)
		return
	}

	c.Status(http.StatusOK)
}
