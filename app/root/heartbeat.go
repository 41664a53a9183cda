package root

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Heartbeat reports 503 when the database stops answering
func Heartbeat(c *gin.Context, d *internal.Deps) {
	sqlDB, err := d.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}

	if err != nil {
		zap.L().Error("Database ping failed", zap.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Status(http.StatusOK)
}
