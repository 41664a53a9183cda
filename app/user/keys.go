package user

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/internal/model"
	"github.com/fork-archive-hub/drive-server/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type keysBody struct {
	PublicKey     string `json:"publicKey"`
	PrivateKey    string `json:"privateKey"`
	RevocationKey string `json:"revocationKey"`
}

// UploadKeys stores the key pair of the caller. Invitations require it.
func UploadKeys(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data keysBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.BadRequest(c, "Invalid request body")
		return
	}

	if data.PublicKey == "" || data.PrivateKey == "" {
		respond.BadRequest(c, "Public and private keys can't be empty")
		return
	}

	err := d.Repos.Keys.Create(c.Request.Context(), &model.KeyServer{
		UserID:        c.MustGet("userID").(string),
		PublicKey:     data.PublicKey,
		PrivateKey:    data.PrivateKey,
		RevocationKey: data.RevocationKey,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "Keys already uploaded",
				"requestID": requestID,
			})
			return
		}

		respond.Error(c, err)
		return
	}

	c.Status(http.StatusCreated)
}
