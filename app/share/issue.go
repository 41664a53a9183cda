package share

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/internal/service"
	"github.com/fork-archive-hub/drive-server/pkg/validators"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fileBody struct {
	Views         *int   `json:"views"`
	EncryptionKey string `json:"encryptionKey"`
	FileToken     string `json:"fileToken"`
	Bucket        string `json:"bucket"`
}

// IssueFile shares the file :id of the caller. Issuing again rotates the token.
func IssueFile(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data fileBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.BadRequest(c, "Invalid request body")
		return
	}

	if err := validators.ViewsValidator(data.Views); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	token, err := d.Shares.IssueFileToken(c.Request.Context(), c.MustGet("userID").(string), c.Param("id"), service.ShareOptions{
		Views:         data.Views,
		EncryptionKey: data.EncryptionKey,
		ItemToken:     data.FileToken,
		Bucket:        data.Bucket,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

type folderBody struct {
	Views       *int   `json:"views"`
	BucketToken string `json:"bucketToken"`
	Bucket      string `json:"bucket"`
	Mnemonic    string `json:"mnemonic"`
}

// IssueFolder shares the folder :id of the caller. The code in the response
// is shown once.
func IssueFolder(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	folderID, err := validators.UintID(c.Param("id"))
	if err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	var data folderBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.BadRequest(c, "Invalid request body")
		return
	}

	if err := validators.ViewsValidator(data.Views); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	res, err := d.Shares.IssueFolderToken(c.Request.Context(), c.MustGet("userID").(string), folderID, service.ShareOptions{
		Views:     data.Views,
		ItemToken: data.BucketToken,
		Bucket:    data.Bucket,
		Mnemonic:  data.Mnemonic,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
