package user

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/internal/model"
	"github.com/fork-archive-hub/drive-server/internal/repository"
	"github.com/fork-archive-hub/drive-server/pkg/validators"
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type registerBody struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Mnemonic string `json:"mnemonic"`
}

func Register(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.BadRequest(c, "Invalid request body")
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	hash, salt, err := d.Argon.HashPassword(data.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}

	userID, err := gonanoid.Generate(charset, 16)
	if err != nil {
		respond.Error(c, err)
		return
	}

	var mnemonic string
	if data.Mnemonic != "" {
		if mnemonic, err = d.Vault.Encrypt(data.Mnemonic); err != nil {
			respond.Error(c, err)
			return
		}
	}

	err = d.Repos.Users.Create(c.Request.Context(), &model.User{
		ID:       userID,
		Email:    data.Email,
		Name:     data.Name,
		Password: hash,
		Salt:     salt,
		Mnemonic: mnemonic,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "This email is already registered. Please login or use a different email",
				"requestID": requestID,
			})
			return
		}

		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"userID": userID,
	})
}
