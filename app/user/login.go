package user

import (
	"net/http"
	"time"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const sessionTTL = time.Hour * 24 * 30

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		respond.BadRequest(c, "Invalid request body")
		return
	}

	if data.Email == "" || data.Password == "" {
		respond.BadRequest(c, "Email and password can't be empty")
		return
	}

	user, err := d.Repos.Users.FindByEmail(c.Request.Context(), data.Email)
	if err != nil && !repository.IsNotFound(err) {
		respond.Error(c, err)
		return
	}

	if user == nil || !d.Argon.VerifyPassword(data.Password, user.Password, user.Salt) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid credentials",
			"requestID": requestID,
		})
		return
	}

	now := time.Now()
	authToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"type":    "auth",
		"iat":     now.Unix(),
		"exp":     now.Add(sessionTTL).Unix(),
	}).SignedString([]byte(d.JWTSecret))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.SetCookie("auth_token", authToken, int(sessionTTL.Seconds()), "/", "", d.SSL, true)
	c.JSON(http.StatusOK, gin.H{
		"userID": user.ID,
		"token":  authToken,
	})
}
