// Package app binds the HTTP surface to the services
package app

import (
	"time"

	"github.com/fork-archive-hub/drive-server/app/folder"
	"github.com/fork-archive-hub/drive-server/app/root"
	"github.com/fork-archive-hub/drive-server/app/share"
	"github.com/fork-archive-hub/drive-server/app/team"
	"github.com/fork-archive-hub/drive-server/app/user"
	"github.com/fork-archive-hub/drive-server/config"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/pkg/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type handler func(c *gin.Context, d *internal.Deps)

// NewRouter builds the engine. done stops the rate limiter janitor.
func NewRouter(cfg *config.Config, d *internal.Deps, done <-chan struct{}) *gin.Engine {
	router := gin.New()
	store := persist.NewMemoryStore(time.Minute)

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CORS,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	with := func(h handler) gin.HandlerFunc {
		return func(c *gin.Context) { h(c, d) }
	}

	jwt := middleware.NewJWTMiddleware(d.JWTSecret, d.Repos.Users)

	var ts *middleware.Turnstile
	if cfg.Security.TurnstileEnabled {
		ts = middleware.NewTurnstile(cfg.Security.TurnstileSecret)
	}
	turnstile := middleware.NewTurnstileMiddleware(ts)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             cfg.Security.RateBurst,
		CleanupInterval:   time.Minute,
	})
	go limiter.Run(done)

	main := router.Group("/api", limiter.Middleware(), middleware.BodySizeLimiter(1<<20))
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive, answers are reused for a few seconds
		main.HEAD("/heartbeat", cacheFor(store, 5), with(root.Heartbeat))
	}

	users := main.Group("/users")
	{
		// GET /api/users		-> Returns the caller
		users.GET("", jwt, with(user.Fetch))

		// POST /api/users 		-> Registers a new user
		users.POST("", turnstile, with(user.Register))

		// POST /api/users/login 	-> Logs in a user and sets the auth cookie
		users.POST("/login", turnstile, with(user.Login))

		// POST /api/users/keys	-> Uploads the key pair of the caller
		users.POST("/keys", jwt, with(user.UploadKeys))
	}

	teams := main.Group("/teams")
	{
		// POST /api/teams		-> Creates the team administered by the caller
		teams.POST("", jwt, with(team.Create))

		// POST /api/teams/team/invitations	-> Invites a user into the caller's team
		teams.POST("/team/invitations", jwt, with(team.Invite))

		// POST /api/teams/join/:token	-> Accepts an invitation
		teams.POST("/join/:token", turnstile, with(team.Join))

		// GET /api/teams/members	-> Lists the members of the caller's team
		teams.GET("/members", jwt, with(team.Members))

		// DELETE /api/teams/member	-> Removes a member from the caller's team
		teams.DELETE("/member", jwt, with(team.RemoveMember))

		// GET /api/teams/invitations	-> Lists pending invitations
		teams.GET("/invitations", jwt, with(team.Invitations))

		// DELETE /api/teams/invitation/:id	-> Revokes a pending invitation
		teams.DELETE("/invitation/:id", jwt, with(team.RevokeInvitation))

		// GET /api/teams/info		-> Returns the team administered by the caller
		teams.GET("/info", jwt, with(team.Info))

		// GET /api/teams/team/info	-> Returns the caller's team credentials and a team token
		teams.GET("/team/info", jwt, with(team.MemberInfo))

		// POST /api/teams/checkout/session	-> Completes a paid teams checkout
		teams.POST("/checkout/session", jwt, with(team.Checkout))
	}

	storage := main.Group("/storage")
	{
		// POST /api/storage/share/file/:id	-> Issues a share token for a file
		storage.POST("/share/file/:id", jwt, with(share.IssueFile))

		// POST /api/storage/share/folder/:id	-> Issues a share token and code for a folder
		storage.POST("/share/folder/:id", jwt, with(share.IssueFolder))

		// GET /api/storage/share/list	-> Lists the caller's shares
		storage.GET("/share/list", jwt, with(share.List))

		// GET /api/storage/share/down/folders	-> Lists subfolders of a shared folder
		storage.GET("/share/down/folders", with(share.DownFolders))

		// GET /api/storage/share/down/files	-> Lists files of a shared folder
		storage.GET("/share/down/files", with(share.DownFiles))

		// GET /api/storage/share/:token	-> Redeems a file share
		storage.GET("/share/:token", with(share.Redeem))

		// DELETE /api/storage/share/:token	-> Deletes a share owned by the caller
		storage.DELETE("/share/:token", jwt, with(share.Delete))

		// GET /api/storage/shared-folder/:token	-> Redeems a folder share
		storage.GET("/shared-folder/:token", with(share.RedeemFolder))
	}

	lock := storage.Group("/folder/:folderId/lock/:lockId", jwt)
	{
		// POST /api/storage/folder/:folderId/lock/:lockId	-> Acquires the folder lease
		lock.POST("", with(folder.AcquireLock))

		// PUT /api/storage/folder/:folderId/lock/:lockId	-> Extends the folder lease
		lock.PUT("", with(folder.RefreshLock))

		// DELETE /api/storage/folder/:folderId/lock/:lockId	-> Releases the folder lease
		lock.DELETE("", with(folder.ReleaseLock))
	}

	return router
}

// cacheFor only suits responses that hold no revocable or per-user data
func cacheFor(store persist.CacheStore, sec int) gin.HandlerFunc {
	// Replayed headers would carry a stale X-Request-ID
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec), cache.WithoutHeader())
}
