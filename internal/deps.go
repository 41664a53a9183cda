package internal

import (
	"github.com/fork-archive-hub/drive-server/internal/repository"
	"github.com/fork-archive-hub/drive-server/internal/service"
	"github.com/fork-archive-hub/drive-server/pkg/security"

	"gorm.io/gorm"
)

// Deps is everything a handler may reach for
type Deps struct {
	DB        *gorm.DB
	Repos     *repository.Repos
	Argon     *security.ArgonHash
	Vault     *security.Vault
	Teams     *service.TeamsService
	Shares    *service.ShareService
	Locks     *service.LockManager
	Upgrades  *service.UpgradeOrchestrator
	Mail      *service.MailQueue
	JWTSecret string
	SSL       bool
}
