package app

import (
	"context"
	"fmt"

	"github.com/fork-archive-hub/drive-server/aws"
	"github.com/fork-archive-hub/drive-server/config"
	"github.com/fork-archive-hub/drive-server/db"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/internal/repository"
	"github.com/fork-archive-hub/drive-server/internal/service"
	"github.com/fork-archive-hub/drive-server/pkg/security"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewDeps opens every backing store and client named in cfg and wires the
// services on top of them. The returned func stops background workers.
func NewDeps(ctx context.Context, cfg *config.Config) (*internal.Deps, func(), error) {
	vault, err := security.NewVault(cfg.VaultKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize credential vault, %w", err)
	}

	conn, err := db.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}

	repos := repository.New(conn)

	var leases service.LockStore
	switch cfg.Locks.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		leases = service.NewRedisLockStore(rdb)
	default:
		leases = service.NewDBLockStore(conn)
		service.LockCleanup(cfg.Locks.CleanupInterval, conn)
	}

	s3, err := aws.NewS3(ctx, aws.Options{
		Bucket:          cfg.Network.Bucket,
		Region:          cfg.Network.Region,
		Endpoint:        cfg.Network.Endpoint,
		AccessKeyID:     cfg.Network.AccessKeyID,
		SecretAccessKey: cfg.Network.SecretAccessKey,
		PresignTTL:      cfg.Network.PresignTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}

	mail := service.NewMailQueue(service.NewSMTPSender(service.SMTPOptions{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Sender:   cfg.Mail.Sender,
		Password: cfg.Mail.Password,
		JoinURL:  cfg.Mail.JoinURL,
	}), cfg.Mail.Workers, cfg.Mail.QueueSize)
	mail.StartWorkerPool()

	teams := service.NewTeamsService(repos, service.TeamsOptions{
		Mailer:       mail,
		Vault:        vault,
		JWTSecret:    cfg.Security.JWTSecret,
		BridgeDomain: cfg.BridgeDomain,
	})

	d := &internal.Deps{
		DB:     conn,
		Repos:  repos,
		Argon:  security.NewArgon(),
		Vault:  vault,
		Teams:  teams,
		Shares: service.NewShareService(repos, vault, s3),
		Locks:  service.NewLockManager(leases, cfg.Locks.TTL),
		Upgrades: service.NewUpgradeOrchestrator(repos, service.UpgradeOptions{
			Vault:    vault,
			Teams:    teams,
			Payments: service.NewStripePayments(cfg.Payments.Key),
			Gateway:  service.NewHTTPGateway(cfg.Gateway.URL, cfg.Gateway.User, cfg.Gateway.Pass),
			Buckets:  s3,
		}),
		Mail:      mail,
		JWTSecret: cfg.Security.JWTSecret,
		SSL:       cfg.Host.SSL,
	}

	zap.L().Debug("Dependencies initialized",
		zap.String("database", cfg.Database.Driver),
		zap.String("lock_store", cfg.Locks.Store))

	return d, mail.Close, nil
}
