package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fork-archive-hub/drive-server/app"
	"github.com/fork-archive-hub/drive-server/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

func main() {
	cfg, err := config.Setup()
	if err != nil {
		panic(err)
	}

	makeLogger(cfg.LogLevel)
	defer zap.L().Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	d, stop, err := app.NewDeps(context.Background(), cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer stop()

	done := make(chan struct{})
	defer close(done)

	router := app.NewRouter(cfg, d, done)
	addr := fmt.Sprintf(":%d", cfg.Host.Port)

	zap.L().Info("Server starting", zap.String("addr", addr), zap.Bool("ssl", cfg.Host.SSL))

	if cfg.Host.SSL {
		err = router.RunTLS(addr, cfg.Host.CertPath, cfg.Host.KeyPath)
	} else {
		err = router.Run(addr)
	}

	if err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}

func makeLogger(level string) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + t.Format("15:04:05.000") + reset)
		}
		cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + ec.TrimmedPath() + reset)
		}
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
