package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/memberlink/internal/app/api/server"
	"github.com/fatflowers/memberlink/internal/app/service/membership"
	"github.com/fatflowers/memberlink/internal/app/service/statistics"
	webhookhandler "github.com/fatflowers/memberlink/internal/app/service/webhook_handler"
	webhooklog "github.com/fatflowers/memberlink/internal/app/service/webhook_log"
	"github.com/fatflowers/memberlink/internal/platform/cache"
	"github.com/fatflowers/memberlink/internal/platform/db"
	"github.com/fatflowers/memberlink/internal/platform/identity"
	"github.com/fatflowers/memberlink/internal/platform/tracing"
	"github.com/fatflowers/memberlink/internal/platform/whop"
	"github.com/fatflowers/memberlink/pkg/config"
	"github.com/fatflowers/memberlink/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// Platform is the shared infrastructure: config, logging, storage and the
// external collaborators. memberctl reuses it without the HTTP server.
var Platform = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	tracing.Module,
	cache.Module,
	identity.Module,
	whop.Module,
)

var Module = fx.Options(
	Platform,
	membership.Module,
	statistics.Module,
	webhooklog.Module,
	webhookhandler.Module,
	server.Module,
)
