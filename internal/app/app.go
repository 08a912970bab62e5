package app

import (
	"context"
	"sync"

	"github.com/dmccall/sports-arb/internal/arb"
	"github.com/dmccall/sports-arb/internal/notify"
	"github.com/dmccall/sports-arb/internal/reconcile"
	"github.com/dmccall/sports-arb/internal/steam"
	"github.com/dmccall/sports-arb/internal/storage"
	"github.com/dmccall/sports-arb/pkg/config"
	"github.com/dmccall/sports-arb/pkg/healthprobe"
	"github.com/dmccall/sports-arb/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	recordCache   *reconcile.Cache
	engine        *reconcile.Engine
	scanner       *arb.Scanner
	detector      *steam.Detector
	storage       storage.Storage
	sink          notify.Sink
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
