package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("notify-mode", a.cfg.NotifyMode),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("sharp-url", a.cfg.SharpBaseURL),
		zap.String("exchange-url", a.cfg.ExchangeBaseURL))

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start reconciliation engine (one goroutine per feed category inside)
	a.wg.Add(1)
	go a.runEngine()

	// Start arbitrage scanner
	a.wg.Add(1)
	go a.runScanner()

	// Start steam detector
	a.wg.Add(1)
	go a.runDetector()

	// Mirror degraded-feed state into the readiness payload
	a.wg.Add(1)
	go a.runDegradedReporter()
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runEngine() {
	defer a.wg.Done()
	a.engine.Run(a.ctx)
}

func (a *App) runScanner() {
	defer a.wg.Done()
	a.scanner.Run(a.ctx)
}

func (a *App) runDetector() {
	defer a.wg.Done()
	a.detector.Run(a.ctx)
}

func (a *App) runDegradedReporter() {
	defer a.wg.Done()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			degraded := a.engine.Degraded()
			feeds := make(map[string]bool, len(degraded))
			for cat, d := range degraded {
				feeds[string(cat)] = d
			}
			a.healthChecker.SetDegraded(feeds)
		}
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
