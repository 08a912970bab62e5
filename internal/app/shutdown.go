package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to signal all loops; the engine writes a final
	// snapshot on its way out.
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Wait for the engine, scanner and detector to drain before closing
	// the storage and sink they write to.
	a.wg.Wait()

	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	err = a.sink.Close()
	if err != nil {
		a.logger.Error("sink-close-error", zap.Error(err))
	}

	a.logger.Info("application-shutdown-complete")

	return nil
}
