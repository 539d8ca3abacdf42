package utils

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Loop is a long running task that can be asked to stop.
type Loop interface {
	Run(ctx context.Context) error
	Stop()
}

// RunWithGracePeriod runs loop until it returns on its own, or until a signal
// arrives or ctx is done. In the latter case the loop is asked to stop and
// given grace to do so. If it does not, ErrShutdownTimeout is returned and
// the loop goroutine is abandoned; the caller is expected to exit.
func RunWithGracePeriod(ctx context.Context, loop Loop, signals <-chan os.Signal, grace time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()

	select {
	case err := <-done:
		return err
	case sig := <-signals:
		log.Info().Str("signal", sig.String()).Msg("interrupt received, stopping")
	case <-ctx.Done():
		log.Info().Err(ctx.Err()).Msg("context done, stopping")
	}

	loop.Stop()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-done:
		log.Info().Msg("stopped gracefully")
		return err
	case <-timer.C:
		log.Warn().Dur("grace", grace).Msg("shutdown timeout reached, forcing exit")
		return ErrShutdownTimeout
	}
}
