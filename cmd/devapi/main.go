package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-gateway/devapi"
	"github.com/jrsteele09/go-session-gateway/internal/config"
	"github.com/jrsteele09/go-session-gateway/internal/logging"
	"github.com/jrsteele09/go-session-gateway/token"
	fakeuserrepo "github.com/jrsteele09/go-session-gateway/users/repofake"
)

const cacheCleanupInterval = 5 * time.Minute

// The development payroll API listens on DEVAPI_PORT (default 8081) so it can
// run next to the gateway with the default UPSTREAM_URL.
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running development API")
	}
	log.Info().Msg("Development API stopped")
}

func run() error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())

	figure.NewFigure("payroll api", "cybermedium", true).Print()
	fmt.Println()

	userRepo := fakeuserrepo.NewFakeUserRepo()
	data := devapi.NewDataset()
	if err := devapi.Seed(userRepo, data, devapi.DefaultSeedUsers); err != nil {
		return fmt.Errorf("devapi.Seed: %w", err)
	}
	for _, u := range devapi.DefaultSeedUsers {
		log.Info().Str("email", u.Email).Str("role", string(u.Role)).Msg("Seeded user")
	}

	revoked := token.NewInMemoryRevokedTokenCache()
	issuer := token.NewIssuer(c.GetUpstreamURL(), []byte(c.GetTokenSigningKey()), c.GetAccessTokenExpiry(), revoked)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		ticker := time.NewTicker(cacheCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				revoked.Cleanup()
			}
		}
	}()

	port := config.GetEnv("DEVAPI_PORT", "8081")
	httpServer := &http.Server{Addr: ":" + port, Handler: devapi.New(c, userRepo, issuer, data), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Development API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Err(err).Msg("server.ListenAndServe")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
