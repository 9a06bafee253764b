package runtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

type ServiceCtx struct {
	deps            *dependencies
	depOptions      []DependencyOption
	shutdownChannel chan os.Signal
	serverCtx       context.Context
	serverStopFunc  context.CancelFunc
	serverReady     chan struct{}
}

func New(opts ...ServiceOption) *ServiceCtx {
	ctx := &ServiceCtx{
		shutdownChannel: make(chan os.Signal, 1),
	}

	for _, opt := range opts {
		opt(ctx)
	}

	return ctx
}

func (c *ServiceCtx) Run() {
	if err := c.build(); err != nil {
		log.Fatalf("failed to build service: %v", err)
	}

	c.startService()
	c.shutdownHook()

	select {
	case <-c.serverCtx.Done():
	case <-c.shutdownChannel:
		defer close(c.shutdownChannel)
	}

	c.shutdown()
}

func (c *ServiceCtx) build() error {
	c.serverCtx, c.serverStopFunc = context.WithCancel(context.Background())

	var err error

	c.deps, err = initializeDependencies(c.serverCtx, c.depOptions...)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}

	return nil
}

func (c *ServiceCtx) startService() {
	go c.deps.handlers.health.Run(c.serverCtx, c.deps.config.GRPCServer.HealthInterval)

	go func() {
		addr := net.JoinHostPort(c.deps.config.GRPCServer.Host, strconv.FormatUint(uint64(c.deps.config.GRPCServer.Port), 10))

		listener, err := net.Listen("tcp", addr)
		if err != nil {
			log.Fatalf("failed to listen on %s: %v", addr, err)
		}

		c.deps.infra.logger.Info().
			Str("address", listener.Addr().String()).
			Msg("starting the gRPC server")

		if c.serverReady != nil {
			close(c.serverReady)
		}

		if err := c.deps.infra.grpcServer.Serve(listener); err != nil {
			c.deps.infra.logger.Error().Err(err).Msg("gRPC server error")
			c.serverStopFunc()
		}
	}()
}

func (c *ServiceCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *ServiceCtx) shutdown() {
	c.deps.infra.logger.Info().Msg("shutting down service...")

	c.serverStopFunc()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.config.GRPCServer.ShutdownTimeout)
	defer cancel()

	c.deps.infra.healthServer.Shutdown()
	c.stopServer(shutdownCtx)
	c.cleanup(shutdownCtx)

	c.deps.infra.logger.Info().Msg("service shutdown complete")
}

// stopServer drains in-flight calls and falls back to a hard stop once
// shutdownCtx expires.
func (c *ServiceCtx) stopServer(shutdownCtx context.Context) {
	stopped := make(chan struct{})

	go func() {
		c.deps.infra.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			c.deps.infra.logger.Error().Msg("graceful shutdown timed out.. forcing stop.")
		}

		c.deps.infra.grpcServer.Stop()
	}
}

func (c *ServiceCtx) WaitForServer() {
	if c.serverReady != nil {
		<-c.serverReady
	}
}

func (c *ServiceCtx) cleanup(shutdownCtx context.Context) {
	c.deps.infra.logger.Info().Msg("cleaning up resources...")

	for resource, cleanupFn := range c.deps.cleanupFuncs {
		start := time.Now()

		if err := cleanupFn(shutdownCtx); err != nil {
			c.deps.infra.logger.Error().
				Err(err).
				Str("resource", resource).
				Msg("failed to shutdown the resource gracefully")

			continue
		}

		c.deps.infra.logger.Debug().
			Str("resource", resource).
			Dur("took", time.Since(start)).
			Msg("resource closed")
	}

	c.deps.infra.logger.Info().Msg("cleanup completed")
}
