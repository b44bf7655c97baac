// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appCfg "github.com/bid-agri/console/config"
	"github.com/bid-agri/console/log"
)

func New(state State, cfgKey, swaggerRoot string) Server {
	appCfg.MustLoadFromKey(cfgKey, &cfg)
	appCfg.MustLoadFromKey("development", &development)

	return &srv{State: state, swaggerRoot: swaggerRoot}
}

func (s *srv) ListenAndServe(ctx context.Context, cancel context.CancelFunc) {
	s.Init(ctx, cancel)
	s.router = NewRouter(s.State, s.swaggerRoot) //nolint:contextcheck // Nope, we don't need it.
	s.setupServer(ctx)
	go s.startServer()
	s.wait(ctx)
	s.shutDown() //nolint:contextcheck // Nope, we want to gracefully shutdown on a different context.
}

// NewRouter builds the complete router of state: its own routes, swagger and the health check.
func NewRouter(state State, swaggerRoot string) *Router {
	if !development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.ForceConsoleColor()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	log.Info(fmt.Sprintf("GIN Mode: %v", gin.Mode()))
	router.RemoteIPHeaders = []string{"cf-connecting-ip", "X-Real-IP", "X-Forwarded-For"}
	router.TrustedPlatform = gin.PlatformCloudflare
	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.RemoveExtraSlash = true
	router.UseRawPath = true

	log.Info("registering routes...")
	state.RegisterRoutes(router)
	log.Info(fmt.Sprintf("%v routes registered", len(router.Routes())))
	setupSwaggerRoutes(router, swaggerRoot)
	setupHealthCheckRoutes(router, state)

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		start := time.Now()
		ginCtx.Next()
		log.Request(ginCtx.Request.Method, ginCtx.Request.URL.Path, ginCtx.Writer.Status(), time.Since(start), ginCtx.ClientIP())
	}
}

func setupHealthCheckRoutes(router *Router, state State) {
	router.GET("health-check", RootHandler(func(ctx context.Context, req *Request[healthCheck, healthy]) (*Response[healthy], *Response[ErrorResponse]) {
		if err := state.CheckHealth(ctx); err != nil {
			return nil, Unexpected(errors.Wrapf(err, "health check failed"))
		}

		return OK(&healthy{ClientIP: req.ClientIP.String()}), nil
	}))
}

func setupSwaggerRoutes(router *Router, root string) {
	if root == "" {
		return
	}
	router.
		GET(root, func(c *gin.Context) {
			c.Redirect(http.StatusFound, (&url.URL{Path: fmt.Sprintf("%v/swagger/index.html", root)}).RequestURI())
		}).
		GET(fmt.Sprintf("%v/swagger/*any", root), ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *srv) setupServer(ctx context.Context) {
	s.server = &http.Server{ //nolint:gosec // Not an issue, each request has a deadline set by the handler; and we're behind a proxy.
		Addr:    fmt.Sprintf(":%v", cfg.HTTPServer.Port),
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
}

func (s *srv) startServer() {
	defer log.Info("server stopped listening")
	log.Info(fmt.Sprintf("server started listening on %v...", cfg.HTTPServer.Port))

	isUnexpectedError := func(err error) bool {
		return err != nil &&
			!errors.Is(err, io.EOF) &&
			!errors.Is(err, http.ErrServerClosed)
	}

	var err error
	if cfg.HTTPServer.CertPath != "" && cfg.HTTPServer.KeyPath != "" {
		err = errors.Wrap(s.server.ListenAndServeTLS(cfg.HTTPServer.CertPath, cfg.HTTPServer.KeyPath), "server.ListenAndServeTLS failed")
	} else {
		err = errors.Wrap(s.server.ListenAndServe(), "server.ListenAndServe failed")
	}
	if isUnexpectedError(err) {
		s.quit <- syscall.SIGTERM
		log.Error(err)
	}
}

func (s *srv) wait(ctx context.Context) {
	quit := make(chan os.Signal, 1)
	s.quit = quit
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-quit:
	}
}

func (s *srv) shutDown() {
	ctx, cancel := context.WithTimeout(context.Background(), endpointTimeout())
	defer cancel()
	log.Info("shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, io.EOF) {
		log.Error(errors.Wrap(err, "server shutdown failed"))
	} else {
		log.Info("server shutdown succeeded")
	}

	if err := s.State.Close(ctx); err != nil && !errors.Is(err, io.EOF) {
		log.Error(errors.Wrap(err, "state close failed"))
	} else {
		log.Info("state close succeeded")
	}
}

func endpointTimeout() time.Duration {
	if cfg.DefaultEndpointTimeout <= 0 {
		return defaultEndpointTimeout
	}

	return cfg.DefaultEndpointTimeout
}
