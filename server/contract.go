// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// Public API.

type (
	Router = gin.Engine
	Server interface {
		// ListenAndServe starts everything and blocks indefinitely.
		ListenAndServe(ctx context.Context, cancel context.CancelFunc)
	}
	// State is the actual custom behaviour that has to be implemented by users of this package to customize their http server`s lifecycle.
	State interface {
		Init(ctx context.Context, cancel context.CancelFunc)
		Close(ctx context.Context) error
		RegisterRoutes(r *Router)
		CheckHealth(ctx context.Context) error
	}
	Request[REQ any, RESP any] struct {
		Data           *REQ                        `json:"data,omitempty"`
		ginCtx         *gin.Context                //nolint:structcheck // Wrong.
		ClientIP       net.IP                      `json:"clientIp,omitempty"`
		bindings       map[requestBinding]struct{} //nolint:structcheck // Wrong.
		requiredFields []string                    //nolint:structcheck // Wrong.
	}
	Response[RESP any] struct {
		Data    *RESP
		Headers map[string]string
		Code    int
	}
	// ErrorResponse is the struct that is eventually serialized as a negative response back to the user.
	ErrorResponse struct {
		error `json:"-" swaggerignore:"true"`
		Data  map[string]any `json:"data,omitempty"`
		Error string         `json:"error" example:"something is missing"`
		Code  string         `json:"code,omitempty" example:"SOMETHING_NOT_FOUND"`
	}
	Config struct {
		HTTPServer struct {
			CertPath string `yaml:"certPath" mapstructure:"certPath"`
			KeyPath  string `yaml:"keyPath" mapstructure:"keyPath"`
			Port     uint16 `yaml:"port" mapstructure:"port"`
		} `yaml:"httpServer" mapstructure:"httpServer"`
		DefaultEndpointTimeout time.Duration `yaml:"defaultEndpointTimeout" mapstructure:"defaultEndpointTimeout"`
	}
)

// Private API.

const (
	json requestBinding = iota
	uri
	query
	header
	formMultipart
)

const (
	defaultEndpointTimeout = 30 * time.Second
)

var (
	//nolint:gochecknoglobals // Because its loaded once, at runtime.
	development bool
	//nolint:gochecknoglobals // Because its loaded once, at runtime.
	cfg Config
)

type (
	healthCheck struct{}
	healthy     struct {
		ClientIP string `json:"clientIp" example:"1.2.3.4"`
	}
	requestBinding uint8
	// jsonRender writes responses with goccy/go-json, so context aware marshalers, like time.Time's, are honoured.
	jsonRender struct {
		data any
	}
	// | srv is the internal representation of everything needed to bootstrap the http server.
	srv struct {
		State
		server      *http.Server
		router      *Router
		quit        chan<- os.Signal
		swaggerRoot string
	}
)
