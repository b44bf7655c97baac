// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"

	"github.com/bid-agri/console/console"
	"github.com/bid-agri/console/log"
	"github.com/bid-agri/console/server"
)

// @title						Bid-Agri Console
// @version					latest
// @description				Sign in, session and tenant administration for the Bid-Agri marketplace console.
// @query.collection.format	multi
// @schemes					https
// @contact.name				bid-agri
// @BasePath					/
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting the console...")
	server.New(console.New(), console.ApplicationYAMLKey, swaggerRoot).ListenAndServe(ctx, cancel)
}

const (
	swaggerRoot = "/docs"
)
