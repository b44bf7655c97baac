// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Public API.

type (
	RespStatusCode   = int
	ReqBody          = io.Reader
	URL              = string
	ExpectedRespBody = string
	ActualRespBody   = string
	ContentType      = string

	// HTTPTestClient talks to an in-process server. It keeps cookies between calls, like a single browser does.
	HTTPTestClient interface {
		Get(ctx context.Context, tb testing.TB, u URL, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)
		Delete(ctx context.Context, tb testing.TB, u URL, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)
		Put(ctx context.Context, tb testing.TB, u URL, body ReqBody, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)
		Post(ctx context.Context, tb testing.TB, u URL, body ReqBody, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)

		WrapJSONBody(jsonData string) (ReqBody, http.Header)
		// NewBrowser is another client of the same server, with a cookie jar of its own.
		NewBrowser(tb testing.TB) HTTPTestClient

		TestSwagger(ctx context.Context, tb testing.TB)
		TestHealthCheck(ctx context.Context, tb testing.TB)
	}
)

// Private API.

const (
	jsonContentType = "application/json"
)

type (
	httpTestClient struct {
		client      *http.Client
		server      *httptest.Server
		swaggerRoot string
	}
)
