// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewHTTPTestClient serves handler in-process until the test ends. Redirects are never followed, they're returned as is.
func NewHTTPTestClient(tb testing.TB, handler http.Handler, swaggerRoot string) HTTPTestClient {
	tb.Helper()
	srv := httptest.NewServer(handler)
	tb.Cleanup(srv.Close)

	return newBrowser(tb, srv, swaggerRoot)
}

func newBrowser(tb testing.TB, srv *httptest.Server, swaggerRoot string) *httpTestClient {
	tb.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(tb, err)
	client := &http.Client{
		Transport: srv.Client().Transport,
		Jar:       jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &httpTestClient{client: client, server: srv, swaggerRoot: swaggerRoot}
}

func (tc *httpTestClient) NewBrowser(tb testing.TB) HTTPTestClient {
	tb.Helper()

	return newBrowser(tb, tc.server, tc.swaggerRoot)
}

func (tc *httpTestClient) Get(ctx context.Context, tb testing.TB, url string, headers ...http.Header) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodGet, url, nil, headers...)
}

func (tc *httpTestClient) Delete(ctx context.Context, tb testing.TB, url string, headers ...http.Header) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodDelete, url, nil, headers...)
}

func (tc *httpTestClient) Post(
	ctx context.Context,
	tb testing.TB,
	url string,
	body io.Reader,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodPost, url, body, headers...)
}

func (tc *httpTestClient) Put(
	ctx context.Context,
	tb testing.TB,
	url string,
	body io.Reader,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodPut, url, body, headers...)
}

//nolint:revive // Looks alot better.
func (tc *httpTestClient) doRequest(
	ctx context.Context,
	tb testing.TB,
	method,
	url string,
	body io.Reader,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	r, err := http.NewRequestWithContext(ctx, method, tc.server.URL+url, body)
	require.NoError(tb, err)
	addHeaders(headers, r)
	resp, err := tc.client.Do(r)
	require.NoError(tb, err)
	defer func() { assert.NoError(tb, resp.Body.Close()) }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(tb, err)

	return string(b), resp.StatusCode, resp.Header
}

func (tc *httpTestClient) TestSwagger(ctx context.Context, tb testing.TB) {
	tb.Helper()

	if tc.swaggerRoot == "" {
		return
	}
	_, status, headers := tc.Get(ctx, tb, tc.swaggerRoot)
	assert.Equal(tb, http.StatusFound, status)
	assert.Equal(tb, fmt.Sprintf("%v/swagger/index.html", tc.swaggerRoot), headers.Get("Location"))

	body, status, headers := tc.Get(ctx, tb, fmt.Sprintf("%v/swagger/index.html", tc.swaggerRoot))
	assert.Equal(tb, http.StatusOK, status)
	assert.NotEmpty(tb, body)
	assert.Equal(tb, "text/html; charset=utf-8", headers.Get("Content-Type"))
}

func (tc *httpTestClient) TestHealthCheck(ctx context.Context, tb testing.TB) {
	tb.Helper()

	body, status, headers := tc.Get(ctx, tb, "/health-check")
	assert.Equal(tb, `{"clientIp":"127.0.0.1"}`, body)
	assert.Equal(tb, http.StatusOK, status)
	assert.Equal(tb, "application/json; charset=utf-8", headers.Get("Content-Type"))
}

func addHeaders(headers []http.Header, r *http.Request) {
	//nolint:revive // False negative.
	if len(headers) != 0 && headers[0] != nil {
		for k, vs := range headers[0] {
			for _, v := range vs {
				r.Header.Add(k, v)
			}
		}
	}
}

func (*httpTestClient) WrapJSONBody(jsonData string) (reqBody io.Reader, headers http.Header) {
	headers = http.Header{"Content-Type": []string{jsonContentType}}
	if jsonData == "" {
		return nil, headers
	}

	return strings.NewReader(jsonData), headers
}
