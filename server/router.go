// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	gojson "github.com/goccy/go-json"
	"github.com/goccy/go-reflect"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/bid-agri/console/log"
)

//nolint:gochecknoinits // Because we want to set it up globally.
func init() {
	if err := os.Setenv("TZ", ""); err != nil {
		log.Panic(err)
	}
}

func RootHandler[REQ, RESP any](handleRequest func(context.Context, *Request[REQ, RESP]) (*Response[RESP], *Response[ErrorResponse])) func(*gin.Context) {
	return func(ginCtx *gin.Context) {
		ctx, cancel := context.WithTimeout(ginCtx.Request.Context(), endpointTimeout())
		defer cancel()
		req := new(Request[REQ, RESP]).init(ginCtx)
		if err := req.processRequest(); err != nil {
			log.Error(errors.Wrap(err.Data.InternalErr(), "endpoint processing failed"), fmt.Sprintf("%[1]T", req.Data), req, "Response", err)
			ginCtx.Render(err.Code, &jsonRender{data: err.Data})

			return
		}
		success, failure := handleRequest(ctx, req)
		if failure != nil {
			log.Error(errors.Wrap(failure.Data.InternalErr(), "endpoint failed"), fmt.Sprintf("%[1]T", req.Data), req, "Response", failure)
			code, data := req.processErrorResponse(ctx, failure)
			ginCtx.Render(code, &jsonRender{data: data})

			return
		}
		for k, v := range success.Headers {
			ginCtx.Header(k, v)
		}
		if success.Data != nil {
			ginCtx.Render(success.Code, &jsonRender{data: success.Data})
		} else {
			ginCtx.Status(success.Code)
		}
	}
}

func (req *Request[REQ, RESP]) init(ginCtx *gin.Context) *Request[REQ, RESP] {
	req.Data = new(REQ)
	req.ClientIP = net.ParseIP(ginCtx.ClientIP())
	req.ginCtx = ginCtx

	return req
}

// GinContext is the underlying request, for cookies and other transport level details.
func (req *Request[REQ, RESP]) GinContext() *gin.Context {
	return req.ginCtx
}

func (req *Request[REQ, RESP]) processTags() {
	elem := reflect.TypeOf(req.Data).Elem()
	if elem.Kind() != reflect.Struct {
		log.Panic("request data's have to be structs")
	}
	const enabled = "true"
	fieldCount := elem.NumField()
	req.requiredFields = make([]string, 0, fieldCount)
	req.bindings = make(map[requestBinding]struct{}, 5) //nolint:mnd,gomnd // They're 5 possible values.
	for i := range fieldCount {
		field := elem.Field(i)
		tag := field.Tag
		if tag.Get("required") == enabled {
			req.requiredFields = append(req.requiredFields, field.Name)
		}
		if jsonTag := tag.Get("json"); jsonTag != "" && jsonTag != "-" {
			req.bindings[json] = struct{}{}
		}
		if tag.Get("uri") != "" {
			req.bindings[uri] = struct{}{}
		}
		if tag.Get("header") != "" {
			req.bindings[header] = struct{}{}
		}
		if tag.Get("form") != "" {
			if tag.Get("formMultipart") == "" {
				req.bindings[query] = struct{}{}
			}
		}
		if tag.Get("formMultipart") != "" {
			req.bindings[formMultipart] = struct{}{}
		}
	}
}

func (req *Request[REQ, RESP]) processRequest() *Response[ErrorResponse] {
	req.processTags()
	var errs []error
	for b := range req.bindings {
		switch b { //nolint:revive // .
		case json:
			if req.ginCtx.Request.ContentLength != 0 {
				errs = append(errs, req.ginCtx.ShouldBindJSON(req.Data))
			}
		case uri:
			errs = append(errs, req.ginCtx.ShouldBindUri(req.Data))
		case query:
			errs = append(errs, req.ginCtx.ShouldBindQuery(req.Data))
		case header:
			errs = append(errs, req.ginCtx.ShouldBindHeader(req.Data))
		case formMultipart:
			errs = append(errs, req.ginCtx.ShouldBindWith(req.Data, binding.FormMultipart))
		}
	}
	if err := multierror.Append(nil, errs...).ErrorOrNil(); err != nil {
		return UnprocessableEntity(errors.Wrapf(err, "binding failed"), "STRUCTURE_VALIDATION_FAILED")
	}

	return req.validate()
}

func (req *Request[REQ, RESP]) validate() *Response[ErrorResponse] {
	if len(req.requiredFields) == 0 {
		return nil
	}
	value := reflect.ValueOf(req.Data).Elem()
	requiredFields := make([]string, 0, len(req.requiredFields))
	for _, field := range req.requiredFields {
		if value.FieldByName(field).IsZero() {
			requiredFields = append(requiredFields, field)
		}
	}
	if len(requiredFields) == 0 {
		return nil
	}

	return UnprocessableEntity(errors.Errorf("properties `%v` are required", strings.Join(requiredFields, ",")), "MISSING_PROPERTIES")
}

func (req *Request[REQ, RESP]) processErrorResponse(ctx context.Context, failure *Response[ErrorResponse]) (int, *ErrorResponse) {
	err := failure.Data.InternalErr()
	if errors.Is(err, req.ginCtx.Request.Context().Err()) {
		return http.StatusServiceUnavailable, &ErrorResponse{Error: "service is shutting down"}
	}
	if errors.Is(err, ctx.Err()) {
		return http.StatusGatewayTimeout, &ErrorResponse{Error: "request timed out"}
	}
	if failure.Code <= 0 {
		return http.StatusInternalServerError, &ErrorResponse{Error: "oops, something went wrong"}
	}

	return failure.Code, failure.Data
}

func (r *jsonRender) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	body, err := gojson.Marshal(r.data)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %#v", r.data)
	}
	_, err = w.Write(body)

	return errors.Wrap(err, "failed to write the response body")
}

func (*jsonRender) WriteContentType(w http.ResponseWriter) {
	if header := w.Header(); len(header["Content-Type"]) == 0 {
		header["Content-Type"] = []string{"application/json; charset=utf-8"}
	}
}
