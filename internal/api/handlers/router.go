package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/guarded-funds/internal/api/middleware"
	"github.com/hirosato/guarded-funds/internal/api/response"
	productreq "github.com/hirosato/guarded-funds/internal/domain/request"
)

// route matches a method and a path pattern. A "{name}" segment matches any
// value and is passed to the handler as a path parameter.
type route struct {
	method  string
	pattern []string
	handler middleware.APIGatewayHandler
}

// Router dispatches API Gateway proxy requests by path and method
type Router struct {
	routes []route
}

func (r *Router) add(method, pattern string, h middleware.APIGatewayHandler) {
	r.routes = append(r.routes, route{
		method:  method,
		pattern: splitPath(pattern),
		handler: h,
	})
}

// NewUserRouter routes the customer endpoints
func NewUserRouter(accounts *AccountHandler, statement *StatementHandler, movement *MovementHandler, requests *RequestHandler) *Router {
	r := &Router{}
	r.add(http.MethodGet, "/account", accounts.GetOwn)
	r.add(http.MethodGet, "/statements", statement.List)
	r.add(http.MethodGet, "/statements/{"+ParamEntryID+"}", statement.Get)
	r.add(http.MethodPost, "/movements/advance", movement.Advance)
	r.add(http.MethodPost, "/movements/retreat", movement.Retreat)
	r.add(http.MethodGet, "/loans", requests.ListOwn(productreq.Loan))
	r.add(http.MethodPost, "/loans", requests.ApplyLoan)
	r.add(http.MethodGet, "/loans/products", requests.LoanProducts)
	r.add(http.MethodGet, "/cards", requests.ListOwn(productreq.Card))
	r.add(http.MethodPost, "/cards", requests.RequestCard)
	r.add(http.MethodGet, "/cards/products", requests.CardProducts)
	return r
}

// NewAdminRouter routes the admin endpoints. guard wraps every route.
func NewAdminRouter(accounts *AccountHandler, approvals *ApprovalHandler, requests *RequestHandler, guard middleware.Middleware) *Router {
	if guard == nil {
		guard = func(next middleware.APIGatewayHandler) middleware.APIGatewayHandler { return next }
	}

	r := &Router{}
	r.add(http.MethodPost, "/admin/accounts", guard(accounts.Open))
	r.add(http.MethodGet, "/admin/accounts/{"+ParamUserID+"}", guard(accounts.Get))
	r.add(http.MethodPost, "/admin/accounts/{"+ParamUserID+"}/codes", guard(accounts.RegenerateCodes))
	r.add(http.MethodPut, "/admin/accounts/{"+ParamUserID+"}/status", guard(accounts.SetStatus))
	r.add(http.MethodGet, "/admin/entries", guard(approvals.ListPending))
	r.add(http.MethodPost, "/admin/entries/{"+ParamEntryID+"}/approve", guard(approvals.Approve))
	r.add(http.MethodPost, "/admin/entries/{"+ParamEntryID+"}/reject", guard(approvals.Reject))
	r.add(http.MethodPost, "/admin/entries/{"+ParamEntryID+"}/fail", guard(approvals.Fail))
	for _, q := range []struct {
		path string
		kind productreq.Kind
	}{{"loans", productreq.Loan}, {"cards", productreq.Card}} {
		r.add(http.MethodGet, "/admin/"+q.path, guard(requests.ListQueue(q.kind)))
		r.add(http.MethodPost, "/admin/"+q.path+"/{"+ParamRequestID+"}/approve", guard(requests.Approve(q.kind)))
		r.add(http.MethodPost, "/admin/"+q.path+"/{"+ParamRequestID+"}/reject", guard(requests.Reject(q.kind)))
	}
	return r
}

// Handle routes one request
func (r *Router) Handle(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    response.DefaultHeaders(),
		}, nil
	}

	segments := splitPath(request.Path)
	pathMatched := false

	for _, rt := range r.routes {
		params, ok := match(rt.pattern, segments)
		if !ok {
			continue
		}
		pathMatched = true
		if rt.method != request.HTTPMethod {
			continue
		}

		if len(params) > 0 {
			merged := make(map[string]string, len(request.PathParameters)+len(params))
			for k, v := range request.PathParameters {
				merged[k] = v
			}
			for k, v := range params {
				merged[k] = v
			}
			request.PathParameters = merged
		}
		return rt.handler(ctx, logger, request)
	}

	if pathMatched {
		return response.MethodNotAllowed(request.RequestContext.RequestID), nil
	}
	return response.NotFound("Route not found", request.RequestContext.RequestID), nil
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func match(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}

	var params map[string]string
	for i, p := range pattern {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if params == nil {
				params = map[string]string{}
			}
			params[p[1:len(p)-1]] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}
