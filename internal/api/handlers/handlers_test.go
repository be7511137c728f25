package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/guarded-funds/internal/api/middleware"
	"github.com/hirosato/guarded-funds/internal/api/response"
	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/identity"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
	"github.com/hirosato/guarded-funds/internal/domain/movement"
	productreq "github.com/hirosato/guarded-funds/internal/domain/request"
	"github.com/hirosato/guarded-funds/pkg/validator"
)

const testEntryID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

type fakeMovement struct {
	userID string
	req    *movement.AdvanceRequest
	result *movement.AdvanceResult
	err    error
}

func (f *fakeMovement) Advance(ctx context.Context, userID string, req *movement.AdvanceRequest) (*movement.AdvanceResult, error) {
	f.userID = userID
	f.req = req
	return f.result, f.err
}

func (f *fakeMovement) Retreat(req *movement.RetreatRequest) movement.Step {
	return movement.Retreat(req.Step)
}

type countingFlusher struct{ calls int }

func (f *countingFlusher) Flush() { f.calls++ }

type fakeStatement struct {
	filter *ledger.ListFilter
	entry  *ledger.Entry
	page   *ledger.ListResponse
	err    error
}

func (f *fakeStatement) Get(ctx context.Context, userID, entryID string) (*ledger.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entry, nil
}

func (f *fakeStatement) ListByUser(ctx context.Context, userID string, filter *ledger.ListFilter) (*ledger.ListResponse, error) {
	f.filter = filter
	return f.page, f.err
}

type fakeAccounts struct {
	opened    *account.OpenAccountRequest
	status    account.Status
	statusFor string
}

func (f *fakeAccounts) Open(ctx context.Context, req *account.OpenAccountRequest) (*account.OpenAccountResponse, error) {
	f.opened = req
	return &account.OpenAccountResponse{
		Account:       &account.Account{UserID: "new-user", Email: req.Email},
		SecondaryCode: "AAAAAA",
		TertiaryCode:  "BBBBBB",
	}, nil
}

func (f *fakeAccounts) Get(ctx context.Context, userID string) (*account.Account, error) {
	if userID == "missing" {
		return nil, errors.NewNotFoundError("Account not found")
	}
	return &account.Account{UserID: userID, Balance: decimal.NewFromInt(100)}, nil
}

func (f *fakeAccounts) RegenerateCodes(ctx context.Context, userID string) (*account.CodesResponse, error) {
	return &account.CodesResponse{UserID: userID, SecondaryCode: "CCCCCC", TertiaryCode: "DDDDDD"}, nil
}

func (f *fakeAccounts) SetStatus(ctx context.Context, userID string, status account.Status) (*account.Account, error) {
	f.statusFor = userID
	f.status = status
	return &account.Account{UserID: userID, Status: status}, nil
}

type fakeApprovals struct {
	decision string
	reviewer string
	entryID  string
}

func (f *fakeApprovals) ListPending(ctx context.Context, limit int32, nextToken string) (*ledger.ListResponse, error) {
	return &ledger.ListResponse{Entries: []ledger.Entry{{ID: testEntryID, Status: ledger.Pending}}, NextToken: "next"}, nil
}

func (f *fakeApprovals) Approve(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error) {
	return f.decide("approve", entryID, reviewer, ledger.Completed)
}

func (f *fakeApprovals) Reject(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error) {
	return f.decide("reject", entryID, reviewer, ledger.Rejected)
}

func (f *fakeApprovals) Fail(ctx context.Context, entryID, reviewer string) (*ledger.Entry, error) {
	return f.decide("fail", entryID, reviewer, ledger.Failed)
}

func (f *fakeApprovals) decide(decision, entryID, reviewer string, status ledger.Status) (*ledger.Entry, error) {
	f.decision = decision
	f.entryID = entryID
	f.reviewer = reviewer
	return &ledger.Entry{ID: entryID, Status: status, ReviewedBy: reviewer}, nil
}

type fakeRequests struct {
	userID   string
	loan     *productreq.LoanApplication
	card     *productreq.CardApplication
	kind     productreq.Kind
	status   productreq.Status
	decision string
	reviewer string
	err      error
}

func (f *fakeRequests) ApplyLoan(ctx context.Context, userID string, app *productreq.LoanApplication) (*productreq.Request, error) {
	f.userID, f.loan = userID, app
	if f.err != nil {
		return nil, f.err
	}
	return &productreq.Request{ID: testEntryID, Kind: productreq.Loan, Product: app.LoanType, Status: productreq.Pending}, nil
}

func (f *fakeRequests) RequestCard(ctx context.Context, userID string, app *productreq.CardApplication) (*productreq.Request, error) {
	f.userID, f.card = userID, app
	return &productreq.Request{ID: testEntryID, Kind: productreq.Card, Product: app.CardType, Status: productreq.Pending}, nil
}

func (f *fakeRequests) ListByUser(ctx context.Context, userID string, kind productreq.Kind, limit int32, nextToken string) (*productreq.ListResponse, error) {
	f.userID, f.kind = userID, kind
	return &productreq.ListResponse{Requests: []productreq.Request{{ID: testEntryID, Kind: kind}}}, nil
}

func (f *fakeRequests) ListByStatus(ctx context.Context, kind productreq.Kind, status productreq.Status, limit int32, nextToken string) (*productreq.ListResponse, error) {
	f.kind, f.status = kind, status
	return &productreq.ListResponse{Requests: []productreq.Request{}, NextToken: "more"}, nil
}

func (f *fakeRequests) Approve(ctx context.Context, kind productreq.Kind, requestID, reviewer string) (*productreq.Request, error) {
	return f.decide("approve", kind, requestID, reviewer, productreq.Approved)
}

func (f *fakeRequests) Reject(ctx context.Context, kind productreq.Kind, requestID, reviewer string) (*productreq.Request, error) {
	return f.decide("reject", kind, requestID, reviewer, productreq.Rejected)
}

func (f *fakeRequests) decide(decision string, kind productreq.Kind, requestID, reviewer string, status productreq.Status) (*productreq.Request, error) {
	f.decision, f.kind, f.reviewer = decision, kind, reviewer
	if f.err != nil {
		return nil, f.err
	}
	return &productreq.Request{ID: requestID, Kind: kind, Status: status, ReviewedBy: reviewer}, nil
}

type fixture struct {
	movement  *fakeMovement
	flusher   *countingFlusher
	statement *fakeStatement
	accounts  *fakeAccounts
	approvals *fakeApprovals
	requests  *fakeRequests
	user      *Router
	admin     *Router
}

func newFixture() *fixture {
	f := &fixture{
		movement:  &fakeMovement{},
		flusher:   &countingFlusher{},
		statement: &fakeStatement{},
		accounts:  &fakeAccounts{},
		approvals: &fakeApprovals{},
		requests:  &fakeRequests{},
	}
	auth := middleware.NewAuthMiddleware(nil, nil)
	accounts := NewAccountHandler(f.accounts, validator.MustNew())
	requests := NewRequestHandler(f.requests, validator.MustNew())
	f.user = NewUserRouter(accounts, NewStatementHandler(f.statement), NewMovementHandler(f.movement, f.flusher), requests)
	f.admin = NewAdminRouter(accounts, NewApprovalHandler(f.approvals), requests, auth.RequireAdmin)
	return f
}

func asUser(userID string, admin bool) context.Context {
	return identity.WithPrincipal(context.Background(), &identity.Principal{UserID: userID, IsAdmin: admin})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeSuccess(t *testing.T, resp events.APIGatewayProxyResponse) response.SuccessResponse {
	t.Helper()
	var body response.SuccessResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body
}

func decodeError(t *testing.T, resp events.APIGatewayProxyResponse) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body
}

func TestRouterDispatch(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"own account", http.MethodGet, "/account", http.StatusOK},
		{"statement", http.MethodGet, "/statements", http.StatusOK},
		{"unknown route", http.MethodGet, "/nowhere", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/account", http.StatusMethodNotAllowed},
		{"preflight", http.MethodOptions, "/movements/advance", http.StatusOK},
	}

	f.statement.page = &ledger.ListResponse{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
				HTTPMethod: tt.method,
				Path:       tt.path,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAdminRouterGuard(t *testing.T) {
	f := newFixture()

	resp, err := f.admin.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/admin/accounts/user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = f.admin.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/account",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMatch(t *testing.T) {
	params, ok := match(splitPath("/admin/entries/{entryId}/approve"), splitPath("/admin/entries/abc/approve/"))
	require.True(t, ok)
	assert.Equal(t, map[string]string{"entryId": "abc"}, params)

	_, ok = match(splitPath("/admin/entries/{entryId}/approve"), splitPath("/admin/entries/abc"))
	assert.False(t, ok)
}

func TestMovementAdvance(t *testing.T) {
	t.Run("submitted operation is created", func(t *testing.T) {
		f := newFixture()
		f.movement.result = &movement.AdvanceResult{
			Step:     movement.StepTertiaryCode,
			Done:     true,
			LastStep: movement.StepTertiaryCode,
			Entry:    &ledger.Entry{ID: testEntryID, Kind: ledger.Transfer, Status: ledger.Completed},
		}

		resp, err := f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/movements/advance",
			Body:       `{"step":1,"operation":{"kind":"transfer","amount":"10.00","accountType":"checking"}}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "user-1", f.movement.userID)
		assert.Equal(t, ledger.Transfer, f.movement.req.Operation.Kind)
		assert.Equal(t, movement.AmountInput("10.00"), f.movement.req.Operation.Amount)
		assert.Equal(t, 1, f.flusher.calls)
	})

	t.Run("intermediate step is ok", func(t *testing.T) {
		f := newFixture()
		f.movement.result = &movement.AdvanceResult{Step: movement.StepReview, LastStep: movement.StepTertiaryCode}

		resp, err := f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/movements/advance",
			Body:       `{"step":1,"operation":{"kind":"transfer","amount":10}}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("errors keep their status and the audit is flushed", func(t *testing.T) {
		f := newFixture()
		f.movement.err = errors.NewLockedError("Too many incorrect codes")

		resp, err := f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/movements/advance",
			Body:       `{"step":3,"operation":{"kind":"withdrawal"}}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "VERIFICATION_LOCKED", decodeError(t, resp).Error)
		assert.Equal(t, 1, f.flusher.calls)
	})

	t.Run("empty body", func(t *testing.T) {
		f := newFixture()
		resp, err := f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/movements/advance",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		f := newFixture()
		resp, err := f.user.Handle(context.Background(), discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/movements/advance",
			Body:       `{}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Nil(t, f.movement.req)
	})
}

func TestMovementRetreat(t *testing.T) {
	f := newFixture()
	resp, err := f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/movements/retreat",
		Body:       `{"step":3}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeSuccess(t, resp)
	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["step"])
}

func TestStatementList(t *testing.T) {
	t.Run("passes the filter", func(t *testing.T) {
		f := newFixture()
		f.statement.page = &ledger.ListResponse{Entries: []ledger.Entry{{ID: testEntryID}}, NextToken: "tok"}

		resp, err := f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodGet,
			Path:       "/statements",
			QueryStringParameters: map[string]string{
				"from":   "2026-01-01",
				"to":     "2026-01-31",
				"kind":   "deposit",
				"status": "pending",
				"limit":  "10",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, &ledger.ListFilter{
			From:   "2026-01-01",
			To:     "2026-01-31",
			Kind:   ledger.Deposit,
			Status: ledger.Pending,
			Limit:  10,
		}, f.statement.filter)

		body := decodeSuccess(t, resp)
		require.NotNil(t, body.Pagination)
		assert.Equal(t, "tok", body.Pagination.NextToken)
		assert.Equal(t, 1, body.Pagination.Count)
	})

	invalid := []map[string]string{
		{"from": "2026-13-01"},
		{"from": "2026-02-01", "to": "2026-01-01"},
		{"kind": "refund"},
		{"status": "open"},
		{"limit": "-1"},
	}
	for _, query := range invalid {
		f := newFixture()
		resp, err := f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod:            http.MethodGet,
			Path:                  "/statements",
			QueryStringParameters: query,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %v", query)
		assert.Nil(t, f.statement.filter)
	}
}

func TestStatementGet(t *testing.T) {
	f := newFixture()
	f.statement.entry = &ledger.Entry{ID: testEntryID, UserID: "user-1"}

	resp, err := f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/statements/" + testEntryID,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = f.user.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/statements/not-an-id",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminAccounts(t *testing.T) {
	admin := asUser("admin-1", true)

	t.Run("open validates the request", func(t *testing.T) {
		f := newFixture()
		resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/admin/accounts",
			Body:       `{"email":"not-an-email","firstName":"Ada","lastName":"Lovelace","balance":"0","savingsBalance":"0"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Nil(t, f.accounts.opened)
	})

	t.Run("open returns the codes once", func(t *testing.T) {
		f := newFixture()
		resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/admin/accounts",
			Body:       `{"email":"ada@example.com","firstName":"Ada","lastName":"Lovelace","balance":"250.00","savingsBalance":"0"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Contains(t, resp.Body, "AAAAAA")
		require.NotNil(t, f.accounts.opened)
		assert.True(t, decimal.RequireFromString("250").Equal(f.accounts.opened.Balance))
	})

	t.Run("get missing account", func(t *testing.T) {
		f := newFixture()
		resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodGet,
			Path:       "/admin/accounts/missing",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("set status", func(t *testing.T) {
		f := newFixture()
		resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPut,
			Path:       "/admin/accounts/user-9/status",
			Body:       `{"status":"suspended"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "user-9", f.accounts.statusFor)
		assert.Equal(t, account.Suspended, f.accounts.status)

		resp, err = f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPut,
			Path:       "/admin/accounts/user-9/status",
			Body:       `{"status":"frozen"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("regenerate codes", func(t *testing.T) {
		f := newFixture()
		resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/admin/accounts/user-9/codes",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Body, "CCCCCC")
	})
}

func TestAdminReview(t *testing.T) {
	admin := asUser("admin-1", true)

	for _, decision := range []string{"approve", "reject", "fail"} {
		t.Run(decision, func(t *testing.T) {
			f := newFixture()
			resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodPost,
				Path:       "/admin/entries/" + testEntryID + "/" + decision,
			})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, decision, f.approvals.decision)
			assert.Equal(t, testEntryID, f.approvals.entryID)
			assert.Equal(t, "admin-1", f.approvals.reviewer)
		})
	}

	t.Run("list pending", func(t *testing.T) {
		f := newFixture()
		resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod:            http.MethodGet,
			Path:                  "/admin/entries",
			QueryStringParameters: map[string]string{"status": "pending"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "next", decodeSuccess(t, resp).Pagination.NextToken)

		resp, err = f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod:            http.MethodGet,
			Path:                  "/admin/entries",
			QueryStringParameters: map[string]string{"status": "completed"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestProductRequests(t *testing.T) {
	user := asUser("user-1", false)

	t.Run("apply for a loan", func(t *testing.T) {
		f := newFixture()
		resp, err := f.user.Handle(user, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/loans",
			Body: `{"loanType":"personal","amount":"15000","purpose":"Debt consolidation","term":36,` +
				`"income":85000,"employment":"full-time","employer":"Acme Corp","workExperience":"5 years"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "user-1", f.requests.userID)
		require.NotNil(t, f.requests.loan)
		assert.Equal(t, "15000", f.requests.loan.Amount.String())
		assert.Equal(t, "85000", f.requests.loan.Income.String())
		assert.Equal(t, 36, f.requests.loan.TermMonths)
	})

	t.Run("loan body is validated before the service", func(t *testing.T) {
		f := newFixture()
		resp, err := f.user.Handle(user, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/loans",
			Body:       `{"loanType":"personal","amount":"-3","purpose":"x","term":12,"income":"1","employment":"a","employer":"b","workExperience":"c"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Nil(t, f.requests.loan)
	})

	t.Run("service errors keep their status", func(t *testing.T) {
		f := newFixture()
		f.requests.err = errors.NewAuthorizationError("Account is suspended. Please contact support.")
		resp, err := f.user.Handle(user, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/loans",
			Body:       `{"loanType":"auto","amount":"9000","purpose":"Car","term":48,"income":"60000","employment":"full-time","employer":"Acme","workExperience":"2 years"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("request a card", func(t *testing.T) {
		f := newFixture()
		resp, err := f.user.Handle(user, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/cards",
			Body: `{"cardType":"gold","phoneNumber":"+1 555 123 4567","reason":"Travel","deliveryAddress":"1 Main St",` +
				`"city":"Springfield","state":"IL","zipCode":"62701"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NotNil(t, f.requests.card)
		assert.Equal(t, "gold", f.requests.card.CardType)

		resp, err = f.user.Handle(user, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/cards",
			Body:       `{"cardType":"gold","phoneNumber":"call me","reason":"Travel","deliveryAddress":"1 Main St","city":"Springfield","state":"IL","zipCode":"62701"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("own listings are per kind", func(t *testing.T) {
		f := newFixture()
		for path, kind := range map[string]productreq.Kind{"/loans": productreq.Loan, "/cards": productreq.Card} {
			resp, err := f.user.Handle(user, discardLogger(), events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodGet,
				Path:       path,
			})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, kind, f.requests.kind)
			assert.Equal(t, 1, decodeSuccess(t, resp).Pagination.Count)
		}
	})

	t.Run("catalogs", func(t *testing.T) {
		f := newFixture()
		resp, err := f.user.Handle(user, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodGet,
			Path:       "/loans/products",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Body, "Personal Loan")

		resp, err = f.user.Handle(user, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodGet,
			Path:       "/cards/products",
		})
		require.NoError(t, err)
		assert.Contains(t, resp.Body, "Gold Cashback Card")
	})
}

func TestAdminProductRequests(t *testing.T) {
	admin := asUser("admin-1", true)

	for _, path := range []string{"loans", "cards"} {
		for _, decision := range []string{"approve", "reject"} {
			t.Run(path+" "+decision, func(t *testing.T) {
				f := newFixture()
				resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
					HTTPMethod: http.MethodPost,
					Path:       "/admin/" + path + "/" + testEntryID + "/" + decision,
				})
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Equal(t, decision, f.requests.decision)
				assert.Equal(t, productreq.Kind(path[:len(path)-1]), f.requests.kind)
				assert.Equal(t, "admin-1", f.requests.reviewer)
			})
		}
	}

	t.Run("invalid request ID", func(t *testing.T) {
		f := newFixture()
		resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/admin/loans/not-an-id/approve",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, f.requests.decision)
	})

	t.Run("already reviewed is a conflict", func(t *testing.T) {
		f := newFixture()
		f.requests.err = errors.NewConflictError("loan request is already approved")
		resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/admin/loans/" + testEntryID + "/reject",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("queue status comes from the query", func(t *testing.T) {
		f := newFixture()
		resp, err := f.admin.Handle(admin, discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod:            http.MethodGet,
			Path:                  "/admin/cards",
			QueryStringParameters: map[string]string{"status": "approved"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, productreq.Card, f.requests.kind)
		assert.Equal(t, productreq.Approved, f.requests.status)
		assert.Equal(t, "more", decodeSuccess(t, resp).Pagination.NextToken)
	})

	t.Run("customers cannot review", func(t *testing.T) {
		f := newFixture()
		resp, err := f.admin.Handle(asUser("user-1", false), discardLogger(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/admin/loans/" + testEntryID + "/approve",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Empty(t, f.requests.decision)
	})
}
