package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eaglebank/account-service/internal/cqrs"
	"github.com/eaglebank/account-service/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ---- mock implementations ----

type mockAccountCommander struct {
	createFn func(cqrs.CreateAccountCommand) (*models.CreateAccountView, error)
	closeFn  func(cqrs.CloseAccountCommand) (*models.CloseAccountView, error)
	useFn    func(cqrs.UseBalanceCommand) (*models.TransactionView, error)
	cancelFn func(cqrs.CancelBalanceCommand) (*models.TransactionView, error)
}

func (m *mockAccountCommander) CreateAccount(_ context.Context, cmd cqrs.CreateAccountCommand) (*models.CreateAccountView, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountCommander) CloseAccount(_ context.Context, cmd cqrs.CloseAccountCommand) (*models.CloseAccountView, error) {
	if m.closeFn != nil {
		return m.closeFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountCommander) UseBalance(_ context.Context, cmd cqrs.UseBalanceCommand) (*models.TransactionView, error) {
	if m.useFn != nil {
		return m.useFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountCommander) CancelBalance(_ context.Context, cmd cqrs.CancelBalanceCommand) (*models.TransactionView, error) {
	if m.cancelFn != nil {
		return m.cancelFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockAccountQuerier struct {
	listFn  func(cqrs.ListUserAccountsQuery) ([]models.AccountBalanceView, error)
	checkFn func(cqrs.GetTransactionQuery) (*models.TransactionView, error)
}

func (m *mockAccountQuerier) GetUserAccounts(_ context.Context, q cqrs.ListUserAccountsQuery) ([]models.AccountBalanceView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountQuerier) GetTransaction(_ context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	if m.checkFn != nil {
		return m.checkFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newAccountTestRouter(cmds AccountCommander, qrys AccountQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAccountHandler(cmds, qrys, zap.NewNop())
	h.RegisterRoutes(r.Group("/v1/accounts"))
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

var aUseView = &models.TransactionView{
	AccountNumber: "0123456789", TransactionResult: models.TransactionResultSuccess,
	TransactionID: "tan-001", Amount: 1000, TransactionDate: testNow,
}

var aCheckView = &models.TransactionView{
	AccountNumber: "0123456789", TransactionResult: models.TransactionResultSuccess,
	TransactionID: "tan-001", Amount: 1000, TransactionDate: testNow,
	TransactionType: models.TransactionTypeUse,
}

// ---- tests ----

func TestCreateAccount(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateAccountCommand) (*models.CreateAccountView, error)
		expectedStatus int
	}{
		{
			name: "success - open account",
			body: map[string]interface{}{"userId": "usr-001", "initialBalance": 10000},
			createFn: func(cmd cqrs.CreateAccountCommand) (*models.CreateAccountView, error) {
				if cmd.InitialBalance != 10000 {
					return nil, fmt.Errorf("unexpected balance %d", cmd.InitialBalance)
				}
				return &models.CreateAccountView{UserID: cmd.UserID, AccountNumber: "0123456789", RegisteredAt: testNow}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - missing user",
			body:           map[string]interface{}{"initialBalance": 100},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed balance",
			body:           map[string]interface{}{"userId": "usr-001", "initialBalance": "lots"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found - unknown user",
			body:           map[string]interface{}{"userId": "usr-404"},
			createFn:       func(cqrs.CreateAccountCommand) (*models.CreateAccountView, error) { return nil, models.NotFound("user") },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "conflict - account limit reached",
			body:           map[string]interface{}{"userId": "usr-001"},
			createFn:       func(cqrs.CreateAccountCommand) (*models.CreateAccountView, error) { return nil, models.ErrLimitExceeded },
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{createFn: tt.createFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/accounts/createAccount", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCloseAccount(t *testing.T) {
	body := map[string]interface{}{"userId": "usr-001", "accountNumber": "0123456789"}
	tests := []struct {
		name           string
		body           interface{}
		closeFn        func(cqrs.CloseAccountCommand) (*models.CloseAccountView, error)
		expectedStatus int
	}{
		{
			name: "success - close own account",
			body: body,
			closeFn: func(cmd cqrs.CloseAccountCommand) (*models.CloseAccountView, error) {
				return &models.CloseAccountView{UserID: cmd.UserID, AccountNumber: cmd.AccountNumber, ClosedAt: testNow}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - missing account number",
			body:           map[string]interface{}{"userId": "usr-001"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "forbidden - another user's account",
			body:           body,
			closeFn:        func(cqrs.CloseAccountCommand) (*models.CloseAccountView, error) { return nil, models.ErrOwnershipMismatch },
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "conflict - already closed",
			body:           body,
			closeFn:        func(cqrs.CloseAccountCommand) (*models.CloseAccountView, error) { return nil, models.ErrAlreadyClosed },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "conflict - balance not zero",
			body:           body,
			closeFn:        func(cqrs.CloseAccountCommand) (*models.CloseAccountView, error) { return nil, models.ErrBalanceNotZero },
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{closeFn: tt.closeFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/accounts/close", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetUserAccounts(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		listFn         func(cqrs.ListUserAccountsQuery) ([]models.AccountBalanceView, error)
		expectedStatus int
		expectedCount  int
	}{
		{
			name: "success - list accounts",
			url:  "/v1/accounts/user?userId=usr-001",
			listFn: func(q cqrs.ListUserAccountsQuery) ([]models.AccountBalanceView, error) {
				return []models.AccountBalanceView{
					{AccountNumber: "0123456789", Balance: 9000},
					{AccountNumber: "9876543210", Balance: 0},
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "bad request - missing userId",
			url:            "/v1/accounts/user",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found - user has no accounts",
			url:            "/v1/accounts/user?userId=usr-002",
			listFn:         func(cqrs.ListUserAccountsQuery) ([]models.AccountBalanceView, error) { return nil, models.NotFound("accounts") },
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{listFn: tt.listFn})
			w := doRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedCount == 0 {
				return
			}
			var got []models.AccountBalanceView
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != tt.expectedCount {
				t.Errorf("expected %d accounts, got %d", tt.expectedCount, len(got))
			}
		})
	}
}

func TestUseBalance(t *testing.T) {
	body := map[string]interface{}{"userId": "usr-001", "accountNumber": "0123456789", "amount": 1000}
	tests := []struct {
		name           string
		body           interface{}
		useFn          func(cqrs.UseBalanceCommand) (*models.TransactionView, error)
		expectedStatus int
	}{
		{
			name:           "success - use balance",
			body:           body,
			useFn:          func(cqrs.UseBalanceCommand) (*models.TransactionView, error) { return aUseView, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - invalid amount",
			body:           map[string]interface{}{"userId": "usr-001", "accountNumber": "0123456789", "amount": 2000000},
			useFn:          func(cqrs.UseBalanceCommand) (*models.TransactionView, error) { return nil, models.ErrInvalidAmount },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "conflict - closed account",
			body:           body,
			useFn:          func(cqrs.UseBalanceCommand) (*models.TransactionView, error) { return nil, models.ErrClosedAccount },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unprocessable - insufficient funds",
			body:           body,
			useFn:          func(cqrs.UseBalanceCommand) (*models.TransactionView, error) { return nil, models.ErrInsufficientFunds },
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "internal error - store failure",
			body:           body,
			useFn:          func(cqrs.UseBalanceCommand) (*models.TransactionView, error) { return nil, fmt.Errorf("failed to update account: conn reset") },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{useFn: tt.useFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/accounts/use", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUseBalanceOmitsTransactionType(t *testing.T) {
	cmds := &mockAccountCommander{useFn: func(cqrs.UseBalanceCommand) (*models.TransactionView, error) { return aUseView, nil }}
	router := newAccountTestRouter(cmds, &mockAccountQuerier{})
	w := doRequest(router, http.MethodPost, "/v1/accounts/use", map[string]interface{}{"userId": "usr-001", "accountNumber": "0123456789", "amount": 1000})

	var got map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got["transactionType"]; ok {
		t.Errorf("use response must not carry transactionType: %s", w.Body.String())
	}
	if got["transactionId"] != "tan-001" {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestCancelBalance(t *testing.T) {
	body := map[string]interface{}{"transactionId": "tan-001", "accountNumber": "0123456789", "amount": 1000}
	tests := []struct {
		name           string
		body           interface{}
		cancelFn       func(cqrs.CancelBalanceCommand) (*models.TransactionView, error)
		expectedStatus int
	}{
		{
			name:           "success - cancel use",
			body:           body,
			cancelFn:       func(cqrs.CancelBalanceCommand) (*models.TransactionView, error) { return aUseView, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - missing transaction id",
			body:           map[string]interface{}{"accountNumber": "0123456789", "amount": 1000},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found - unknown transaction",
			body:           body,
			cancelFn:       func(cqrs.CancelBalanceCommand) (*models.TransactionView, error) { return nil, models.NotFound("transaction") },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unprocessable - account mismatch",
			body:           body,
			cancelFn:       func(cqrs.CancelBalanceCommand) (*models.TransactionView, error) { return nil, models.ErrAccountMismatch },
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "unprocessable - amount mismatch",
			body:           body,
			cancelFn:       func(cqrs.CancelBalanceCommand) (*models.TransactionView, error) { return nil, models.ErrAmountMismatch },
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "conflict - closed account",
			body:           body,
			cancelFn:       func(cqrs.CancelBalanceCommand) (*models.TransactionView, error) { return nil, models.ErrInvalidState },
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{cancelFn: tt.cancelFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/accounts/cancel", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetTransaction(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		checkFn        func(cqrs.GetTransactionQuery) (*models.TransactionView, error)
		expectedStatus int
	}{
		{
			name: "success - check transaction",
			url:  "/v1/accounts/check?transactionId=tan-001",
			checkFn: func(q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
				if q.TransactionID != "tan-001" {
					return nil, models.NotFound("transaction")
				}
				return aCheckView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - missing transactionId",
			url:            "/v1/accounts/check",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found - unknown transaction",
			url:            "/v1/accounts/check?transactionId=tan-404",
			checkFn:        func(cqrs.GetTransactionQuery) (*models.TransactionView, error) { return nil, models.NotFound("transaction") },
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{checkFn: tt.checkFn})
			w := doRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus == http.StatusOK && !strings.Contains(w.Body.String(), `"transactionType":"USE"`) {
				t.Errorf("check response must carry the type: %s", w.Body.String())
			}
		})
	}
}

func TestErrorBodyCarriesMessage(t *testing.T) {
	cmds := &mockAccountCommander{useFn: func(cqrs.UseBalanceCommand) (*models.TransactionView, error) {
		return nil, fmt.Errorf("failed to update account: %s", "secret dsn detail")
	}}
	router := newAccountTestRouter(cmds, &mockAccountQuerier{})
	w := doRequest(router, http.MethodPost, "/v1/accounts/use", map[string]interface{}{"userId": "usr-001", "accountNumber": "0123456789", "amount": 1})

	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("internal error details must not leak: %s", w.Body.String())
	}

	router = newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{
		listFn: func(cqrs.ListUserAccountsQuery) ([]models.AccountBalanceView, error) { return nil, models.NotFound("user") },
	})
	w = doRequest(router, http.MethodGet, "/v1/accounts/user?userId=usr-404", nil)
	if !strings.Contains(w.Body.String(), `"message":"user not found"`) {
		t.Errorf("expected not-found message, got %s", w.Body.String())
	}
}
