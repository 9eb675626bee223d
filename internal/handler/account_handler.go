package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/eaglebank/account-service/internal/cqrs"
	"github.com/eaglebank/account-service/internal/metrics"
	"github.com/eaglebank/account-service/internal/middleware"
	"github.com/eaglebank/account-service/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.CreateAccountView, error)
	CloseAccount(context.Context, cqrs.CloseAccountCommand) (*models.CloseAccountView, error)
	UseBalance(context.Context, cqrs.UseBalanceCommand) (*models.TransactionView, error)
	CancelBalance(context.Context, cqrs.CancelBalanceCommand) (*models.TransactionView, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetUserAccounts(context.Context, cqrs.ListUserAccountsQuery) ([]models.AccountBalanceView, error)
	GetTransaction(context.Context, cqrs.GetTransactionQuery) (*models.TransactionView, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
	logger   *zap.Logger
}

type CreateAccountRequest struct {
	UserID         string `json:"userId" validate:"required"`
	InitialBalance int64  `json:"initialBalance"`
}

type CloseAccountRequest struct {
	UserID        string `json:"userId" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required"`
}

// Amount bounds are enforced by the command service so that an out-of-range
// amount surfaces as an invalid-amount error rather than a validation failure.
type UseBalanceRequest struct {
	UserID        string `json:"userId" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required"`
	Amount        int64  `json:"amount"`
}

type CancelBalanceRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required"`
	Amount        int64  `json:"amount"`
}

type UserAccountsRequest struct {
	UserID string `form:"userId" validate:"required"`
}

type CheckTransactionRequest struct {
	TransactionID string `form:"transactionId" validate:"required"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{commands: commands, queries: queries, logger: logger}
}

// RegisterRoutes mounts the account routes on rg.
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/createAccount", h.CreateAccount)
	rg.POST("/close", h.CloseAccount)
	rg.GET("/user", h.GetUserAccounts)
	rg.POST("/use", h.UseBalance)
	rg.POST("/cancel", h.CancelBalance)
	rg.GET("/check", h.GetTransaction)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		UserID:         req.UserID,
		InitialBalance: req.InitialBalance,
	})
	metrics.RecordOperation("create_account", err)
	if err != nil {
		h.respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) CloseAccount(c *gin.Context) {
	var req CloseAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.CloseAccount(c.Request.Context(), cqrs.CloseAccountCommand{
		UserID:        req.UserID,
		AccountNumber: req.AccountNumber,
	})
	metrics.RecordOperation("close_account", err)
	if err != nil {
		h.respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) GetUserAccounts(c *gin.Context) {
	var req UserAccountsRequest
	if !bindQuery(c, &req) {
		return
	}

	views, err := h.queries.GetUserAccounts(c.Request.Context(), cqrs.ListUserAccountsQuery{UserID: req.UserID})
	metrics.RecordOperation("get_user_accounts", err)
	if err != nil {
		h.respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *AccountHandler) UseBalance(c *gin.Context) {
	var req UseBalanceRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.UseBalance(c.Request.Context(), cqrs.UseBalanceCommand{
		UserID:        req.UserID,
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount,
	})
	metrics.RecordOperation("use_balance", err)
	if err != nil {
		h.respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) CancelBalance(c *gin.Context) {
	var req CancelBalanceRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.CancelBalance(c.Request.Context(), cqrs.CancelBalanceCommand{
		TransactionID: req.TransactionID,
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount,
	})
	metrics.RecordOperation("cancel_balance", err)
	if err != nil {
		h.respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) GetTransaction(c *gin.Context) {
	var req CheckTransactionRequest
	if !bindQuery(c, &req) {
		return
	}

	view, err := h.queries.GetTransaction(c.Request.Context(), cqrs.GetTransactionQuery{TransactionID: req.TransactionID})
	metrics.RecordOperation("get_transaction", err)
	if err != nil {
		h.respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func (h *AccountHandler) respondWithDomainError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		middleware.RespondWithError(c, status, "Internal server error")
		return
	}
	middleware.RespondWithError(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrOwnershipMismatch):
		return http.StatusForbidden
	case errors.Is(err, models.ErrLimitExceeded),
		errors.Is(err, models.ErrAlreadyClosed),
		errors.Is(err, models.ErrBalanceNotZero),
		errors.Is(err, models.ErrClosedAccount),
		errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrAccountMismatch),
		errors.Is(err, models.ErrAmountMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
