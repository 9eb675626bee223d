package command

import (
	"context"
	"errors"
	"time"

	"github.com/eaglebank/account-service/internal/cqrs"
	"github.com/eaglebank/account-service/internal/events"
	"github.com/eaglebank/account-service/internal/models"
	"github.com/eaglebank/account-service/internal/utils"
	"go.uber.org/zap"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type AccountStore interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error)
	FindByUserID(ctx context.Context, userID string) ([]*models.Account, error)
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
}

type TransactionStore interface {
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	Save(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// AccountCommandService runs the state-changing account operations. Every
// operation validates fully before its first store write, so a failed
// operation leaves no trace.
type AccountCommandService struct {
	users        UserStore
	accounts     AccountStore
	transactions TransactionStore
	publisher    EventPublisher
	logger       *zap.Logger
	now          func() time.Time
	nextNumber   func() string
}

type Option func(*AccountCommandService)

// WithClock replaces the wall clock used to stamp accounts and transactions.
func WithClock(now func() time.Time) Option {
	return func(s *AccountCommandService) { s.now = now }
}

// WithAccountNumberSource replaces the random account number draw.
func WithAccountNumberSource(next func() string) Option {
	return func(s *AccountCommandService) { s.nextNumber = next }
}

// defaultClock stamps at microsecond precision, the resolution Postgres
// TIMESTAMPTZ keeps, so a stored entry reads back as it was returned.
func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func NewAccountCommandService(
	users UserStore,
	accounts AccountStore,
	transactions TransactionStore,
	publisher EventPublisher,
	logger *zap.Logger,
	opts ...Option,
) *AccountCommandService {
	s := &AccountCommandService{
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		publisher:    publisher,
		logger:       logger,
		now:          defaultClock,
		nextNumber:   utils.GenerateAccountNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.CreateAccountView, error) {
	user, err := s.findUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	owned, err := s.accounts.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(owned) >= models.MaxAccountsPerUser {
		return nil, models.ErrLimitExceeded
	}

	accountNumber, err := s.generateUniqueAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.Save(ctx, models.NewAccount(accountNumber, user.ID, cmd.InitialBalance, s.now()))
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("userId", account.UserID),
		zap.String("accountNumber", account.AccountNumber),
		zap.Int64("initialBalance", account.Balance),
	)
	s.publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountNumber:  account.AccountNumber,
		UserID:         account.UserID,
		InitialBalance: account.Balance,
		RegisteredAt:   account.CreatedAt,
	})

	return &models.CreateAccountView{
		UserID:        account.UserID,
		AccountNumber: account.AccountNumber,
		RegisteredAt:  account.CreatedAt,
	}, nil
}

func (s *AccountCommandService) CloseAccount(ctx context.Context, cmd cqrs.CloseAccountCommand) (*models.CloseAccountView, error) {
	user, err := s.findUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	account, err := s.findAccount(ctx, cmd.AccountNumber)
	if err != nil {
		return nil, err
	}
	if account.UserID != user.ID {
		return nil, models.ErrOwnershipMismatch
	}
	if account.Status == models.AccountStatusClosed {
		return nil, models.ErrAlreadyClosed
	}
	if account.Balance > 0 {
		return nil, models.ErrBalanceNotZero
	}

	account, err = s.accounts.Save(ctx, account.Close(s.now()))
	if err != nil {
		return nil, err
	}

	s.logger.Info("account closed",
		zap.String("userId", account.UserID),
		zap.String("accountNumber", account.AccountNumber),
	)
	s.publish(ctx, events.AccountEventsStream, events.AccountClosed, events.AccountClosedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
		ClosedAt:      *account.ClosedAt,
	})

	return &models.CloseAccountView{
		UserID:        account.UserID,
		AccountNumber: account.AccountNumber,
		ClosedAt:      *account.ClosedAt,
	}, nil
}

func (s *AccountCommandService) UseBalance(ctx context.Context, cmd cqrs.UseBalanceCommand) (*models.TransactionView, error) {
	user, err := s.findUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	account, err := s.findAccount(ctx, cmd.AccountNumber)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, account, user); err != nil {
		return nil, err
	}
	if account.IsClosed() {
		return nil, models.ErrClosedAccount
	}
	if cmd.Amount <= 0 || cmd.Amount > models.MaxTransactionAmount {
		return nil, models.ErrInvalidAmount
	}
	if account.Balance < cmd.Amount {
		return nil, models.ErrInsufficientFunds
	}

	account, err = s.accounts.Save(ctx, account.ApplyDebit(cmd.Amount))
	if err != nil {
		return nil, err
	}
	transaction, err := s.record(ctx, account, cmd.Amount, models.TransactionTypeUse)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TransactionEventsStream, events.TransactionUsed, events.NewTransactionRecordedEvent(transaction, account.Balance))
	return models.UseView(transaction), nil
}

func (s *AccountCommandService) CancelBalance(ctx context.Context, cmd cqrs.CancelBalanceCommand) (*models.TransactionView, error) {
	original, err := s.transactions.FindByID(ctx, cmd.TransactionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("transaction")
		}
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, original.AccountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("account")
		}
		return nil, err
	}
	if account.AccountNumber != cmd.AccountNumber {
		return nil, models.ErrAccountMismatch
	}
	if original.Amount != cmd.Amount {
		return nil, models.ErrAmountMismatch
	}

	credited, err := account.ApplyCredit(cmd.Amount)
	if err != nil {
		return nil, err
	}
	account, err = s.accounts.Save(ctx, credited)
	if err != nil {
		return nil, err
	}
	transaction, err := s.record(ctx, account, cmd.Amount, models.TransactionTypeCancel)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TransactionEventsStream, events.TransactionCancelled, events.NewTransactionRecordedEvent(transaction, account.Balance))
	return models.UseView(transaction), nil
}

// generateUniqueAccountNumber draws until the account store reports the
// number unused. There is no retry cap; the draw space is 10^10.
func (s *AccountCommandService) generateUniqueAccountNumber(ctx context.Context) (string, error) {
	for {
		accountNumber := s.nextNumber()
		exists, err := s.accounts.ExistsByAccountNumber(ctx, accountNumber)
		if err != nil {
			return "", err
		}
		if !exists {
			return accountNumber, nil
		}
		s.logger.Debug("account number collision, redrawing", zap.String("accountNumber", accountNumber))
	}
}

// checkOwner compares the account's owner to user by value, not by id alone.
func (s *AccountCommandService) checkOwner(ctx context.Context, account *models.Account, user *models.User) error {
	owner, err := s.users.FindByID(ctx, account.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrOwnershipMismatch
		}
		return err
	}
	if !owner.Equal(user) {
		return models.ErrOwnershipMismatch
	}
	return nil
}

func (s *AccountCommandService) record(ctx context.Context, account *models.Account, amount int64, txType models.TransactionType) (*models.Transaction, error) {
	entry, err := models.NewTransaction(account, amount, txType, models.TransactionResultSuccess, s.now())
	if err != nil {
		return nil, err
	}
	transaction, err := s.transactions.Save(ctx, entry)
	if err != nil {
		return nil, err
	}
	s.logger.Info("transaction recorded",
		zap.String("transactionId", transaction.ID),
		zap.String("accountNumber", transaction.AccountNumber),
		zap.String("type", string(transaction.Type)),
		zap.Int64("amount", transaction.Amount),
		zap.Int64("balance", account.Balance),
	)
	return transaction, nil
}

func (s *AccountCommandService) findUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("user")
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountCommandService) findAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := s.accounts.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("account")
		}
		return nil, err
	}
	return account, nil
}

// publish is best-effort: the operation has already committed.
func (s *AccountCommandService) publish(ctx context.Context, stream, eventType string, data any) {
	if err := s.publisher.Publish(ctx, stream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
