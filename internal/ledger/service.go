package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/congo-pay/mockpay/internal/apperr"
	"github.com/congo-pay/mockpay/internal/notification"
)

const (
	receiverPhoneLength = 10
	minProductLength    = 3

	msgAmount         = "Amount should be greater than 0"
	msgReceiverPhone  = "Receiver phone number must be 10 digits"
	msgProduct        = "Please enter a valid product"
	msgNotFound       = "Transaction not found"
	msgForbidden      = "You are not allowed to perform this action"
	msgNoTransactions = "You do not have any transactions"
)

// Service records transactions on behalf of authenticated senders.
type Service struct {
	repo     Repository
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a ledger service. notifier may be nil.
func NewService(repo Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// Create validates in and stores a transaction sent from senderPhone. Rules are
// checked in order: amount, receiver phone, product.
func (s *Service) Create(ctx context.Context, senderPhone string, in CreateInput) (Transaction, error) {
	if in.Amount <= 0 {
		return Transaction{}, apperr.Validation(msgAmount)
	}
	if utf8.RuneCountInString(in.ReceiverPhone) != receiverPhoneLength {
		return Transaction{}, apperr.Validation(msgReceiverPhone)
	}
	if utf8.RuneCountInString(in.Product) < minProductLength {
		return Transaction{}, apperr.Validation(msgProduct)
	}

	tx := Transaction{
		ID:            uuid.New().String(),
		SenderPhone:   senderPhone,
		ReceiverPhone: in.ReceiverPhone,
		Product:       in.Product,
		Amount:        in.Amount,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	if s.notifier != nil {
		err := s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransactionReceived,
			Destination: tx.ReceiverPhone,
			Body:        fmt.Sprintf("You received %d from %s for %s", tx.Amount, tx.SenderPhone, tx.Product),
		})
		if err != nil {
			s.logger.WarnContext(ctx, "notify receiver", slog.String("transaction_id", tx.ID), slog.Any("error", err))
		}
	}
	return tx, nil
}

// List returns the caller's live transactions. An empty listing is reported as
// an EmptyResult error rather than an empty slice.
func (s *Service) List(ctx context.Context, senderPhone string) ([]Transaction, error) {
	txs, err := s.repo.ListBySender(ctx, senderPhone)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, apperr.EmptyResult(msgNoTransactions)
	}
	return txs, nil
}

// SoftDelete hides the transaction id if callerPhone sent it. Missing and
// already deleted transactions are NotFound; someone else's is Forbidden.
func (s *Service) SoftDelete(ctx context.Context, id, callerPhone string) error {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(msgNotFound)
		}
		return err
	}
	if tx.Deleted {
		return apperr.NotFound(msgNotFound)
	}
	if tx.SenderPhone != callerPhone {
		return apperr.Forbidden(msgForbidden)
	}

	// Conditional on still being live; losing a race reads as already deleted.
	if err := s.repo.SoftDelete(ctx, id, callerPhone); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(msgNotFound)
		}
		return err
	}
	return nil
}
