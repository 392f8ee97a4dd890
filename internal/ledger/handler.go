package ledger

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/congo-pay/mockpay/internal/apperr"
	"github.com/congo-pay/mockpay/internal/metrics"
	"github.com/congo-pay/mockpay/internal/middleware"
)

// Handler exposes transaction endpoints. Every route expects middleware.Protect
// to have run.
type Handler struct {
	service *Service
	metrics metrics.Recorder
}

// NewHandler constructs a transaction handler. A nil recorder disables metrics.
func NewHandler(service *Service, recorder metrics.Recorder) *Handler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Handler{service: service, metrics: recorder}
}

// createRequest deliberately has no sender field; one sent by the client is ignored.
type createRequest struct {
	ReceiverPhone string `json:"receiver_phone" form:"receiver_phone"`
	Product       string `json:"product" form:"product"`
	Amount        int64  `json:"amount" form:"amount"`
}

// Response is the JSON shape of a transaction.
type Response struct {
	ID            string    `json:"id"`
	SenderPhone   string    `json:"sender_phone"`
	ReceiverPhone string    `json:"receiver_phone"`
	Product       string    `json:"product"`
	Amount        int64     `json:"amount"`
	DeletedStatus bool      `json:"deleted_status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(tx Transaction) Response {
	return Response{
		ID:            tx.ID,
		SenderPhone:   tx.SenderPhone,
		ReceiverPhone: tx.ReceiverPhone,
		Product:       tx.Product,
		Amount:        tx.Amount,
		DeletedStatus: tx.Deleted,
		CreatedAt:     tx.CreatedAt,
	}
}

// Create records a transaction sent by the caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("Could not validate credentials")
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	tx, err := h.service.Create(c.UserContext(), caller.Phone, CreateInput{
		ReceiverPhone: utils.CopyString(req.ReceiverPhone),
		Product:       utils.CopyString(req.Product),
		Amount:        req.Amount,
	})
	if err != nil {
		return err
	}
	h.metrics.RecordTransactionCreated()
	return c.Status(http.StatusCreated).JSON(toResponse(tx))
}

// List returns the caller's live transactions.
func (h *Handler) List(c *fiber.Ctx) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("Could not validate credentials")
	}
	txs, err := h.service.List(c.UserContext(), caller.Phone)
	if err != nil {
		return err
	}
	out := make([]Response, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Delete soft-deletes one of the caller's transactions.
func (h *Handler) Delete(c *fiber.Ctx) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("Could not validate credentials")
	}
	if err := h.service.SoftDelete(c.UserContext(), c.Params("id"), caller.Phone); err != nil {
		return err
	}
	h.metrics.RecordTransactionDeleted()
	return c.SendStatus(http.StatusNoContent)
}
