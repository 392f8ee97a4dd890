package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/mockpay/internal/ledger"
)

// RegisterTransactionRoutes wires the ledger. Every route requires a bearer token.
func RegisterTransactionRoutes(r fiber.Router, h *ledger.Handler, protect, idempotency fiber.Handler) {
	r.Post("/transactions", protect, idempotency, h.Create)
	r.Get("/transactions", protect, h.List)
	r.Patch("/transactions/:id", protect, h.Delete)
}
