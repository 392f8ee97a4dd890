package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/mockpay/internal/users"
)

// RegisterUserRoutes wires the user directory. Only the listing is protected;
// signup, login and the per-id routes are public.
func RegisterUserRoutes(r fiber.Router, h *users.Handler, protect, rateLimiter fiber.Handler) {
	r.Post("/users/signup", h.Signup)
	r.Post("/users/login", rateLimiter, h.Login)
	r.Get("/users", protect, h.List)
	r.Get("/users/:id", h.Get)
	r.Patch("/users/:id", h.Update)
	r.Delete("/users/:id", h.Delete)
}
