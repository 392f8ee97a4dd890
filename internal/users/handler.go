package users

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/congo-pay/mockpay/internal/apperr"
	"github.com/congo-pay/mockpay/internal/auth"
	"github.com/congo-pay/mockpay/internal/metrics"
)

// Handler exposes user directory endpoints.
type Handler struct {
	service *Service
	tokens  *auth.TokenService
	metrics metrics.Recorder
}

// NewHandler constructs a user HTTP handler. A nil recorder disables metrics.
func NewHandler(service *Service, tokens *auth.TokenService, recorder metrics.Recorder) *Handler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Handler{service: service, tokens: tokens, metrics: recorder}
}

type signupRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Phone     string `json:"phone" form:"phone"`
	Password  string `json:"password" form:"password"`
}

// loginRequest follows the OAuth2 password form: the phone travels as username.
type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type updateRequest struct {
	FirstName *string `json:"first_name" form:"first_name"`
	LastName  *string `json:"last_name" form:"last_name"`
	Phone     *string `json:"phone" form:"phone"`
	Password  *string `json:"password" form:"password"`
}

// Response is the public view of a user. The password digest is never exposed.
type Response struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	Data        Response `json:"data"`
}

// ToResponse converts a user to its public JSON shape.
func ToResponse(u User) Response {
	return Response{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone, CreatedAt: u.CreatedAt}
}

// Signup registers a new user.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	// Decoded fields may alias the request buffer; stored values must own their bytes.
	user, err := h.service.Signup(c.UserContext(), SignupInput{
		FirstName: utils.CopyString(req.FirstName),
		LastName:  utils.CopyString(req.LastName),
		Phone:     utils.CopyString(req.Phone),
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	h.metrics.RecordSignup()
	return c.Status(http.StatusCreated).JSON(ToResponse(user))
}

// Login exchanges a phone/password pair for a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	user, err := h.service.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		h.metrics.RecordLogin(false)
		return err
	}
	token, err := h.tokens.IssueDefault(user.ID)
	if err != nil {
		return err
	}
	h.metrics.RecordLogin(true)
	return c.Status(http.StatusOK).JSON(tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "bearer",
		Data:        ToResponse(user),
	})
}

// List returns every registered user.
func (h *Handler) List(c *fiber.Ctx) error {
	all, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]Response, 0, len(all))
	for _, u := range all {
		out = append(out, ToResponse(u))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Get returns a single user.
func (h *Handler) Get(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(ToResponse(user))
}

// Update applies a partial update.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	user, err := h.service.Update(c.UserContext(), c.Params("id"), Patch{
		FirstName: copyOptional(req.FirstName),
		LastName:  copyOptional(req.LastName),
		Phone:     copyOptional(req.Phone),
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(ToResponse(user))
}

// Delete removes a user.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func copyOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := utils.CopyString(*s)
	return &v
}
