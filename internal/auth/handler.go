package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/meridianbank/meridian/internal/bank"
	"github.com/meridianbank/meridian/internal/customer"
)

// Handler exposes the registration and token endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs an auth handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	CPF      string `json:"cpf"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// Register creates a new customer.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	created, err := h.svc.Register(c.UserContext(), RegisterInput{
		CPF:      req.CPF,
		Name:     req.Name,
		Address:  req.Address,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, bank.ErrDuplicateCustomer):
			return fiber.NewError(http.StatusConflict, "customer already registered")
		case errors.Is(err, customer.ErrInvalidIdentifier), errors.Is(err, ErrWeakPassword):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"cpf":        created.CPF,
		"name":       created.Name,
		"created_at": created.CreatedAt,
	})
}

type loginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	cust, pair, err := h.svc.Login(c.UserContext(), req.CPF, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"cpf":           cust.CPF,
		"name":          cust.Name,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh issues a new access token using a valid refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, exp, err := h.svc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid refresh token")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"access_token": token, "expires_in": exp})
}

// Logout invalidates every outstanding token for the authenticated customer.
func (h *Handler) Logout(c *fiber.Ctx) error {
	cpf, _ := c.Locals("customer_cpf").(string)
	if cpf == "" {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}
	if err := h.svc.Logout(c.UserContext(), cpf); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}
