package bank

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/meridianbank/meridian/internal/account"
	"github.com/meridianbank/meridian/internal/money"
)

// Handler exposes the account and transfer endpoints. Every route assumes
// the JWT middleware already authenticated the customer.
type Handler struct {
	svc *Service
}

// NewHandler constructs a bank handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func authenticatedCPF(c *fiber.Ctx) (string, error) {
	cpf, _ := c.Locals("customer_cpf").(string)
	if cpf == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}
	return cpf, nil
}

func statusForError(err error) *fiber.Error {
	switch {
	case errors.Is(err, money.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	case errors.Is(err, account.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, account.ErrWithdrawalLimitExceeded):
		return fiber.NewError(http.StatusUnprocessableEntity, "withdrawal count limit reached")
	case errors.Is(err, account.ErrAmountExceedsCap):
		return fiber.NewError(http.StatusUnprocessableEntity, "amount exceeds per-withdrawal cap")
	case errors.Is(err, ErrAccountNotOwned):
		return fiber.NewError(http.StatusForbidden, "account not owned by customer")
	case errors.Is(err, ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, "account not found")
	case errors.Is(err, ErrCustomerNotFound):
		return fiber.NewError(http.StatusNotFound, "customer not found")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func viewJSON(v AccountView) fiber.Map {
	out := fiber.Map{
		"number":  v.Number,
		"agency":  v.Agency,
		"kind":    string(v.Kind),
		"balance": v.Balance.String(),
	}
	if v.Kind == account.KindChecking {
		out["withdrawals_used"] = v.WithdrawalsUsed
		out["max_withdrawals"] = v.MaxWithdrawals
	}
	return out
}

type openAccountRequest struct {
	Kind string `json:"kind"`
}

// OpenAccount creates a savings or checking account for the caller.
func (h *Handler) OpenAccount(c *fiber.Ctx) error {
	cpf, err := authenticatedCPF(c)
	if err != nil {
		return err
	}
	var req openAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	kind, err := account.ParseKind(req.Kind)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	v, err := h.svc.OpenAccount(c.UserContext(), cpf, kind)
	if err != nil {
		return statusForError(err)
	}
	return c.Status(http.StatusCreated).JSON(viewJSON(v))
}

// ListAccounts returns the caller's accounts in creation order.
func (h *Handler) ListAccounts(c *fiber.Ctx) error {
	cpf, err := authenticatedCPF(c)
	if err != nil {
		return err
	}
	views := h.svc.AccountsByOwner(c.UserContext(), cpf)
	out := make([]fiber.Map, 0, len(views))
	for _, v := range views {
		out = append(out, viewJSON(v))
	}
	return c.JSON(fiber.Map{"accounts": out})
}

// Balance returns the current balance of one owned account.
func (h *Handler) Balance(c *fiber.Ctx) error {
	cpf, err := authenticatedCPF(c)
	if err != nil {
		return err
	}
	number := c.Params("number")

	v, err := h.svc.Account(c.UserContext(), number)
	if err != nil {
		return statusForError(err)
	}
	if v.Owner != cpf {
		return statusForError(ErrAccountNotOwned)
	}
	return c.JSON(fiber.Map{"number": v.Number, "balance": v.Balance.String()})
}

type amountRequest struct {
	Amount string `json:"amount"`
}

// Deposit credits an owned account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.mutate(c, h.svc.Deposit)
}

// Withdraw debits an owned account.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.mutate(c, h.svc.Withdraw)
}

func (h *Handler) mutate(c *fiber.Ctx, op func(ctx context.Context, cpf, number string, amount money.Money) (AccountView, error)) error {
	cpf, err := authenticatedCPF(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	v, err := op(c.UserContext(), cpf, c.Params("number"), amount)
	if err != nil {
		return statusForError(err)
	}
	return c.Status(http.StatusCreated).JSON(viewJSON(v))
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Transfer moves funds from an owned account to any registered account.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	cpf, err := authenticatedCPF(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	res, err := h.svc.Transfer(c.UserContext(), cpf, req.From, req.To, amount)
	if err != nil {
		return statusForError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"from":         viewJSON(res.From),
		"to":           fiber.Map{"number": res.To.Number},
		"amount":       res.Amount.String(),
		"completed_at": res.CompletedAt,
	})
}
