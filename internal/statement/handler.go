package statement

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/meridianbank/meridian/internal/account"
	"github.com/meridianbank/meridian/internal/bank"
)

// Handler exposes the statement endpoint.
type Handler struct {
	svc *bank.Service
}

// NewHandler constructs a statement handler.
func NewHandler(svc *bank.Service) *Handler {
	return &Handler{svc: svc}
}

// Get renders an account statement. Query parameters: mode=simple|detailed
// (default simple), kind to filter by operation kind, limit for the simple
// window size.
func (h *Handler) Get(c *fiber.Ctx) error {
	cpf, _ := c.Locals("customer_cpf").(string)
	if cpf == "" {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}
	number := c.Params("number")

	mode := Mode(c.Query("mode", string(ModeSimple)))
	if mode != ModeSimple && mode != ModeDetailed {
		return fiber.NewError(http.StatusBadRequest, "mode must be simple or detailed")
	}

	var kinds []account.OperationKind
	if k := c.Query("kind"); k != "" {
		// The running balance in detailed mode only holds over the full
		// sequence, so the kind filter is a simple-mode feature.
		if mode == ModeDetailed {
			return fiber.NewError(http.StatusBadRequest, "kind filter is not available in detailed mode")
		}
		switch kind := account.OperationKind(k); kind {
		case account.OpDeposit, account.OpWithdrawal, account.OpTransferOut, account.OpTransferIn:
			kinds = append(kinds, kind)
		default:
			return fiber.NewError(http.StatusBadRequest, "unknown operation kind")
		}
	}

	view, err := h.svc.Account(c.UserContext(), number)
	if err != nil {
		return mapError(err)
	}
	ops, err := h.svc.Operations(c.UserContext(), cpf, number, kinds...)
	if err != nil {
		return mapError(err)
	}

	if mode == ModeDetailed {
		return c.JSON(Detailed(view, ops))
	}
	return c.JSON(Simple(view, ops, c.QueryInt("limit")))
}

func mapError(err error) *fiber.Error {
	switch {
	case errors.Is(err, bank.ErrAccountNotOwned):
		return fiber.NewError(http.StatusForbidden, "account not owned by customer")
	case errors.Is(err, bank.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, "account not found")
	case errors.Is(err, bank.ErrCustomerNotFound):
		return fiber.NewError(http.StatusNotFound, "customer not found")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
