package handlers

import (
	"context"
	"errors"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/damil-o/TrainerBizBack/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type PurchaseHandler struct {
	service  purchaseApplicationService
	delivery pdfDeliveryService
}

type purchaseApplicationService interface {
	Checkout(ctx context.Context, userID int64, input services.CheckoutInput) (*models.Purchase, error)
	VerifyPayment(ctx context.Context, input services.VerifyPaymentInput) (*models.Purchase, error)
	CompleteManually(ctx context.Context, purchaseID int64) (*models.Purchase, error)
	Cancel(ctx context.Context, purchaseID int64) (*models.Purchase, error)
	List(ctx context.Context, filter repository.PurchaseListFilter) ([]models.Purchase, error)
	Get(ctx context.Context, actorID int64, isAdmin bool, purchaseID int64) (*models.PurchaseDetail, error)
	RunExpiryScan(ctx context.Context) (*services.ExpiryScanResult, error)
}

type pdfDeliveryService interface {
	DeliverPDF(ctx context.Context, input services.DeliverPDFInput) (*models.Purchase, error)
}

func NewPurchaseHandler(service *services.PurchaseService, delivery *services.DeliveryService) *PurchaseHandler {
	h := &PurchaseHandler{service: service}
	if delivery != nil {
		h.delivery = delivery
	}
	return h
}

type checkoutRequest struct {
	ServiceID     int64   `json:"service_id"`
	PaymentMethod *string `json:"payment_method"`
}

type verifyPaymentRequest struct {
	TxRef         string `json:"tx_ref"`
	TransactionID string `json:"transaction_id"`
}

type deliverPDFRequest struct {
	PurchaseID int64  `json:"purchase_id"`
	PDFPath    string `json:"pdf_path"`
	UserEmail  string `json:"user_email"`
}

func (h *PurchaseHandler) Checkout(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ServiceID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "service_id is required"})
	}

	purchase, err := h.service.Checkout(c.Context(), identity.UserID, services.CheckoutInput{
		ServiceID:     req.ServiceID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return mapPurchaseError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"purchase": purchase})
}

// VerifyPayment is the payment-gateway callback target; it is reachable
// without auth because the redirect arrives before the client re-attaches
// its token.
func (h *PurchaseHandler) VerifyPayment(c *fiber.Ctx) error {
	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	purchase, err := h.service.VerifyPayment(c.Context(), services.VerifyPaymentInput{
		TxRef:         req.TxRef,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return mapPurchaseError(c, err)
	}

	return c.JSON(fiber.Map{"purchase": purchase})
}

func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	filter := repository.PurchaseListFilter{
		PaymentStatus: c.Query("status"),
		ActiveOnly:    c.QueryBool("active"),
	}
	if identity.IsAdmin {
		filter.UserID = int64(c.QueryInt("user_id"))
	} else {
		filter.UserID = identity.UserID
	}

	purchases, err := h.service.List(c.Context(), filter)
	if err != nil {
		return mapPurchaseError(c, err)
	}

	return c.JSON(fiber.Map{"purchases": purchases})
}

func (h *PurchaseHandler) Get(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase id"})
	}

	detail, err := h.service.Get(c.Context(), identity.UserID, identity.IsAdmin, purchaseID)
	if err != nil {
		return mapPurchaseError(c, err)
	}

	return c.JSON(fiber.Map{"purchase": detail})
}

func (h *PurchaseHandler) Complete(c *fiber.Ctx) error {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase id"})
	}

	purchase, err := h.service.CompleteManually(c.Context(), purchaseID)
	if err != nil {
		return mapPurchaseError(c, err)
	}

	return c.JSON(fiber.Map{"purchase": purchase})
}

func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase id"})
	}

	purchase, err := h.service.Cancel(c.Context(), purchaseID)
	if err != nil {
		return mapPurchaseError(c, err)
	}

	return c.JSON(fiber.Map{"purchase": purchase})
}

func (h *PurchaseHandler) DeliverPDF(c *fiber.Ctx) error {
	if h.delivery == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Delivery service is not configured"})
	}

	var req deliverPDFRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	purchase, err := h.delivery.DeliverPDF(c.Context(), services.DeliverPDFInput{
		PurchaseID: req.PurchaseID,
		PDFPath:    req.PDFPath,
		UserEmail:  req.UserEmail,
	})
	if err != nil {
		if errors.Is(err, services.ErrMissingDeliveryField) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return mapPurchaseError(c, err)
	}

	return c.JSON(fiber.Map{"purchase": purchase})
}

// CheckExpiring runs the expiry scan on demand, outside its schedule.
func (h *PurchaseHandler) CheckExpiring(c *fiber.Ctx) error {
	result, err := h.service.RunExpiryScan(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to run expiry scan"})
	}
	return c.JSON(fiber.Map{"result": result})
}

func mapPurchaseError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrServiceNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	case errors.Is(err, services.ErrPurchaseNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
	case errors.Is(err, services.ErrVerificationFailed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment verification failed"})
	case errors.Is(err, services.ErrAmountMismatch):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Paid amount does not cover the purchase"})
	case errors.Is(err, services.ErrCurrencyMismatch):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Payment made in an unexpected currency"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process purchase request"})
	}
}
