package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/movie-booking-api/internal/payment"
	"github.com/cinetix/movie-booking-api/internal/service"
)

// PaymentHandler serves payment order creation and verification for a
// booking. The actual gateway interaction sits behind the reservation
// coordinator so a failed verification and a successful one follow the
// same state transitions everywhere.
type PaymentHandler struct {
	Reservations *service.Reservation
}

func NewPaymentHandler(res *service.Reservation) *PaymentHandler {
	if res == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Reservations: res}
}

type createOrderReq struct {
	BookingID uint64 `json:"booking_id"`
}

// CreateOrder handles POST /v1/payments/order. It registers a gateway
// order for the booking's full amount and returns the order reference
// the client needs to open checkout.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil || req.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id is required"})
	}

	order, err := h.Reservations.CreatePaymentOrder(c.Request().Context(), req.BookingID, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

type verifyReq struct {
	BookingID  uint64 `json:"booking_id"`
	OrderRef   string `json:"order_ref"`
	PaymentRef string `json:"payment_ref"`
	Signature  string `json:"signature"`
}

// Verify handles POST /v1/payments/verify. On a valid signature the
// booking's payment completes; on an invalid one the payment is marked
// failed and a 400 is returned. Seats stay booked in both cases so the
// customer can retry a failed payment.
func (h *PaymentHandler) Verify(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req verifyReq
	if err := c.Bind(&req); err != nil || req.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id is required"})
	}
	if req.OrderRef == "" || req.PaymentRef == "" || req.Signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_ref, payment_ref and signature are required"})
	}

	b, err := h.Reservations.ConfirmPayment(c.Request().Context(), req.BookingID, userID, payment.Proof{
		OrderRef:   req.OrderRef,
		PaymentRef: req.PaymentRef,
		Signature:  req.Signature,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newBookingView(b))
}
