package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	qrcode "github.com/skip2/go-qrcode"

	"eventa/services"
	"eventa/store"
)

type TicketHandler struct {
	app     *pocketbase.PocketBase
	tickets *services.TicketService
	store   store.Store
}

func NewTicketHandler(app *pocketbase.PocketBase, tickets *services.TicketService, st store.Store) *TicketHandler {
	return &TicketHandler{app: app, tickets: tickets, store: st}
}

// Purchase creates a pending purchase for the authenticated user.
func (h *TicketHandler) Purchase(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Not authenticated", nil)
	}

	var req struct {
		TicketID string `json:"ticket_id"`
		Quantity int    `json:"quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.TicketID == "" {
		return apis.NewBadRequestError("ticket_id is required", nil)
	}

	purchase, err := h.tickets.PurchaseTicket(e.Request.Context(), e.Auth.Id, req.TicketID, req.Quantity)
	if err != nil {
		return apiError(err, "Failed to purchase ticket")
	}

	return e.JSON(http.StatusOK, purchase)
}

// MyTickets lists the authenticated user's purchases, newest first.
func (h *TicketHandler) MyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Not authenticated", nil)
	}

	purchases, err := h.tickets.GetUserTickets(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apiError(err, "Failed to load tickets")
	}

	return e.JSON(http.StatusOK, map[string]any{"purchases": purchases})
}

// PurchaseQR renders the purchase's entry pass as a QR PNG. The encoded
// payload is exactly the stored qr_code token.
func (h *TicketHandler) PurchaseQR(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Not authenticated", nil)
	}

	purchase, err := h.tickets.GetPurchase(e.Request.Context(), e.Auth.Id, e.Request.PathValue("purchaseId"))
	if err != nil {
		return apiError(err, "Failed to load purchase")
	}

	png, err := qrcode.Encode(purchase.QRCode, qrcode.Medium, 256)
	if err != nil {
		return apis.NewBadRequestError("Failed to render QR code", err)
	}

	e.Response.Header().Set("Content-Type", "image/png")
	e.Response.WriteHeader(http.StatusOK)
	_, err = e.Response.Write(png)
	return err
}

// CheckIn redeems a scanned QR payload at the entrance.
func (h *TicketHandler) CheckIn(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Not authenticated", nil)
	}

	var req struct {
		QRCode  string `json:"qr_code"`
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.QRCode == "" || req.EventID == "" {
		return apis.NewBadRequestError("qr_code and event_id are required", nil)
	}

	checkIn, err := h.tickets.CheckIn(e.Request.Context(), req.QRCode, req.EventID)
	if err != nil {
		return apiError(err, "Failed to check in")
	}

	return e.JSON(http.StatusOK, checkIn)
}

// SimulatePayment flips a purchase's payment status without the bank
// collaborator. Registered only in development.
func (h *TicketHandler) SimulatePayment(e *core.RequestEvent) error {
	var req struct {
		PurchaseID string `json:"purchase_id"`
		Status     string `json:"status"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Status == "" {
		req.Status = "completed"
	}

	row, err := h.store.Update(e.Request.Context(), "purchases", req.PurchaseID, store.Row{
		"payment_status": req.Status,
	})
	if err != nil {
		return apiError(err, "Failed to update payment status")
	}

	return e.JSON(http.StatusOK, row)
}
