package http

import (
	"net/http"

	"github.com/kartuli-app/kartuli-backend/internal/billing"
	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/validate"
	"github.com/kartuli-app/kartuli-backend/internal/interfaces/http/middleware"
	"github.com/labstack/echo/v4"
)

type BillingHandler struct {
	service   *billing.Service
	validator validate.Validator
}

func NewBillingHandler(Service *billing.Service, Validator validate.Validator) *BillingHandler {
	handler := &BillingHandler{Service, Validator}
	return handler
}

type checkoutSessionRequest struct {
	PriceID    string `json:"price_id" validate:"required"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
	Mode       string `json:"mode" validate:"omitempty,oneof=subscription payment"`
}

type portalSessionRequest struct {
	ReturnURL string `json:"returnUrl" validate:"required,url"`
}

// HandleCreateCheckoutSession open a hosted checkout page for the caller.
// Input is validated before any provider round trip.
func (bh *BillingHandler) HandleCreateCheckoutSession(c echo.Context) (err error) {
	principal := middleware.GetPrincipal(c)

	req := new(checkoutSessionRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, "Failed to parse request body"))
	}
	if errs := bh.validator.Struct(req); errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}

	session, err := bh.service.CreateCheckoutSession(c.Request().Context(), principal,
		req.PriceID, req.SuccessURL, req.CancelURL, req.Mode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// HandleCreatePortalSession open the billing portal, 404 when the caller
// has no billing customer yet
func (bh *BillingHandler) HandleCreatePortalSession(c echo.Context) (err error) {
	principal := middleware.GetPrincipal(c)

	req := new(portalSessionRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, "Failed to parse request body"))
	}
	if errs := bh.validator.Struct(req); errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}

	session, err := bh.service.CreatePortalSession(c.Request().Context(), principal, req.ReturnURL)
	if err != nil {
		if err == domain.ErrNoCustomer {
			return c.JSON(http.StatusNotFound, NewRESTStandardError(http.StatusNotFound, "No billing account found"))
		}
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// HandleGetSubscription return the caller's active subscription, null when
// there is none
func (bh *BillingHandler) HandleGetSubscription(c echo.Context) (err error) {
	principal := middleware.GetPrincipal(c)

	subscription, err := bh.service.GetUserSubscription(c.Request().Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"subscription": subscription})
}

// HandleListPlans public plan catalog with live prices merged in
func (bh *BillingHandler) HandleListPlans(c echo.Context) (err error) {
	plans, err := bh.service.ListPlans(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}
