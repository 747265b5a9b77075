package http

import (
	"net/http"

	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/validate"
	"github.com/kartuli-app/kartuli-backend/internal/mail"
	"github.com/labstack/echo/v4"
)

type ContactHandler struct {
	mailer    mail.Mailer
	validator validate.Validator
}

func NewContactHandler(Mailer mail.Mailer, Validator validate.Validator) *ContactHandler {
	handler := &ContactHandler{Mailer, Validator}
	return handler
}

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// HandleSendMessage relay a contact-form submission to the support inbox
func (ch *ContactHandler) HandleSendMessage(c echo.Context) (err error) {
	req := new(contactRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, "Failed to parse request body"))
	}
	if errs := ch.validator.Struct(req); errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}

	if err := ch.mailer.Send(c.Request().Context(), &mail.Message{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Message,
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
