package http

import (
	infra "github.com/kartuli-app/kartuli-backend/internal/infrastructure"
	"github.com/labstack/echo/v4"
)

func v1Endpoint(
	websocket *infra.Websocket,
	ProgressHandler *ProgressHandler,
	ProgressStreamHandler *ProgressStreamHandler,
	BillingHandler *BillingHandler,
	ContactHandler *ContactHandler,
	authMiddleware echo.MiddlewareFunc,
	requestIDMiddleware echo.MiddlewareFunc,
	traceLoggerMiddleware echo.MiddlewareFunc,
) *endpoint {
	return &endpoint{
		apiVersion:  "api/v1",
		middlewares: []echo.MiddlewareFunc{requestIDMiddleware, traceLoggerMiddleware},
		groups: []*apiGroup{
			{
				prefix:      "/progress",
				middlewares: []echo.MiddlewareFunc{authMiddleware},
				routes: []*route{
					{"GET", "/", ProgressHandler.HandleGetProgress, nil},
					{"POST", "/initialize", ProgressHandler.HandleInitializeProgress, nil},
					{"POST", "/reset", ProgressHandler.HandleResetProgress, nil},
					{"POST", "/:lesson_id", ProgressHandler.HandleUpdateProgress, nil},
				},
			},
			{
				prefix:      "/profile",
				middlewares: []echo.MiddlewareFunc{authMiddleware},
				routes: []*route{
					{"GET", "", ProgressHandler.HandleGetProfile, nil},
				},
			},
			{
				prefix:      "/billing",
				middlewares: []echo.MiddlewareFunc{authMiddleware},
				routes: []*route{
					{"POST", "/checkout-session", BillingHandler.HandleCreateCheckoutSession, nil},
					{"POST", "/portal-session", BillingHandler.HandleCreatePortalSession, nil},
					{"GET", "/subscription", BillingHandler.HandleGetSubscription, nil},
				},
			},
			{
				// plan catalog is public, pricing pages render before sign-in
				prefix: "/billing",
				routes: []*route{
					{"GET", "/plans", BillingHandler.HandleListPlans, nil},
				},
			},
			{
				prefix: "/contact",
				routes: []*route{
					{"POST", "", ContactHandler.HandleSendMessage, nil},
				},
			},
			{
				prefix:      "/ws",
				middlewares: []echo.MiddlewareFunc{authMiddleware},
				routes: []*route{
					{"GET", "/progress", websocket.WithHeartbeat(ProgressStreamHandler.HandleProgressStream), nil},
				},
			},
		},
	}
}
