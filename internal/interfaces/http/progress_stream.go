package http

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/logging"
	"github.com/kartuli-app/kartuli-backend/internal/interfaces/http/middleware"
	"github.com/kartuli-app/kartuli-backend/internal/progress"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type progressFrame struct {
	Op        string `json:"op"`
	LessonID  string `json:"lesson_id"`
	Completed *bool  `json:"completed"`
	Score     *int   `json:"score"`
	TimeSpent *int   `json:"time_spent"`
}

type snapshotFrame struct {
	State   string                   `json:"state"`
	Records []*domain.ProgressRecord `json:"records"`
	Error   string                   `json:"error,omitempty"`
}

type ProgressStreamHandler struct {
	progressUseCase domain.ProgressUseCase
}

func NewProgressStreamHandler(ProgressUseCase domain.ProgressUseCase) *ProgressStreamHandler {
	handler := &ProgressStreamHandler{ProgressUseCase}
	return handler
}

// HandleProgressStream serve one store per connection. Every store
// transition is pushed to the client as a snapshot frame, inbound frames
// drive store operations. The request context dies with the upgrade so
// operations run on a background context carrying the request logger.
func (psh *ProgressStreamHandler) HandleProgressStream(c echo.Context, conn *websocket.Conn) error {
	principal := middleware.GetPrincipal(c)
	logger := logging.ExtractLoggerFromContext(c.Request().Context())
	ctx := logging.SetLoggerInContext(context.Background(), logger)

	store := progress.NewStore(principal.ID, psh.progressUseCase)
	snapshots, cancel := store.Watch()
	defer cancel()

	go func() {
		for snap := range snapshots {
			frame := &snapshotFrame{
				State:   snap.State.String(),
				Records: snap.Records,
			}
			if snap.Err != nil {
				frame.Error = snap.Err.Error()
			}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}()

	if err := store.Fetch(ctx); err != nil {
		logger.Warn("Progress stream fetch failed", zap.Error(err))
	}

	for {
		frame := new(progressFrame)
		if err := conn.ReadJSON(frame); err != nil {
			return nil
		}
		var err error
		switch frame.Op {
		case "update":
			err = store.Update(ctx, frame.LessonID, &domain.ProgressUpdate{
				Completed: frame.Completed,
				Score:     frame.Score,
				TimeSpent: frame.TimeSpent,
			})
		case "reset":
			err = store.ResetAll(ctx)
		case "refresh":
			err = store.Fetch(ctx)
		default:
			logger.Debug("Unknown progress stream op", zap.String("op", frame.Op))
		}
		if err != nil {
			// the error snapshot already went to the client
			logger.Warn("Progress stream operation failed", zap.String("op", frame.Op), zap.Error(err))
		}
	}
}
