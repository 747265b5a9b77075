package http

import (
	"net/http"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/validate"
	"github.com/kartuli-app/kartuli-backend/internal/interfaces/http/middleware"
	"github.com/labstack/echo/v4"
)

type ProgressHandler struct {
	progressUseCase   domain.ProgressUseCase
	profileRepository domain.ProfileRepository
	validator         validate.Validator
}

func NewProgressHandler(
	ProgressUseCase domain.ProgressUseCase,
	ProfileRepository domain.ProfileRepository,
	Validator validate.Validator,
) *ProgressHandler {
	handler := &ProgressHandler{ProgressUseCase, ProfileRepository, Validator}
	return handler
}

// HandleGetProgress list the caller's progress records, filtered to one
// lesson with ?lesson_id=
func (ph *ProgressHandler) HandleGetProgress(c echo.Context) (err error) {
	principal := middleware.GetPrincipal(c)
	lessonID := c.QueryParam("lesson_id")

	records, err := ph.progressUseCase.FetchAll(c.Request().Context(), principal.ID, lessonID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"progress": records})
}

// HandleUpdateProgress apply a partial update to one lesson's record,
// creating it on first touch
func (ph *ProgressHandler) HandleUpdateProgress(c echo.Context) (err error) {
	principal := middleware.GetPrincipal(c)
	lessonID := c.Param("lesson_id")

	if errs := ph.validator.Empty("lesson_id", lessonID); errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}

	update := new(domain.ProgressUpdate)
	if err := c.Bind(update); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, "Failed to parse request body"))
	}
	if errs := ph.validator.Struct(update); errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}

	record, err := ph.progressUseCase.Upsert(c.Request().Context(), principal.ID, lessonID, update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"progress": record})
}

// HandleInitializeProgress seed missing catalog lessons for the caller,
// safe to call repeatedly
func (ph *ProgressHandler) HandleInitializeProgress(c echo.Context) (err error) {
	principal := middleware.GetPrincipal(c)

	records, err := ph.progressUseCase.Initialize(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"progress": records})
}

// HandleResetProgress wipe the caller's records and reseed the catalog
func (ph *ProgressHandler) HandleResetProgress(c echo.Context) (err error) {
	principal := middleware.GetPrincipal(c)

	records, err := ph.progressUseCase.ResetAll(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"progress": records})
}

// HandleGetProfile return the caller's aggregate counters
func (ph *ProgressHandler) HandleGetProfile(c echo.Context) (err error) {
	principal := middleware.GetPrincipal(c)

	profile, err := ph.profileRepository.Get(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}
	if profile == nil {
		profile = &domain.ProfileAggregate{UserID: principal.ID}
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": profile})
}
