package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/Cristi-la/EOL-Net/internal/events"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

// wrapValidationError turns jellydator field errors into a VALIDATION_FAILED domain
// error with one detail entry per field.
func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
		return apperrors.NewValidationError("validation failed", details)
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return apperrors.NewInternalError(err)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, now func() time.Time, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	_ = dispatcher.Publish(ctx, event)
}
