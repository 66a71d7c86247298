package services

import (
	"errors"
	"net/http"

	"predmaint/internal/dataset"
	apierrors "predmaint/internal/errors"
	"predmaint/internal/pipeline"
	"predmaint/internal/preprocessing"
	"predmaint/internal/presentation"
	"predmaint/internal/session"
)

// toAPIError maps domain errors to API errors. Errors it does not know are
// returned unchanged.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}

	var schemaErr *dataset.SchemaError
	if errors.As(err, &schemaErr) {
		return apierrors.DataFormatError("Dataset is missing required columns", map[string]interface{}{
			"missing": schemaErr.Missing,
		})
	}

	var cellErr *dataset.CellError
	if errors.As(err, &cellErr) {
		return apierrors.DataFormatError(cellErr.Error(), map[string]interface{}{
			"row":    cellErr.Row,
			"column": cellErr.Column,
			"value":  cellErr.Value,
			"reason": cellErr.Reason,
		})
	}

	switch {
	case errors.Is(err, dataset.ErrEmptyDataset),
		errors.Is(err, dataset.ErrTooFewRows),
		errors.Is(err, dataset.ErrUnsupportedFormat),
		errors.Is(err, pipeline.ErrSplitTooSmall):
		return apierrors.DataFormatError(err.Error(), nil)
	case errors.Is(err, preprocessing.ErrUnknownType):
		return apierrors.ErrValidation("type", "type must be one of: L, M, H")
	case errors.Is(err, pipeline.ErrModelNotTrained):
		return apierrors.ErrModelNotTrained
	case errors.Is(err, presentation.ErrUnknownAction):
		return apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Unknown slide action", err.Error())
	case errors.Is(err, session.ErrNotFound):
		return apierrors.NotFoundError("session")
	}
	return err
}
