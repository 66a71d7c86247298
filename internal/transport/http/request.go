package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/render"

	apierrors "predmaint/internal/errors"
	"predmaint/internal/preprocessing"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

// PredictionRequest is the single-record prediction input, accepted as JSON
// or as the analysis page's form.
type PredictionRequest struct {
	Type               string   `json:"type" form:"type" validate:"required,oneof=L M H"`
	AirTemperature     *float64 `json:"air_temperature" form:"air_temperature" validate:"required,finite"`
	ProcessTemperature *float64 `json:"process_temperature" form:"process_temperature" validate:"required,finite"`
	RotationalSpeed    *float64 `json:"rotational_speed" form:"rotational_speed" validate:"required,finite"`
	Torque             *float64 `json:"torque" form:"torque" validate:"required,finite"`
	ToolWear           *float64 `json:"tool_wear" form:"tool_wear" validate:"required,finite"`
}

// Bind implements render.Binder
func (p *PredictionRequest) Bind(r *http.Request) error {
	return nil
}

// Reading converts a validated request
func (p *PredictionRequest) Reading() preprocessing.Reading {
	return preprocessing.Reading{
		Type:               p.Type,
		AirTemperature:     deref(p.AirTemperature),
		ProcessTemperature: deref(p.ProcessTemperature),
		RotationalSpeed:    deref(p.RotationalSpeed),
		Torque:             deref(p.Torque),
		ToolWear:           deref(p.ToolWear),
	}
}

// formValues echoes the request back into the form, falling back to the
// defaults for fields that did not decode.
func (p *PredictionRequest) formValues() preprocessing.Reading {
	values := preprocessing.DefaultReading()
	if p.Type != "" {
		values.Type = p.Type
	}
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{p.AirTemperature, &values.AirTemperature},
		{p.ProcessTemperature, &values.ProcessTemperature},
		{p.RotationalSpeed, &values.RotationalSpeed},
		{p.Torque, &values.Torque},
		{p.ToolWear, &values.ToolWear},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return values
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// decodePrediction decodes and validates a prediction from JSON or form data.
func decodePrediction(r *http.Request, v StructValidator) (*PredictionRequest, error) {
	req := &PredictionRequest{}
	if err := render.Bind(r, req); err != nil {
		return req, apierrors.InvalidRequestWithError(err)
	}
	if err := v.ValidateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

// StructValidator validates decoded requests
type StructValidator interface {
	ValidateStruct(s interface{}) error
}

// upload is the dataset file of a multipart request.
type upload struct {
	filename string
	size     int64
	file     multipart.File
	form     *multipart.Form
}

func (u *upload) Close() {
	u.file.Close()
	u.form.RemoveAll()
}

// readUpload extracts the "file" field, rejecting bodies over maxBytes.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apierrors.ErrPayloadTooLarge
		}
		return nil, apierrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		return nil, apierrors.ErrValidation("file", "a CSV or XLSX file is required")
	}

	return &upload{
		filename: header.Filename,
		size:     header.Size,
		file:     file,
		form:     r.MultipartForm,
	}, nil
}
