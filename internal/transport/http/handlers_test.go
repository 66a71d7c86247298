package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "predmaint/internal/errors"
	"predmaint/internal/evaluation"
	"predmaint/internal/exporter"
	"predmaint/internal/middleware"
	"predmaint/internal/pipeline"
	"predmaint/internal/preprocessing"
	"predmaint/internal/presentation"
	"predmaint/internal/services"
	"predmaint/web"
)

const testSession = "3f1d8c52-1c1e-4a57-9d4b-0c5a1f9e2b77"

// MockAnalysisService is a mock implementation of AnalysisServiceInterface
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Upload(ctx context.Context, sessionID, filename string, r io.Reader, size int64) (*services.AnalysisSummary, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(sessionID, filename, string(body))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalysisSummary), args.Error(1)
}

func (m *MockAnalysisService) Summary(sessionID string) (*services.AnalysisSummary, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalysisSummary), args.Error(1)
}

func (m *MockAnalysisService) Predict(ctx context.Context, sessionID string, reading preprocessing.Reading) (*pipeline.Prediction, error) {
	args := m.Called(sessionID, reading)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Prediction), args.Error(1)
}

func (m *MockAnalysisService) Heatmap(sessionID string, w io.Writer) error {
	args := m.Called(sessionID)
	if args.Error(0) == nil {
		io.WriteString(w, "<svg></svg>")
	}
	return args.Error(0)
}

func (m *MockAnalysisService) Export(sessionID string, format exporter.Format, w io.Writer) error {
	args := m.Called(sessionID, format)
	if args.Error(0) == nil {
		io.WriteString(w, "Metric,Value\n")
	}
	return args.Error(0)
}

// MockPresentationService is a mock implementation of PresentationServiceInterface
type MockPresentationService struct {
	mock.Mock
}

func (m *MockPresentationService) State(sessionID string) (*services.SlideView, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SlideView), args.Error(1)
}

func (m *MockPresentationService) Navigate(ctx context.Context, sessionID, action string) (*services.SlideView, error) {
	args := m.Called(sessionID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SlideView), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger(), false)
}

// withSession runs handlers as testSession without the cookie round trip.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), testSession)))
	})
}

func trainedSummary() *services.AnalysisSummary {
	cm := evaluation.ConfusionMatrix{{15, 0}, {0, 5}}
	trainedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &services.AnalysisSummary{
		Trained:     true,
		DatasetName: "machines.csv",
		Rows:        100,
		Failures:    30,
		Accuracy:    "1.00",
		ROCAUC:      "1.00",
		Confusion:   &cm,
		TestSize:    20,
		TrainedAt:   &trainedAt,
		Features:    preprocessing.FeatureNames,
		Defaults:    preprocessing.DefaultReading(),
	}
}

func untrainedSummary() *services.AnalysisSummary {
	return &services.AnalysisSummary{
		Features: preprocessing.FeatureNames,
		Defaults: preprocessing.DefaultReading(),
	}
}

func sampleView(index int, autoplay bool) *services.SlideView {
	return &services.SlideView{
		DeckTitle: "Predictive Maintenance",
		Slide:     presentation.Slide{Title: "Model", Points: []string{"Random forest with 100 trees"}},
		State:     presentation.ViewerState{Index: index, Autoplay: autoplay},
		Progress:  presentation.Progress{Current: index + 1, Total: 7, Fraction: float64(index+1) / 7, Label: "Slide 4 of 7"},
		IsFirst:   index == 0,
		IsLast:    index == 6,
	}
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeProblem(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &problem))
	return problem
}

func analysisRouter(svc AnalysisServiceInterface, maxUpload int64) http.Handler {
	h := NewAnalysisHandler(svc, middleware.NewValidator(), maxUpload, testLogger(), testErrorHandler())
	r := chi.NewRouter()
	r.Use(withSession)
	r.Mount("/api/analysis", h.Routes())
	return r
}

func TestAnalysisHandler_GetSummary(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Summary", testSession).Return(trainedSummary(), nil)

	rr := httptest.NewRecorder()
	analysisRouter(svc, 1<<20).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, true, got["trained"])
	assert.Equal(t, "1.00", got["accuracy"])
	assert.Equal(t, "1.00", got["roc_auc"])
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Upload(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		content    string
		maxUpload  int64
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "trains on uploaded file",
			field:      "file",
			content:    "UDI,Type\n1,L\n",
			maxUpload:  1 << 20,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing file field",
			maxUpload:  1 << 20,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "body over the limit",
			field:      "file",
			content:    strings.Repeat("x", 4096),
			maxUpload:  512,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "PAYLOAD_TOO_LARGE",
		},
		{
			name:       "dataset rejected",
			field:      "file",
			content:    "a,b\n1,2\n",
			maxUpload:  1 << 20,
			serviceErr: apierrors.DataFormatError("Dataset is missing required columns", map[string]interface{}{"missing": []string{"Type"}}),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "DATA_FORMAT_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			if tt.field != "" && tt.maxUpload > int64(len(tt.content)) {
				if tt.serviceErr != nil {
					svc.On("Upload", testSession, "data.csv", tt.content).Return(nil, tt.serviceErr)
				} else {
					svc.On("Upload", testSession, "data.csv", tt.content).Return(trainedSummary(), nil)
				}
			}

			body, contentType := multipartBody(t, tt.field, "data.csv", tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/analysis/upload", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			analysisRouter(svc, tt.maxUpload).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				problem := decodeProblem(t, rr.Body.Bytes())
				assert.Equal(t, tt.wantCode, problem["error_code"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_Predict(t *testing.T) {
	valid := `{"type":"M","air_temperature":301.5,"process_temperature":311,"rotational_speed":1400,"torque":55,"tool_wear":200}`
	reading := preprocessing.Reading{Type: "M", AirTemperature: 301.5, ProcessTemperature: 311, RotationalSpeed: 1400, Torque: 55, ToolWear: 200}

	tests := []struct {
		name       string
		body       string
		setup      func(*MockAnalysisService)
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name: "scores reading",
			body: valid,
			setup: func(m *MockAnalysisService) {
				m.On("Predict", testSession, reading).Return(&pipeline.Prediction{Label: 1, Probability: 0.8712, Text: pipeline.FailureText}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown type",
			body:       strings.Replace(valid, `"M"`, `"X"`, 1),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantField:  "type",
		},
		{
			name:       "missing field",
			body:       `{"type":"L","air_temperature":300,"process_temperature":310,"rotational_speed":1500,"torque":40}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantField:  "tool_wear",
		},
		{
			name:       "malformed json",
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name: "no model yet",
			body: valid,
			setup: func(m *MockAnalysisService) {
				m.On("Predict", testSession, reading).Return(nil, apierrors.ErrModelNotTrained)
			},
			wantStatus: http.StatusConflict,
			wantCode:   "MODEL_NOT_TRAINED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			if tt.setup != nil {
				tt.setup(svc)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/analysis/predict", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			analysisRouter(svc, 1<<20).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode == "" {
				var got map[string]interface{}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, "0.87", got["probability"])
				assert.Equal(t, pipeline.FailureText, got["text"])
				assert.EqualValues(t, 1, got["label"])
			} else {
				problem := decodeProblem(t, rr.Body.Bytes())
				assert.Equal(t, tt.wantCode, problem["error_code"])
				if tt.wantField != "" {
					assert.Contains(t, rr.Body.String(), `"field":"`+tt.wantField+`"`)
				}
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_ConfusionMatrix(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Heatmap", testSession).Return(nil)

	rr := httptest.NewRecorder()
	analysisRouter(svc, 1<<20).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analysis/confusion-matrix.svg", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.Equal(t, "<svg></svg>", rr.Body.String())
}

func TestAnalysisHandler_Export(t *testing.T) {
	t.Run("csv download", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("Export", testSession, exporter.FormatCSV).Return(nil)

		rr := httptest.NewRecorder()
		analysisRouter(svc, 1<<20).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analysis/export.csv", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, exporter.FormatCSV.ContentType(), rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Header().Get("Content-Disposition"), "predictions.csv")
		assert.Equal(t, "Metric,Value\n", rr.Body.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		svc := new(MockAnalysisService)

		rr := httptest.NewRecorder()
		analysisRouter(svc, 1<<20).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analysis/export.pdf", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
	})

	t.Run("no model", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("Export", testSession, exporter.FormatXLSX).Return(apierrors.ErrModelNotTrained)

		rr := httptest.NewRecorder()
		analysisRouter(svc, 1<<20).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analysis/export.xlsx", nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Empty(t, rr.Header().Get("Content-Disposition"))
	})
}

func TestPresentationHandler(t *testing.T) {
	svc := new(MockPresentationService)
	svc.On("State", testSession).Return(sampleView(0, false), nil)
	svc.On("Navigate", testSession, "forward").Return(sampleView(1, false), nil)
	svc.On("Navigate", testSession, "sideways").Return(nil,
		apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Unknown slide action", "sideways"))

	h := NewPresentationHandler(svc, testLogger(), testErrorHandler())
	r := chi.NewRouter()
	r.Use(withSession)
	r.Mount("/api/presentation", h.Routes())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantIndex  float64
	}{
		{"current state", http.MethodGet, "/api/presentation", http.StatusOK, 0},
		{"forward", http.MethodPost, "/api/presentation/forward", http.StatusOK, 1},
		{"unknown action", http.MethodPost, "/api/presentation/sideways", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var view map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
			state := view["state"].(map[string]interface{})
			assert.Equal(t, tt.wantIndex, state["index"])
		})
	}
	svc.AssertExpectations(t)
}

func pageRouter(t *testing.T, analysis AnalysisServiceInterface, pres PresentationServiceInterface) http.Handler {
	t.Helper()
	renderer, err := NewPageRenderer(web.Templates())
	require.NoError(t, err)

	h := NewPageHandler(analysis, pres, renderer, middleware.NewValidator(), 1<<20, testLogger(), testErrorHandler())
	r := chi.NewRouter()
	r.Use(withSession)
	h.RegisterRoutes(r)
	return r
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func predictionForm() url.Values {
	return url.Values{
		"type":                {"L"},
		"air_temperature":     {"300"},
		"process_temperature": {"310"},
		"rotational_speed":    {"1500"},
		"torque":              {"40"},
		"tool_wear":           {"100"},
	}
}

func TestPageHandler_Analysis(t *testing.T) {
	t.Run("root redirects to analysis", func(t *testing.T) {
		rr := httptest.NewRecorder()
		pageRouter(t, new(MockAnalysisService), new(MockPresentationService)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/analysis", rr.Header().Get("Location"))
	})

	t.Run("form disabled before training", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("Summary", testSession).Return(untrainedSummary(), nil)

		rr := httptest.NewRecorder()
		pageRouter(t, svc, new(MockPresentationService)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/analysis", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "<fieldset disabled>")
		assert.Contains(t, rr.Body.String(), `value="300"`)
		assert.Contains(t, rr.Body.String(), `value="1500"`)
		assert.NotContains(t, rr.Body.String(), "confusion-matrix.svg")
	})

	t.Run("metrics after training", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("Summary", testSession).Return(trainedSummary(), nil)

		rr := httptest.NewRecorder()
		pageRouter(t, svc, new(MockPresentationService)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/analysis", nil))

		body := rr.Body.String()
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, body, `id="metric-accuracy">1.00<`)
		assert.Contains(t, body, `id="metric-rocauc">1.00<`)
		assert.Contains(t, body, "/api/analysis/confusion-matrix.svg")
		assert.NotContains(t, body, "<fieldset disabled>")
	})

	t.Run("upload redirects on success", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("Upload", testSession, "data.csv", "UDI\n").Return(trainedSummary(), nil)

		body, contentType := multipartBody(t, "file", "data.csv", "UDI\n")
		req := httptest.NewRequest(http.MethodPost, "/analysis/upload", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		pageRouter(t, svc, new(MockPresentationService)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/analysis?trained=1", rr.Header().Get("Location"))
	})

	t.Run("upload error shown inline", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("Upload", testSession, "bad.csv", "a\n").Return(nil,
			apierrors.DataFormatError("Dataset is missing required columns", map[string]interface{}{"missing": []string{"Type", "Torque [Nm]"}}))
		svc.On("Summary", testSession).Return(untrainedSummary(), nil)

		body, contentType := multipartBody(t, "file", "bad.csv", "a\n")
		req := httptest.NewRequest(http.MethodPost, "/analysis/upload", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		pageRouter(t, svc, new(MockPresentationService)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "Dataset is missing required columns: Type, Torque [Nm]")
	})

	t.Run("prediction rendered", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("Summary", testSession).Return(trainedSummary(), nil)
		svc.On("Predict", testSession, preprocessing.DefaultReading()).
			Return(&pipeline.Prediction{Label: 0, Probability: 0.04, Text: pipeline.NormalText}, nil)

		rr := httptest.NewRecorder()
		pageRouter(t, svc, new(MockPresentationService)).ServeHTTP(rr, postForm("/analysis/predict", predictionForm()))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), pipeline.NormalText)
		assert.Contains(t, rr.Body.String(), "Failure probability: 0.04")
		svc.AssertExpectations(t)
	})

	t.Run("prediction refused without model", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("Summary", testSession).Return(untrainedSummary(), nil)
		svc.On("Predict", testSession, preprocessing.DefaultReading()).Return(nil, apierrors.ErrModelNotTrained)

		rr := httptest.NewRecorder()
		pageRouter(t, svc, new(MockPresentationService)).ServeHTTP(rr, postForm("/analysis/predict", predictionForm()))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), apierrors.ErrModelNotTrained.Message)
	})

	t.Run("invalid type keeps entered values", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("Summary", testSession).Return(trainedSummary(), nil)

		form := predictionForm()
		form.Set("type", "Z")
		form.Set("torque", "61.5")
		rr := httptest.NewRecorder()
		pageRouter(t, svc, new(MockPresentationService)).ServeHTTP(rr, postForm("/analysis/predict", form))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `value="61.5"`)
		svc.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
	})
}

func TestPageHandler_Presentation(t *testing.T) {
	t.Run("renders current slide", func(t *testing.T) {
		pres := new(MockPresentationService)
		pres.On("State", testSession).Return(sampleView(3, true), nil)

		rr := httptest.NewRecorder()
		pageRouter(t, new(MockAnalysisService), pres).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/presentation", nil))

		body := rr.Body.String()
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, body, `<h2 id="slide-title">Model</h2>`)
		assert.Contains(t, body, "Slide 4 of 7")
		assert.Contains(t, body, "Stop autoplay")
		assert.Contains(t, body, "width: 57.1%")
	})

	t.Run("navigation redirects", func(t *testing.T) {
		pres := new(MockPresentationService)
		pres.On("Navigate", testSession, "last").Return(sampleView(6, false), nil)

		rr := httptest.NewRecorder()
		pageRouter(t, new(MockAnalysisService), pres).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/presentation/last", nil))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/presentation", rr.Header().Get("Location"))
		pres.AssertExpectations(t)
	})

	t.Run("unknown action shown inline", func(t *testing.T) {
		pres := new(MockPresentationService)
		pres.On("Navigate", testSession, "jump").Return(nil,
			apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Unknown slide action", "jump"))
		pres.On("State", testSession).Return(sampleView(0, false), nil)

		rr := httptest.NewRecorder()
		pageRouter(t, new(MockAnalysisService), pres).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/presentation/jump", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Unknown slide action")
	})
}
