package readingcreate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/taroteka/tarot-miniapp/internal/http/middlewarectx"
	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/services/entitlement"
	"github.com/taroteka/tarot-miniapp/internal/services/reading"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Create(ctx context.Context, userUID, kind, question string) (*reading.Result, error) {
	args := m.Called(ctx, userUID, kind, question)
	res, _ := args.Get(0).(*reading.Result)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func authedRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/readings/yesno", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middlewarectx.UserUID, "user-1")
	return req.WithContext(ctx)
}

func TestReadingCreateHandler_ServeHTTP(t *testing.T) {
	okResult := &reading.Result{
		Cards:          []models.Card{{Name: "Солнце", Upright: true}},
		Interpretation: "Хороший знак",
		Entitlement:    entitlement.Result{HasSubscription: true},
	}
	accessErr := &reading.AccessError{
		Message:     "нужна подписка",
		Entitlement: entitlement.Result{},
	}

	tests := []struct {
		name           string
		requestBody    any
		mockResult     *reading.Result
		mockErr        error
		wantStatusCode int
		wantContains   string
	}{
		{
			name:           "successful reading",
			requestBody:    models.DummyReadingRequest{Question: "Стоит ли?"},
			mockResult:     okResult,
			wantStatusCode: http.StatusOK,
			wantContains:   "Хороший знак",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantContains:   "invalid request body",
		},
		{
			name:           "validation error - missing question",
			requestBody:    models.DummyReadingRequest{},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantContains:   "Question",
		},
		{
			name:           "entitlement denied",
			requestBody:    models.DummyReadingRequest{Question: "Стоит ли?"},
			mockErr:        accessErr,
			wantStatusCode: http.StatusForbidden,
			wantContains:   `"subscriptionRequired":true`,
		},
		{
			name:           "interpreter failure",
			requestBody:    models.DummyReadingRequest{Question: "Стоит ли?"},
			mockErr:        reading.ErrInterpretation,
			wantStatusCode: http.StatusBadGateway,
			wantContains:   "interpretation service unavailable",
		},
		{
			name:           "storage failure",
			requestBody:    models.DummyReadingRequest{Question: "Стоит ли?"},
			mockErr:        errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
			wantContains:   "could not complete reading",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcMock := new(ServiceMock)
			if tt.mockResult != nil || tt.mockErr != nil {
				svcMock.On("Create", mock.Anything, "user-1", models.ReadingYesNo, "Стоит ли?").
					Return(tt.mockResult, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svcMock, models.ReadingYesNo)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(v)
				assert.NoError(t, err)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, authedRequest(t, bodyBytes))

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantContains)
			svcMock.AssertExpectations(t)
		})
	}
}

func TestReadingCreateHandler_Unauthorized(t *testing.T) {
	handler := New(newNoopLogger(), new(ServiceMock), models.ReadingYesNo)

	body, _ := json.Marshal(models.DummyReadingRequest{Question: "Стоит ли?"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/readings/yesno", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestReadingCreateHandler_DailySkipsBody(t *testing.T) {
	svcMock := new(ServiceMock)
	svcMock.On("Create", mock.Anything, "user-1", models.ReadingDaily, "").
		Return(&reading.Result{Interpretation: "Совет дня"}, nil).Once()
	handler := New(newNoopLogger(), svcMock, models.ReadingDaily)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/readings/daily", nil)
	req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "user-1"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Совет дня")
	svcMock.AssertExpectations(t)
}
