package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chartermate/charter-ledger/internal/apperrors"
	"github.com/chartermate/charter-ledger/internal/core/domain"
	portssvc "github.com/chartermate/charter-ledger/internal/core/ports/services"
	"github.com/chartermate/charter-ledger/internal/dto"
	"github.com/chartermate/charter-ledger/internal/handlers"
	"github.com/chartermate/charter-ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock EventService ---
type MockEventService struct {
	mock.Mock
}

var _ portssvc.EventSvcFacade = (*MockEventService)(nil)

func (m *MockEventService) CreateAndProcess(ctx context.Context, req dto.CreateEventRequest, creatorUserID string) (*domain.AccountingEvent, domain.EventProcessResult, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, domain.EventProcessResult{}, args.Error(2)
	}
	return args.Get(0).(*domain.AccountingEvent), args.Get(1).(domain.EventProcessResult), args.Error(2)
}

func (m *MockEventService) ProcessEvent(ctx context.Context, eventID, userID string) (domain.EventProcessResult, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Get(0).(domain.EventProcessResult), args.Error(1)
}

func (m *MockEventService) RetryEvent(ctx context.Context, eventID, userID string) (domain.EventProcessResult, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Get(0).(domain.EventProcessResult), args.Error(1)
}

func (m *MockEventService) CancelEvent(ctx context.Context, eventID, userID string) error {
	args := m.Called(ctx, eventID, userID)
	return args.Error(0)
}

func (m *MockEventService) CheckDuplicate(ctx context.Context, eventType domain.EventType, sourceDocumentType, sourceDocumentID string) (bool, error) {
	args := m.Called(ctx, eventType, sourceDocumentType, sourceDocumentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, eventID string) (*domain.AccountingEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingEvent), args.Error(1)
}

func (m *MockEventService) GetEventJournals(ctx context.Context, eventID string) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, params dto.ListEventsParams) (*dto.ListEventsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEventsResponse), args.Error(1)
}

// --- Test Suite ---
type EventHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	mockEventService *MockEventService
	jwtSecret        string
	testUserID       string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *EventHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "charter-ledger-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedString, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signedString
}

func (suite *EventHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.testUserID = uuid.NewString()

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockEventService = new(MockEventService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterEventRoutes(v1, suite.mockEventService)
}

func (suite *EventHandlerTestSuite) performRequest(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			suite.FailNow("Failed to encode request body", err.Error())
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.testUserID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func sampleCreateRequest() dto.CreateEventRequest {
	return dto.CreateEventRequest{
		EventType:          domain.EventReceiptIssued,
		EventDate:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		AffectedCompanies:  []string{"comp-1"},
		EventData:          json.RawMessage(`{"companyID":"comp-1","paymentMethod":"cash","subtotal":"1000","vatAmount":"70","totalAmount":"1070","currency":"EUR"}`),
		SourceDocumentType: "RECEIPT",
		SourceDocumentID:   "rcpt-42",
	}
}

func sampleEvent() *domain.AccountingEvent {
	now := time.Now().UTC()
	return &domain.AccountingEvent{
		EventID:           uuid.NewString(),
		EventType:         domain.EventReceiptIssued,
		EventDate:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:            domain.EventProcessed,
		AffectedCompanies: []string{"comp-1"},
		ProcessedAt:       &now,
	}
}

// --- Test Cases ---

func (suite *EventHandlerTestSuite) TestCreateEvent_Success() {
	event := sampleEvent()
	result := domain.EventProcessResult{Success: true, JournalEntryIDs: []string{uuid.NewString()}}

	suite.mockEventService.On("CreateAndProcess", mock.Anything, mock.AnythingOfType("dto.CreateEventRequest"), suite.testUserID).Return(event, result, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/events", sampleCreateRequest())

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.CreateEventResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(event.EventID, resp.Event.EventID)
	suite.True(resp.Result.Success)
	suite.mockEventService.AssertExpectations(suite.T())
}

func (suite *EventHandlerTestSuite) TestCreateEvent_Duplicate() {
	dupErr := apperrors.NewAppError(409, "duplicate", apperrors.ErrDuplicate)
	suite.mockEventService.On("CreateAndProcess", mock.Anything, mock.AnythingOfType("dto.CreateEventRequest"), suite.testUserID).Return(nil, domain.EventProcessResult{}, dupErr).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/events", sampleCreateRequest())

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *EventHandlerTestSuite) TestCreateEvent_InvalidBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.testUserID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockEventService.AssertNotCalled(suite.T(), "CreateAndProcess")
}

func (suite *EventHandlerTestSuite) TestCreateEvent_Unauthorized() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *EventHandlerTestSuite) TestProcessEvent_Success() {
	eventID := uuid.NewString()
	result := domain.EventProcessResult{Success: true, JournalEntryIDs: []string{uuid.NewString()}}

	suite.mockEventService.On("ProcessEvent", mock.Anything, eventID, suite.testUserID).Return(result, nil).Once()

	w := suite.performRequest(http.MethodPost, fmt.Sprintf("/api/v1/events/%s/process", eventID), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ProcessResultResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Success)
}

func (suite *EventHandlerTestSuite) TestProcessEvent_Conflict() {
	eventID := uuid.NewString()
	conflictErr := fmt.Errorf("%w: cannot process event in status PROCESSED", apperrors.ErrConflict)

	suite.mockEventService.On("ProcessEvent", mock.Anything, eventID, suite.testUserID).Return(domain.EventProcessResult{}, conflictErr).Once()

	w := suite.performRequest(http.MethodPost, fmt.Sprintf("/api/v1/events/%s/process", eventID), nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *EventHandlerTestSuite) TestRetryEvent_NotFound() {
	eventID := uuid.NewString()
	notFoundErr := fmt.Errorf("failed to find event %s: %w", eventID, apperrors.ErrNotFound)

	suite.mockEventService.On("RetryEvent", mock.Anything, eventID, suite.testUserID).Return(domain.EventProcessResult{}, notFoundErr).Once()

	w := suite.performRequest(http.MethodPost, fmt.Sprintf("/api/v1/events/%s/retry", eventID), nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *EventHandlerTestSuite) TestCancelEvent_Success() {
	eventID := uuid.NewString()
	suite.mockEventService.On("CancelEvent", mock.Anything, eventID, suite.testUserID).Return(nil).Once()

	w := suite.performRequest(http.MethodPost, fmt.Sprintf("/api/v1/events/%s/cancel", eventID), nil)

	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *EventHandlerTestSuite) TestCancelEvent_Conflict() {
	eventID := uuid.NewString()
	conflictErr := fmt.Errorf("%w: cannot cancel event in status PROCESSED", apperrors.ErrConflict)

	suite.mockEventService.On("CancelEvent", mock.Anything, eventID, suite.testUserID).Return(conflictErr).Once()

	w := suite.performRequest(http.MethodPost, fmt.Sprintf("/api/v1/events/%s/cancel", eventID), nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *EventHandlerTestSuite) TestGetEvent_NotFound() {
	eventID := uuid.NewString()
	suite.mockEventService.On("GetEvent", mock.Anything, eventID).Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/events/"+eventID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *EventHandlerTestSuite) TestGetEventJournals_Success() {
	eventID := uuid.NewString()
	journals := []domain.JournalEntry{{JournalEntryID: uuid.NewString(), CompanyID: "comp-1"}}

	suite.mockEventService.On("GetEventJournals", mock.Anything, eventID).Return(journals, nil).Once()

	w := suite.performRequest(http.MethodGet, fmt.Sprintf("/api/v1/events/%s/journals", eventID), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.GetEventJournalsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(eventID, resp.EventID)
	suite.Len(resp.Journals, 1)
}

func (suite *EventHandlerTestSuite) TestListEvents_Success() {
	page := &dto.ListEventsResponse{Events: []dto.EventResponse{dto.ToEventResponse(sampleEvent())}}

	suite.mockEventService.On("ListEvents", mock.Anything, mock.MatchedBy(func(p dto.ListEventsParams) bool {
		return p.CompanyID == "comp-1" && p.Limit == 10
	})).Return(page, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/events?companyID=comp-1&limit=10", nil)

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *EventHandlerTestSuite) TestCheckDuplicate_Success() {
	suite.mockEventService.On("CheckDuplicate", mock.Anything, domain.EventReceiptIssued, "RECEIPT", "rcpt-42").Return(true, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/events/duplicate-check?eventType=RECEIPT_ISSUED&sourceDocumentType=RECEIPT&sourceDocumentID=rcpt-42", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp map[string]bool
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp["isDuplicate"])
}

func (suite *EventHandlerTestSuite) TestCheckDuplicate_MissingParams() {
	w := suite.performRequest(http.MethodGet, "/api/v1/events/duplicate-check?eventType=RECEIPT_ISSUED", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockEventService.AssertNotCalled(suite.T(), "CheckDuplicate")
}

// --- Run Test Suite ---
func TestEventHandler(t *testing.T) {
	suite.Run(t, new(EventHandlerTestSuite))
}
