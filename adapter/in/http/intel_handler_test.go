package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/core/service/common"
	"intel_server/infra/middleware"
	"intel_server/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOwner = uuid.MustParse("6f1c9a3e-2b7d-4c55-9d0e-1a2b3c4d5e6f")

func newTestApp(register func(fiber.Router)) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		if c.Get("X-Anonymous") == "" {
			c.Locals(middleware.UserIDLocal, testOwner)
		}
		return c.Next()
	})
	register(api)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// =============================================================================
// Emails
// =============================================================================

type stubEmailService struct {
	processed *domain.ProcessedEmail
	err       error

	lastInput  *in.ProcessEmailInput
	lastFilter domain.EmailFilter
	corrected  []string
}

func (s *stubEmailService) Process(_ context.Context, input *in.ProcessEmailInput) (*domain.ProcessedEmail, error) {
	s.lastInput = input
	return s.processed, s.err
}

func (s *stubEmailService) Get(_ context.Context, _, _ uuid.UUID) (*domain.ProcessedEmail, error) {
	return s.processed, s.err
}

func (s *stubEmailService) List(_ context.Context, _ uuid.UUID, filter domain.EmailFilter) ([]*domain.ProcessedEmail, int, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, 0, s.err
	}
	return []*domain.ProcessedEmail{s.processed}, 7, nil
}

func (s *stubEmailService) CorrectPriority(_ context.Context, _, _ uuid.UUID, p domain.Priority) (*domain.ProcessedEmail, error) {
	s.corrected = append(s.corrected, "priority:"+p.String())
	return s.processed, s.err
}

func (s *stubEmailService) CorrectCategory(_ context.Context, _, _ uuid.UUID, c domain.Category) (*domain.ProcessedEmail, error) {
	s.corrected = append(s.corrected, "category:"+string(c))
	return s.processed, s.err
}

func sampleEmail() *domain.ProcessedEmail {
	return domain.NewProcessedEmail(testOwner, "m-1", "Budget", "cfo@example.com", nil, "Numbers attached", time.Time{},
		domain.ClassificationResult{Priority: domain.PriorityHigh, Category: domain.CategoryActionRequired, Confidence: 0.9})
}

func TestProcessEmail(t *testing.T) {
	svc := &stubEmailService{processed: sampleEmail()}
	app := newTestApp(NewEmailHandler(svc).Register)

	status, env := do(t, app, "POST", "/api/v1/emails/process",
		`{"email_id":"m-1","subject":"Budget","from":"cfo@example.com","body":"Numbers attached"}`)

	require.Equal(t, 200, status)
	assert.True(t, env.Success)
	assert.Equal(t, testOwner, svc.lastInput.OwnerID)
	assert.Equal(t, "m-1", svc.lastInput.EmailID)

	var got processedEmailResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "high", got.Classification.Priority)
	assert.Equal(t, "ActionRequired", got.Classification.Category)
	assert.Equal(t, []string{}, got.Classification.Keywords)
}

func TestEmailErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", fmt.Errorf("%w: email_id is required", common.ErrInvalidInput), 400, apperr.CodeBadRequest},
		{"not found", common.ErrNotFound, 404, apperr.CodeNotFound},
		{"storage", errors.New("mongo down"), 500, apperr.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(NewEmailHandler(&stubEmailService{err: tt.err}).Register)
			status, env := do(t, app, "GET", "/api/v1/emails/"+uuid.NewString(), "")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestEmailRequiresOwner(t *testing.T) {
	app := newTestApp(NewEmailHandler(&stubEmailService{processed: sampleEmail()}).Register)
	status, env := do(t, app, "GET", "/api/v1/emails/"+uuid.NewString(), "", "X-Anonymous", "1")
	assert.Equal(t, 401, status)
	assert.Equal(t, apperr.CodeUnauthorized, env.Error.Code)
}

func TestListEmailsFilter(t *testing.T) {
	svc := &stubEmailService{processed: sampleEmail()}
	app := newTestApp(NewEmailHandler(svc).Register)

	status, env := do(t, app, "GET", "/api/v1/emails?priority=high&category=meeting&requires_response=true&limit=1", "")
	require.Equal(t, 200, status)

	require.NotNil(t, svc.lastFilter.Priority)
	assert.Equal(t, domain.PriorityHigh, *svc.lastFilter.Priority)
	require.NotNil(t, svc.lastFilter.Category)
	assert.Equal(t, domain.CategoryMeeting, *svc.lastFilter.Category)
	require.NotNil(t, svc.lastFilter.RequiresResponse)
	assert.True(t, *svc.lastFilter.RequiresResponse)
	assert.Equal(t, 1, svc.lastFilter.Limit)
	assert.Equal(t, float64(7), env.Meta["total"])
	assert.Equal(t, true, env.Meta["has_more"])

	status, env = do(t, app, "GET", "/api/v1/emails?category=Bogus", "")
	assert.Equal(t, 400, status)
	assert.Equal(t, apperr.CodeInvalidInput, env.Error.Code)
}

func TestCorrectEmail(t *testing.T) {
	svc := &stubEmailService{processed: sampleEmail()}
	app := newTestApp(NewEmailHandler(svc).Register)
	path := "/api/v1/emails/" + uuid.NewString() + "/correct"

	status, _ := do(t, app, "POST", path, `{"priority":"low","category":"support"}`)
	require.Equal(t, 200, status)
	assert.Equal(t, []string{"priority:low", "category:Support"}, svc.corrected)

	status, env := do(t, app, "POST", path, `{}`)
	assert.Equal(t, 400, status)
	assert.Equal(t, apperr.CodeMissingField, env.Error.Code)

	status, _ = do(t, app, "POST", path, `{"priority":"urgent"}`)
	assert.Equal(t, 400, status)

	status, env = do(t, app, "POST", "/api/v1/emails/not-a-uuid/correct", `{"priority":"low"}`)
	assert.Equal(t, 400, status)
	assert.Equal(t, apperr.CodeInvalidInput, env.Error.Code)
}

// =============================================================================
// Drafts
// =============================================================================

type stubDraftService struct {
	draft *domain.EmailDraft
	err   error

	generatedFor uuid.UUID
	edit         string
	calls        []string
}

func (s *stubDraftService) Generate(_ context.Context, _, processedEmailID uuid.UUID, _ string) (*domain.EmailDraft, error) {
	s.generatedFor = processedEmailID
	return s.draft, s.err
}

func (s *stubDraftService) Get(context.Context, uuid.UUID, uuid.UUID) (*domain.EmailDraft, error) {
	return s.draft, s.err
}

func (s *stubDraftService) Edit(_ context.Context, _, _ uuid.UUID, content string, _ []string) (*domain.EmailDraft, error) {
	s.edit = content
	return s.draft, s.err
}

func (s *stubDraftService) Approve(context.Context, uuid.UUID, uuid.UUID) (*domain.EmailDraft, error) {
	s.calls = append(s.calls, "approve")
	return s.draft, s.err
}

func (s *stubDraftService) Reject(context.Context, uuid.UUID, uuid.UUID) (*domain.EmailDraft, error) {
	s.calls = append(s.calls, "reject")
	return s.draft, s.err
}

func (s *stubDraftService) MarkSent(context.Context, uuid.UUID, uuid.UUID) (*domain.EmailDraft, error) {
	s.calls = append(s.calls, "sent")
	return s.draft, s.err
}

func sampleDraft() *domain.EmailDraft {
	return domain.NewEmailDraft(testOwner, uuid.New(), "Re: Budget", "Thanks, will review.", "gpt-4o-mini", 0.8, 0.7)
}

func TestGenerateDraft(t *testing.T) {
	svc := &stubDraftService{draft: sampleDraft()}
	app := newTestApp(NewDraftHandler(svc).Register)
	emailID := uuid.New()

	status, env := do(t, app, "POST", "/api/v1/drafts", `{"processed_email_id":"`+emailID.String()+`"}`)
	require.Equal(t, 201, status)
	assert.Equal(t, emailID, svc.generatedFor)

	var got draftResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "generated", got.Status)
	assert.Equal(t, 0.8, got.Confidence)

	status, _ = do(t, app, "POST", "/api/v1/drafts", `{"processed_email_id":"x"}`)
	assert.Equal(t, 400, status)
}

func TestDraftLifecycleRoutes(t *testing.T) {
	svc := &stubDraftService{draft: sampleDraft()}
	app := newTestApp(NewDraftHandler(svc).Register)
	base := "/api/v1/drafts/" + uuid.NewString()

	for _, action := range []string{"approve", "reject", "sent"} {
		status, _ := do(t, app, "POST", base+"/"+action, "")
		assert.Equal(t, 200, status, action)
	}
	assert.Equal(t, []string{"approve", "reject", "sent"}, svc.calls)

	status, _ := do(t, app, "PUT", base, `{"content":"Dear team, noted."}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Dear team, noted.", svc.edit)
}

func TestDraftInvalidTransition(t *testing.T) {
	svc := &stubDraftService{err: &domain.TransitionError{From: domain.DraftSent, To: domain.DraftRejected}}
	app := newTestApp(NewDraftHandler(svc).Register)

	status, env := do(t, app, "POST", "/api/v1/drafts/"+uuid.NewString()+"/reject", "")
	assert.Equal(t, 409, status)
	assert.Equal(t, apperr.CodeInvalidTransition, env.Error.Code)
}

// =============================================================================
// Learning
// =============================================================================

type stubLearningService struct {
	profile   *domain.ToneProfile
	patterns  []*domain.LearningPattern
	err       error
	lastScope map[string]any
	refreshed bool
}

func (s *stubLearningService) HandleDraftEdited(context.Context, *domain.DraftEditedEvent) error {
	return nil
}

func (s *stubLearningService) RefreshToneProfile(context.Context, uuid.UUID) (*domain.ToneProfile, error) {
	s.refreshed = true
	return s.profile, s.err
}

func (s *stubLearningService) GetToneProfile(context.Context, uuid.UUID) (*domain.ToneProfile, error) {
	return s.profile, s.err
}

func (s *stubLearningService) FindApplicable(_ context.Context, _ uuid.UUID, _ string, scope map[string]any) []*domain.LearningPattern {
	s.lastScope = scope
	return s.patterns
}

func TestApplicablePatterns(t *testing.T) {
	pattern := domain.NewLearningPattern(testOwner, domain.PatternToneAdjustment, "Hi", "Dear", nil, nil)
	svc := &stubLearningService{patterns: []*domain.LearningPattern{pattern}}
	app := newTestApp(NewLearningHandler(svc).Register)

	status, env := do(t, app, "GET", "/api/v1/learning/patterns/applicable?content=hello&category=meeting&priority=2", "")
	require.Equal(t, 200, status)
	assert.Equal(t, map[string]any{"category": "Meeting", "priority": "high"}, svc.lastScope)

	var got []patternResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Dear", got[0].ModifiedText)
	assert.Equal(t, pattern.Confidence(), got[0].Confidence)

	status, env = do(t, app, "GET", "/api/v1/learning/patterns/applicable", "")
	assert.Equal(t, 400, status)
	assert.Equal(t, apperr.CodeMissingField, env.Error.Code)
}

func TestToneProfileRoutes(t *testing.T) {
	svc := &stubLearningService{}
	app := newTestApp(NewLearningHandler(svc).Register)

	status, env := do(t, app, "GET", "/api/v1/learning/tone-profile", "")
	assert.Equal(t, 404, status)
	assert.Equal(t, apperr.CodeNotFound, env.Error.Code)

	svc.profile = domain.NewToneProfile(testOwner, domain.ToneUpdate{Style: domain.ToneFormal})
	status, env = do(t, app, "POST", "/api/v1/learning/tone-profile/refresh", "")
	require.Equal(t, 200, status)
	assert.True(t, svc.refreshed)

	var got toneProfileResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "formal", got.Style)
	assert.Equal(t, 0.1, got.Confidence)

	svc.err = fmt.Errorf("%w: context deadline exceeded", common.ErrLockTimeout)
	status, env = do(t, app, "POST", "/api/v1/learning/tone-profile/refresh", "")
	assert.Equal(t, 504, status)
	assert.Equal(t, apperr.CodeTimeout, env.Error.Code)
}

// =============================================================================
// Health
// =============================================================================

func TestReady(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("refused") }

	app := fiber.New()
	NewHealthHandler(map[string]PingFunc{"postgres": healthy}).Register(app)
	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	app = fiber.New()
	NewHealthHandler(map[string]PingFunc{"postgres": healthy, "redis": broken}).Register(app)
	resp, err = app.Test(httptest.NewRequest("GET", "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}
