package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherplan/internal/domain"
)

// fakeRecommendationService implements domain.RecommendationService for handler tests.
type fakeRecommendationService struct {
	generateResult []*domain.VenueOption
	generateErr    error
	lastPrefs      *domain.AggregatedPreferences

	listResult []*domain.VenueOption
	listErr    error

	addResult       *domain.VenueOption
	addErr          error
	lastVenueID     *string
	lastExternalRef *string
}

func (f *fakeRecommendationService) GenerateRecommendations(ctx context.Context, eventID, callerID string, prefs *domain.AggregatedPreferences) ([]*domain.VenueOption, error) {
	f.lastPrefs = prefs
	return f.generateResult, f.generateErr
}

func (f *fakeRecommendationService) ListOptions(ctx context.Context, eventID, callerID string) ([]*domain.VenueOption, error) {
	return f.listResult, f.listErr
}

func (f *fakeRecommendationService) AddManualOption(ctx context.Context, eventID, callerID string, venueID *string, externalRef *string) (*domain.VenueOption, error) {
	f.lastVenueID = venueID
	f.lastExternalRef = externalRef
	return f.addResult, f.addErr
}

func TestRecommendationController_Generate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		score := 80.0
		fake := &fakeRecommendationService{generateResult: []*domain.VenueOption{
			{ID: "opt-1", Origin: domain.OriginAI, Score: &score},
		}}
		ctrl := NewRecommendationController(testLogger, fake)
		body := `{"preferences":{"cuisine_tags":["thai"],"tag_weights":{"thai":3},"suggested_category":"thai"}}`
		req := authorized(httptest.NewRequest(http.MethodPost, "/events/ev-1/recommendations", bytes.NewBufferString(body)), "user-1")
		req.SetPathValue("eventID", "ev-1")
		rr := httptest.NewRecorder()
		ctrl.Generate(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, fake.lastPrefs)
		var options []*domain.VenueOption
		decodeData(t, decodeEnvelope(t, rr), &options)
		require.Len(t, options, 1)
		assert.Equal(t, domain.OriginAI, options[0].Origin)
	})

	t.Run("wrong phase", func(t *testing.T) {
		fake := &fakeRecommendationService{generateErr: domain.NewBusinessRuleError(domain.RuleOptionsLocked, "options are locked")}
		ctrl := NewRecommendationController(testLogger, fake)
		req := authorized(httptest.NewRequest(http.MethodPost, "/events/ev-1/recommendations", bytes.NewBufferString(`{"preferences":{}}`)), "user-1")
		req.SetPathValue("eventID", "ev-1")
		rr := httptest.NewRecorder()
		ctrl.Generate(rr, req)

		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, domain.RuleOptionsLocked, envelope.Error.Code)
	})
}

func TestRecommendationController_ListOptions(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeRecommendationService{listResult: []*domain.VenueOption{{ID: "opt-1"}, {ID: "opt-2"}}}
		ctrl := NewRecommendationController(testLogger, fake)
		req := authorized(httptest.NewRequest(http.MethodGet, "/events/ev-1/options", nil), "user-2")
		req.SetPathValue("eventID", "ev-1")
		rr := httptest.NewRecorder()
		ctrl.ListOptions(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var options []*domain.VenueOption
		decodeData(t, decodeEnvelope(t, rr), &options)
		assert.Len(t, options, 2)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		fake := &fakeRecommendationService{listErr: domain.ErrForbidden}
		ctrl := NewRecommendationController(testLogger, fake)
		req := authorized(httptest.NewRequest(http.MethodGet, "/events/ev-1/options", nil), "user-9")
		req.SetPathValue("eventID", "ev-1")
		rr := httptest.NewRecorder()
		ctrl.ListOptions(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestRecommendationController_AddOption(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		serviceErr     error
		wantStatus     int
		wantBodySubstr string
		wantVenueID    *string
	}{
		{
			name:       "catalog venue",
			body:       `{"venue_id":"venue-1"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "external reference",
			body:       `{"external_ref":"Nonna's place"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:           "neither reference set",
			body:           `{}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "exactly one of venue_id or external_ref is required",
		},
		{
			name:           "both references set",
			body:           `{"venue_id":"venue-1","external_ref":"Nonna's place"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "exactly one of venue_id or external_ref is required",
		},
		{
			name:       "options locked",
			body:       `{"venue_id":"venue-1"}`,
			serviceErr: domain.NewBusinessRuleError(domain.RuleOptionsLocked, "options are locked"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown catalog venue",
			body:       `{"venue_id":"venue-missing"}`,
			serviceErr: domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRecommendationService{
				addResult: &domain.VenueOption{ID: "opt-1", Origin: domain.OriginOrganizer},
				addErr:    tt.serviceErr,
			}
			ctrl := NewRecommendationController(testLogger, fake)
			req := authorized(httptest.NewRequest(http.MethodPost, "/events/ev-1/options", bytes.NewBufferString(tt.body)), "user-1")
			req.SetPathValue("eventID", "ev-1")
			rr := httptest.NewRecorder()
			ctrl.AddOption(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				var option domain.VenueOption
				decodeData(t, envelope, &option)
				assert.Equal(t, "opt-1", option.ID)
				return
			}
			require.NotNil(t, envelope.Error)
			if tt.wantBodySubstr != "" {
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}
