package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"gatherplan/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var eventRowColumns = []string{
	"id", "organizer_id", "title", "description", "status",
	"scheduled_at", "timezone_offset_minutes",
	"expected_attendees", "max_attendees", "acceptance_threshold",
	"chosen_venue_id", "rsvp_deadline", "invitation_deadline", "budget_per_person",
	"previous_scheduled_at", "reschedule_count", "reschedule_reason",
	"cancellation_reason", "conversation_id", "created_at", "updated_at",
}

func addEventRow(rows *sqlmock.Rows, e *domain.Event) *sqlmock.Rows {
	return rows.AddRow(
		e.ID, e.OrganizerID, e.Title, e.Description, string(e.Status),
		e.ScheduledAt, e.TimezoneOffsetMinutes,
		e.ExpectedAttendees, e.MaxAttendees, e.AcceptanceThreshold,
		e.ChosenVenueID, e.RSVPDeadline, e.InvitationDeadline, e.BudgetPerPerson,
		e.PreviousScheduledAt, e.RescheduleCount, e.RescheduleReason,
		e.CancellationReason, e.ConversationID, e.CreatedAt, e.UpdatedAt,
	)
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			event: &domain.Event{
				OrganizerID:         "user-1",
				Title:               "Team dinner",
				Status:              domain.StatusDraft,
				ExpectedAttendees:   10,
				MaxAttendees:        15,
				AcceptanceThreshold: 0.7,
				CreatedAt:           createdAt,
				UpdatedAt:           createdAt,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WithArgs("user-1", "Team dinner", nil, "draft",
						nil, 0, 10, 15, 0.7,
						nil, nil, nil, nil,
						createdAt, createdAt).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
			},
			wantID:  "ev-1",
			wantErr: false,
		},
		{
			name: "db error",
			event: &domain.Event{
				OrganizerID: "user-1",
				Title:       "Team dinner",
				Status:      domain.StatusDraft,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantID:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Create(ctx, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.event.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	scheduledAt := time.Date(2026, 4, 10, 19, 0, 0, 0, time.UTC)
	budget := 25.0

	event := &domain.Event{
		ID:                    "ev-1",
		OrganizerID:           "user-1",
		Title:                 "Team dinner",
		Status:                domain.StatusInviting,
		ScheduledAt:           &scheduledAt,
		TimezoneOffsetMinutes: 420,
		ExpectedAttendees:     10,
		MaxAttendees:          15,
		AcceptanceThreshold:   0.7,
		BudgetPerPerson:       &budget,
		CreatedAt:             createdAt,
		UpdatedAt:             createdAt,
	}

	tests := []struct {
		name       string
		id         string
		mock       func(mock sqlmock.Sqlmock)
		want       *domain.Event
		wantErr    bool
		isNotFound bool
	}{
		{
			name: "success",
			id:   "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT(.|\s)+FROM events(.|\s)+WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnRows(addEventRow(sqlmock.NewRows(eventRowColumns), event))
			},
			want:    event,
			wantErr: false,
		},
		{
			name: "not found",
			id:   "ev-missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT(.|\s)+FROM events(.|\s)+WHERE id = \$1`).
					WithArgs("ev-missing").
					WillReturnError(sql.ErrNoRows)
			},
			want:       nil,
			wantErr:    true,
			isNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			got, err := repo.GetByID(ctx, tt.id)
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, got)
				if tt.isNotFound {
					require.True(t, errors.Is(err, domain.ErrNotFound))
				}
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	updatedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	venueID := "venue-1"

	tests := []struct {
		name       string
		event      *domain.Event
		mock       func(mock sqlmock.Sqlmock)
		wantErr    bool
		isNotFound bool
	}{
		{
			name: "success",
			event: &domain.Event{
				ID:                    "ev-1",
				Status:                domain.StatusConfirmed,
				ChosenVenueID:         &venueID,
				TimezoneOffsetMinutes: 420,
				UpdatedAt:             updatedAt,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE events`).
					WithArgs("confirmed", &venueID, 420, nil, nil, updatedAt, "ev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantErr: false,
		},
		{
			name: "not found",
			event: &domain.Event{
				ID:        "ev-missing",
				Status:    domain.StatusCancelled,
				UpdatedAt: updatedAt,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE events`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:    true,
			isNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.UpdateStatus(ctx, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				if tt.isNotFound {
					require.True(t, errors.Is(err, domain.ErrNotFound))
				}
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_ListOverlapping(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2026, 4, 10, 17, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 10, 21, 0, 0, 0, time.UTC)
	scheduledAt := time.Date(2026, 4, 10, 19, 0, 0, 0, time.UTC)
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	event := &domain.Event{
		ID:                  "ev-1",
		OrganizerID:         "user-1",
		Title:               "Team dinner",
		Status:              domain.StatusPlanning,
		ScheduledAt:         &scheduledAt,
		ExpectedAttendees:   10,
		MaxAttendees:        15,
		AcceptanceThreshold: 0.7,
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
	}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    []*domain.Event
		wantErr bool
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT(.|\s)+FROM events(.|\s)+WHERE organizer_id = \$1`).
					WithArgs("user-1", from, to).
					WillReturnRows(addEventRow(sqlmock.NewRows(eventRowColumns), event))
			},
			want:    []*domain.Event{event},
			wantErr: false,
		},
		{
			name: "success empty",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT(.|\s)+FROM events(.|\s)+WHERE organizer_id = \$1`).
					WithArgs("user-1", from, to).
					WillReturnRows(sqlmock.NewRows(eventRowColumns))
			},
			want:    []*domain.Event{},
			wantErr: false,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT(.|\s)+FROM events(.|\s)+WHERE organizer_id = \$1`).
					WithArgs("user-1", from, to).
					WillReturnError(sql.ErrConnDone)
			},
			want:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			got, err := repo.ListOverlapping(ctx, "user-1", from, to)
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, got)
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_SaveRecommendationProgress(t *testing.T) {
	ctx := context.Background()
	updatedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	progress := &domain.RecommendationProgress{
		Step:       "scoring_candidates",
		Percent:    50,
		Enrichment: domain.EnrichmentPending,
		UpdatedAt:  updatedAt,
	}

	tests := []struct {
		name       string
		eventID    string
		mock       func(mock sqlmock.Sqlmock)
		wantErr    bool
		isNotFound bool
	}{
		{
			name:    "success",
			eventID: "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE events(.|\s)+SET recommendation_progress`).
					WithArgs(sqlmock.AnyArg(), updatedAt, "ev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantErr: false,
		},
		{
			name:    "not found",
			eventID: "ev-missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE events(.|\s)+SET recommendation_progress`).
					WithArgs(sqlmock.AnyArg(), updatedAt, "ev-missing").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:    true,
			isNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.SaveRecommendationProgress(ctx, tt.eventID, progress)
			if tt.wantErr {
				require.Error(t, err)
				if tt.isNotFound {
					require.True(t, errors.Is(err, domain.ErrNotFound))
				}
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
