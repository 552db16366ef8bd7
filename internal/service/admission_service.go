package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/models"
	"chargehub/internal/payment"
	"chargehub/internal/repository"
)

// Actor identifies who is performing a core operation. It is always passed
// explicitly; the controller never reads ambient session state.
type Actor struct {
	UserID int64
	Role   string
}

// AdmissionResult is the outcome of a charge-start request: either an admitted
// session or a 1-based waiting-queue position.
type AdmissionResult struct {
	Admitted bool            `json:"admitted"`
	Session  *models.Session `json:"session,omitempty"`
	Position int             `json:"position,omitempty"`
}

// QueueStatus is the polling response for a queued user. CanProceed is
// advisory: the caller still has to request admission to claim a slot.
type QueueStatus struct {
	Position   int  `json:"position"`
	Active     int  `json:"active"`
	Capacity   int  `json:"capacity"`
	CanProceed bool `json:"can_proceed"`
}

// StationState is the availability snapshot published after every admission
// or session exit.
type StationState struct {
	StationID int64 `json:"station_id"`
	Active    int   `json:"active"`
	Capacity  int   `json:"capacity"`
	Waiting   int   `json:"waiting"`
}

// StateNotifier receives availability snapshots.
type StateNotifier interface {
	PublishStationState(state StationState)
}

// ActiveSessionCache mirrors active sessions into a fast store.
type ActiveSessionCache interface {
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, sessionID int64) error
}

// AdmissionService decides whether a user may start charging now or must wait,
// and advances the waiting line when sessions end. All capacity decisions run
// under the station's row lock so the active count can never exceed the
// charger count.
type AdmissionService struct {
	users    UserStore
	stations StationStore
	sessions SessionStore
	store    AdmissionStore
	payments payment.Processor
	cache    ActiveSessionCache
	notifier StateNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewAdmissionService builds service. Cache and notifier may be nil.
func NewAdmissionService(
	users UserStore,
	stations StationStore,
	sessions SessionStore,
	store AdmissionStore,
	payments payment.Processor,
	cache ActiveSessionCache,
	notifier StateNotifier,
	logger *zap.Logger,
) *AdmissionService {
	return &AdmissionService{
		users:    users,
		stations: stations,
		sessions: sessions,
		store:    store,
		payments: payments,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestAdmission admits the user into an active session when a charger is
// free, otherwise joins them to the station's FIFO queue (idempotently) and
// reports their position.
func (s *AdmissionService) RequestAdmission(ctx context.Context, userID, stationID int64, units float64) (*AdmissionResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Blacklisted {
		return nil, ErrUserBlacklisted
	}

	station, err := s.stations.GetByID(ctx, stationID)
	if err != nil {
		return nil, err
	}

	var result AdmissionResult
	err = s.store.InStationTx(ctx, stationID, func(tx repository.AdmissionTx) error {
		active, err := tx.CountActive(ctx, stationID)
		if err != nil {
			return err
		}

		if active < station.Chargers {
			amount := units * station.PricePerKWh
			receipt, err := s.payments.Process(ctx, amount)
			if err != nil {
				return err
			}
			session := &models.Session{
				UserID:       userID,
				StationID:    stationID,
				Units:        units,
				Amount:       amount,
				PaymentToken: receipt.Token,
				Status:       models.SessionStatusActive,
				StartedAt:    s.now(),
			}
			if err := tx.InsertSession(ctx, session); err != nil {
				return err
			}
			result = AdmissionResult{Admitted: true, Session: session}
			return nil
		}

		entry, err := tx.QueueEntry(ctx, stationID, userID)
		if errors.Is(err, repository.ErrQueueEntryNotFound) {
			entry = &models.QueueEntry{
				StationID: stationID,
				UserID:    userID,
				JoinedAt:  s.now(),
			}
			if err := tx.InsertQueueEntry(ctx, entry); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		position, err := tx.QueuePosition(ctx, entry)
		if err != nil {
			return err
		}
		result = AdmissionResult{Admitted: false, Position: position}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Admitted {
		s.cacheSave(ctx, result.Session)
		s.logger.Info("session admitted",
			zap.Int64("user_id", userID),
			zap.Int64("station_id", stationID),
			zap.Int64("session_id", result.Session.ID),
		)
	} else {
		s.logger.Info("user queued",
			zap.Int64("user_id", userID),
			zap.Int64("station_id", stationID),
			zap.Int("position", result.Position),
		)
	}
	s.publishState(ctx, station)
	return &result, nil
}

// QueryPosition reports the user's place in the waiting line along with
// current occupancy. Returns ErrNotInQueue when the user has no entry.
func (s *AdmissionService) QueryPosition(ctx context.Context, userID, stationID int64) (*QueueStatus, error) {
	station, err := s.stations.GetByID(ctx, stationID)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.QueueEntry(ctx, stationID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrQueueEntryNotFound) {
			return nil, ErrNotInQueue
		}
		return nil, err
	}

	position, err := s.store.QueuePosition(ctx, entry)
	if err != nil {
		return nil, err
	}
	active, err := s.store.CountActive(ctx, stationID)
	if err != nil {
		return nil, err
	}

	return &QueueStatus{
		Position:   position,
		Active:     active,
		Capacity:   station.Chargers,
		CanProceed: position <= 1 && active < station.Chargers,
	}, nil
}

// EndSession moves an active session to Completed or Cancelled and pops the
// earliest waiting-queue entry for the station. The session's own user may
// complete it; the station's owner may complete or cancel it.
func (s *AdmissionService) EndSession(ctx context.Context, sessionID int64, actor Actor, outcome string) (*models.Session, error) {
	if outcome != models.SessionStatusCompleted && outcome != models.SessionStatusCancelled {
		return nil, errors.New("admission: unknown outcome")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	station, err := s.stations.GetByID(ctx, session.StationID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.UserID == station.OwnerID:
	case actor.UserID == session.UserID && outcome == models.SessionStatusCompleted:
	default:
		return nil, ErrForbidden
	}

	if session.Status != models.SessionStatusActive {
		return nil, repository.ErrSessionNotActive
	}

	now := s.now()
	duration := int(now.Sub(session.StartedAt).Minutes())
	if duration < 0 {
		duration = 0
	}

	finished := *session
	finished.Status = outcome
	finished.CompletedAt = &now
	finished.DurationMinutes = &duration
	if outcome == models.SessionStatusCompleted && finished.Amount == 0 {
		finished.Amount = finished.Units * station.PricePerKWh
	}

	err = s.store.InStationTx(ctx, station.ID, func(tx repository.AdmissionTx) error {
		if err := tx.FinishSession(ctx, &finished); err != nil {
			return err
		}
		popped, err := tx.PopQueueHead(ctx, station.ID)
		if err != nil {
			return err
		}
		if popped != nil {
			s.logger.Info("queue advanced",
				zap.Int64("station_id", station.ID),
				zap.Int64("user_id", popped.UserID),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheDelete(ctx, sessionID)
	s.logger.Info("session finished",
		zap.Int64("session_id", sessionID),
		zap.String("outcome", outcome),
		zap.Int64("actor_id", actor.UserID),
	)
	s.publishState(ctx, station)
	return &finished, nil
}

func (s *AdmissionService) cacheSave(ctx context.Context, session *models.Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, session); err != nil {
		s.logger.Warn("failed to cache active session", zap.Error(err))
	}
}

func (s *AdmissionService) cacheDelete(ctx context.Context, sessionID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("failed to delete active session cache", zap.Error(err))
	}
}

func (s *AdmissionService) publishState(ctx context.Context, station *models.Station) {
	if s.notifier == nil {
		return
	}
	active, err := s.store.CountActive(ctx, station.ID)
	if err != nil {
		s.logger.Warn("failed to read active count for snapshot", zap.Error(err))
		return
	}
	waiting, err := s.store.WaitingCount(ctx, station.ID)
	if err != nil {
		s.logger.Warn("failed to read waiting count for snapshot", zap.Error(err))
		return
	}
	s.notifier.PublishStationState(StationState{
		StationID: station.ID,
		Active:    active,
		Capacity:  station.Chargers,
		Waiting:   waiting,
	})
}
