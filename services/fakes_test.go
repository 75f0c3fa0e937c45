package services

import (
	"context"
	"errors"
	"fleet-backend/models"
	"sync"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu         sync.Mutex
	rules      []models.AutomaticActivity
	vehicles   []models.Vehicle
	drivers    []models.Driver
	activities []models.Activity
	keys       map[string]bool

	listErr    error
	fleetErr   error
	failInsert map[uuid.UUID]bool // rule ids whose inserts fail
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]bool{}, failInsert: map[uuid.UUID]bool{}}
}

func (s *memoryStore) ListAutomaticActivities(ctx context.Context, orgID *uuid.UUID) ([]models.AutomaticActivity, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.AutomaticActivity
	for _, r := range s.rules {
		if orgID == nil || r.OrganizationID == *orgID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryStore) ListVehicles(ctx context.Context, orgID uuid.UUID, status string) ([]models.Vehicle, error) {
	if s.fleetErr != nil {
		return nil, s.fleetErr
	}
	var out []models.Vehicle
	for _, v := range s.vehicles {
		if v.OrganizationID == orgID && (status == "" || v.Status == status) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *memoryStore) ListDrivers(ctx context.Context, orgID uuid.UUID) ([]models.Driver, error) {
	if s.fleetErr != nil {
		return nil, s.fleetErr
	}
	var out []models.Driver
	for _, d := range s.drivers {
		if d.OrganizationID == orgID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memoryStore) InsertGeneratedActivity(ctx context.Context, a *models.Activity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.AutomaticActivityID != nil && s.failInsert[*a.AutomaticActivityID] {
		return false, errors.New("insert failed")
	}
	if a.GenerationKey != nil {
		if s.keys[*a.GenerationKey] {
			return false, nil
		}
		s.keys[*a.GenerationKey] = true
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.activities = append(s.activities, *a)
	return true, nil
}

type memoryLock struct {
	held       map[string]bool
	acquireErr error
	released   []string
}

func newMemoryLock() *memoryLock {
	return &memoryLock{held: map[string]bool{}}
}

func (l *memoryLock) Acquire(ctx context.Context, key string) (bool, error) {
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memoryLock) Release(ctx context.Context, key string) error {
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

type recordingNotifier struct {
	summaries []*RunSummary
}

func (n *recordingNotifier) NotifyRun(ctx context.Context, summary *RunSummary) {
	n.summaries = append(n.summaries, summary)
}
