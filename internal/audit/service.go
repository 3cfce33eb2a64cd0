// Package audit records who changed the catalog, who signed in and what
// the maintenance jobs did, and archives events past their retention.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// maxText bounds free-text columns.
const maxText = 500

type Service struct {
	repo     *audit.Repository
	archiver *ArchiveWriter
	inflight sync.WaitGroup
}

// NewService wires the event store. Without an archiver expired events are
// deleted outright.
func NewService(repo *audit.Repository, archiver *ArchiveWriter) *Service {
	return &Service{repo: repo, archiver: archiver}
}

// Record stores an event synchronously.
func (s *Service) Record(event *entities.AuditEvent) error {
	return s.repo.Insert(event)
}

// submit stores an event in the background. Request handlers never wait
// on the audit log, failures are only logged.
func (s *Service) submit(event *entities.AuditEvent) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.repo.Insert(event); err != nil {
			slog.Error("audit write failed", "action", event.Action, "error", err)
		}
	}()
}

// Wait blocks until background writes are done.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func newEvent(kind entities.AuditEventType, action, description string) *entities.AuditEvent {
	return &entities.AuditEvent{
		EventType:   kind,
		Action:      action,
		Description: clip(description, maxText),
		Status:      entities.AuditStatusSuccess,
	}
}

func (s *Service) catalog(userID uint, kind entities.AuditEventType, verb, entity, id, label string) {
	e := newEvent(kind, entity+"_"+string(kind), fmt.Sprintf("%s %s: %s", verb, entity, label))
	e.UserID, e.EntityType, e.EntityID = userID, entity, id
	s.submit(e)
}

func (s *Service) LogCreate(userID uint, entity, id, label string) {
	s.catalog(userID, entities.AuditEventCreate, "Created", entity, id, label)
}

func (s *Service) LogUpdate(userID uint, entity, id, label string) {
	s.catalog(userID, entities.AuditEventUpdate, "Changed", entity, id, label)
}

func (s *Service) LogDelete(userID uint, entity, id, label string) {
	s.catalog(userID, entities.AuditEventDelete, "Deleted", entity, id, label)
}

// LogRejected records a write refused by a catalog constraint, for
// example deleting a book that still has copies.
func (s *Service) LogRejected(userID uint, entity, id, operation string, err error) {
	e := newEvent(entities.AuditEventRejected, entity+"_"+operation+"_rejected", "Rejected "+operation+" of "+entity)
	e.UserID, e.EntityType, e.EntityID = userID, entity, id
	failed(e, err)
	s.submit(e)
}

// LogAuth records a login, logout or setup attempt.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	e := newEvent(entities.AuditEventAuth, action, "")
	e.UserID, e.IPAddress, e.UserAgent = userID, ipAddr, clip(userAgent, maxText)
	if !success {
		e.Status = entities.AuditStatusFailed
	}
	s.submit(e)
}

// LogMaintenance records one maintenance run. A non-nil err marks it failed.
func (s *Service) LogMaintenance(action, description string, metadata map[string]any, err error) {
	e := newEvent(entities.AuditEventMaintenance, action, description)
	e.Metadata = encodeMetadata(metadata)
	if err != nil {
		failed(e, err)
	}
	s.submit(e)
}

// LogOverdue records a copy still on loan after its due date. It writes
// synchronously so the scan can count failures.
func (s *Service) LogOverdue(instance entities.BookInstance, today entities.Date) error {
	var due string
	if instance.DueBack != nil {
		due = instance.DueBack.String()
	}
	e := newEvent(entities.AuditEventOverdue, "bookinstance_overdue", fmt.Sprintf("%s was due back on %s", instance, due))
	e.EntityType, e.EntityID = entities.ModelBookInstance, instance.ID.String()
	e.Metadata = encodeMetadata(map[string]any{
		"book_id":    instance.BookID,
		"due_back":   due,
		"scanned_on": today.String(),
	})
	return s.repo.Insert(e)
}

// GetEvents lists events newest first with the total match count.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.List(filter, limit, offset)
}

// History is the newest events of one catalog record.
func (s *Service) History(entity, id string, limit int) ([]entities.AuditEvent, error) {
	events, _, err := s.repo.List(audit.Filter{EntityType: entity, EntityID: id}, limit, 0)
	return events, err
}

// ArchiveOldEvents moves events older than retention into an archive file
// and returns how many were removed along with the file name. No file is
// written when nothing has expired.
func (s *Service) ArchiveOldEvents(retention time.Duration) (int64, string, error) {
	now := time.Now()
	cutoff := now.Add(-retention)

	if s.archiver == nil {
		n, err := s.repo.Purge(cutoff)
		return n, "", err
	}

	expired, err := s.repo.Before(cutoff)
	if err != nil {
		return 0, "", fmt.Errorf("load expired audit events: %w", err)
	}
	if len(expired) == 0 {
		return 0, "", nil
	}

	name, err := s.archiver.Write(Archive{ArchivedAt: now, Cutoff: cutoff, Count: len(expired), Events: expired})
	if err != nil {
		return 0, "", err
	}
	n, err := s.repo.Purge(cutoff)
	if err != nil {
		return 0, name, fmt.Errorf("delete archived audit events: %w", err)
	}
	return n, name, nil
}

func failed(e *entities.AuditEvent, err error) {
	e.Status = entities.AuditStatusFailed
	if err == nil {
		return
	}
	e.ErrorMsg = clip(err.Error(), maxText)
}

func encodeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}

// clip cuts s to at most n bytes, marking the cut with "...".
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
