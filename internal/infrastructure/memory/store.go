// Package memory implementa el ledger en memoria con semántica transaccional:
// escrituras diferidas hasta Commit, Rollback descarta, y bloqueo exclusivo por
// (hospital, grupo) y por solicitud con espera acotada. Se usa en pruebas de la
// capa de aplicación y reproduce las garantías del adaptador PostgreSQL.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/BancoSangre-api/internal/application/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store estado confirmado del ledger y de los directorios de referencia.
type Store struct {
	mu        sync.Mutex
	entries   map[string]entity.InventoryEntry
	requests  map[string]entity.BloodRequest
	issues    map[string]entity.IssueRecord
	hospitals map[string]entity.HospitalRef
	actors    map[string]entity.Actor

	locks *lockTable

	// LockTimeout espera máxima para adquirir un candado (0 = sin límite).
	LockTimeout time.Duration
	// LockDelay retardo artificial tras adquirir un candado, para ensanchar ventanas de carrera en pruebas.
	LockDelay time.Duration
	// DirectoryErr simula que el colaborador de perfiles no está disponible.
	DirectoryErr error
}

// NewStore crea un ledger vacío.
func NewStore() *Store {
	return &Store{
		entries:     make(map[string]entity.InventoryEntry),
		requests:    make(map[string]entity.BloodRequest),
		issues:      make(map[string]entity.IssueRecord),
		hospitals:   make(map[string]entity.HospitalRef),
		actors:      make(map[string]entity.Actor),
		locks:       newLockTable(),
		LockTimeout: 5 * time.Second,
	}
}

// Entries repositorio fuera de transacción (lecturas confirmadas, escrituras inmediatas).
func (s *Store) Entries() repository.InventoryEntryRepository { return &entryRepo{s: s} }

// Requests repositorio de solicitudes fuera de transacción.
func (s *Store) Requests() repository.BloodRequestRepository { return &requestRepo{s: s} }

// Issues repositorio de registros de salida fuera de transacción.
func (s *Store) Issues() repository.IssueRecordRepository { return &issueRepo{s: s} }

// txn escrituras pendientes y candados de una transacción.
type txn struct {
	entries  map[string]entity.InventoryEntry
	requests map[string]entity.BloodRequest
	issues   map[string]entity.IssueRecord
	held     map[string]bool
}

// Run ejecuta fn con repositorios atados a una transacción; confirma si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(
	entryRepo repository.InventoryEntryRepository,
	requestRepo repository.BloodRequestRepository,
	issueRepo repository.IssueRecordRepository,
) error) error {
	tx := &txn{
		entries:  make(map[string]entity.InventoryEntry),
		requests: make(map[string]entity.BloodRequest),
		issues:   make(map[string]entity.IssueRecord),
		held:     make(map[string]bool),
	}
	defer func() {
		for key := range tx.held {
			s.locks.release(key)
		}
	}()

	if err := fn(&entryRepo{s: s, tx: tx}, &requestRepo{s: s, tx: tx}, &issueRepo{s: s, tx: tx}); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) commit(tx *txn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range tx.issues {
		if s.issueRequestTaken(rec.RequestID, rec.ID) {
			return domain.ErrDuplicate
		}
	}
	for id, e := range tx.entries {
		s.entries[id] = e
	}
	for id, r := range tx.requests {
		s.requests[id] = r
	}
	for id, rec := range tx.issues {
		s.issues[id] = rec
	}
	return nil
}

// issueRequestTaken requiere s.mu tomado.
func (s *Store) issueRequestTaken(requestID, exceptID string) bool {
	if requestID == "" {
		return false
	}
	for id, rec := range s.issues {
		if rec.RequestID == requestID && id != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) lock(ctx context.Context, tx *txn, key string) error {
	if tx.held[key] {
		return nil
	}
	if err := s.locks.acquire(ctx, key, s.LockTimeout); err != nil {
		return err
	}
	tx.held[key] = true
	if s.LockDelay > 0 {
		select {
		case <-time.After(s.LockDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// AddHospital registra un hospital en el directorio de referencia.
func (s *Store) AddHospital(ref entity.HospitalRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref.Exists = true
	s.hospitals[ref.ID] = ref
}

// AddActor registra un actor en el directorio de referencia.
func (s *Store) AddActor(a entity.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[a.ID] = a
}

// ResolveHospital implementa repository.HospitalDirectory.
func (s *Store) ResolveHospital(_ context.Context, hospitalID string) (entity.HospitalRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DirectoryErr != nil {
		return entity.HospitalRef{}, s.DirectoryErr
	}
	ref, ok := s.hospitals[hospitalID]
	if !ok {
		return entity.HospitalRef{ID: hospitalID}, nil
	}
	return ref, nil
}

// ResolveActor implementa repository.ActorDirectory.
func (s *Store) ResolveActor(_ context.Context, actorID string) (entity.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DirectoryErr != nil {
		return entity.Actor{}, s.DirectoryErr
	}
	a, ok := s.actors[actorID]
	if !ok {
		return entity.Actor{}, domain.ErrNotFound
	}
	return a, nil
}
