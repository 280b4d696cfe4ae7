package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// ExpirySweeper marca como Expired los lotes disponibles cuyo vencimiento ya pasó.
// La asignación también barre de forma perezosa su (hospital, grupo), así que correr
// el barrido programado es opcional.
type ExpirySweeper struct {
	txRunner TxRunner
	log      zerolog.Logger
}

// NewExpirySweeper construye el barredor.
func NewExpirySweeper(txRunner TxRunner, log zerolog.Logger) *ExpirySweeper {
	return &ExpirySweeper{txRunner: txRunner, log: log}
}

// Sweep barre todos los hospitales y grupos y devuelve cuántos lotes venció.
func (s *ExpirySweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	return s.SweepScope(ctx, repository.ExpiryScope{}, now)
}

// SweepScope barre solo el hospital y/o grupo indicados.
func (s *ExpirySweeper) SweepScope(ctx context.Context, scope repository.ExpiryScope, now time.Time) (int, error) {
	var count int
	err := s.txRunner.Run(ctx, func(
		entryRepo repository.InventoryEntryRepository,
		_ repository.BloodRequestRepository,
		_ repository.IssueRecordRepository,
	) error {
		var err error
		count, err = entryRepo.ExpireBefore(ctx, scope, entity.Day(now))
		return err
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info().Int("expired", count).Str("hospital_id", scope.HospitalID).Msg("barrido de vencidos")
	}
	return count, nil
}

// Start corre Sweep cada interval hasta que ctx se cancele. Bloquea; lanzar en su propia goroutine.
func (s *ExpirySweeper) Start(ctx context.Context, interval time.Duration, now Clock) {
	if interval <= 0 {
		return
	}
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, now()); err != nil {
				s.log.Error().Err(err).Msg("barrido de vencidos falló")
			}
		}
	}
}
