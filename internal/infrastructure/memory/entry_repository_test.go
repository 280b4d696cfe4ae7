package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
	"github.com/jhoicas/BancoSangre-api/internal/infrastructure/memory"
)

func fecha(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func seedLote(t *testing.T, store *memory.Store, id string, group entity.BloodGroup, units int, expiry time.Time) {
	t.Helper()
	require.NoError(t, store.Entries().Create(context.Background(), &entity.InventoryEntry{
		ID:             id,
		HospitalID:     "H1",
		BloodGroup:     group,
		UnitsAvailable: units,
		OriginalUnits:  units,
		CollectionDate: expiry.AddDate(0, 0, -entity.ShelfLifeDays),
		ExpiryDate:     expiry,
		Status:         entity.EntryStatusAvailable,
	}))
}

// Un barrido concurrente con otro día de referencia no pisa el consumo de una asignación en curso.
func TestExpireBefore_EsperaCandadoYConservaConsumo(t *testing.T) {
	cases := []struct {
		name  string
		scope repository.ExpiryScope
	}{
		{"alcance de la asignación", repository.ExpiryScope{HospitalID: "H1", BloodGroup: entity.BloodGroupOPos}},
		{"barrido global", repository.ExpiryScope{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			seedLote(t, store, "e1", entity.BloodGroupOPos, 3, fecha(10))

			held := make(chan struct{})
			release := make(chan struct{})
			allocDone := make(chan error, 1)
			go func() {
				allocDone <- store.Run(context.Background(), func(entryRepo repository.InventoryEntryRepository, _ repository.BloodRequestRepository, _ repository.IssueRecordRepository) error {
					list, err := entryRepo.ListEligibleForUpdate(context.Background(), "H1", entity.BloodGroupOPos, fecha(9))
					if err != nil {
						return err
					}
					close(held)
					<-release
					if err := list[0].Consume(1, fecha(9)); err != nil {
						return err
					}
					return entryRepo.UpdateUnits(context.Background(), list[0])
				})
			}()
			<-held

			type sweepResult struct {
				n   int
				err error
			}
			sweepDone := make(chan sweepResult, 1)
			go func() {
				var n int
				err := store.Run(context.Background(), func(entryRepo repository.InventoryEntryRepository, _ repository.BloodRequestRepository, _ repository.IssueRecordRepository) error {
					var err error
					n, err = entryRepo.ExpireBefore(context.Background(), tc.scope, fecha(11))
					return err
				})
				sweepDone <- sweepResult{n, err}
			}()

			select {
			case <-sweepDone:
				t.Fatal("el barrido no esperó el candado de la asignación")
			case <-time.After(50 * time.Millisecond):
			}
			close(release)
			require.NoError(t, <-allocDone)

			res := <-sweepDone
			require.NoError(t, res.err)
			assert.Equal(t, 1, res.n)

			e, err := store.Entries().GetByID(context.Background(), "e1")
			require.NoError(t, err)
			assert.Equal(t, entity.EntryStatusExpired, e.Status)
			assert.Equal(t, 1, e.UnitsConsumed)
			assert.Equal(t, 2, e.UnitsAvailable)
		})
	}
}

func TestExpireBefore_CandadoTomadoExpiraPorTiempo(t *testing.T) {
	store := memory.NewStore()
	store.LockTimeout = 50 * time.Millisecond
	seedLote(t, store, "e1", entity.BloodGroupOPos, 2, fecha(3))
	seedLote(t, store, "a1", entity.BloodGroupAPos, 2, fecha(3))

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Run(context.Background(), func(entryRepo repository.InventoryEntryRepository, _ repository.BloodRequestRepository, _ repository.IssueRecordRepository) error {
			if _, err := entryRepo.ListEligibleForUpdate(context.Background(), "H1", entity.BloodGroupOPos, fecha(2)); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := store.Run(context.Background(), func(entryRepo repository.InventoryEntryRepository, _ repository.BloodRequestRepository, _ repository.IssueRecordRepository) error {
		_, err := entryRepo.ExpireBefore(context.Background(), repository.ExpiryScope{HospitalID: "H1", BloodGroup: entity.BloodGroupOPos}, fecha(5))
		return err
	})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)

	// Otro grupo no comparte el candado.
	n, err := store.Entries().ExpireBefore(context.Background(), repository.ExpiryScope{HospitalID: "H1", BloodGroup: entity.BloodGroupAPos}, fecha(5))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	close(release)
	require.NoError(t, <-done)

	e, err := store.Entries().GetByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, entity.EntryStatusAvailable, e.Status)
}
