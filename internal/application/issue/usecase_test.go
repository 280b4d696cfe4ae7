package issue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/application/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/application/issue"
	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/infrastructure/memory"
)

type fakeSlip struct {
	rec      *entity.IssueRecord
	hospital entity.HospitalRef
}

func (f *fakeSlip) GenerateIssueSlip(_ context.Context, rec *entity.IssueRecord, hospital entity.HospitalRef, _ *entity.BloodRequest) ([]byte, error) {
	f.rec = rec
	f.hospital = hospital
	return []byte("%PDF-fake"), nil
}

func setup(t *testing.T) (*issue.UseCase, *fakeSlip, string) {
	t.Helper()
	store := memory.NewStore()
	store.AddHospital(entity.HospitalRef{ID: "H1", Name: "Hospital Central", Approved: true})
	store.AddActor(entity.Actor{ID: "staff", Role: entity.RoleHospital, HospitalID: "H1"})
	store.AddActor(entity.Actor{ID: "otro", Role: entity.RoleHospital, HospitalID: "H2"})
	require.NoError(t, store.Entries().Create(context.Background(), &entity.InventoryEntry{
		ID: "e1", HospitalID: "H1", BloodGroup: entity.BloodGroupOPos,
		UnitsAvailable: 3, OriginalUnits: 3, Status: entity.EntryStatusAvailable,
		ExpiryDate: time.Now().AddDate(0, 0, 10),
	}))
	engine := inventory.NewAllocationEngine(store)
	res, err := engine.Allocate(context.Background(), inventory.AllocationInput{
		RequestID: "R1", HospitalID: "H1", BloodGroup: entity.BloodGroupOPos, Units: 2, IssuedBy: "staff",
	})
	require.NoError(t, err)

	slip := &fakeSlip{}
	return issue.NewUseCase(store.Issues(), store.Requests(), auth.NewGuard(store, store), slip), slip, res.Issue.ID
}

func TestIssue_GetYPorSolicitud(t *testing.T) {
	uc, _, id := setup(t)
	ctx := context.Background()

	rec, err := uc.Get(ctx, "staff", id)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.UnitsIssued)

	rec, err = uc.GetByRequest(ctx, "staff", "R1")
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)

	_, err = uc.GetByRequest(ctx, "staff", "R9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIssue_OtroHospitalProhibido(t *testing.T) {
	uc, _, id := setup(t)
	_, err := uc.Get(context.Background(), "otro", id)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.List(context.Background(), "otro", "H1", 10, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestIssue_Slip(t *testing.T) {
	uc, slip, id := setup(t)
	pdf, name, err := uc.Slip(context.Background(), "staff", id)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(pdf))
	assert.Equal(t, "salida-"+id+".pdf", name)
	assert.Equal(t, "Hospital Central", slip.hospital.Name)
	assert.Equal(t, id, slip.rec.ID)
}
