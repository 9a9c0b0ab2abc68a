package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type mockStaffRepo struct {
	rows    map[string]*models.Staff
	history map[string][2]int
	updates int
	deleted []string
}

func (m *mockStaffRepo) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	out := make([]models.Staff, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockStaffRepo) FindByRef(ctx context.Context, ref string) (*models.Staff, error) {
	for _, s := range m.rows {
		if s.ID == ref || s.EmployeeID == ref {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffRepo) Create(ctx context.Context, staff *models.Staff) error {
	m.rows[staff.ID] = staff
	return nil
}

func (m *mockStaffRepo) Update(ctx context.Context, staff *models.Staff) error {
	m.updates++
	cp := *staff
	m.rows[staff.ID] = &cp
	return nil
}

func (m *mockStaffRepo) Deactivate(ctx context.Context, id string, leavingDate, at time.Time) error {
	row := m.rows[id]
	row.IsActive = false
	row.LeavingDate = &leavingDate
	return nil
}

func (m *mockStaffRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.rows, id)
	return nil
}

func (m *mockStaffRepo) CountAssignments(ctx context.Context, id string) (int, int, error) {
	counts := m.history[id]
	return counts[0], counts[1], nil
}

var deptScoped = &models.EffectivePermissions{
	PermissionSet: models.PermissionSet{RestrictedToOwnDepartment: true},
	DepartmentIDs: []string{"dept-ipds"},
}

func newStaffFixture() (*StaffService, *mockStaffRepo, *mockAuditRepo) {
	repo := &mockStaffRepo{
		rows: map[string]*models.Staff{
			"staff-1": {ID: "staff-1", EmployeeID: "110100091", FullName: "Rina Kusuma", DepartmentID: "dept-ipds", JoiningDate: time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC), IsActive: true},
			"staff-2": {ID: "staff-2", EmployeeID: "110100092", FullName: "Agus Salim", DepartmentID: "dept-umum", JoiningDate: time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), IsActive: true},
		},
		history: map[string][2]int{},
	}
	departments := &mockDepartments{rows: map[string]models.Department{
		"dept-ipds":   {ID: "dept-ipds", Code: "IPDS01", Name: "IPDS", IsActive: true},
		"dept-umum":   {ID: "dept-umum", Code: "BAUM01", Name: "Bagian Umum", IsActive: true},
		"dept-closed": {ID: "dept-closed", Code: "OLD01", Name: "Old", IsActive: false},
	}}
	audit := &mockAuditRepo{}
	svc := NewStaffService(repo, departments, NewAuditService(audit, zap.NewNop()), nil, zap.NewNop())
	svc.now = func() time.Time { return engineNow }
	return svc, repo, audit
}

func validStaffRequest() dto.CreateStaffRequest {
	return dto.CreateStaffRequest{
		EmployeeID:   "110100093",
		FullName:     " Dewi Lestari ",
		DepartmentID: "dept-ipds",
		Email:        "Dewi@BPS.go.id",
		JoiningDate:  "2024-02-01",
	}
}

func TestStaffServiceCreate(t *testing.T) {
	svc, repo, audit := newStaffFixture()

	staff, err := svc.Create(context.Background(), adminActor, nil, validStaffRequest())
	require.NoError(t, err)
	assert.Equal(t, "Dewi Lestari", staff.FullName)
	assert.Equal(t, "dewi@bps.go.id", staff.Email)
	assert.True(t, staff.IsActive)
	assert.Contains(t, repo.rows, staff.ID)
	assert.Equal(t, []string{models.AuditActionCreate}, audit.actions())
}

func TestStaffServiceCreateRejects(t *testing.T) {
	cases := []struct {
		name   string
		perms  *models.EffectivePermissions
		mutate func(*dto.CreateStaffRequest)
		code   string
		field  string
	}{
		{name: "future joining date", mutate: func(r *dto.CreateStaffRequest) { r.JoiningDate = "2025-03-11" }, code: appErrors.ErrValidation.Code, field: "joining_date"},
		{name: "inactive department", mutate: func(r *dto.CreateStaffRequest) { r.DepartmentID = "dept-closed" }, code: appErrors.ErrValidation.Code, field: "department_id"},
		{name: "unknown department", mutate: func(r *dto.CreateStaffRequest) { r.DepartmentID = "dept-x" }, code: appErrors.ErrValidation.Code, field: "department_id"},
		{name: "foreign department", perms: deptScoped, mutate: func(r *dto.CreateStaffRequest) { r.DepartmentID = "dept-umum" }, code: appErrors.ErrForbidden.Code},
		{name: "bad employee id", mutate: func(r *dto.CreateStaffRequest) { r.EmployeeID = "a b" }, code: appErrors.ErrValidation.Code, field: "employee_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := newStaffFixture()
			req := validStaffRequest()
			tc.mutate(&req)
			_, err := svc.Create(context.Background(), adminActor, tc.perms, req)
			require.Error(t, err)
			appErr := err.(*appErrors.Error)
			assert.Equal(t, tc.code, appErr.Code)
			if tc.field != "" {
				assert.Contains(t, appErr.Fields, tc.field)
			}
			assert.Len(t, repo.rows, 2)
		})
	}
}

func TestStaffServiceGetOutOfScope(t *testing.T) {
	svc, _, _ := newStaffFixture()

	staff, err := svc.Get(context.Background(), deptScoped, "110100091")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", staff.ID)

	_, err = svc.Get(context.Background(), deptScoped, "110100092")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, err.(*appErrors.Error).Code)
}

func TestStaffServiceUpdateSkipsNoop(t *testing.T) {
	svc, repo, audit := newStaffFixture()
	ctx := context.Background()

	_, err := svc.Update(ctx, adminActor, nil, "staff-1", dto.UpdateStaffRequest{FullName: strPtr("Rina Kusuma")})
	require.NoError(t, err)
	assert.Zero(t, repo.updates)

	updated, err := svc.Update(ctx, adminActor, nil, "staff-1", dto.UpdateStaffRequest{Designation: strPtr("Statistisi Ahli Muda")})
	require.NoError(t, err)
	assert.Equal(t, "Statistisi Ahli Muda", updated.Designation)
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, []string{models.AuditActionUpdate}, audit.actions())
}

func TestStaffServiceDeactivate(t *testing.T) {
	svc, repo, audit := newStaffFixture()
	ctx := context.Background()

	_, err := svc.Deactivate(ctx, adminActor, nil, "staff-1", dto.DeactivateStaffRequest{LeavingDate: strPtr("2019-01-01")})
	require.Error(t, err)
	assert.Contains(t, err.(*appErrors.Error).Fields, "leaving_date")

	staff, err := svc.Deactivate(ctx, adminActor, nil, "staff-1", dto.DeactivateStaffRequest{LeavingDate: strPtr("2025-02-28")})
	require.NoError(t, err)
	assert.False(t, staff.IsActive)
	require.NotNil(t, staff.LeavingDate)
	assert.Equal(t, "2025-02-28", staff.LeavingDate.Format(models.DateLayout))
	assert.False(t, repo.rows["staff-1"].IsActive)
	assert.Equal(t, []string{models.AuditActionDeactivate}, audit.actions())

	_, err = svc.Deactivate(ctx, adminActor, nil, "staff-1", dto.DeactivateStaffRequest{})
	require.NoError(t, err)
	assert.Len(t, audit.actions(), 1)
}

func TestStaffServiceDeleteBlockedByHistory(t *testing.T) {
	svc, repo, audit := newStaffFixture()
	ctx := context.Background()

	repo.history["staff-1"] = [2]int{1, 3}
	err := svc.Delete(ctx, adminActor, nil, "staff-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, err.(*appErrors.Error).Code)

	repo.history["staff-1"] = [2]int{0, 2}
	err = svc.Delete(ctx, adminActor, nil, "staff-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history")

	require.NoError(t, svc.Delete(ctx, adminActor, nil, "staff-2"))
	assert.Equal(t, []string{"staff-2"}, repo.deleted)
	assert.Equal(t, []string{models.AuditActionDelete}, audit.actions())
}
