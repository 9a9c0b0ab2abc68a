package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type mockRegistryRepo struct {
	nodes   map[string]*models.OrgNode
	created []interface{}
	codes   []string
	refs    models.OrgReferences
}

func (m *mockRegistryRepo) Create(ctx context.Context, level models.OrgLevel, row interface{}) error {
	m.created = append(m.created, row)
	return nil
}

func (m *mockRegistryRepo) GetNode(ctx context.Context, level models.OrgLevel, id string) (*models.OrgNode, error) {
	if n, ok := m.nodes[string(level)+":"+id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistryRepo) ListNodes(ctx context.Context, level models.OrgLevel, parentID string, activeOnly bool) ([]models.OrgNode, error) {
	out := make([]models.OrgNode, 0)
	for key, n := range m.nodes {
		if strings.HasPrefix(key, string(level)+":") && (!activeOnly || n.IsActive) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockRegistryRepo) Rename(ctx context.Context, level models.OrgLevel, id, name string, at time.Time) error {
	m.nodes[string(level)+":"+id].Name = name
	return nil
}

func (m *mockRegistryRepo) Deactivate(ctx context.Context, level models.OrgLevel, id string, at time.Time) error {
	m.nodes[string(level)+":"+id].IsActive = false
	return nil
}

func (m *mockRegistryRepo) References(ctx context.Context, level models.OrgLevel, id string) (models.OrgReferences, error) {
	return m.refs, nil
}

func (m *mockRegistryRepo) DepartmentCodes(ctx context.Context, floorID, base string) ([]string, error) {
	out := make([]string, 0)
	for _, c := range m.codes {
		if strings.HasPrefix(c, base) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockRegistryRepo) ResolveByCode(ctx context.Context, building, block string, floor int, department, room, location string) ([]models.LocationPath, error) {
	if building == "HQ" && location == "DESK-01" {
		return []models.LocationPath{{LocationID: "loc-1", LocationCode: location}}, nil
	}
	return nil, nil
}

func newRegistryFixture() (*RegistryService, *mockRegistryRepo, *mockAuditRepo) {
	repo := &mockRegistryRepo{nodes: map[string]*models.OrgNode{
		"floors:floor-2":      {ID: "floor-2", Code: "2", IsActive: true},
		"floors:floor-closed": {ID: "floor-closed", Code: "9", IsActive: false},
		"departments:dept-1":  {ID: "dept-1", Code: "IPDS01", Name: "IPDS", IsActive: true},
	}}
	audit := &mockAuditRepo{}
	svc := NewRegistryService(repo, NewAuditService(audit, zap.NewNop()), nil, zap.NewNop())
	svc.now = func() time.Time { return engineNow }
	return svc, repo, audit
}

func TestDepartmentCodeBase(t *testing.T) {
	cases := map[string]string{
		"Statistics":                       "STATIS",
		"IPDS":                             "IPDS",
		"Integrasi Pengolahan":             "INPE",
		"Bagian Umum dan Keuangan Pusat":   "BAUMDA",
		"  ":                               "",
		"Neraca & Analisis Statistik 2024": "NEANST",
		"IT-Support":                       "ITSUPP",
		"IT-Support Unit":                  "ITUN",
		"Sub2Bagian":                       "SUBBAG",
		"Data & Sensus 2":                  "DASE",
	}
	for name, want := range cases {
		assert.Equal(t, want, DepartmentCodeBase(name), name)
	}
}

func TestRegistryServiceDepartmentCodeSkipsTaken(t *testing.T) {
	svc, repo, _ := newRegistryFixture()
	repo.codes = []string{"STATIS01", "STATIS02", "IPDS01"}

	code, err := svc.DepartmentCode(context.Background(), "floor-2", "Statistics")
	require.NoError(t, err)
	assert.Equal(t, "STATIS03", code)

	_, err = svc.DepartmentCode(context.Background(), "floor-2", "123")
	require.Error(t, err)
	assert.Contains(t, err.(*appErrors.Error).Fields, "name")
}

func TestRegistryServiceCreateDepartmentGeneratesCode(t *testing.T) {
	svc, repo, audit := newRegistryFixture()
	repo.codes = []string{"INPE01"}

	node, err := svc.Create(context.Background(), adminActor, models.LevelDepartment, dto.CreateOrgNodeRequest{
		ParentID: "floor-2",
		Name:     "Integrasi Pengolahan",
	})
	require.NoError(t, err)
	assert.Equal(t, "INPE02", node.Code)
	require.Len(t, repo.created, 1)
	dept, ok := repo.created[0].(*models.Department)
	require.True(t, ok)
	assert.Equal(t, "floor-2", dept.FloorID)
	assert.Equal(t, []string{models.AuditActionCreate}, audit.actions())
}

func TestRegistryServiceCreateRequiresActiveParent(t *testing.T) {
	svc, repo, _ := newRegistryFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, adminActor, models.LevelDepartment, dto.CreateOrgNodeRequest{Name: "IPDS"})
	require.Error(t, err)
	assert.Contains(t, err.(*appErrors.Error).Fields, "parent_id")

	_, err = svc.Create(ctx, adminActor, models.LevelDepartment, dto.CreateOrgNodeRequest{ParentID: "floor-closed", Name: "IPDS"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, err.(*appErrors.Error).Code)

	_, err = svc.Create(ctx, adminActor, models.LevelDepartment, dto.CreateOrgNodeRequest{ParentID: "floor-x", Name: "IPDS"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, err.(*appErrors.Error).Code)
	assert.Empty(t, repo.created)
}

func TestRegistryServiceDeactivateBlockedByReferences(t *testing.T) {
	svc, repo, audit := newRegistryFixture()
	ctx := context.Background()
	repo.refs = models.OrgReferences{ActiveStaff: 2}

	err := svc.Deactivate(ctx, adminActor, models.LevelDepartment, "dept-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, err.(*appErrors.Error).Code)
	assert.True(t, repo.nodes["departments:dept-1"].IsActive)

	repo.refs = models.OrgReferences{}
	require.NoError(t, svc.Deactivate(ctx, adminActor, models.LevelDepartment, "dept-1"))
	assert.False(t, repo.nodes["departments:dept-1"].IsActive)
	assert.Equal(t, []string{models.AuditActionDeactivate}, audit.actions())
}

func TestRegistryServiceResolve(t *testing.T) {
	svc, _, _ := newRegistryFixture()

	paths, err := svc.Resolve(context.Background(), dto.ResolveLocationQuery{
		Building: "hq", Block: "a", Floor: 2, Department: "ipds01", Room: "201", Location: "desk-01",
	})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "loc-1", paths[0].LocationID)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("Departments")
	require.NoError(t, err)
	assert.Equal(t, models.LevelDepartment, level)

	_, err = ParseLevel("wing")
	require.Error(t, err)
}
