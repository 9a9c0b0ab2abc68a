package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
)

type memSetupRoles struct {
	roles map[string]models.Role
	users map[string]bool
}

func (m *memSetupRoles) UpsertRole(ctx context.Context, role *models.Role) error {
	m.roles[role.Name] = *role
	return nil
}

func (m *memSetupRoles) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.users[username] {
		return &models.User{Username: username}, nil
	}
	return nil, sql.ErrNoRows
}

type memSetupRegistry struct {
	nodes   map[models.OrgLevel][]models.OrgNode
	created int
}

func (m *memSetupRegistry) List(ctx context.Context, level models.OrgLevel, parentID string, activeOnly bool) ([]models.OrgNode, error) {
	out := make([]models.OrgNode, 0)
	for _, n := range m.nodes[level] {
		if parentID == "" || (n.ParentID != nil && *n.ParentID == parentID) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memSetupRegistry) Create(ctx context.Context, actor models.Actor, level models.OrgLevel, req dto.CreateOrgNodeRequest) (*models.OrgNode, error) {
	code := req.Code
	switch level {
	case models.LevelRoom:
		code = req.RoomNumber
	case models.LevelFloor:
		code = strconv.Itoa(*req.FloorNumber)
	}
	node := models.OrgNode{ID: uuid.NewString(), Code: code, Name: req.Name, IsActive: true}
	if req.ParentID != "" {
		parent := req.ParentID
		node.ParentID = &parent
	}
	m.nodes[level] = append(m.nodes[level], node)
	m.created++
	return &node, nil
}

type memSetupCatalog struct {
	categories []models.DeviceCategory
	subs       []models.DeviceSubcategory
	types      []models.DeviceType
}

func (m *memSetupCatalog) Categories(ctx context.Context) ([]models.DeviceCategory, error) {
	return m.categories, nil
}

func (m *memSetupCatalog) Subcategories(ctx context.Context, categoryID string) ([]models.DeviceSubcategory, error) {
	out := make([]models.DeviceSubcategory, 0)
	for _, s := range m.subs {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSetupCatalog) Types(ctx context.Context, subcategoryID string) ([]models.DeviceType, error) {
	out := make([]models.DeviceType, 0)
	for _, t := range m.types {
		if t.SubcategoryID == subcategoryID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memSetupCatalog) CreateCategory(ctx context.Context, actor models.Actor, req dto.CreateCategoryRequest) (*models.DeviceCategory, error) {
	c := models.DeviceCategory{ID: uuid.NewString(), Code: req.Code, Name: req.Name}
	m.categories = append(m.categories, c)
	return &c, nil
}

func (m *memSetupCatalog) CreateSubcategory(ctx context.Context, actor models.Actor, req dto.CreateSubcategoryRequest) (*models.DeviceSubcategory, error) {
	s := models.DeviceSubcategory{ID: uuid.NewString(), CategoryID: req.CategoryID, Code: req.Code, Name: req.Name}
	m.subs = append(m.subs, s)
	return &s, nil
}

func (m *memSetupCatalog) CreateType(ctx context.Context, actor models.Actor, req dto.CreateDeviceTypeRequest) (*models.DeviceType, error) {
	t := models.DeviceType{ID: uuid.NewString(), SubcategoryID: req.SubcategoryID, Name: req.Name}
	m.types = append(m.types, t)
	return &t, nil
}

type memSetupVendors struct {
	rows []models.Vendor
}

func (m *memSetupVendors) List(ctx context.Context, activeOnly bool, search string) ([]models.Vendor, error) {
	return m.rows, nil
}

func (m *memSetupVendors) Create(ctx context.Context, actor models.Actor, req dto.CreateVendorRequest) (*models.Vendor, error) {
	v := models.Vendor{ID: uuid.NewString(), VendorCode: req.VendorCode, Name: req.Name, VendorType: req.VendorType}
	m.rows = append(m.rows, v)
	return &v, nil
}

type memSetupUsers struct {
	created []dto.CreateUserRequest
	roles   *memSetupRoles
}

func (m *memSetupUsers) Create(ctx context.Context, actor models.Actor, req dto.CreateUserRequest) (*models.User, error) {
	m.created = append(m.created, req)
	m.roles.users[req.Username] = true
	return &models.User{ID: uuid.NewString(), Username: req.Username}, nil
}

const sampleSeed = `
buildings:
  - code: BPS-MAIN-BLDG
    name: Main Building
    blocks:
      - code: A
        floors:
          - number: 3
            name: Third Floor
            departments:
              - code: BPS-IT-DEPT
                name: Information Technology Department
                rooms:
                  - number: "301"
                    name: Server Room
                    locations:
                      - code: RACK-1
                        type: rack
roles:
  - name: auditor
    permissions:
      can_view_all_devices: true
      can_generate_reports: true
categories:
  - code: COMP
    name: Computing Devices
    subcategories:
      - code: LAP
        name: Laptops
        types:
          - name: Ultrabook
          - name: Workstation Laptop
vendors:
  - code: V-001
    name: Acme Supplies
    type: supplier
admin:
  username: admin
  password: change-me-now
`

func newSetupFixture() (*SetupService, *memSetupRoles, *memSetupRegistry, *memSetupCatalog, *memSetupVendors, *memSetupUsers) {
	roles := &memSetupRoles{roles: map[string]models.Role{}, users: map[string]bool{}}
	registry := &memSetupRegistry{nodes: map[models.OrgLevel][]models.OrgNode{}}
	catalog := &memSetupCatalog{}
	vendors := &memSetupVendors{}
	users := &memSetupUsers{roles: roles}
	return NewSetupService(roles, registry, catalog, vendors, users, nil), roles, registry, catalog, vendors, users
}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSetupApplySeedsEverything(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, sampleSeed))
	require.NoError(t, err)

	svc, roles, registry, catalog, vendors, users := newSetupFixture()
	summary, err := svc.Apply(context.Background(), seed)
	require.NoError(t, err)

	assert.Equal(t, 8, summary.Roles)
	assert.Len(t, roles.roles, 8)
	auditor := roles.roles[models.RoleAuditor]
	assert.True(t, auditor.Permissions.CanViewAllDevices)
	assert.False(t, auditor.Permissions.CanViewFinancialData)
	assert.Equal(t, "Audit and inspection access across all departments", auditor.Description)
	assert.True(t, roles.roles[models.RoleITAdministrator].Permissions.CanSystemAdmin)

	assert.Equal(t, 6, summary.OrgNodes)
	assert.Equal(t, 6, registry.created)
	assert.Equal(t, 4, summary.Catalogue)
	assert.Len(t, catalog.types, 2)
	assert.Equal(t, 1, summary.Vendors)
	assert.Equal(t, "SUPPLIER", vendors.rows[0].VendorType)

	require.True(t, summary.AdminAdded)
	require.Len(t, users.created, 1)
	assert.Equal(t, "admin", users.created[0].FullName)
	assert.Equal(t, []string{models.RoleITAdministrator}, users.created[0].Roles)
}

func TestSetupApplyIsRepeatable(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, sampleSeed))
	require.NoError(t, err)

	svc, _, registry, catalog, vendors, users := newSetupFixture()
	_, err = svc.Apply(context.Background(), seed)
	require.NoError(t, err)

	second, err := svc.Apply(context.Background(), seed)
	require.NoError(t, err)
	assert.Zero(t, second.OrgNodes)
	assert.Zero(t, second.Catalogue)
	assert.Zero(t, second.Vendors)
	assert.False(t, second.AdminAdded)
	assert.Equal(t, 6, registry.created)
	assert.Len(t, catalog.types, 2)
	assert.Len(t, vendors.rows, 1)
	assert.Len(t, users.created, 1)
}

func TestLoadSeedFileRejectsUnknownKeys(t *testing.T) {
	_, err := LoadSeedFile(writeSeed(t, "buildngs: []\n"))
	require.Error(t, err)
}

func TestSetupApplyWithoutSeedStillSeedsRoles(t *testing.T) {
	svc, roles, _, _, _, _ := newSetupFixture()
	summary, err := svc.Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Roles)
	assert.True(t, roles.roles[models.RoleGeneralStaff].Permissions.RestrictedToOwnDepartment)
}
