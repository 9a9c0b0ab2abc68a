package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
)

type setupRoleStore interface {
	UpsertRole(ctx context.Context, role *models.Role) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type setupRegistry interface {
	List(ctx context.Context, level models.OrgLevel, parentID string, activeOnly bool) ([]models.OrgNode, error)
	Create(ctx context.Context, actor models.Actor, level models.OrgLevel, req dto.CreateOrgNodeRequest) (*models.OrgNode, error)
}

type setupCatalog interface {
	Categories(ctx context.Context) ([]models.DeviceCategory, error)
	Subcategories(ctx context.Context, categoryID string) ([]models.DeviceSubcategory, error)
	Types(ctx context.Context, subcategoryID string) ([]models.DeviceType, error)
	CreateCategory(ctx context.Context, actor models.Actor, req dto.CreateCategoryRequest) (*models.DeviceCategory, error)
	CreateSubcategory(ctx context.Context, actor models.Actor, req dto.CreateSubcategoryRequest) (*models.DeviceSubcategory, error)
	CreateType(ctx context.Context, actor models.Actor, req dto.CreateDeviceTypeRequest) (*models.DeviceType, error)
}

type setupVendors interface {
	List(ctx context.Context, activeOnly bool, search string) ([]models.Vendor, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateVendorRequest) (*models.Vendor, error)
}

type setupUsers interface {
	Create(ctx context.Context, actor models.Actor, req dto.CreateUserRequest) (*models.User, error)
}

// SetupService applies a seed document. Existing rows are matched by code and left untouched,
// so a seed can be applied repeatedly.
type SetupService struct {
	roles    setupRoleStore
	registry setupRegistry
	catalog  setupCatalog
	vendors  setupVendors
	users    setupUsers
	logger   *zap.Logger
}

// NewSetupService constructs the seeder.
func NewSetupService(roles setupRoleStore, registry setupRegistry, catalog setupCatalog, vendors setupVendors, users setupUsers, logger *zap.Logger) *SetupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SetupService{roles: roles, registry: registry, catalog: catalog, vendors: vendors, users: users, logger: logger}
}

// LoadSeedFile parses a YAML seed, rejecting unknown keys.
func LoadSeedFile(path string) (*dto.SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var seed dto.SeedFile
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return &seed, nil
}

// Apply seeds roles, organisation structure, catalogue, vendors and the admin account in that order.
func (s *SetupService) Apply(ctx context.Context, seed *dto.SeedFile) (*dto.SetupSummary, error) {
	if seed == nil {
		seed = &dto.SeedFile{}
	}
	summary := &dto.SetupSummary{}
	actor := models.Actor{Username: "inventory-admin"}
	now := time.Now().UTC()

	for _, role := range mergeRoles(models.DefaultRoles(), seed.Roles) {
		role := role
		role.CreatedAt, role.UpdatedAt = now, now
		if err := s.roles.UpsertRole(ctx, &role); err != nil {
			return summary, err
		}
		summary.Roles++
	}

	for _, b := range seed.Buildings {
		if err := s.seedBuilding(ctx, actor, b, summary); err != nil {
			return summary, err
		}
	}

	for _, cat := range seed.Categories {
		if err := s.seedCategory(ctx, actor, cat, summary); err != nil {
			return summary, err
		}
	}

	if len(seed.Vendors) > 0 {
		existing, err := s.vendors.List(ctx, false, "")
		if err != nil {
			return summary, err
		}
		known := make(map[string]bool, len(existing))
		for _, v := range existing {
			known[strings.ToUpper(v.VendorCode)] = true
		}
		for _, v := range seed.Vendors {
			if known[strings.ToUpper(strings.TrimSpace(v.Code))] {
				continue
			}
			if _, err := s.vendors.Create(ctx, actor, dto.CreateVendorRequest{
				VendorCode:    v.Code,
				Name:          v.Name,
				VendorType:    strings.ToUpper(v.Type),
				ContactPerson: v.ContactPerson,
				Email:         v.Email,
				Phone:         v.Phone,
				Address:       v.Address,
			}); err != nil {
				return summary, fmt.Errorf("vendor %s: %w", v.Code, err)
			}
			summary.Vendors++
		}
	}

	if seed.Admin != nil {
		added, err := s.seedAdmin(ctx, actor, *seed.Admin)
		if err != nil {
			return summary, err
		}
		summary.AdminAdded = added
	}

	s.logger.Info("setup applied",
		zap.Int("roles", summary.Roles),
		zap.Int("org_nodes", summary.OrgNodes),
		zap.Int("catalogue", summary.Catalogue),
		zap.Int("vendors", summary.Vendors),
		zap.Bool("admin_added", summary.AdminAdded),
	)
	return summary, nil
}

func (s *SetupService) seedBuilding(ctx context.Context, actor models.Actor, b dto.SeedBuilding, summary *dto.SetupSummary) error {
	buildingID, err := s.ensureNode(ctx, actor, models.LevelBuilding, "", b.Code, dto.CreateOrgNodeRequest{
		Code: b.Code, Name: b.Name, Description: b.Description,
	}, summary)
	if err != nil {
		return err
	}
	for _, blk := range b.Blocks {
		blockID, err := s.ensureNode(ctx, actor, models.LevelBlock, buildingID, blk.Code, dto.CreateOrgNodeRequest{
			ParentID: buildingID, Code: blk.Code, Name: blk.Name,
		}, summary)
		if err != nil {
			return err
		}
		for _, fl := range blk.Floors {
			number := fl.Number
			floorID, err := s.ensureNode(ctx, actor, models.LevelFloor, blockID, strconv.Itoa(number), dto.CreateOrgNodeRequest{
				ParentID: blockID, FloorNumber: &number, Name: fl.Name,
			}, summary)
			if err != nil {
				return err
			}
			for _, dept := range fl.Departments {
				if err := s.seedDepartment(ctx, actor, floorID, dept, summary); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *SetupService) seedDepartment(ctx context.Context, actor models.Actor, floorID string, dept dto.SeedDepartment, summary *dto.SetupSummary) error {
	match := dept.Code
	if match == "" {
		match = dept.Name
	}
	deptID, err := s.ensureNode(ctx, actor, models.LevelDepartment, floorID, match, dto.CreateOrgNodeRequest{
		ParentID: floorID, Code: dept.Code, Name: dept.Name, Head: dept.Head,
		ContactEmail: dept.ContactEmail, ContactPhone: dept.ContactPhone,
	}, summary)
	if err != nil {
		return err
	}
	for _, room := range dept.Rooms {
		capacity := room.Capacity
		roomID, err := s.ensureNode(ctx, actor, models.LevelRoom, deptID, room.Number, dto.CreateOrgNodeRequest{
			ParentID: deptID, RoomNumber: room.Number, Name: room.Name, Capacity: &capacity,
		}, summary)
		if err != nil {
			return err
		}
		for _, loc := range room.Locations {
			locCapacity := loc.Capacity
			if _, err := s.ensureNode(ctx, actor, models.LevelLocation, roomID, loc.Code, dto.CreateOrgNodeRequest{
				ParentID: roomID, Code: loc.Code, Name: loc.Name, LocationType: loc.Type, Capacity: &locCapacity,
			}, summary); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureNode returns the id of the child of parentID whose code (or name) matches, creating it when absent.
func (s *SetupService) ensureNode(ctx context.Context, actor models.Actor, level models.OrgLevel, parentID, match string,
	req dto.CreateOrgNodeRequest, summary *dto.SetupSummary) (string, error) {
	nodes, err := s.registry.List(ctx, level, parentID, false)
	if err != nil {
		return "", err
	}
	match = strings.TrimSpace(match)
	for _, n := range nodes {
		if strings.EqualFold(n.Code, match) || strings.EqualFold(n.Name, match) {
			return n.ID, nil
		}
	}
	node, err := s.registry.Create(ctx, actor, level, req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", level, match, err)
	}
	summary.OrgNodes++
	return node.ID, nil
}

func (s *SetupService) seedCategory(ctx context.Context, actor models.Actor, seed dto.SeedCategory, summary *dto.SetupSummary) error {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	var categoryID string
	for _, c := range categories {
		if strings.EqualFold(c.Code, seed.Code) {
			categoryID = c.ID
			break
		}
	}
	if categoryID == "" {
		created, err := s.catalog.CreateCategory(ctx, actor, dto.CreateCategoryRequest{Code: seed.Code, Name: seed.Name, Description: seed.Description})
		if err != nil {
			return fmt.Errorf("category %s: %w", seed.Code, err)
		}
		categoryID = created.ID
		summary.Catalogue++
	}

	subs, err := s.catalog.Subcategories(ctx, categoryID)
	if err != nil {
		return err
	}
	for _, sub := range seed.Subcategories {
		var subID string
		for _, existing := range subs {
			if strings.EqualFold(existing.Code, sub.Code) {
				subID = existing.ID
				break
			}
		}
		if subID == "" {
			created, err := s.catalog.CreateSubcategory(ctx, actor, dto.CreateSubcategoryRequest{CategoryID: categoryID, Code: sub.Code, Name: sub.Name})
			if err != nil {
				return fmt.Errorf("subcategory %s: %w", sub.Code, err)
			}
			subID = created.ID
			summary.Catalogue++
		}

		types, err := s.catalog.Types(ctx, subID)
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(types))
		for _, t := range types {
			have[strings.ToLower(t.Name)] = true
		}
		for _, t := range sub.Types {
			if have[strings.ToLower(strings.TrimSpace(t.Name))] {
				continue
			}
			if _, err := s.catalog.CreateType(ctx, actor, dto.CreateDeviceTypeRequest{SubcategoryID: subID, Name: t.Name, Description: t.Description}); err != nil {
				return fmt.Errorf("device type %s: %w", t.Name, err)
			}
			summary.Catalogue++
		}
	}
	return nil
}

func (s *SetupService) seedAdmin(ctx context.Context, actor models.Actor, admin dto.SeedAdmin) (bool, error) {
	if _, err := s.roles.FindByUsername(ctx, admin.Username); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	fullName := admin.FullName
	if fullName == "" {
		fullName = admin.Username
	}
	if _, err := s.users.Create(ctx, actor, dto.CreateUserRequest{
		Username: admin.Username,
		Email:    admin.Email,
		FullName: fullName,
		Password: admin.Password,
		Roles:    []string{models.RoleITAdministrator},
	}); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func mergeRoles(base []models.Role, overrides []dto.SeedRole) []models.Role {
	index := make(map[string]int, len(base))
	for i, r := range base {
		index[r.Name] = i
	}
	for _, o := range overrides {
		name := strings.ToUpper(strings.TrimSpace(o.Name))
		if name == "" {
			continue
		}
		role := models.Role{Name: name, Description: o.Description, Permissions: o.Permissions, IsActive: true}
		if i, ok := index[name]; ok {
			if role.Description == "" {
				role.Description = base[i].Description
			}
			base[i] = role
			continue
		}
		index[name] = len(base)
		base = append(base, role)
	}
	return base
}
