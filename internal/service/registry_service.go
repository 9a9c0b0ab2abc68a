package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type registryRepository interface {
	Create(ctx context.Context, level models.OrgLevel, row interface{}) error
	GetNode(ctx context.Context, level models.OrgLevel, id string) (*models.OrgNode, error)
	ListNodes(ctx context.Context, level models.OrgLevel, parentID string, activeOnly bool) ([]models.OrgNode, error)
	Rename(ctx context.Context, level models.OrgLevel, id, name string, at time.Time) error
	Deactivate(ctx context.Context, level models.OrgLevel, id string, at time.Time) error
	References(ctx context.Context, level models.OrgLevel, id string) (models.OrgReferences, error)
	DepartmentCodes(ctx context.Context, floorID, base string) ([]string, error)
	ResolveByCode(ctx context.Context, building, block string, floor int, department, room, location string) ([]models.LocationPath, error)
}

var parentLevels = map[models.OrgLevel]models.OrgLevel{
	models.LevelBlock:      models.LevelBuilding,
	models.LevelFloor:      models.LevelBlock,
	models.LevelDepartment: models.LevelFloor,
	models.LevelRoom:       models.LevelDepartment,
	models.LevelLocation:   models.LevelRoom,
}

var levelModelNames = map[models.OrgLevel]string{
	models.LevelBuilding:   "Building",
	models.LevelBlock:      "Block",
	models.LevelFloor:      "Floor",
	models.LevelDepartment: "Department",
	models.LevelRoom:       "Room",
	models.LevelLocation:   "Location",
}

// RegistryService manages the building > block > floor > department > room > location tree.
type RegistryService struct {
	repo      registryRepository
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistryService constructs the registry service.
func NewRegistryService(repo registryRepository, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *RegistryService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{repo: repo, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// ParseLevel validates a level path segment.
func ParseLevel(raw string) (models.OrgLevel, error) {
	level := models.OrgLevel(strings.ToLower(strings.TrimSpace(raw)))
	if !level.Valid() {
		return "", appErrors.Clone(appErrors.ErrNotFound, "unknown registry level "+raw)
	}
	return level, nil
}

// List returns the nodes of a level, optionally under one parent.
func (s *RegistryService) List(ctx context.Context, level models.OrgLevel, parentID string, activeOnly bool) ([]models.OrgNode, error) {
	nodes, err := s.repo.ListNodes(ctx, level, strings.TrimSpace(parentID), activeOnly)
	if err != nil {
		return nil, repoError(err, string(level), "list "+string(level))
	}
	return nodes, nil
}

// Create adds a node under an active parent. Departments without a code get one generated.
func (s *RegistryService) Create(ctx context.Context, actor models.Actor, level models.OrgLevel, req dto.CreateOrgNodeRequest) (*models.OrgNode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	parentID := strings.TrimSpace(req.ParentID)
	if parentLevel, ok := parentLevels[level]; ok {
		if parentID == "" {
			return nil, appErrors.Field("parent_id", "is required")
		}
		parent, err := s.repo.GetNode(ctx, parentLevel, parentID)
		if err != nil {
			return nil, repoError(err, levelModelNames[parentLevel], "load parent")
		}
		if !parent.IsActive {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, levelModelNames[parentLevel]+" is inactive")
		}
	}

	now := s.now().UTC()
	id := uuid.NewString()
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	name := strings.TrimSpace(req.Name)
	capacity := 0
	if req.Capacity != nil {
		capacity = *req.Capacity
	}

	var row interface{}
	switch level {
	case models.LevelBuilding:
		if code == "" || name == "" {
			return nil, requiredFields(map[string]string{"code": code, "name": name})
		}
		row = &models.Building{ID: id, Code: code, Name: name, Description: strings.TrimSpace(req.Description), IsActive: true, CreatedAt: now, UpdatedAt: now}
	case models.LevelBlock:
		if code == "" {
			return nil, appErrors.Field("code", "is required")
		}
		row = &models.Block{ID: id, BuildingID: parentID, Code: code, Name: name, IsActive: true, CreatedAt: now, UpdatedAt: now}
	case models.LevelFloor:
		if req.FloorNumber == nil {
			return nil, appErrors.Field("floor_number", "is required")
		}
		code = fmt.Sprintf("%d", *req.FloorNumber)
		row = &models.Floor{ID: id, BlockID: parentID, FloorNumber: *req.FloorNumber, Name: name, IsActive: true, CreatedAt: now, UpdatedAt: now}
	case models.LevelDepartment:
		if name == "" {
			return nil, appErrors.Field("name", "is required")
		}
		if code == "" {
			generated, err := s.DepartmentCode(ctx, parentID, name)
			if err != nil {
				return nil, err
			}
			code = generated
		}
		row = &models.Department{ID: id, FloorID: parentID, Code: code, Name: name, HeadOfDepartment: strings.TrimSpace(req.Head),
			ContactEmail: strings.TrimSpace(req.ContactEmail), ContactPhone: strings.TrimSpace(req.ContactPhone), IsActive: true, CreatedAt: now, UpdatedAt: now}
	case models.LevelRoom:
		number := strings.TrimSpace(req.RoomNumber)
		if number == "" {
			return nil, appErrors.Field("room_number", "is required")
		}
		code = number
		row = &models.Room{ID: id, DepartmentID: parentID, RoomNumber: number, RoomName: name, Capacity: capacity, IsActive: true, CreatedAt: now, UpdatedAt: now}
	case models.LevelLocation:
		if code == "" {
			return nil, appErrors.Field("code", "is required")
		}
		row = &models.Location{ID: id, RoomID: parentID, Code: code, Name: name, LocationType: strings.ToUpper(strings.TrimSpace(req.LocationType)),
			Capacity: capacity, IsActive: true, CreatedAt: now, UpdatedAt: now}
	default:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown registry level")
	}

	if err := s.repo.Create(ctx, level, row); err != nil {
		return nil, repoError(err, levelModelNames[level], "create "+strings.ToLower(levelModelNames[level]))
	}

	node := &models.OrgNode{ID: id, Code: code, Name: name, IsActive: true, CreatedAt: now}
	if parentID != "" {
		node.ParentID = &parentID
	}
	changes := changeSet{}
	changes.add("code", nil, code)
	changes.add("name", nil, name)
	changes.add("parent_id", nil, node.ParentID)
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionCreate,
		ModelName:  levelModelNames[level],
		ObjectID:   id,
		ObjectRepr: strings.TrimSpace(code + " " + name),
		Changes:    changes.fields(),
	})
	return node, nil
}

// Rename changes a node's display name.
func (s *RegistryService) Rename(ctx context.Context, actor models.Actor, level models.OrgLevel, id string, req dto.RenameOrgNodeRequest) (*models.OrgNode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	node, err := s.repo.GetNode(ctx, level, id)
	if err != nil {
		return nil, repoError(err, levelModelNames[level], "load "+strings.ToLower(levelModelNames[level]))
	}
	name := strings.TrimSpace(req.Name)
	if name == node.Name {
		return node, nil
	}
	if err := s.repo.Rename(ctx, level, id, name, s.now().UTC()); err != nil {
		return nil, repoError(err, levelModelNames[level], "rename "+strings.ToLower(levelModelNames[level]))
	}
	changes := changeSet{}
	changes.add("name", node.Name, name)
	node.Name = name
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionUpdate,
		ModelName:  levelModelNames[level],
		ObjectID:   id,
		ObjectRepr: strings.TrimSpace(node.Code + " " + name),
		Changes:    changes.fields(),
	})
	return node, nil
}

// Deactivate soft-deletes a node nothing active still points at.
func (s *RegistryService) Deactivate(ctx context.Context, actor models.Actor, level models.OrgLevel, id string) error {
	node, err := s.repo.GetNode(ctx, level, id)
	if err != nil {
		return repoError(err, levelModelNames[level], "load "+strings.ToLower(levelModelNames[level]))
	}
	if !node.IsActive {
		return nil
	}
	refs, err := s.repo.References(ctx, level, id)
	if err != nil {
		return repoError(err, levelModelNames[level], "count references")
	}
	if refs.Blocking() {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf(
			"%s is still referenced: %d active children, %d active staff, %d devices, %d active assignments",
			strings.ToLower(levelModelNames[level]), refs.ActiveChildren, refs.ActiveStaff, refs.Devices, refs.ActiveAssignments))
	}
	if err := s.repo.Deactivate(ctx, level, id, s.now().UTC()); err != nil {
		return repoError(err, levelModelNames[level], "deactivate "+strings.ToLower(levelModelNames[level]))
	}
	changes := changeSet{}
	changes.add("is_active", true, false)
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionDeactivate,
		ModelName:  levelModelNames[level],
		ObjectID:   id,
		ObjectRepr: strings.TrimSpace(node.Code + " " + node.Name),
		Changes:    changes.fields(),
	})
	return nil
}

// Resolve finds locations by their qualified code path.
func (s *RegistryService) Resolve(ctx context.Context, query dto.ResolveLocationQuery) ([]models.LocationPath, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err)
	}
	paths, err := s.repo.ResolveByCode(ctx,
		strings.ToUpper(strings.TrimSpace(query.Building)),
		strings.ToUpper(strings.TrimSpace(query.Block)),
		query.Floor,
		strings.ToUpper(strings.TrimSpace(query.Department)),
		strings.TrimSpace(query.Room),
		strings.ToUpper(strings.TrimSpace(query.Location)))
	if err != nil {
		return nil, repoError(err, "location", "resolve location")
	}
	if len(paths) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
	}
	return paths, nil
}

// DepartmentCode generates the next free code for a department name on a floor.
func (s *RegistryService) DepartmentCode(ctx context.Context, floorID, name string) (string, error) {
	base := DepartmentCodeBase(name)
	if base == "" {
		return "", appErrors.Field("name", "must contain letters")
	}
	existing, err := s.repo.DepartmentCodes(ctx, floorID, base)
	if err != nil {
		return "", repoError(err, "department", "list department codes")
	}
	taken := make(map[string]struct{}, len(existing))
	for _, code := range existing {
		taken[code] = struct{}{}
	}
	for seq := 1; seq <= 99; seq++ {
		code := fmt.Sprintf("%s%02d", base, seq)
		if _, ok := taken[code]; !ok {
			return code, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrConflict, "no free department code for "+base)
}

// DepartmentCodeBase derives the letter prefix of a department code: one word gives its
// first six letters, several words give the first two letters of up to three words.
// Anything other than ASCII letters and whitespace is dropped before splitting, so
// "IT-Support" is a single word.
func DepartmentCodeBase(name string) string {
	letters := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, name)
	words := strings.Fields(letters)
	switch len(words) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(prefixRunes(words[0], 6))
	}
	if len(words) > 3 {
		words = words[:3]
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteString(prefixRunes(w, 2))
	}
	return strings.ToUpper(b.String())
}

func prefixRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func requiredFields(values map[string]string) error {
	fields := map[string]string{}
	for field, value := range values {
		if value == "" {
			fields[field] = "is required"
		}
	}
	return appErrors.Validation(fields)
}
