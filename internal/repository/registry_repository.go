package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

type levelMeta struct {
	table      string
	parentCol  string
	codeExpr   string
	nameCol    string
	child      models.OrgLevel
	insert     string
	deptSubSQL string
	locSubSQL  string
}

const noRows = `SELECT NULL::text WHERE FALSE`

var registryLevels = map[models.OrgLevel]levelMeta{
	models.LevelBuilding: {
		table: "buildings", parentCol: "", codeExpr: "code", nameCol: "name", child: models.LevelBlock,
		insert:     `INSERT INTO buildings (id, code, name, description, is_active, created_at, updated_at) VALUES (:id, :code, :name, :description, :is_active, :created_at, :updated_at)`,
		deptSubSQL: `SELECT d.id FROM departments d JOIN floors f ON f.id = d.floor_id JOIN blocks b ON b.id = f.block_id WHERE b.building_id = $1`,
	},
	models.LevelBlock: {
		table: "blocks", parentCol: "building_id", codeExpr: "code", nameCol: "name", child: models.LevelFloor,
		insert:     `INSERT INTO blocks (id, building_id, code, name, is_active, created_at, updated_at) VALUES (:id, :building_id, :code, :name, :is_active, :created_at, :updated_at)`,
		deptSubSQL: `SELECT d.id FROM departments d JOIN floors f ON f.id = d.floor_id WHERE f.block_id = $1`,
	},
	models.LevelFloor: {
		table: "floors", parentCol: "block_id", codeExpr: "floor_number::text", nameCol: "name", child: models.LevelDepartment,
		insert:     `INSERT INTO floors (id, block_id, floor_number, name, is_active, created_at, updated_at) VALUES (:id, :block_id, :floor_number, :name, :is_active, :created_at, :updated_at)`,
		deptSubSQL: `SELECT d.id FROM departments d WHERE d.floor_id = $1`,
	},
	models.LevelDepartment: {
		table: "departments", parentCol: "floor_id", codeExpr: "code", nameCol: "name", child: models.LevelRoom,
		insert: `INSERT INTO departments (id, floor_id, code, name, head_of_department, contact_email, contact_phone, is_active, created_at, updated_at)
VALUES (:id, :floor_id, :code, :name, :head_of_department, :contact_email, :contact_phone, :is_active, :created_at, :updated_at)`,
		deptSubSQL: `SELECT d.id FROM departments d WHERE d.id = $1`,
	},
	models.LevelRoom: {
		table: "rooms", parentCol: "department_id", codeExpr: "room_number", nameCol: "room_name", child: models.LevelLocation,
		insert: `INSERT INTO rooms (id, department_id, room_number, room_name, capacity, is_active, created_at, updated_at)
VALUES (:id, :department_id, :room_number, :room_name, :capacity, :is_active, :created_at, :updated_at)`,
		deptSubSQL: noRows,
		locSubSQL:  `SELECT l.id FROM locations l WHERE l.room_id = $1`,
	},
	models.LevelLocation: {
		table: "locations", parentCol: "room_id", codeExpr: "code", nameCol: "name",
		insert: `INSERT INTO locations (id, room_id, code, name, location_type, capacity, is_active, created_at, updated_at)
VALUES (:id, :room_id, :code, :name, :location_type, :capacity, :is_active, :created_at, :updated_at)`,
		deptSubSQL: noRows,
		locSubSQL:  `SELECT l.id FROM locations l WHERE l.id = $1`,
	},
}

func lookupLevel(level models.OrgLevel) (levelMeta, error) {
	meta, ok := registryLevels[level]
	if !ok {
		return levelMeta{}, fmt.Errorf("unknown registry level %q", level)
	}
	return meta, nil
}

func (m levelMeta) locationSubquery() string {
	if m.locSubSQL != "" {
		return m.locSubSQL
	}
	return `SELECT l.id FROM locations l JOIN rooms r ON r.id = l.room_id WHERE r.department_id IN (` + m.deptSubSQL + `)`
}

func (m levelMeta) nodeColumns() string {
	parent := "NULL::text"
	if m.parentCol != "" {
		parent = m.parentCol
	}
	return fmt.Sprintf("id, %s AS parent_id, %s AS code, %s AS name, is_active, created_at", parent, m.codeExpr, m.nameCol)
}

// RegistryRepository persists the building to location hierarchy.
type RegistryRepository struct {
	db *sqlx.DB
}

// NewRegistryRepository constructs the repository.
func NewRegistryRepository(db *sqlx.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// Create inserts a typed row (e.g. *models.Building) at the given level.
func (r *RegistryRepository) Create(ctx context.Context, level models.OrgLevel, row interface{}) error {
	meta, err := lookupLevel(level)
	if err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, meta.insert, row); err != nil {
		return translateUnique(err, "create "+meta.table)
	}
	return nil
}

// GetNode returns a level-agnostic view of one row.
func (r *RegistryRepository) GetNode(ctx context.Context, level models.OrgLevel, id string) (*models.OrgNode, error) {
	meta, err := lookupLevel(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", meta.nodeColumns(), meta.table)
	var node models.OrgNode
	if err := r.db.GetContext(ctx, &node, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get %s node: %w", meta.table, err)
	}
	return &node, nil
}

// ListNodes lists a level, optionally under one parent.
func (r *RegistryRepository) ListNodes(ctx context.Context, level models.OrgLevel, parentID string, activeOnly bool) ([]models.OrgNode, error) {
	meta, err := lookupLevel(level)
	if err != nil {
		return nil, err
	}
	var where whereBuilder
	if parentID != "" && meta.parentCol != "" {
		where.add(meta.parentCol+" = ?", parentID)
	}
	if activeOnly {
		where.addRaw("is_active")
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", meta.nodeColumns(), meta.table, where.clause(), meta.codeExpr)
	nodes := make([]models.OrgNode, 0)
	if err := r.db.SelectContext(ctx, &nodes, query, where.args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", meta.table, err)
	}
	return nodes, nil
}

// Rename updates the display name of a node.
func (r *RegistryRepository) Rename(ctx context.Context, level models.OrgLevel, id, name string, at time.Time) error {
	meta, err := lookupLevel(level)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET %s = $2, updated_at = $3 WHERE id = $1", meta.table, meta.nameCol)
	if _, err := r.db.ExecContext(ctx, query, id, name, at); err != nil {
		return fmt.Errorf("rename %s: %w", meta.table, err)
	}
	return nil
}

// Deactivate soft-deletes a node.
func (r *RegistryRepository) Deactivate(ctx context.Context, level models.OrgLevel, id string, at time.Time) error {
	meta, err := lookupLevel(level)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET is_active = FALSE, updated_at = $2 WHERE id = $1", meta.table)
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("deactivate %s: %w", meta.table, err)
	}
	return nil
}

// References counts active children, staff, devices and assignments under a node.
func (r *RegistryRepository) References(ctx context.Context, level models.OrgLevel, id string) (models.OrgReferences, error) {
	meta, err := lookupLevel(level)
	if err != nil {
		return models.OrgReferences{}, err
	}
	children := "0"
	if meta.child != "" {
		childMeta := registryLevels[meta.child]
		children = fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE %s = $1 AND is_active)", childMeta.table, childMeta.parentCol)
	}
	deptSub := meta.deptSubSQL
	locSub := meta.locationSubquery()
	query := fmt.Sprintf(`SELECT %s AS active_children,
(SELECT COUNT(*) FROM staff s WHERE s.is_active AND s.department_id IN (%s)) AS active_staff,
(SELECT COUNT(*) FROM devices dv WHERE dv.current_location_id IN (%s) AND dv.status NOT IN ('RETIRED', 'DISPOSED')) AS devices,
(SELECT COUNT(*) FROM assignments a WHERE a.is_active AND (a.assigned_to_department_id IN (%s) OR a.assigned_to_location_id IN (%s))) AS active_assignments`,
		children, deptSub, locSub, deptSub, locSub)
	var refs models.OrgReferences
	if err := r.db.GetContext(ctx, &refs, query, id); err != nil {
		return models.OrgReferences{}, fmt.Errorf("count %s references: %w", meta.table, err)
	}
	return refs, nil
}

// DepartmentCodes lists codes on a floor starting with base.
func (r *RegistryRepository) DepartmentCodes(ctx context.Context, floorID, base string) ([]string, error) {
	const query = `SELECT code FROM departments WHERE floor_id = $1 AND code LIKE $2`
	codes := make([]string, 0)
	if err := r.db.SelectContext(ctx, &codes, query, floorID, base+"%"); err != nil {
		return nil, fmt.Errorf("list department codes: %w", err)
	}
	return codes, nil
}

// FindDepartments matches a department by id or code. Codes are only unique per floor.
func (r *RegistryRepository) FindDepartments(ctx context.Context, ref string) ([]models.Department, error) {
	const query = `SELECT id, floor_id, code, name, head_of_department, contact_email, contact_phone, is_active, created_at, updated_at
FROM departments WHERE id = $1 OR code = $1 ORDER BY created_at`
	departments := make([]models.Department, 0)
	if err := r.db.SelectContext(ctx, &departments, query, ref); err != nil {
		return nil, fmt.Errorf("find departments: %w", err)
	}
	return departments, nil
}

// GetDepartment returns a department by id.
func (r *RegistryRepository) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, floor_id, code, name, head_of_department, contact_email, contact_phone, is_active, created_at, updated_at
FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &department, nil
}

const locationPathSelect = `SELECT l.id AS location_id, l.code AS location_code, l.name AS location_name,
r.id AS room_id, r.room_number, d.id AS department_id, d.code AS department_code, d.name AS department_name,
f.floor_number, b.code AS block_code, bd.code AS building_code
FROM locations l
JOIN rooms r ON r.id = l.room_id
JOIN departments d ON d.id = r.department_id
JOIN floors f ON f.id = d.floor_id
JOIN blocks b ON b.id = f.block_id
JOIN buildings bd ON bd.id = b.building_id`

// LocationPath resolves every ancestor of a location.
func (r *RegistryRepository) LocationPath(ctx context.Context, locationID string) (*models.LocationPath, error) {
	var path models.LocationPath
	if err := r.db.GetContext(ctx, &path, locationPathSelect+` WHERE l.id = $1`, locationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("resolve location path: %w", err)
	}
	return &path, nil
}

// ResolveByCode finds active locations addressed by their qualified codes. An empty
// location code returns every active location in the room.
func (r *RegistryRepository) ResolveByCode(ctx context.Context, building, block string, floor int, department, room, location string) ([]models.LocationPath, error) {
	query := locationPathSelect + ` WHERE bd.code = $1 AND b.code = $2 AND f.floor_number = $3 AND d.code = $4 AND r.room_number = $5
AND l.is_active AND ($6::text = '' OR l.code = $6) ORDER BY l.code`
	paths := make([]models.LocationPath, 0)
	if err := r.db.SelectContext(ctx, &paths, query, building, block, floor, department, room, location); err != nil {
		return nil, fmt.Errorf("resolve location by code: %w", err)
	}
	return paths, nil
}
