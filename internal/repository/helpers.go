package repository

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bps-secretariat/bps-inventory/pkg/database"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

const activeAssignmentIndex = "assignments_one_active_per_device"

// uniqueMessages names the user-facing field behind each unique constraint.
var uniqueMessages = map[string]string{
	"devices_device_id_key":                  "device_id already exists",
	"devices_asset_tag_key":                  "asset_tag already exists",
	"devices_serial_number_key":              "serial_number already exists",
	"assignments_assignment_id_key":          "assignment_id already exists",
	"staff_employee_id_key":                  "employee_id already exists",
	"vendors_vendor_code_key":                "vendor_code already exists",
	"buildings_code_key":                     "building code already exists",
	"blocks_building_code_key":               "block code already exists in building",
	"floors_block_number_key":                "floor number already exists in block",
	"departments_floor_code_key":             "department code already exists on floor",
	"rooms_department_number_key":            "room number already exists in department",
	"locations_room_code_key":                "location code already exists in room",
	"device_categories_code_key":             "category code already exists",
	"device_subcategories_category_code_key": "subcategory code already exists in category",
	"device_types_subcategory_name_key":      "device type already exists in subcategory",
	"users_username_key":                     "username already exists",
	"roles_name_key":                         "role already exists",
}

// translateUnique maps unique violations onto conflict errors and wraps everything else.
func translateUnique(err error, op string) error {
	if err == nil {
		return nil
	}
	constraint, ok := database.UniqueViolation(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	if constraint == activeAssignmentIndex {
		return appErrors.Wrap(err, appErrors.ErrAlreadyAssigned.Code, appErrors.ErrAlreadyAssigned.Status, appErrors.ErrAlreadyAssigned.Message)
	}
	msg, known := uniqueMessages[constraint]
	if !known {
		msg = appErrors.ErrDuplicate.Message
	}
	return appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, msg)
}

func pickExec(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}

func pageWindow(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

// whereBuilder accumulates positional predicates.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(format string, value interface{}) {
	w.args = append(w.args, value)
	w.conds = append(w.conds, strings.ReplaceAll(format, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

// scope narrows to departments; an empty list matches nothing.
func (w *whereBuilder) scope(column string, departmentIDs []string) {
	if len(departmentIDs) == 0 {
		w.addRaw("FALSE")
		return
	}
	w.add(column+" = ANY(?)", pq.Array(departmentIDs))
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(s))) + "%"
}

func pqStrings(values []string) interface{} {
	return pq.Array(values)
}
