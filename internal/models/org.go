package models

import (
	"strconv"
	"time"
)

// OrgLevel names one tier of the location hierarchy.
type OrgLevel string

const (
	LevelBuilding   OrgLevel = "buildings"
	LevelBlock      OrgLevel = "blocks"
	LevelFloor      OrgLevel = "floors"
	LevelDepartment OrgLevel = "departments"
	LevelRoom       OrgLevel = "rooms"
	LevelLocation   OrgLevel = "locations"
)

// Valid reports whether the level is a known hierarchy tier.
func (l OrgLevel) Valid() bool {
	switch l {
	case LevelBuilding, LevelBlock, LevelFloor, LevelDepartment, LevelRoom, LevelLocation:
		return true
	}
	return false
}

// Building is the root of the location hierarchy.
type Building struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Block struct {
	ID         string    `db:"id" json:"id"`
	BuildingID string    `db:"building_id" json:"building_id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

type Floor struct {
	ID          string    `db:"id" json:"id"`
	BlockID     string    `db:"block_id" json:"block_id"`
	FloorNumber int       `db:"floor_number" json:"floor_number"`
	Name        string    `db:"name" json:"name"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Department struct {
	ID               string    `db:"id" json:"id"`
	FloorID          string    `db:"floor_id" json:"floor_id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	HeadOfDepartment string    `db:"head_of_department" json:"head_of_department"`
	ContactEmail     string    `db:"contact_email" json:"contact_email"`
	ContactPhone     string    `db:"contact_phone" json:"contact_phone"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

type Room struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	RoomNumber   string    `db:"room_number" json:"room_number"`
	RoomName     string    `db:"room_name" json:"room_name"`
	Capacity     int       `db:"capacity" json:"capacity"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Location is an addressable spot (desk, rack, cabinet) inside a room.
type Location struct {
	ID           string    `db:"id" json:"id"`
	RoomID       string    `db:"room_id" json:"room_id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	LocationType string    `db:"location_type" json:"location_type"`
	Capacity     int       `db:"capacity" json:"capacity"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// OrgNode is the level-agnostic view of a hierarchy row used by generic listings.
type OrgNode struct {
	ID        string    `db:"id" json:"id"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LocationPath is a location with every ancestor code resolved.
type LocationPath struct {
	LocationID     string `db:"location_id" json:"location_id"`
	LocationCode   string `db:"location_code" json:"location_code"`
	LocationName   string `db:"location_name" json:"location_name"`
	RoomID         string `db:"room_id" json:"room_id"`
	RoomNumber     string `db:"room_number" json:"room_number"`
	DepartmentID   string `db:"department_id" json:"department_id"`
	DepartmentCode string `db:"department_code" json:"department_code"`
	DepartmentName string `db:"department_name" json:"department_name"`
	FloorNumber    int    `db:"floor_number" json:"floor_number"`
	BlockCode      string `db:"block_code" json:"block_code"`
	BuildingCode   string `db:"building_code" json:"building_code"`
}

// Display renders the path as BUILDING/BLOCK/F<n>/DEPT/ROOM/LOC.
func (p LocationPath) Display() string {
	return p.BuildingCode + "/" + p.BlockCode + "/F" + strconv.Itoa(p.FloorNumber) + "/" + p.DepartmentCode + "/" + p.RoomNumber + "/" + p.LocationCode
}

// OrgReferences counts what still points at a hierarchy node.
type OrgReferences struct {
	ActiveChildren    int `db:"active_children"`
	ActiveStaff       int `db:"active_staff"`
	Devices           int `db:"devices"`
	ActiveAssignments int `db:"active_assignments"`
}

// Blocking reports whether any reference prevents deactivation.
func (r OrgReferences) Blocking() bool {
	return r.ActiveChildren > 0 || r.ActiveStaff > 0 || r.Devices > 0 || r.ActiveAssignments > 0
}

// Staff is an employee that can hold device assignments.
type Staff struct {
	ID             string     `db:"id" json:"id"`
	EmployeeID     string     `db:"employee_id" json:"employee_id"`
	FullName       string     `db:"full_name" json:"full_name"`
	Designation    string     `db:"designation" json:"designation"`
	DepartmentID   string     `db:"department_id" json:"department_id"`
	DepartmentName string     `db:"department_name" json:"department_name,omitempty"`
	Phone          string     `db:"phone" json:"phone"`
	Email          string     `db:"email" json:"email"`
	JoiningDate    time.Time  `db:"joining_date" json:"joining_date"`
	LeavingDate    *time.Time `db:"leaving_date" json:"leaving_date,omitempty"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	LastActivity   *time.Time `db:"last_activity" json:"last_activity,omitempty"`
	UserID         *string    `db:"user_id" json:"user_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// StaffFilter narrows staff listings.
type StaffFilter struct {
	DepartmentID  string
	DepartmentIDs []string
	Restricted    bool
	Active        *bool
	Search        string
	Page          int
	PageSize      int
}

// Vendor supplies or services devices.
type Vendor struct {
	ID            string    `db:"id" json:"id"`
	VendorCode    string    `db:"vendor_code" json:"vendor_code"`
	Name          string    `db:"name" json:"name"`
	VendorType    string    `db:"vendor_type" json:"vendor_type"`
	ContactPerson string    `db:"contact_person" json:"contact_person"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	Address       string    `db:"address" json:"address"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
