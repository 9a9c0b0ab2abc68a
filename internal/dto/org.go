package dto

// CreateOrgNodeRequest creates a node at any registry level. Fields that do not
// apply to the level are ignored.
type CreateOrgNodeRequest struct {
	ParentID     string `json:"parent_id"`
	Code         string `json:"code" validate:"max=20"`
	Name         string `json:"name" validate:"max=200"`
	Description  string `json:"description"`
	FloorNumber  *int   `json:"floor_number"`
	RoomNumber   string `json:"room_number" validate:"max=20"`
	Capacity     *int   `json:"capacity" validate:"omitempty,min=0"`
	LocationType string `json:"location_type" validate:"max=30"`
	Head         string `json:"head_of_department" validate:"max=200"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,phone"`
}

// RenameOrgNodeRequest changes a node's display name.
type RenameOrgNodeRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// ResolveLocationQuery is the qualified path accepted by resolve.
type ResolveLocationQuery struct {
	Building   string `form:"building" validate:"required"`
	Block      string `form:"block" validate:"required"`
	Floor      int    `form:"floor"`
	Department string `form:"department" validate:"required"`
	Room       string `form:"room" validate:"required"`
	Location   string `form:"location"`
}

// CreateStaffRequest registers a staff member.
type CreateStaffRequest struct {
	EmployeeID   string  `json:"employee_id" validate:"required,employee_id"`
	FullName     string  `json:"full_name" validate:"required,max=200"`
	Designation  string  `json:"designation" validate:"max=100"`
	DepartmentID string  `json:"department_id" validate:"required"`
	Phone        string  `json:"phone" validate:"omitempty,phone"`
	Email        string  `json:"email" validate:"omitempty,email"`
	JoiningDate  string  `json:"joining_date" validate:"required,datetime=2006-01-02"`
	UserID       *string `json:"user_id"`
}

// UpdateStaffRequest patches a staff member.
type UpdateStaffRequest struct {
	FullName     *string `json:"full_name" validate:"omitempty,max=200"`
	Designation  *string `json:"designation" validate:"omitempty,max=100"`
	DepartmentID *string `json:"department_id"`
	Phone        *string `json:"phone" validate:"omitempty,phone"`
	Email        *string `json:"email" validate:"omitempty,email"`
	UserID       *string `json:"user_id"`
}

// DeactivateStaffRequest soft-deletes a staff member.
type DeactivateStaffRequest struct {
	LeavingDate *string `json:"leaving_date" validate:"omitempty,datetime=2006-01-02"`
}

// CreateVendorRequest registers a vendor.
type CreateVendorRequest struct {
	VendorCode    string `json:"vendor_code" validate:"required,max=20"`
	Name          string `json:"name" validate:"required,max=200"`
	VendorType    string `json:"vendor_type" validate:"omitempty,oneof=SUPPLIER SERVICE_PROVIDER MANUFACTURER CONTRACTOR"`
	ContactPerson string `json:"contact_person" validate:"max=200"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"omitempty,phone"`
	Address       string `json:"address"`
}

// CreateCategoryRequest adds a device category.
type CreateCategoryRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// CreateSubcategoryRequest adds a subcategory under a category.
type CreateSubcategoryRequest struct {
	CategoryID string `json:"category_id" validate:"required"`
	Code       string `json:"code" validate:"required,max=20"`
	Name       string `json:"name" validate:"required,max=100"`
}

// CreateDeviceTypeRequest adds a device type under a subcategory.
type CreateDeviceTypeRequest struct {
	SubcategoryID string `json:"subcategory_id" validate:"required"`
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description"`
}
