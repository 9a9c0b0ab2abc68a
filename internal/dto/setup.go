package dto

import "github.com/bps-secretariat/bps-inventory/internal/models"

// SeedFile is the document accepted by inventory-admin setup.
type SeedFile struct {
	Buildings  []SeedBuilding `yaml:"buildings"`
	Roles      []SeedRole     `yaml:"roles"`
	Categories []SeedCategory `yaml:"categories"`
	Vendors    []SeedVendor   `yaml:"vendors"`
	Admin      *SeedAdmin     `yaml:"admin"`
}

type SeedBuilding struct {
	Code        string      `yaml:"code"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Blocks      []SeedBlock `yaml:"blocks"`
}

type SeedBlock struct {
	Code   string      `yaml:"code"`
	Name   string      `yaml:"name"`
	Floors []SeedFloor `yaml:"floors"`
}

type SeedFloor struct {
	Number      int              `yaml:"number"`
	Name        string           `yaml:"name"`
	Departments []SeedDepartment `yaml:"departments"`
}

type SeedDepartment struct {
	Code         string     `yaml:"code"`
	Name         string     `yaml:"name"`
	Head         string     `yaml:"head"`
	ContactEmail string     `yaml:"contact_email"`
	ContactPhone string     `yaml:"contact_phone"`
	Rooms        []SeedRoom `yaml:"rooms"`
}

type SeedRoom struct {
	Number    string         `yaml:"number"`
	Name      string         `yaml:"name"`
	Capacity  int            `yaml:"capacity"`
	Locations []SeedLocation `yaml:"locations"`
}

type SeedLocation struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Capacity int    `yaml:"capacity"`
}

// SeedRole overrides or extends the built-in role catalogue.
type SeedRole struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Permissions models.PermissionSet `yaml:"permissions"`
}

type SeedCategory struct {
	Code          string            `yaml:"code"`
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	Subcategories []SeedSubcategory `yaml:"subcategories"`
}

type SeedSubcategory struct {
	Code  string           `yaml:"code"`
	Name  string           `yaml:"name"`
	Types []SeedDeviceType `yaml:"types"`
}

type SeedDeviceType struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type SeedVendor struct {
	Code          string `yaml:"code"`
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	ContactPerson string `yaml:"contact_person"`
	Email         string `yaml:"email"`
	Phone         string `yaml:"phone"`
	Address       string `yaml:"address"`
}

// SeedAdmin is the initial administrator account. It receives IT_ADMINISTRATOR.
type SeedAdmin struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Password string `yaml:"password"`
}

// SetupSummary counts what a setup run created.
type SetupSummary struct {
	Roles      int  `json:"roles"`
	OrgNodes   int  `json:"org_nodes"`
	Catalogue  int  `json:"catalogue"`
	Vendors    int  `json:"vendors"`
	AdminAdded bool `json:"admin_added"`
}
