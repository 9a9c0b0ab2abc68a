package models

import "time"

// QuickStats are the per-user headline numbers shown on every page.
type QuickStats struct {
	DevicesByStatus    map[string]int `json:"devices_by_status"`
	TotalDevices       int            `json:"total_devices"`
	ActiveAssignments  int            `json:"active_assignments"`
	OverdueAssignments int            `json:"overdue_assignments"`
	WarrantyExpiring   int            `json:"warranty_expiring"`
	GeneratedAt        time.Time      `json:"generated_at"`
}

// SystemStats are organisation-wide totals.
type SystemStats struct {
	Buildings       int       `db:"buildings" json:"buildings"`
	Departments     int       `db:"departments" json:"departments"`
	Locations       int       `db:"locations" json:"locations"`
	ActiveStaff     int       `db:"active_staff" json:"active_staff"`
	Vendors         int       `db:"vendors" json:"vendors"`
	Devices         int       `db:"devices" json:"devices"`
	CriticalDevices int       `db:"critical_devices" json:"critical_devices"`
	ScansToday      int       `db:"scans_today" json:"scans_today"`
	MaintenanceDue  int       `db:"maintenance_due" json:"maintenance_due"`
	GeneratedAt     time.Time `db:"-" json:"generated_at"`
}

// StatusCount pairs a status with a count.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// NotificationKind classifies a dashboard alert.
type NotificationKind string

const (
	NotifyAssignmentOverdue NotificationKind = "assignment_overdue"
	NotifyAssignmentDue     NotificationKind = "assignment_due"
	NotifyWarrantyExpiring  NotificationKind = "warranty_expiring"
	NotifyMaintenanceDue    NotificationKind = "maintenance_due"
)

// Notification is one alert for the current user.
type Notification struct {
	Kind     NotificationKind `json:"kind"`
	ObjectID string           `json:"object_id"`
	Title    string           `json:"title"`
	DueDate  *time.Time       `json:"due_date,omitempty"`
	Severity string           `json:"severity"`
}

// Dashboard is the request-scoped context computed once per dashboard render.
type Dashboard struct {
	QuickStats    QuickStats     `json:"quick_stats"`
	SystemStats   *SystemStats   `json:"system_stats,omitempty"`
	Notifications []Notification `json:"notifications"`
}

// MetricsSnapshot summarises in-process instrumentation since start.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	ServerErrors             uint64    `json:"server_errors"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	AssignmentTransitions    uint64    `json:"assignment_transitions"`
	AssignmentRejections     uint64    `json:"assignment_rejections"`
	QRScans                  uint64    `json:"qr_scans"`
	ReportsFinished          uint64    `json:"reports_finished"`
	ReportsFailed            uint64    `json:"reports_failed"`
	QueuePending             int64     `json:"queue_pending"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
