package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/service"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type reportServiceMock struct {
	preview     *models.ReportPreview
	previewHit  bool
	lastFilters models.ReportFilters
	createResp  *dto.ReportJobResponse
	createErr   error
	lastType    models.ReportType
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	download    *service.ReportDownload
	downloadErr error
}

func (m *reportServiceMock) Preview(ctx context.Context, perms *models.EffectivePermissions, reportType models.ReportType, filters models.ReportFilters) (*models.ReportPreview, bool, error) {
	m.lastType = reportType
	m.lastFilters = filters
	return m.preview, m.previewHit, nil
}

func (m *reportServiceMock) CreateJob(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, reportType models.ReportType, req dto.ReportExportRequest) (*dto.ReportJobResponse, error) {
	m.lastType = reportType
	return m.createResp, m.createErr
}

func (m *reportServiceMock) GetStatus(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, id string) (*dto.ReportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withPrincipal(c *gin.Context, perms models.PermissionSet) {
	c.Set(middleware.ContextPrincipalKey, &models.Principal{
		User:        models.UserInfo{ID: "user-1", Username: "admin"},
		SessionID:   "sess-1",
		Permissions: &models.EffectivePermissions{PermissionSet: perms},
	})
}

func TestReportHandlerPreview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{
		preview:    &models.ReportPreview{Type: models.ReportTypeInventory, Headers: []string{"device_id"}, Total: 0},
		previewHit: true,
	}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/custom?columns=device_id,%20brand&departmentId=dept-1", nil)
	c.Params = gin.Params{{Key: "type", Value: "Custom"}}
	withPrincipal(c, models.PermissionSet{CanGenerateReports: true})

	handler.Preview(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ReportTypeCustom, mockSvc.lastType)
	assert.Equal(t, []string{"device_id", "brand"}, mockSvc.lastFilters.Columns)
	assert.Equal(t, "dept-1", mockSvc.lastFilters.DepartmentID)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestReportHandlerUnknownType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{})

	c, w := newGinContext(http.MethodGet, "/reports/payroll", nil)
	c.Params = gin.Params{{Key: "type", Value: "payroll"}}

	handler.Preview(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{
		createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued},
	}
	handler := NewReportHandler(mockSvc)

	payload, _ := json.Marshal(dto.ReportExportRequest{Format: models.ReportFormatCSV})
	c, w := newGinContext(http.MethodPost, "/reports/warranty/export", payload)
	c.Params = gin.Params{{Key: "type", Value: "warranty"}}
	withPrincipal(c, models.PermissionSet{CanGenerateReports: true, CanExportData: true})

	handler.Export(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, models.ReportTypeWarranty, mockSvc.lastType)
}

func TestReportHandlerExportForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{createErr: appErrors.Clone(appErrors.ErrForbidden, "missing permission can_export_data")})

	c, w := newGinContext(http.MethodPost, "/reports/inventory/export", []byte(`{"format":"pdf"}`))
	c.Params = gin.Params{{Key: "type", Value: "inventory"}}

	handler.Export(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{
		statusResp: &dto.ReportStatusResponse{ID: "job-1", Status: models.ReportStatusFinished, Progress: 100},
	})

	c, w := newGinContext(http.MethodGet, "/reports/jobs/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("device_id\nBPS-COM-2025-0001\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	handler := NewReportHandler(&reportServiceMock{download: &service.ReportDownload{
		File:      file,
		Filename:  "inventory_report.csv",
		Format:    models.ReportFormatCSV,
		ExpiresAt: time.Now().Add(time.Hour),
	}})

	c, w := newGinContext(http.MethodGet, "/reports/download/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inventory_report.csv")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "BPS-COM-2025-0001")
}

func TestReportHandlerDownloadInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})

	c, w := newGinContext(http.MethodGet, "/reports/download/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
