package service

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

func TestNewValidatorCustomTags(t *testing.T) {
	v := NewValidator()

	valid := dto.CreateStaffRequest{
		EmployeeID:   "110100091",
		FullName:     "Rina Kusuma",
		DepartmentID: "dept-ipds",
		Phone:        "0812-3456-7890",
		JoiningDate:  "2019-07-01",
	}
	require.NoError(t, v.Struct(valid))

	invalid := valid
	invalid.EmployeeID = "ab"
	invalid.Phone = "12345"
	err := validationError(v.Struct(invalid))
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "employee_id")
	assert.Contains(t, appErr.Fields, "phone")

	mac := "AA:BB:CC:DD:EE:FF"
	device := dto.CreateDeviceRequest{AssetTag: "AT-1", SerialNumber: "SN-1", DeviceTypeID: "type-1", DeviceName: "Switch", MACAddress: &mac}
	require.NoError(t, v.Struct(device))
	bad := "AA:BB:CC"
	device.MACAddress = &bad
	err = validationError(v.Struct(device))
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "must be a MAC address like AA:BB:CC:DD:EE:FF", appErr.Fields["mac_address"])
}

func TestRepoError(t *testing.T) {
	assert.Nil(t, repoError(nil, "device", "load device"))

	notFound := repoError(fmt.Errorf("find device: %w", sql.ErrNoRows), "device", "load device")
	assert.ErrorIs(t, notFound, appErrors.ErrNotFound)
	assert.Equal(t, "device not found", appErrors.FromError(notFound).Message)

	dup := appErrors.Clone(appErrors.ErrDuplicate, "asset_tag already exists")
	assert.Same(t, dup, repoError(dup, "device", "create device"))

	internal := repoError(errors.New("connection reset"), "device", "create device")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(internal).Code)
	assert.Equal(t, "failed to create device", appErrors.FromError(internal).Message)
}
