package qrcode

import (
	"bytes"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoderModuleGeometry(t *testing.T) {
	enc := NewEncoder(10, 4)
	img, err := enc.Encode(`{"deviceId":"BPS-IT-2025-0001"}`)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img.PNG))
	require.NoError(t, err)
	assert.Equal(t, img.Pixels, decoded.Bounds().Dx())
	assert.Equal(t, img.Modules*10, img.Pixels)
	// Version 1 is 21 modules plus a four module quiet zone on both sides.
	assert.GreaterOrEqual(t, img.Modules, 29)
}

func TestEncoderRejectsEmptyContent(t *testing.T) {
	_, err := NewEncoder(0, 4).Encode("")
	assert.Error(t, err)
}

func TestParseLabelSize(t *testing.T) {
	size, err := ParseLabelSize("")
	require.NoError(t, err)
	assert.Equal(t, LabelMedium, size)

	size, err = ParseLabelSize("LARGE")
	require.NoError(t, err)
	w, h, ok := size.Dimensions()
	assert.True(t, ok)
	assert.Equal(t, 400.0, w)
	assert.Equal(t, 300.0, h)

	_, err = ParseLabelSize("poster")
	assert.Error(t, err)
}

func TestLabelRendererProducesPDF(t *testing.T) {
	img, err := NewEncoder(10, 4).Encode("BPS-IT-2025-0001")
	require.NoError(t, err)

	pdf, err := NewLabelRenderer().Render(LabelSmall, []Label{{
		DeviceID:   "BPS-IT-2025-0001",
		DeviceName: "Dell Latitude",
		AssetTag:   "AT-1",
		QRPNG:      img.PNG,
	}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestBundleRoundTrip(t *testing.T) {
	data, err := Bundle([]BundleEntry{
		{Name: "labels_small.pdf", Data: []byte("small")},
		{Name: "labels_large.pdf", Data: []byte("large")},
	}, time.Now())
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)
	f, err := reader.File[1].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "large", string(body))

	_, err = Bundle([]BundleEntry{{Name: "a"}, {Name: "a"}}, time.Now())
	assert.Error(t, err)
}
