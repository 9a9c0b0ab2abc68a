package qrcode

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// LabelSize names one of the printable label formats.
type LabelSize string

const (
	LabelSmall  LabelSize = "small"
	LabelMedium LabelSize = "medium"
	LabelLarge  LabelSize = "large"
)

// Dimensions returns the label width and height in points.
func (s LabelSize) Dimensions() (float64, float64, bool) {
	switch s {
	case LabelSmall:
		return 200, 100, true
	case LabelMedium:
		return 300, 200, true
	case LabelLarge:
		return 400, 300, true
	default:
		return 0, 0, false
	}
}

// ParseLabelSize resolves a user supplied size, defaulting to medium.
func ParseLabelSize(raw string) (LabelSize, error) {
	if raw == "" {
		return LabelMedium, nil
	}
	size := LabelSize(strings.ToLower(strings.TrimSpace(raw)))
	if _, _, ok := size.Dimensions(); !ok {
		return "", fmt.Errorf("unknown label size %q", raw)
	}
	return size, nil
}

// Label is the printable content for one device.
type Label struct {
	DeviceID   string
	DeviceName string
	AssetTag   string
	Location   string
	QRPNG      []byte
}

// LabelRenderer lays out labels one per page of the requested size.
type LabelRenderer struct{}

// NewLabelRenderer builds a renderer.
func NewLabelRenderer() *LabelRenderer {
	return &LabelRenderer{}
}

// Render produces a PDF sheet with one page per label.
func (r *LabelRenderer) Render(size LabelSize, labels []Label) ([]byte, error) {
	width, height, ok := size.Dimensions()
	if !ok {
		return nil, fmt.Errorf("unknown label size %q", size)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels to render")
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	pad := height * 0.08
	qrSide := height - 2*pad
	textX := pad + qrSide + pad
	textWidth := width - textX - pad
	titleSize := height * 0.11
	bodySize := height * 0.08

	for i, label := range labels {
		pdf.AddPage()
		name := fmt.Sprintf("qr-%d", i)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(label.QRPNG))
		if pdf.Err() {
			return nil, fmt.Errorf("register label image for %s: %w", label.DeviceID, pdf.Error())
		}
		pdf.ImageOptions(name, pad, pad, qrSide, qrSide, false, opts, 0, "")

		pdf.SetXY(textX, pad)
		pdf.SetFont("Arial", "B", titleSize)
		pdf.CellFormat(textWidth, titleSize*1.3, label.DeviceID, "", 2, "L", false, 0, "")
		pdf.SetFont("Arial", "", bodySize)
		for _, line := range []string{label.DeviceName, "Asset: " + label.AssetTag, label.Location} {
			if strings.TrimSpace(line) == "" || line == "Asset: " {
				continue
			}
			pdf.SetX(textX)
			pdf.MultiCell(textWidth, bodySize*1.3, line, "", "L", false)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render labels: %w", err)
	}
	return buf.Bytes(), nil
}
