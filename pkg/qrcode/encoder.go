package qrcode

import (
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultModuleSize = 10
	DefaultBorder     = 4
)

// Encoder turns payload strings into PNG QR images at error-correction level L.
type Encoder struct {
	moduleSize int
	border     int
}

// NewEncoder builds an encoder. The quiet zone is either the standard four modules or
// disabled; any other positive border falls back to four.
func NewEncoder(moduleSize, border int) *Encoder {
	if moduleSize <= 0 {
		moduleSize = DefaultModuleSize
	}
	if border != 0 {
		border = DefaultBorder
	}
	return &Encoder{moduleSize: moduleSize, border: border}
}

// Image is an encoded QR code.
type Image struct {
	PNG     []byte
	Modules int
	Pixels  int
}

// Encode renders content as a PNG where each module is moduleSize pixels wide.
func (e *Encoder) Encode(content string) (*Image, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is empty")
	}
	code, err := goqrcode.New(content, goqrcode.Low)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.DisableBorder = e.border == 0

	modules := len(code.Bitmap())
	png, err := code.PNG(-e.moduleSize)
	if err != nil {
		return nil, fmt.Errorf("render qr png: %w", err)
	}
	return &Image{PNG: png, Modules: modules, Pixels: modules * e.moduleSize}, nil
}
