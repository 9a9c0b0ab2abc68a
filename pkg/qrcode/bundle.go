package qrcode

import (
	"bytes"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"
)

// BundleEntry is one file placed in a label archive.
type BundleEntry struct {
	Name string
	Data []byte
}

// Bundle packs entries into a deflate-compressed ZIP archive.
func Bundle(entries []BundleEntry, modified time.Time) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("bundle requires at least one entry")
	}
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.Name]; dup {
			_ = zw.Close()
			return nil, fmt.Errorf("duplicate bundle entry %q", entry.Name)
		}
		seen[entry.Name] = struct{}{}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: entry.Name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("create bundle entry %s: %w", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("write bundle entry %s: %w", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close bundle: %w", err)
	}
	return buf.Bytes(), nil
}
