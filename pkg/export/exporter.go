package export

import "fmt"

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Output is a rendered export ready for storage or streaming.
type Output struct {
	Payload     []byte
	ContentType string
	Extension   string
	Rows        int
	Truncated   bool
}

// Exporter renders a dataset into one file format. Every variant receives the same
// filtered dataset; only PDF may truncate.
type Exporter interface {
	Export(data Dataset, title string) (*Output, error)
}

// ForFormat returns the exporter registered for the given format name.
func ForFormat(format string) (Exporter, error) {
	switch format {
	case "csv":
		return NewCSVExporter(), nil
	case "pdf":
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
