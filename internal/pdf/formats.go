package pdf

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/internal/storage"
)

// Format is one output representation of a job sheet.
type Format interface {
	// Render produces the file contents for in.
	Render(ctx context.Context, svc *Service, in models.Input) ([]byte, error)
	// Name returns the format identifier (e.g., "html", "pdf").
	Name() string
	// Description returns a human-readable description of the format.
	Description() string
	// Extension is the file name extension without a dot.
	Extension() string
	// ContentType is the MIME type of the rendered bytes.
	ContentType() string
}

// FormatFactory creates instances of output formats.
type FormatFactory func() Format

var (
	formatRegistry = make(map[string]FormatFactory)
	registryMutex  sync.RWMutex
)

// RegisterFormat registers a new output format factory.
func RegisterFormat(name string, factory FormatFactory) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if factory == nil {
		panic(fmt.Sprintf("pdf: RegisterFormat factory is nil for format %q", name))
	}
	if _, dup := formatRegistry[name]; dup {
		panic(fmt.Sprintf("pdf: RegisterFormat called twice for format %q", name))
	}
	formatRegistry[name] = factory
}

// GetFormat creates an instance of the named format.
func GetFormat(name string) (Format, error) {
	registryMutex.RLock()
	factory, exists := formatRegistry[name]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
	return factory(), nil
}

// ListFormats returns the registered format names in sorted order.
func ListFormats() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	formats := make([]string, 0, len(formatRegistry))
	for name := range formatRegistry {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

type htmlFormat struct{}

func (htmlFormat) Render(_ context.Context, svc *Service, in models.Input) ([]byte, error) {
	return svc.preview(in)
}

func (htmlFormat) Name() string        { return "html" }
func (htmlFormat) Description() string { return "Standalone HTML preview of the job sheet" }
func (htmlFormat) Extension() string   { return "html" }
func (htmlFormat) ContentType() string { return storage.ContentTypeHTML }

type pdfFormat struct{}

func (pdfFormat) Render(ctx context.Context, svc *Service, in models.Input) ([]byte, error) {
	return svc.renderPDF(ctx, in)
}

func (pdfFormat) Name() string        { return "pdf" }
func (pdfFormat) Description() string { return "Paginated A4 PDF rendered through headless Chrome" }
func (pdfFormat) Extension() string   { return "pdf" }
func (pdfFormat) ContentType() string { return storage.ContentTypePDF }

// Register built-in formats during package initialization.
func init() {
	RegisterFormat("html", func() Format { return htmlFormat{} })
	RegisterFormat("pdf", func() Format { return pdfFormat{} })
}
