package pagesource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/agreewise/agreewise/internal/core/domain"
)

var documentTypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
}

// Loader turns uploaded bytes into Pages. The MIME type is sniffed from content,
// never taken from the file name.
type Loader struct {
	limits domain.PageLimits
}

func NewLoader(limits domain.PageLimits) *Loader {
	if limits.MaxPageBytes <= 0 {
		limits.MaxPageBytes = domain.DefaultMaxPageBytes
	}
	return &Loader{limits: limits}
}

func (l *Loader) Load(_ context.Context, name string, data []byte) (domain.Page, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return domain.Page{}, domain.WrapError(domain.ErrInvalidInput, "load page", fmt.Errorf("page name is required"))
	}
	if int64(len(data)) > l.limits.MaxPageBytes {
		return domain.Page{}, domain.WrapError(domain.ErrInvalidInput, "load page",
			fmt.Errorf("%s exceeds the %d byte page limit", name, l.limits.MaxPageBytes))
	}
	if len(data) == 0 {
		return domain.Page{}, domain.WrapError(domain.ErrInvalidInput, "load page", fmt.Errorf("%s is empty", name))
	}

	mime, kind, err := classify(data)
	if err != nil {
		return domain.Page{}, domain.WrapError(domain.ErrUnsupportedContent, "load page", fmt.Errorf("%s: %v", name, err))
	}
	page := domain.Page{
		Name:     name,
		Size:     int64(len(data)),
		MIMEType: mime,
		Kind:     kind,
		Data:     data,
	}
	if mime == "application/pdf" {
		page.PageCount = countPDFPages(data)
	}
	return page, nil
}

// LoadFile reads path, refusing files over the size limit before reading them.
func (l *Loader) LoadFile(ctx context.Context, path string) (domain.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Page{}, fmt.Errorf("open page file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.Page{}, fmt.Errorf("stat page file: %w", err)
	}
	if info.Size() > l.limits.MaxPageBytes {
		return domain.Page{}, domain.WrapError(domain.ErrInvalidInput, "load page",
			fmt.Errorf("%s exceeds the %d byte page limit", info.Name(), l.limits.MaxPageBytes))
	}
	data, err := io.ReadAll(io.LimitReader(f, l.limits.MaxPageBytes+1))
	if err != nil {
		return domain.Page{}, fmt.Errorf("read page file: %w", err)
	}
	return l.Load(ctx, info.Name(), data)
}

func classify(data []byte) (string, domain.PageKind, error) {
	detected := mimetype.Detect(data)
	for _, allowed := range documentTypes {
		if detected.Is(allowed) {
			return allowed, domain.PageKindDocument, nil
		}
	}
	mime := detected.String()
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if strings.HasPrefix(mime, "image/") {
		return mime, domain.PageKindImage, nil
	}
	return "", "", fmt.Errorf("unsupported file type %s (use PDF, DOCX, DOC or an image)", mime)
}

// countPDFPages is best effort; malformed files report zero pages.
func countPDFPages(data []byte) (count int) {
	defer func() {
		if recover() != nil {
			count = 0
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return reader.NumPage()
}
