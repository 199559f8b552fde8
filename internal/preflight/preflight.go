// Package preflight checks a source file before it is uploaded.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/observability"
	"github.com/survaize/survaize-client/internal/transport"
)

// LargeFileSize is the size above which a warning is logged.
const LargeFileSize = 100 * 1024 * 1024

// Report describes a file that passed the checks.
type Report struct {
	Path   string
	Name   string
	Format domain.Format
	Size   int64
	Pages  int // 0 when unknown or not a PDF
}

// Checker validates input files
type Checker struct {
	logger *observability.Logger
}

// NewChecker creates a checker. logger may be nil.
func NewChecker(logger *observability.Logger) *Checker {
	return &Checker{logger: observability.OrNop(logger).WithOperation("preflight")}
}

// Check validates that path names a readable, non-empty PDF or JSON file.
func (c *Checker) Check(path string) (*Report, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.ValidationError("file path cannot be empty", nil)
	}

	format, err := transport.FormatForFile(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return nil, domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}
	if info.IsDir() {
		return nil, domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}
	if !info.Mode().IsRegular() {
		return nil, domain.ValidationError(fmt.Sprintf("not a regular file: %s", path), nil)
	}
	if info.Size() == 0 {
		return nil, domain.ValidationError(fmt.Sprintf("file is empty: %s", path), nil)
	}
	if info.Size() > LargeFileSize {
		c.logger.Warn().Int64("size_mb", info.Size()/(1024*1024)).Str("path", path).
			Msg("File is very large, upload and extraction may take a while")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	defer f.Close()

	report := &Report{
		Path:   path,
		Name:   filepath.Base(path),
		Format: format,
		Size:   info.Size(),
	}

	if format == domain.FormatPDF {
		conf := model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed
		pages, err := api.PageCount(f, conf)
		if err != nil {
			// the extraction service decides whether the PDF is usable
			c.logger.Warn().Err(err).Str("path", path).Msg("Could not count PDF pages")
		} else {
			report.Pages = pages
			c.logger.Debug().Int("pages", pages).Str("path", path).Msg("Counted PDF pages")
		}
	}

	return report, nil
}
