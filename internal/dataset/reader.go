package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// ErrUnsupported indicates a dataset format is not supported.
var ErrUnsupported = errors.New("unsupported dataset format")

// Reader loads a tabular file into a Table.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt LoadOptions) (*Table, error)
}

// LoadOptions bound resource use and select sheet/locale details.
type LoadOptions struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// MaxBytes rejects files larger than this; 0 means unlimited.
	MaxBytes int64
	// Delimiter for CSV-like files. If 0, sniffed from content.
	Delimiter rune
	// Sheet selects an XLSX worksheet by name; SheetIndex is 1-based.
	Sheet      string
	SheetIndex int
	// Parse settings are applied by Load after reading.
	Parse ParseOptions
}

// DefaultLoadOptions mirrors the application's analysis guards.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		MaxRows:  1000000,
		MaxBytes: 100 << 20,
		Parse:    DefaultParseOptions(),
	}
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// SupportedExtensions lists the file extensions the registry accepts.
func SupportedExtensions() []string {
	exts := []string{".csv", ".tsv", ".txt", ".json", ".xlsx", ".xlsm"}
	return lo.Filter(exts, func(e string, _ int) bool {
		return lo.SomeBy(registry, func(r Reader) bool { return r.CanRead("f" + e) })
	})
}

// Load reads a dataset file with the first matching reader, applies size and
// row guards, and runs kind detection.
func Load(path string, opt LoadOptions) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	if opt.MaxBytes > 0 && info.Size() > opt.MaxBytes {
		return nil, fmt.Errorf("dataset %s is %d bytes, over the %d byte limit", filepath.Base(path), info.Size(), opt.MaxBytes)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			t, err := r.Read(path, opt)
			if err != nil {
				return nil, err
			}
			t.Detect(opt.Parse)
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupported, filepath.Ext(path), strings.Join(SupportedExtensions(), ", "))
}

func init() {
	Register(csvReader{})
	Register(jsonReader{})
	Register(xlsxReader{})
}
