// Package corpus turns raw ticket source files into validated ticket
// records. Supported formats are CSV, Excel workbooks (converted through
// unoconv) and JSON arrays; the format is selected by file extension.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ticketwise/backend/pkg/corpus/csv"
	"github.com/ticketwise/backend/pkg/corpus/excel"
	"github.com/ticketwise/backend/pkg/corpus/json"
	"github.com/ticketwise/backend/pkg/ticket"
)

// Parse decodes ticket records from content, dispatching on the file
// extension of name. Unknown extensions are an error.
func Parse(name string, content []byte) ([]ticket.Ticket, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return csv.ParseTickets(content)
	case ".xlsx", ".xls":
		return excel.ParseTickets(content, strings.TrimPrefix(ext, "."))
	case ".json":
		return json.ParseTickets(content)
	default:
		return nil, fmt.Errorf("unsupported corpus format %q", ext)
	}
}

// LoadFile reads and parses a corpus file from local disk.
func LoadFile(path string) ([]ticket.Ticket, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	return Parse(path, content)
}
