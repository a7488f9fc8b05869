// Package excel parses ticket corpora from Excel workbooks (.xlsx, .xls)
// by converting them to CSV with unoconv and delegating to the CSV parser.
// Multi-sheet workbooks are concatenated; every sheet must carry the same
// ticket header.
package excel

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ticketwise/backend/pkg/corpus/csv"
	"github.com/ticketwise/backend/pkg/ticket"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const convertTimeout = 600 * time.Second

// ParseTickets converts workbook content to CSV and decodes ticket
// records from every sheet. ext is the extension without the leading dot.
func ParseTickets(content []byte, ext string) ([]ticket.Ticket, error) {
	sheets, err := transformToCsv(content, ext)
	if err != nil {
		return nil, err
	}

	// deterministic sheet order
	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	var tickets []ticket.Ticket
	for _, name := range names {
		parsed, err := csv.ParseTickets(sheets[name])
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
		tickets = append(tickets, parsed...)
	}
	return tickets, nil
}

// transformToCsv converts workbook bytes to one CSV per sheet using
// unoconv. Single-sheet output is keyed "Sheet1".
func transformToCsv(input []byte, ext string) (map[string][]byte, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("nanoid: %w", err)
	}
	tmpDir := filepath.Join(os.TempDir(), "ticketwise-excel-"+id)
	if err := os.MkdirAll(tmpDir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir tmp: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	excelPath := filepath.Join(tmpDir, fmt.Sprintf("input.%s", ext))
	if err := os.WriteFile(excelPath, input, 0o600); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	if _, err := exec.LookPath("unoconv"); err != nil {
		return nil, fmt.Errorf("unoconv not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), convertTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "unoconv", "-f", "csv", excelPath)
	cmd.Dir = tmpDir
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("unoconv timed out")
	}
	if err != nil {
		return nil, fmt.Errorf("unoconv failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	// unoconv writes input.csv for a single sheet and input-SheetName.csv
	// per sheet for multi-sheet workbooks
	matches, err := filepath.Glob(filepath.Join(tmpDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob csv: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CSV files produced")
	}

	result := make(map[string][]byte, len(matches))
	for _, f := range matches {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", f, err)
		}

		base := strings.TrimSuffix(filepath.Base(f), ".csv")
		sheetName := strings.TrimPrefix(base, "input-")
		if sheetName == "input" {
			sheetName = "Sheet1"
		}
		result[sheetName] = content
	}

	return result, nil
}
