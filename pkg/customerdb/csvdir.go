package customerdb

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/techflow-labs/careflow/agent/contract"
)

// CSVDirectory serves customer lookups from a CSV file loaded once at
// construction. It backs the chat CLI and tests; the server uses the
// Postgres Directory.
type CSVDirectory struct {
	byEmail map[string]*contract.CustomerProfile
}

// NewCSVDirectory reads the whole file up front. The first row must be
// a header naming at least customer_id, name, email and tier.
func NewCSVDirectory(path string) (*CSVDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open customer csv: %w", err)
	}
	defer f.Close()
	return parseCSVDirectory(f)
}

func parseCSVDirectory(r io.Reader) (*CSVDirectory, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read customer csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"customer_id", "name", "email", "tier"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("customer csv missing column %q", required)
		}
	}

	dir := &CSVDirectory{byEmail: make(map[string]*contract.CustomerProfile)}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read customer csv line %d: %w", line, err)
		}
		profile := profileFromRecord(cols, record)
		if profile.Email == "" {
			continue
		}
		dir.byEmail[strings.ToLower(profile.Email)] = profile
	}
	return dir, nil
}

func profileFromRecord(cols map[string]int, record []string) *contract.CustomerProfile {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	monthly, _ := strconv.ParseFloat(field("monthly_charge"), 64)
	tenure, _ := strconv.Atoi(field("tenure_months"))
	return &contract.CustomerProfile{
		CustomerID:    field("customer_id"),
		Name:          field("name"),
		Email:         field("email"),
		Phone:         field("phone"),
		PlanType:      field("plan_type"),
		MonthlyCharge: monthly,
		Tier:          field("tier"),
		TenureMonths:  tenure,
		Device:        field("device"),
		Status:        field("status"),
	}
}

func (d *CSVDirectory) Lookup(_ context.Context, email string) (*contract.CustomerProfile, error) {
	profile, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contract.ErrCustomerNotFound, email)
	}
	clone := *profile
	return &clone, nil
}

// Len reports how many customers were loaded.
func (d *CSVDirectory) Len() int {
	return len(d.byEmail)
}
