package customerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/techflow-labs/careflow/agent/contract"
)

type customerRow struct {
	bun.BaseModel `bun:"table:customers"`

	CustomerID    string  `bun:"customer_id,pk"`
	Name          string  `bun:"name"`
	Email         string  `bun:"email"`
	Phone         string  `bun:"phone"`
	PlanType      string  `bun:"plan_type"`
	MonthlyCharge float64 `bun:"monthly_charge"`
	Tier          string  `bun:"tier"`
	TenureMonths  int     `bun:"tenure_months"`
	Device        string  `bun:"device"`
	Status        string  `bun:"status"`
}

// Directory resolves customer profiles from the customers table.
type Directory struct {
	db bun.IDB
}

func NewDirectory(db bun.IDB) *Directory {
	return &Directory{db: db}
}

// Lookup matches on the email column, case-insensitively.
func (d *Directory) Lookup(ctx context.Context, email string) (*contract.CustomerProfile, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, contract.ErrCustomerNotFound
	}

	row := new(customerRow)
	err := d.db.NewSelect().
		Model(row).
		Where("lower(email) = ?", normalized).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", contract.ErrCustomerNotFound, normalized)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	return row.toProfile(), nil
}

func (r *customerRow) toProfile() *contract.CustomerProfile {
	return &contract.CustomerProfile{
		CustomerID:    r.CustomerID,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		PlanType:      r.PlanType,
		MonthlyCharge: r.MonthlyCharge,
		Tier:          r.Tier,
		TenureMonths:  r.TenureMonths,
		Device:        r.Device,
		Status:        r.Status,
	}
}
