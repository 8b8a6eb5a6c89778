package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"paycore/internal/domain/auth"
	"paycore/internal/platform/config"
)

// Seed provisions the default tenant, the admin user, an earning type and a
// conventional chart of accounts so a fresh install can post a run without
// manual setup.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}

	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if err := ensureAdminUser(ctx, pool, tenantID, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}

	if err := ensureEarningTypes(ctx, pool, tenantID); err != nil {
		return err
	}

	return ensureChartOfAccounts(ctx, pool, tenantID)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, tenantID, email, password string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND email = $2", tenantID, email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role)
    VALUES ($1,$2,$3,$4)
  `, tenantID, email, hash, auth.RoleHR)
	return err
}

func ensureEarningTypes(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	_, err := pool.Exec(ctx, `
    INSERT INTO earning_types (tenant_id, code, name)
    VALUES ($1, 'REG', 'Regular Pay'), ($1, 'OT', 'Overtime')
    ON CONFLICT (tenant_id, code) DO NOTHING
  `, tenantID)
	return err
}

func ensureChartOfAccounts(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	accounts := []struct {
		code, name, accountType string
	}{
		{"6000", "Payroll Expense", "expense"},
		{"2100", "Payroll Taxes Payable", "liability"},
		{"2300", "Payroll Deductions Payable", "liability"},
		{"2000", "Net Pay Payable", "liability"},
	}
	for _, account := range accounts {
		_, err := pool.Exec(ctx, `
      INSERT INTO gl_accounts (tenant_id, code, name, account_type, is_active)
      VALUES ($1,$2,$3,$4,true)
      ON CONFLICT (tenant_id, code) DO NOTHING
    `, tenantID, account.code, account.name, account.accountType)
		if err != nil {
			return err
		}
	}
	return nil
}
