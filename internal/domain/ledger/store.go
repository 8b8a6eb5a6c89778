package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateAccount(ctx context.Context, tenantID string, account Account) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO gl_accounts (tenant_id, code, name, account_type, is_active)
    VALUES ($1, $2, $3, $4, true)
    RETURNING id
  `, tenantID, account.Code, account.Name, account.AccountType).Scan(&id)
	return id, err
}

func (s *Store) ListAccounts(ctx context.Context, tenantID string) ([]Account, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, code, name, account_type, is_active, created_at
    FROM gl_accounts
    WHERE tenant_id = $1
    ORDER BY code
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var account Account
		if err := rows.Scan(&account.ID, &account.Code, &account.Name,
			&account.AccountType, &account.IsActive, &account.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, nil
}

func (s *Store) CreateMapping(ctx context.Context, tenantID string, mapping Mapping) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM gl_accounts WHERE tenant_id = $1 AND id = $2)
  `, tenantID, mapping.AccountID).Scan(&exists); err != nil {
		return "", err
	}
	if !exists {
		return "", ErrAccountNotFound
	}

	// A new mapping supersedes any active one of the same type.
	if _, err := tx.Exec(ctx, `
    UPDATE gl_account_mappings SET is_active = false
    WHERE tenant_id = $1 AND mapping_type = $2 AND is_active = true
  `, tenantID, mapping.MappingType); err != nil {
		return "", err
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO gl_account_mappings (tenant_id, mapping_type, account_id, is_active)
    VALUES ($1, $2, $3, true)
    RETURNING id
  `, tenantID, mapping.MappingType, mapping.AccountID).Scan(&id); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListMappings(ctx context.Context, tenantID string) ([]Mapping, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, mapping_type, account_id, is_active, created_at
    FROM gl_account_mappings
    WHERE tenant_id = $1
    ORDER BY mapping_type, created_at DESC
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mapping
	for rows.Next() {
		var mapping Mapping
		if err := rows.Scan(&mapping.ID, &mapping.MappingType, &mapping.AccountID,
			&mapping.IsActive, &mapping.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, mapping)
	}
	return out, nil
}

// ResolveAccounts finds the account for each posting slot: the active mapping
// when one exists, otherwise the first active account matching the slot's
// conventional codes. Slots that resolve to nothing are simply absent from
// the map; the posting builder decides whether that matters.
func (s *Store) ResolveAccounts(ctx context.Context, tenantID string) (map[string]Account, error) {
	resolved := make(map[string]Account, len(MappingTypes))

	rows, err := s.DB.Query(ctx, `
    SELECT m.mapping_type, a.id, a.code, a.name, a.account_type, a.is_active, a.created_at
    FROM gl_account_mappings m
    JOIN gl_accounts a ON a.id = m.account_id
    WHERE m.tenant_id = $1 AND m.is_active = true AND a.is_active = true
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var mappingType string
		var account Account
		if err := rows.Scan(&mappingType, &account.ID, &account.Code, &account.Name,
			&account.AccountType, &account.IsActive, &account.CreatedAt); err != nil {
			return nil, err
		}
		resolved[mappingType] = account
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, mappingType := range MappingTypes {
		if _, ok := resolved[mappingType]; ok {
			continue
		}
		var account Account
		err := s.DB.QueryRow(ctx, `
      SELECT id, code, name, account_type, is_active, created_at
      FROM gl_accounts
      WHERE tenant_id = $1 AND is_active = true AND code = ANY($2)
      ORDER BY array_position($2, code)
      LIMIT 1
    `, tenantID, fallbackCodes[mappingType]).Scan(&account.ID, &account.Code,
			&account.Name, &account.AccountType, &account.IsActive, &account.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		resolved[mappingType] = account
	}
	return resolved, nil
}

// InsertPosting writes the transaction set, journal entry and lines inside
// the caller's transaction and returns the new entry's ID.
func (s *Store) InsertPosting(ctx context.Context, tx pgx.Tx, tenantID string, entry JournalEntry) (string, error) {
	var setID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO transaction_sets (tenant_id, description, source_type, source_id)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, tenantID, entry.Description, entry.SourceType, entry.SourceID).Scan(&setID); err != nil {
		return "", err
	}

	var entryID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO journal_entries (tenant_id, transaction_set_id, entry_date, description, source_type, source_id)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id
  `, tenantID, setID, entry.EntryDate, entry.Description, entry.SourceType, entry.SourceID).Scan(&entryID); err != nil {
		return "", err
	}

	for _, line := range entry.Lines {
		if _, err := tx.Exec(ctx, `
      INSERT INTO journal_lines (tenant_id, journal_entry_id, account_id, debit, credit, memo)
      VALUES ($1, $2, $3, $4, $5, $6)
    `, tenantID, entryID, line.AccountID, line.Debit, line.Credit, line.Memo); err != nil {
			return "", err
		}
	}
	return entryID, nil
}

// GetEntry loads a journal entry with its lines and account details.
func (s *Store) GetEntry(ctx context.Context, tenantID, entryID string) (JournalEntry, error) {
	var entry JournalEntry
	var entryDate time.Time
	err := s.DB.QueryRow(ctx, `
    SELECT id, transaction_set_id, entry_date, description, source_type, source_id, created_at
    FROM journal_entries
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, entryID).Scan(&entry.ID, &entry.TransactionSetID, &entryDate,
		&entry.Description, &entry.SourceType, &entry.SourceID, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return JournalEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return JournalEntry{}, err
	}
	entry.EntryDate = entryDate

	rows, err := s.DB.Query(ctx, `
    SELECT l.id::text, l.account_id, a.code, a.name, l.debit, l.credit, COALESCE(l.memo, '')
    FROM journal_lines l
    JOIN gl_accounts a ON a.id = l.account_id
    WHERE l.tenant_id = $1 AND l.journal_entry_id = $2
    ORDER BY l.debit DESC, a.code
  `, tenantID, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.AccountID, &line.AccountCode,
			&line.AccountName, &line.Debit, &line.Credit, &line.Memo); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

// FindEntryForRun returns the journal entry already posted for a run, for
// idempotent re-posts.
func (s *Store) FindEntryForRun(ctx context.Context, tenantID, runID string) (JournalEntry, error) {
	var entryID string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM journal_entries
    WHERE tenant_id = $1 AND source_type = $2 AND source_id = $3
    ORDER BY created_at DESC
    LIMIT 1
  `, tenantID, SourcePayrollRun, runID).Scan(&entryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return JournalEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return JournalEntry{}, err
	}
	return s.GetEntry(ctx, tenantID, entryID)
}
