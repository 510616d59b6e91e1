package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/al0dan/absher/config"
	"github.com/al0dan/absher/model"
)

// Store is the SQLite-backed persistence layer for users and contracts.
type Store struct {
	db *sql.DB
}

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	company_name TEXT NOT NULL,
	company_name_en TEXT,
	cr_number TEXT,
	vat_number TEXT,
	unified_number TEXT,
	city TEXT,
	user_type TEXT NOT NULL DEFAULT 'business',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS contracts (
	id TEXT PRIMARY KEY,
	supplier TEXT NOT NULL,
	buyer TEXT NOT NULL,
	supplier_vat TEXT,
	buyer_vat TEXT,
	supplier_cr TEXT,
	buyer_cr TEXT,
	items TEXT NOT NULL,
	price REAL NOT NULL,
	contract_type TEXT NOT NULL DEFAULT 'supply',
	contract_text TEXT,
	provider TEXT,
	signed_by_supplier INTEGER NOT NULL DEFAULT 0,
	signed_by_buyer INTEGER NOT NULL DEFAULT 0,
	supplier_name TEXT,
	buyer_name TEXT,
	supplier_signature TEXT,
	buyer_signature TEXT,
	supplier_token TEXT UNIQUE,
	buyer_token TEXT UNIQUE,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contracts_supplier_cr ON contracts(supplier_cr);
CREATE INDEX IF NOT EXISTS idx_contracts_buyer_cr ON contracts(buyer_cr);
`

// NewStore opens (and if needed creates) the SQLite database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SeedUsers inserts the configured demo accounts if the users table is
// empty. Passwords are hashed with bcrypt before they touch the database.
func (s *Store) SeedUsers(users []config.SeedUser) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	slog.Info("seeding database with mock accounts", "count", len(users))

	for _, su := range users {
		u := model.User{
			Username:      su.Username,
			CompanyName:   su.CompanyName,
			CompanyNameEn: su.CompanyNameEn,
			CRNumber:      su.CRNumber,
			VATNumber:     su.VATNumber,
			UnifiedNumber: su.UnifiedNumber,
			City:          su.City,
			UserType:      "business",
		}
		if err := u.SetPassword(su.Password); err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", su.Username, err)
		}

		_, err := s.db.Exec(`
			INSERT INTO users (username, password_hash, company_name, company_name_en, cr_number, vat_number, unified_number, city, user_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.Username, u.PasswordHash, u.CompanyName, u.CompanyNameEn, u.CRNumber, u.VATNumber, u.UnifiedNumber, u.City, u.UserType, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert user %s: %w", su.Username, err)
		}
	}

	return nil
}

// GetUserByUsername returns the user with the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, company_name, company_name_en, cr_number, vat_number, unified_number, city, user_type, created_at
		FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// GetUserByCR returns the user registered under the given CR number.
func (s *Store) GetUserByCR(ctx context.Context, crNumber string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, company_name, company_name_en, cr_number, vat_number, unified_number, city, user_type, created_at
		FROM users WHERE cr_number = ?`, crNumber)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var nameEn, cr, vat, unified, city sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CompanyName, &nameEn, &cr, &vat, &unified, &city, &u.UserType, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.CompanyNameEn = nameEn.String
	u.CRNumber = cr.String
	u.VATNumber = vat.String
	u.UnifiedNumber = unified.String
	u.City = city.String
	return &u, nil
}

// CreateContract inserts a new contract record.
func (s *Store) CreateContract(ctx context.Context, c *model.Contract) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contracts (id, supplier, buyer, supplier_vat, buyer_vat, supplier_cr, buyer_cr, items, price, contract_type, contract_text, provider,
			signed_by_supplier, signed_by_buyer, supplier_name, buyer_name, supplier_signature, buyer_signature, supplier_token, buyer_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Supplier, c.Buyer, c.SupplierVAT, c.BuyerVAT, c.SupplierCR, c.BuyerCR, c.Items, c.Price, string(c.ContractType), c.ContractText, c.Provider,
		c.SignedBySupplier, c.SignedByBuyer, c.SupplierName, c.BuyerName, c.SupplierSignature, c.BuyerSignature, c.SupplierToken, c.BuyerToken, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}
	return nil
}

const contractColumns = `id, supplier, buyer, supplier_vat, buyer_vat, supplier_cr, buyer_cr, items, price, contract_type, contract_text, provider,
	signed_by_supplier, signed_by_buyer, supplier_name, buyer_name, supplier_signature, buyer_signature, supplier_token, buyer_token, created_at, updated_at`

// GetContract returns the contract with the given ID.
func (s *Store) GetContract(ctx context.Context, id string) (*model.Contract, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
	return scanContract(row)
}

// GetContractByToken returns the contract holding the given signing token,
// for either party.
func (s *Store) GetContractByToken(ctx context.Context, token string) (*model.Contract, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE supplier_token = ? OR buyer_token = ?`, token, token)
	return scanContract(row)
}

// ListContractsByCR returns every contract where the given CR number is a
// party, newest first.
func (s *Store) ListContractsByCR(ctx context.Context, crNumber string) ([]*model.Contract, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+contractColumns+` FROM contracts
		WHERE supplier_cr = ? OR buyer_cr = ?
		ORDER BY created_at DESC`, crNumber, crNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*model.Contract
	for rows.Next() {
		c, err := scanContractRows(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// SignContract records a signature for the given role.
func (s *Store) SignContract(ctx context.Context, id, role, name, signature string) error {
	var query string
	switch role {
	case model.RoleSupplier:
		query = `UPDATE contracts SET signed_by_supplier = 1, supplier_name = ?, supplier_signature = ?, updated_at = ? WHERE id = ?`
	case model.RoleBuyer:
		query = `UPDATE contracts SET signed_by_buyer = 1, buyer_name = ?, buyer_signature = ?, updated_at = ? WHERE id = ?`
	default:
		return fmt.Errorf("unknown signing role: %s", role)
	}

	res, err := s.db.ExecContext(ctx, query, name, signature, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to sign contract: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountContracts returns the total number of contracts.
func (s *Store) CountContracts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}
	return count, nil
}

func scanContract(row *sql.Row) (*model.Contract, error) {
	var c model.Contract
	var ctype string
	err := row.Scan(contractDest(&c, &ctype)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}
	c.ContractType = model.NormalizeType(ctype)
	return &c, nil
}

func scanContractRows(rows *sql.Rows) (*model.Contract, error) {
	var c model.Contract
	var ctype string
	if err := rows.Scan(contractDest(&c, &ctype)...); err != nil {
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}
	c.ContractType = model.NormalizeType(ctype)
	return &c, nil
}

func contractDest(c *model.Contract, ctype *string) []any {
	return []any{
		&c.ID, &c.Supplier, &c.Buyer, &c.SupplierVAT, &c.BuyerVAT, &c.SupplierCR, &c.BuyerCR,
		&c.Items, &c.Price, ctype, &c.ContractText, &c.Provider,
		&c.SignedBySupplier, &c.SignedByBuyer, &c.SupplierName, &c.BuyerName,
		&c.SupplierSignature, &c.BuyerSignature, &c.SupplierToken, &c.BuyerToken,
		&c.CreatedAt, &c.UpdatedAt,
	}
}
