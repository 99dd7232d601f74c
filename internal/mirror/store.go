// Package mirror persists off-chain copies of on-chain writes so list
// queries never round-trip to the chain. The ledger stays authoritative;
// the mirror is a write-through convenience view.
package mirror

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pharmatrace/gateway/internal/models"
)

type Store interface {
	SaveWorker(ctx context.Context, in WorkerDocInput) (models.WorkerDoc, error)
	ListWorkers(ctx context.Context) ([]models.WorkerDoc, error)
	SaveProduct(ctx context.Context, in ProductDocInput) (models.ProductDoc, error)
	ListProducts(ctx context.Context) ([]models.ProductDoc, error)
	SaveStatus(ctx context.Context, in StatusDocInput) (models.StatusDoc, error)
	StatusByProduct(ctx context.Context, productID int) ([]models.StatusDoc, error)
	Ping(ctx context.Context) error
}

type WorkerDocInput struct {
	ID            uuid.UUID
	WorkerID      int
	Name          string
	Role          models.Role
	WalletAddress string
	TxHash        string
}

type ProductDocInput struct {
	ID          uuid.UUID
	ProductID   int
	Name        string
	Description string
	MinTemp     float64
	MaxTemp     float64
	MinHumidity float64
	MaxHumidity float64
	Quantity    int
	MfgDate     string
	TxHash      string
}

type StatusDocInput struct {
	ID          uuid.UUID
	ProductID   int
	Location    string
	Temperature float64
	Humidity    float64
	HeatIndex   float64
	WorkerID    int
	Quantity    int
	TxHash      string
}

type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the mirror tables if missing. Safe to run on every
// startup.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS worker_docs (
  id uuid PRIMARY KEY,
  worker_id integer NOT NULL,
  name text NOT NULL,
  role integer NOT NULL,
  wallet_address text NOT NULL,
  tx_hash text NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS product_docs (
  id uuid PRIMARY KEY,
  product_id integer NOT NULL,
  name text NOT NULL,
  description text NOT NULL DEFAULT '',
  min_temp double precision NOT NULL,
  max_temp double precision NOT NULL,
  min_humidity double precision NOT NULL,
  max_humidity double precision NOT NULL,
  quantity integer NOT NULL,
  mfg_date text NOT NULL DEFAULT '',
  tx_hash text NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS status_docs (
  id uuid PRIMARY KEY,
  product_id integer NOT NULL,
  location text NOT NULL,
  temperature double precision NOT NULL,
  humidity double precision NOT NULL,
  heat_index double precision NOT NULL,
  worker_id integer NOT NULL,
  quantity integer NOT NULL,
  tx_hash text NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_status_docs_product ON status_docs (product_id, created_at);
`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure mirror schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkerDoc(row rowScanner) (models.WorkerDoc, error) {
	var doc models.WorkerDoc
	var role int
	if err := row.Scan(&doc.ID, &doc.WorkerID, &doc.Name, &role, &doc.WalletAddress, &doc.TxHash, &doc.CreatedAt); err != nil {
		return models.WorkerDoc{}, err
	}
	doc.Role = models.Role(role)
	return doc, nil
}

func scanProductDoc(row rowScanner) (models.ProductDoc, error) {
	var doc models.ProductDoc
	if err := row.Scan(
		&doc.ID,
		&doc.ProductID,
		&doc.Name,
		&doc.Description,
		&doc.MinTemp,
		&doc.MaxTemp,
		&doc.MinHumidity,
		&doc.MaxHumidity,
		&doc.Quantity,
		&doc.MfgDate,
		&doc.TxHash,
		&doc.CreatedAt,
	); err != nil {
		return models.ProductDoc{}, err
	}
	return doc, nil
}

func scanStatusDoc(row rowScanner) (models.StatusDoc, error) {
	var doc models.StatusDoc
	if err := row.Scan(
		&doc.ID,
		&doc.ProductID,
		&doc.Location,
		&doc.Temperature,
		&doc.Humidity,
		&doc.HeatIndex,
		&doc.WorkerID,
		&doc.Quantity,
		&doc.TxHash,
		&doc.CreatedAt,
	); err != nil {
		return models.StatusDoc{}, err
	}
	return doc, nil
}

func (s *PGStore) SaveWorker(ctx context.Context, in WorkerDocInput) (models.WorkerDoc, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	const query = `
		INSERT INTO worker_docs (id, worker_id, name, role, wallet_address, tx_hash)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, worker_id, name, role, wallet_address, tx_hash, created_at
	`
	row := s.db.QueryRowContext(ctx, query, in.ID, in.WorkerID, in.Name, int(in.Role), in.WalletAddress, in.TxHash)
	doc, err := scanWorkerDoc(row)
	if err != nil {
		return models.WorkerDoc{}, fmt.Errorf("insert worker doc: %w", err)
	}
	return doc, nil
}

func (s *PGStore) ListWorkers(ctx context.Context) ([]models.WorkerDoc, error) {
	const query = `
		SELECT id, worker_id, name, role, wallet_address, tx_hash, created_at
		FROM worker_docs
		ORDER BY worker_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list worker docs: %w", err)
	}
	defer rows.Close()

	var docs []models.WorkerDoc
	for rows.Next() {
		doc, err := scanWorkerDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worker doc: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate worker docs: %w", err)
	}
	return docs, nil
}

func (s *PGStore) SaveProduct(ctx context.Context, in ProductDocInput) (models.ProductDoc, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	const query = `
		INSERT INTO product_docs (id, product_id, name, description, min_temp, max_temp, min_humidity, max_humidity, quantity, mfg_date, tx_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, product_id, name, description, min_temp, max_temp, min_humidity, max_humidity, quantity, mfg_date, tx_hash, created_at
	`
	row := s.db.QueryRowContext(ctx, query,
		in.ID, in.ProductID, in.Name, in.Description,
		in.MinTemp, in.MaxTemp, in.MinHumidity, in.MaxHumidity,
		in.Quantity, in.MfgDate, in.TxHash)
	doc, err := scanProductDoc(row)
	if err != nil {
		return models.ProductDoc{}, fmt.Errorf("insert product doc: %w", err)
	}
	return doc, nil
}

func (s *PGStore) ListProducts(ctx context.Context) ([]models.ProductDoc, error) {
	const query = `
		SELECT id, product_id, name, description, min_temp, max_temp, min_humidity, max_humidity, quantity, mfg_date, tx_hash, created_at
		FROM product_docs
		ORDER BY product_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list product docs: %w", err)
	}
	defer rows.Close()

	var docs []models.ProductDoc
	for rows.Next() {
		doc, err := scanProductDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product doc: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product docs: %w", err)
	}
	return docs, nil
}

func (s *PGStore) SaveStatus(ctx context.Context, in StatusDocInput) (models.StatusDoc, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	const query = `
		INSERT INTO status_docs (id, product_id, location, temperature, humidity, heat_index, worker_id, quantity, tx_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, product_id, location, temperature, humidity, heat_index, worker_id, quantity, tx_hash, created_at
	`
	row := s.db.QueryRowContext(ctx, query,
		in.ID, in.ProductID, in.Location, in.Temperature, in.Humidity,
		in.HeatIndex, in.WorkerID, in.Quantity, in.TxHash)
	doc, err := scanStatusDoc(row)
	if err != nil {
		return models.StatusDoc{}, fmt.Errorf("insert status doc: %w", err)
	}
	return doc, nil
}

func (s *PGStore) StatusByProduct(ctx context.Context, productID int) ([]models.StatusDoc, error) {
	const query = `
		SELECT id, product_id, location, temperature, humidity, heat_index, worker_id, quantity, tx_hash, created_at
		FROM status_docs
		WHERE product_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list status docs: %w", err)
	}
	defer rows.Close()

	var docs []models.StatusDoc
	for rows.Next() {
		doc, err := scanStatusDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status doc: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status docs: %w", err)
	}
	return docs, nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}
