// Package postgres implements the importer ports and the job repository on
// PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grachmannico95/oms-bulk-import/internal/domain"
)

const uniqueViolation = "23505"

type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens and pings a pool.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("error parsing database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		config.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	return pool, nil
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS skus (
	id            TEXT PRIMARY KEY,
	code          TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	sub_category  TEXT NOT NULL DEFAULT '',
	brand         TEXT NOT NULL DEFAULT '',
	hsn           TEXT NOT NULL DEFAULT '',
	weight        NUMERIC(12,3),
	length        NUMERIC(12,2),
	width         NUMERIC(12,2),
	height        NUMERIC(12,2),
	mrp           NUMERIC(12,2),
	cost_price    NUMERIC(12,2),
	selling_price NUMERIC(12,2),
	tax_rate      NUMERIC(5,2),
	barcode       TEXT NOT NULL DEFAULT '',
	reorder_level INTEGER,
	reorder_qty   INTEGER,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS orders (
	id                TEXT PRIMARY KEY,
	order_no          TEXT NOT NULL UNIQUE,
	external_order_no TEXT NOT NULL DEFAULT '',
	order_date        DATE NOT NULL,
	channel           TEXT NOT NULL,
	payment_mode      TEXT NOT NULL,
	customer_name     TEXT NOT NULL,
	customer_phone    TEXT NOT NULL,
	customer_email    TEXT NOT NULL DEFAULT '',
	shipping_line1    TEXT NOT NULL,
	shipping_line2    TEXT NOT NULL DEFAULT '',
	shipping_city     TEXT NOT NULL,
	shipping_state    TEXT NOT NULL,
	shipping_pincode  TEXT NOT NULL,
	subtotal          NUMERIC(14,2) NOT NULL,
	tax_amount        NUMERIC(14,2) NOT NULL,
	discount          NUMERIC(14,2) NOT NULL,
	shipping_charges  NUMERIC(14,2) NOT NULL,
	cod_charges       NUMERIC(14,2) NOT NULL,
	total_amount      NUMERIC(14,2) NOT NULL,
	priority          INTEGER NOT NULL DEFAULT 0,
	remarks           TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS order_items (
	id         TEXT PRIMARY KEY,
	order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	line_no    INTEGER NOT NULL,
	sku_code   TEXT NOT NULL,
	sku_id     TEXT REFERENCES skus(id),
	quantity   INTEGER NOT NULL,
	unit_price NUMERIC(12,2) NOT NULL,
	tax_amount NUMERIC(12,2) NOT NULL,
	discount   NUMERIC(12,2) NOT NULL,
	total      NUMERIC(14,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS import_jobs (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	status         TEXT NOT NULL,
	processed_rows INTEGER NOT NULL DEFAULT 0,
	total_rows     INTEGER NOT NULL DEFAULT 0,
	result         JSONB,
	error          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS processed_events (
	event_id     TEXT PRIMARY KEY,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *Store) ExistingOrderNumbers(ctx context.Context, orderNos []string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT order_no FROM orders WHERE order_no = ANY($1)`, orderNos)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	found := make(map[string]struct{})
	for rows.Next() {
		var orderNo string
		if err := rows.Scan(&orderNo); err != nil {
			return nil, err
		}
		found[orderNo] = struct{}{}
	}

	return found, rows.Err()
}

func (s *Store) lookupSKUs(ctx context.Context, codes []string) (map[string]domain.SKURef, error) {
	rows, err := s.pool.Query(ctx, `SELECT code, id, name FROM skus WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to query skus: %w", err)
	}
	defer rows.Close()

	found := make(map[string]domain.SKURef)
	for rows.Next() {
		var code string
		var ref domain.SKURef
		if err := rows.Scan(&code, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		found[code] = ref
	}

	return found, rows.Err()
}

func (s *Store) ValidateSKUs(ctx context.Context, codes []string) (domain.SKUValidation, error) {
	found, err := s.lookupSKUs(ctx, codes)
	if err != nil {
		return domain.SKUValidation{}, err
	}

	res := domain.SKUValidation{SKUMap: found, InvalidSKUs: []string{}}
	for _, code := range codes {
		if _, ok := found[code]; !ok {
			res.InvalidSKUs = append(res.InvalidSKUs, code)
		}
	}
	return res, nil
}

func (s *Store) ExistingSKUs(ctx context.Context, codes []string) (domain.SKUExistence, error) {
	found, err := s.lookupSKUs(ctx, codes)
	if err != nil {
		return domain.SKUExistence{}, err
	}
	return domain.SKUExistence{Exists: len(found) > 0, SKUMap: found}, nil
}

// CreateOrder writes the order and its items in one transaction.
func (s *Store) CreateOrder(ctx context.Context, order domain.OrderCreateData) (domain.CreateResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.CreateResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderID := uuid.New().String()
	addr := order.ShippingAddress

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, order_no, external_order_no, order_date, channel, payment_mode,
			customer_name, customer_phone, customer_email,
			shipping_line1, shipping_line2, shipping_city, shipping_state, shipping_pincode,
			subtotal, tax_amount, discount, shipping_charges, cod_charges, total_amount,
			priority, remarks
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22
		)
	`, orderID, order.OrderNo, order.ExternalOrderNo, order.OrderDate, order.Channel, string(order.PaymentMode),
		order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		addr.Line1, addr.Line2, addr.City, addr.State, addr.Pincode,
		order.Subtotal, order.TaxAmount, order.Discount, order.ShippingCharges, order.CODCharges, order.TotalAmount,
		order.Priority, order.Remarks)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.CreateResult{Success: false, Error: fmt.Sprintf("order %s already exists", order.OrderNo)}, nil
		}
		return domain.CreateResult{}, fmt.Errorf("failed to insert order: %w", err)
	}

	for n, item := range order.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, line_no, sku_code, sku_id, quantity, unit_price, tax_amount, discount, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, uuid.New().String(), orderID, n+1, item.SKUCode, nullIfEmpty(item.SKUID),
			item.Quantity, item.UnitPrice, item.TaxAmount, item.Discount, item.Total)
		if err != nil {
			return domain.CreateResult{}, fmt.Errorf("failed to insert order item %d: %w", n+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.CreateResult{}, fmt.Errorf("failed to commit order: %w", err)
	}

	return domain.CreateResult{Success: true, ID: orderID}, nil
}

func (s *Store) CreateSKU(ctx context.Context, sku domain.SKUCreateData) (domain.CreateResult, error) {
	id := uuid.New().String()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO skus (
			id, code, name, description, category, sub_category, brand, hsn,
			weight, length, width, height, mrp, cost_price, selling_price, tax_rate,
			barcode, reorder_level, reorder_qty
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
	`, id, sku.Code, sku.Name, sku.Description, sku.Category, sku.SubCategory, sku.Brand, sku.HSN,
		sku.Weight, sku.Length, sku.Width, sku.Height, sku.MRP, sku.CostPrice, sku.SellingPrice, sku.TaxRate,
		sku.Barcode, sku.ReorderLevel, sku.ReorderQty)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.CreateResult{Success: false, Error: fmt.Sprintf("SKU %s already exists", sku.Code)}, nil
		}
		return domain.CreateResult{}, fmt.Errorf("failed to insert sku: %w", err)
	}

	return domain.CreateResult{Success: true, ID: id}, nil
}

// UpdateSKU overwrites only the columns present in data.
func (s *Store) UpdateSKU(ctx context.Context, code string, data domain.SKUUpdateData) (domain.UpdateResult, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE skus SET
			name          = COALESCE(NULLIF($2, ''), name),
			description   = COALESCE(NULLIF($3, ''), description),
			category      = COALESCE(NULLIF($4, ''), category),
			sub_category  = COALESCE(NULLIF($5, ''), sub_category),
			brand         = COALESCE(NULLIF($6, ''), brand),
			hsn           = COALESCE(NULLIF($7, ''), hsn),
			weight        = COALESCE($8, weight),
			length        = COALESCE($9, length),
			width         = COALESCE($10, width),
			height        = COALESCE($11, height),
			mrp           = COALESCE($12, mrp),
			cost_price    = COALESCE($13, cost_price),
			selling_price = COALESCE($14, selling_price),
			tax_rate      = COALESCE($15, tax_rate),
			barcode       = COALESCE(NULLIF($16, ''), barcode),
			reorder_level = COALESCE($17, reorder_level),
			reorder_qty   = COALESCE($18, reorder_qty),
			updated_at    = NOW()
		WHERE code = $1
	`, code, data.Name, data.Description, data.Category, data.SubCategory, data.Brand, data.HSN,
		data.Weight, data.Length, data.Width, data.Height, data.MRP, data.CostPrice, data.SellingPrice, data.TaxRate,
		data.Barcode, data.ReorderLevel, data.ReorderQty)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("failed to update sku: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.UpdateResult{Success: false, Error: fmt.Sprintf("SKU %s not found", code)}, nil
	}

	return domain.UpdateResult{Success: true}, nil
}

func (s *Store) CreateJob(ctx context.Context, jobID string, kind domain.ImportKind) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_jobs (id, kind, status) VALUES ($1, $2, $3)
	`, jobID, string(kind), string(domain.JobStatusProcessing))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEntityAlreadyExist
		}
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var (
		job    domain.Job
		kind   string
		status string
		result []byte
	)

	err := s.pool.QueryRow(ctx, `
		SELECT id, kind, status, processed_rows, total_rows, result, error, created_at, completed_at
		FROM import_jobs WHERE id = $1
	`, jobID).Scan(&job.ID, &kind, &status, &job.ProcessedRows, &job.TotalRows, &result, &job.Error, &job.CreatedAt, &job.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.Kind = domain.ImportKind(kind)
	job.Status = domain.JobStatus(status)
	if len(result) > 0 {
		job.Result = json.RawMessage(result)
	}

	return &job, nil
}

func (s *Store) UpdateJobProgress(ctx context.Context, jobID string, processed, total int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE import_jobs
		SET processed_rows = GREATEST(processed_rows, $2), total_rows = GREATEST(total_rows, $3)
		WHERE id = $1 AND status = $4
	`, jobID, processed, total, string(domain.JobStatusProcessing))
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// finished jobs drop late events; only a missing job is an error
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM import_jobs WHERE id = $1)`, jobID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check job: %w", err)
	}
	if !exists {
		return domain.ErrJobNotFound
	}
	return nil
}

func (s *Store) CompleteJob(ctx context.Context, jobID string, status domain.JobStatus, result interface{}, errMsg string) error {
	if status != domain.JobStatusCompleted && status != domain.JobStatusFailed {
		return fmt.Errorf("%w: %s", domain.ErrInvalidJobStatus, status)
	}

	var payload []byte
	if result != nil {
		var err error
		payload, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode job result: %w", err)
		}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE import_jobs
		SET status = $2, result = $3, error = $4, completed_at = NOW()
		WHERE id = $1
	`, jobID, string(status), payload, errMsg)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)
	`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return exists, nil
}

func (s *Store) MarkEventProcessed(ctx context.Context, eventID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processed_events (event_id) VALUES ($1) ON CONFLICT (event_id) DO NOTHING
	`, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark event: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
