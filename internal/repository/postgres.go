// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/ebuy-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrEmailExists возвращается при попытке зарегистрировать уже занятый email.
var (
	ErrEmailExists = errors.New("email already registered")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrPaymentMethodNotFound возвращается, если способ оплаты не существует
	// или принадлежит другому пользователю. Эти случаи неразличимы.
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	// ErrNoDefaultPaymentMethod возвращается, если у пользователя нет способа оплаты по умолчанию.
	ErrNoDefaultPaymentMethod = errors.New("no default payment method")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, first_name, last_name, password_hash, address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Address,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrEmailExists, u.Email)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по адресу электронной почты.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, first_name, last_name, password_hash, address, created_at
		 FROM users
		 WHERE email = $1`,
		email,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Address, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// CreateOrder сохраняет заказ и все его позиции в одной транзакции.
// Частичная запись невозможна: либо фиксируется заказ целиком, либо ничего.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, session_key, user_id, total, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		order.ID, order.OwnerSessionKey, order.OwnerUserID, order.TotalCents, string(order.Status), order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price, line_total)
			 VALUES ($1, $2, $3, $4, $5)`,
			order.ID, item.ProductID, item.Quantity, item.UnitPriceCents, item.LineTotalCents,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetOrdersByUser возвращает заказы пользователя с позициями, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_key, user_id, total, status, created_at, paid_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var (
			o      model.Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.OwnerSessionKey, &o.OwnerUserID, &o.TotalCents, &status, &o.CreatedAt, &o.PaidAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = model.OrderStatus(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range orders {
		items, err := r.getOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *PostgresRepository) getOrderItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, quantity, unit_price, line_total
		 FROM order_items
		 WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPriceCents, &it.LineTotalCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// UpdateOrderStatus обновляет статус заказа. Время оплаты записывается
// только при непустом paidAt, иначе прежнее значение сохраняется.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus, paidAt *time.Time) error {
	if paidAt == nil {
		_, err := r.pool.Exec(ctx,
			`UPDATE orders SET status = $2 WHERE id = $1`,
			orderID, string(status),
		)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, paid_at = $3 WHERE id = $1`,
		orderID, string(status), *paidAt,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	return nil
}

// CreatePaymentMethod сохраняет новый способ оплаты и возвращает его идентификатор.
func (r *PostgresRepository) CreatePaymentMethod(ctx context.Context, pm *model.PaymentMethod) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payment_methods
		   (user_id, card_type, cardholder_name, card_number, last_four_digits,
		    expiry_date, cvv, billing_zip, is_default)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		pm.OwnerUserID, pm.CardType, pm.CardholderName, pm.CardNumberEncrypted, pm.LastFourDigits,
		pm.ExpiryDate, pm.CVVEncrypted, pm.BillingZip, pm.IsDefault,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create payment method: %w", err)
	}
	return id, nil
}

// GetPaymentMethod возвращает способ оплаты по идентификатору в пределах
// владельца. Чужой идентификатор неотличим от несуществующего.
func (r *PostgresRepository) GetPaymentMethod(ctx context.Context, id, userID int64) (*model.PaymentMethod, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, card_type, cardholder_name, card_number, last_four_digits,
		        expiry_date, cvv, billing_zip, is_default, created_at
		 FROM payment_methods
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	var pm model.PaymentMethod
	err := row.Scan(&pm.ID, &pm.OwnerUserID, &pm.CardType, &pm.CardholderName, &pm.CardNumberEncrypted,
		&pm.LastFourDigits, &pm.ExpiryDate, &pm.CVVEncrypted, &pm.BillingZip, &pm.IsDefault, &pm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("get payment method: %w", err)
	}

	return &pm, nil
}

// ListPaymentMethods возвращает способы оплаты пользователя без номеров карт
// и CVV: сначала способ по умолчанию, затем новые первыми.
func (r *PostgresRepository) ListPaymentMethods(ctx context.Context, userID int64) ([]model.PaymentMethod, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, card_type, cardholder_name, last_four_digits,
		        expiry_date, billing_zip, is_default, created_at
		 FROM payment_methods
		 WHERE user_id = $1
		 ORDER BY is_default DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select payment methods: %w", err)
	}
	defer rows.Close()

	var res []model.PaymentMethod
	for rows.Next() {
		var pm model.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.OwnerUserID, &pm.CardType, &pm.CardholderName,
			&pm.LastFourDigits, &pm.ExpiryDate, &pm.BillingZip, &pm.IsDefault, &pm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		res = append(res, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdatePaymentMethod применяет частичное обновление способа оплаты в
// пределах владельца.
func (r *PostgresRepository) UpdatePaymentMethod(ctx context.Context, id, userID int64, upd model.PaymentMethodUpdate) error {
	set := make([]string, 0, 8)
	args := make([]interface{}, 0, 10)

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.CardType != nil {
		add("card_type", *upd.CardType)
	}
	if upd.CardholderName != nil {
		add("cardholder_name", *upd.CardholderName)
	}
	if upd.CardNumberEncrypted != nil {
		add("card_number", *upd.CardNumberEncrypted)
		add("last_four_digits", *upd.LastFourDigits)
	}
	if upd.ExpiryDate != nil {
		add("expiry_date", *upd.ExpiryDate)
	}
	if upd.CVVEncrypted != nil {
		add("cvv", *upd.CVVEncrypted)
	}
	if upd.BillingZip != nil {
		add("billing_zip", *upd.BillingZip)
	}
	if upd.IsDefault != nil {
		add("is_default", *upd.IsDefault)
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, id, userID)
	query := fmt.Sprintf(
		`UPDATE payment_methods SET %s WHERE id = $%d AND user_id = $%d`,
		strings.Join(set, ", "), len(args)-1, len(args),
	)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentMethodNotFound
	}

	return nil
}

// DeletePaymentMethod удаляет способ оплаты в пределах владельца.
func (r *PostgresRepository) DeletePaymentMethod(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM payment_methods WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentMethodNotFound
	}
	return nil
}

// GetDefaultPaymentMethod возвращает способ оплаты пользователя с флагом
// is_default. При нескольких таких строках возвращается одна из них;
// эксклюзивность флага хранилищем не гарантируется.
func (r *PostgresRepository) GetDefaultPaymentMethod(ctx context.Context, userID int64) (*model.PaymentMethod, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, card_type, cardholder_name, last_four_digits, expiry_date,
		        billing_zip, is_default, created_at
		 FROM payment_methods
		 WHERE user_id = $1 AND is_default
		 ORDER BY id
		 LIMIT 1`,
		userID,
	)

	var pm model.PaymentMethod
	err := row.Scan(&pm.ID, &pm.OwnerUserID, &pm.CardType, &pm.CardholderName,
		&pm.LastFourDigits, &pm.ExpiryDate, &pm.BillingZip, &pm.IsDefault, &pm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoDefaultPaymentMethod
		}
		return nil, fmt.Errorf("get default payment method: %w", err)
	}

	return &pm, nil
}
