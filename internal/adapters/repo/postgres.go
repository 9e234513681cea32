package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-miner-bot/internal/domain"
	"tg-miner-bot/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.UserRepo     = (*Postgres)(nil)
	_ domain.SettingsRepo = (*Postgres)(nil)
	_ domain.ActionLog    = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

const userColumns = `id, platform, platform_id, chat_id, wallet, signer_handle, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Platform, &u.PlatformID, &u.ChatID, &u.Wallet, &u.SignerHandle, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ListEnrolled возвращает всех подключённых к автоматизации пользователей.
func (p *Postgres) ListEnrolled(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+userColumns+`
FROM users
WHERE enrolled
ORDER BY id
`)
	metrics.ObserveNetworkRequest("postgres", "users_list_enrolled", "users", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка пользователей: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("скан пользователя: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByPlatformID возвращает пользователя по платформенному идентификатору.
func (p *Postgres) GetByPlatformID(ctx context.Context, platform domain.Platform, platformID int64) (domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE platform = $1 AND platform_id = $2
`, platform, platformID)
	u, err := scanUser(row)
	metrics.ObserveNetworkRequest("postgres", "users_get", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

const settingsColumns = `platform, platform_id,
claim_sol_threshold, claim_orb_threshold, claim_stake_threshold,
swap_enabled, swap_threshold, min_swap_amount, min_orb_to_keep, min_orb_price_usd, slippage_bps,
stake_enabled, stake_threshold,
transfer_enabled, transfer_threshold, transfer_recipient,
updated_at`

func scanSettings(row pgx.Row) (domain.UserSettings, error) {
	var s domain.UserSettings
	err := row.Scan(
		&s.Platform, &s.PlatformID,
		&s.ClaimSolThreshold, &s.ClaimOrbThreshold, &s.ClaimStakeThreshold,
		&s.SwapEnabled, &s.SwapThreshold, &s.MinSwapAmount, &s.MinOrbToKeep, &s.MinOrbPriceUSD, &s.SlippageBps,
		&s.StakeEnabled, &s.StakeThreshold,
		&s.TransferEnabled, &s.TransferThreshold, &s.TransferRecipient,
		&s.UpdatedAt,
	)
	return s, err
}

// Get возвращает настройки пользователя, создавая запись с настройками
// по умолчанию при первом обращении.
func (p *Postgres) Get(ctx context.Context, platform domain.Platform, platformID int64) (domain.UserSettings, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO user_settings (platform, platform_id)
VALUES ($1, $2)
ON CONFLICT (platform, platform_id) DO UPDATE SET platform = EXCLUDED.platform
RETURNING `+settingsColumns+`
`, platform, platformID)
	s, err := scanSettings(row)
	metrics.ObserveNetworkRequest("postgres", "settings_get", "user_settings", start, err)
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("получение настроек: %w", err)
	}
	return s, nil
}

// Update перезаписывает настройки пользователя целиком.
func (p *Postgres) Update(ctx context.Context, s domain.UserSettings) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE user_settings SET
claim_sol_threshold = $3, claim_orb_threshold = $4, claim_stake_threshold = $5,
swap_enabled = $6, swap_threshold = $7, min_swap_amount = $8, min_orb_to_keep = $9,
min_orb_price_usd = $10, slippage_bps = $11,
stake_enabled = $12, stake_threshold = $13,
transfer_enabled = $14, transfer_threshold = $15, transfer_recipient = $16,
updated_at = now()
WHERE platform = $1 AND platform_id = $2
`, s.Platform, s.PlatformID,
		s.ClaimSolThreshold, s.ClaimOrbThreshold, s.ClaimStakeThreshold,
		s.SwapEnabled, s.SwapThreshold, s.MinSwapAmount, s.MinOrbToKeep,
		s.MinOrbPriceUSD, s.SlippageBps,
		s.StakeEnabled, s.StakeThreshold,
		s.TransferEnabled, s.TransferThreshold, s.TransferRecipient)
	metrics.ObserveNetworkRequest("postgres", "settings_update", "user_settings", start, err)
	if err != nil {
		return fmt.Errorf("обновление настроек: %w", err)
	}
	return nil
}

// Reset удаляет запись настроек и создаёт новую с настройками по умолчанию.
func (p *Postgres) Reset(ctx context.Context, platform domain.Platform, platformID int64) (domain.UserSettings, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
DELETE FROM user_settings WHERE platform = $1 AND platform_id = $2
`, platform, platformID)
	metrics.ObserveNetworkRequest("postgres", "settings_reset", "user_settings", start, err)
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("сброс настроек: %w", err)
	}
	return p.Get(ctx, platform, platformID)
}

// Append записывает результат действия в журнал. Записи не изменяются.
func (p *Postgres) Append(ctx context.Context, r domain.ActionResult) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO action_log (id, platform, platform_id, kind, amount, success, signature, error, executed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, r.ID, r.Platform, r.PlatformID, r.Kind, r.Amount, r.Success, r.Signature, r.Error, r.ExecutedAt)
	metrics.ObserveNetworkRequest("postgres", "action_log_append", "action_log", start, err)
	if err != nil {
		return fmt.Errorf("запись в журнал действий: %w", err)
	}
	return nil
}

// ListRecent возвращает последние записи журнала пользователя.
func (p *Postgres) ListRecent(ctx context.Context, platform domain.Platform, platformID int64, limit int) ([]domain.ActionResult, error) {
	if limit <= 0 {
		limit = 20
	}
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, platform, platform_id, kind, amount, success, signature, error, executed_at
FROM action_log
WHERE platform = $1 AND platform_id = $2
ORDER BY executed_at DESC
LIMIT $3
`, platform, platformID, limit)
	metrics.ObserveNetworkRequest("postgres", "action_log_list", "action_log", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка журнала действий: %w", err)
	}
	defer rows.Close()

	var results []domain.ActionResult
	for rows.Next() {
		var r domain.ActionResult
		if err := rows.Scan(&r.ID, &r.Platform, &r.PlatformID, &r.Kind, &r.Amount, &r.Success, &r.Signature, &r.Error, &r.ExecutedAt); err != nil {
			return nil, fmt.Errorf("скан записи журнала: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
