package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tg-miner-bot/internal/adapters/chain"
	"tg-miner-bot/internal/adapters/notifier"
	"tg-miner-bot/internal/adapters/oracle"
	"tg-miner-bot/internal/adapters/repo"
	"tg-miner-bot/internal/adapters/signer"
	"tg-miner-bot/internal/domain"
	"tg-miner-bot/internal/infra/cache"
	"tg-miner-bot/internal/infra/config"
	"tg-miner-bot/internal/infra/db"
	infrahttp "tg-miner-bot/internal/infra/http"
	"tg-miner-bot/internal/infra/log"
	"tg-miner-bot/internal/infra/metrics"
	"tg-miner-bot/internal/infra/queue"
	"tg-miner-bot/internal/usecase/automation"
	"tg-miner-bot/internal/usecase/claims"
	"tg-miner-bot/internal/usecase/executor"
)

// instanceLockKey защищает от второго экземпляра движка: два планировщика
// на одном множестве пользователей удвоили бы действия.
const instanceLockKey = "automation_engine_lock"

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	redisCache := cache.NewRedis(redisClient)

	acquired, err := redisCache.Lock(instanceLockKey, 5*time.Minute)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось проверить блокировку экземпляра")
	}
	if !acquired {
		logger.Fatal().Msg("движок уже запущен другим процессом")
	}

	repoAdapter := repo.NewPostgres(pool)
	chainClient := chain.NewClient(cfg.Chain.RPCURL, cfg.Chain.ProgramID, cfg.Chain.OrbMint, cfg.Chain.Commitment, 30*time.Second)
	builder := chain.NewBuilder(cfg.Chain.ProgramID)
	submitter := signer.NewClient(cfg.Signer.BaseURL, cfg.Signer.Timeout)
	priceOracle := oracle.NewClient(cfg.Oracle.BaseURL, redisCache, cfg.Oracle.CacheTTL)

	var notify domain.Notifier
	if cfg.Telegram.Token != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось создать бота")
		}
		notify = notifier.NewTelegram(botAPI)
	} else {
		logger.Warn().Msg("токен бота не задан, уведомления отключены")
	}

	exec := executor.NewService(builder, submitter, repoAdapter, logger)
	aggregator := claims.NewAggregator(notify, logger)
	engine := automation.NewEngine(
		automation.Config{
			ClaimInterval:    cfg.Loops.ClaimInterval,
			SwapInterval:     cfg.Loops.SwapInterval,
			StakeInterval:    cfg.Loops.StakeInterval,
			TransferInterval: cfg.Loops.TransferInterval,
			UserPause:        cfg.Loops.UserPause,
		},
		repoAdapter, repoAdapter, chainClient, priceOracle, exec, aggregator, notify, logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine.Start(ctx)
	logger.Info().Msg("движок автоматизации запущен")

	// Периодически продлеваем блокировку экземпляра, пока живы.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := redisCache.Set(instanceLockKey, []byte("1"), 5*time.Minute); err != nil {
					logger.Error().Err(err).Msg("не удалось продлить блокировку экземпляра")
				}
			}
		}
	}()

	triggerQueue := queue.NewRedisTriggerQueue(redisClient, cfg.Queues.Trigger)
	go engine.RunTriggerConsumer(ctx, triggerQueue)

	srv := infrahttp.NewServer(logger, engine)
	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	logger.Info().Msg("остановка движка")
	cancel()
	engine.Stop()
}
