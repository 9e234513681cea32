package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token string `envconfig:"TG_BOT_TOKEN"`
	} `envconfig:""`

	Chain struct {
		RPCURL     string `envconfig:"CHAIN_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
		ProgramID  string `envconfig:"CHAIN_PROGRAM_ID"`
		OrbMint    string `envconfig:"CHAIN_ORB_MINT"`
		Commitment string `envconfig:"CHAIN_COMMITMENT" default:"confirmed"`
	} `envconfig:""`

	Signer struct {
		BaseURL string        `envconfig:"SIGNER_BASE_URL" default:"http://localhost:9090"`
		Timeout time.Duration `envconfig:"SIGNER_TIMEOUT" default:"90s"`
	} `envconfig:""`

	Oracle struct {
		BaseURL  string        `envconfig:"ORACLE_BASE_URL"`
		CacheTTL time.Duration `envconfig:"ORACLE_CACHE_TTL" default:"30s"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Loops struct {
		ClaimInterval    time.Duration `envconfig:"CLAIM_LOOP_INTERVAL" default:"5m"`
		SwapInterval     time.Duration `envconfig:"SWAP_LOOP_INTERVAL" default:"10m"`
		StakeInterval    time.Duration `envconfig:"STAKE_LOOP_INTERVAL" default:"15m"`
		TransferInterval time.Duration `envconfig:"TRANSFER_LOOP_INTERVAL" default:"20m"`
		UserPause        time.Duration `envconfig:"LOOP_USER_PAUSE" default:"2s"`
	} `envconfig:""`

	Queues struct {
		Trigger string `envconfig:"TRIGGER_QUEUE_KEY" default:"trigger_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
