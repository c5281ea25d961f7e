// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Cache     CacheConfig
	Fit       FitConfig
	Storage   StorageConfig
	Drive     DriveConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port           string
	SyncPort       string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	DataDir     string
	ExportDir   string
	FiscalStart int // calendar month (1-12) the fiscal year opens on
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
	OverviewTTLSeconds int
}

type FitConfig struct {
	Workers          int
	MinHistoryMonths int
	NudgeDecay       float64
	SimTrials        int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsJSON string
	SalesFolderID   string
	BudgetFolderID  string
	DownloadDir     string
}

type SchedulerConfig struct {
	Enabled     bool
	RefitSpec   string
	RefitOnBoot bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SYNC_PORT", "8081")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "storesight")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("APP_DATA_DIR", "./data")
		viper.SetDefault("APP_EXPORT_DIR", "./data/exports")
		viper.SetDefault("APP_FISCAL_START_MONTH", 1)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)
		viper.SetDefault("CACHE_OVERVIEW_TTL_SECONDS", 60)
		viper.SetDefault("FIT_WORKERS", 0) // 0 = NumCPU, resolved by the pipeline
		viper.SetDefault("FIT_MIN_HISTORY_MONTHS", 6)
		viper.SetDefault("FIT_NUDGE_DECAY", 0.7)
		viper.SetDefault("FIT_SIM_TRIALS", 2000)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_BUCKET", "storesight-exports")
		viper.SetDefault("STORAGE_REGION", "")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("DRIVE_DOWNLOAD_DIR", "./data/drive")
		viper.SetDefault("SCHEDULER_ENABLED", false)
		viper.SetDefault("SCHEDULER_REFIT_SPEC", "0 30 2 * * *")
		viper.SetDefault("SCHEDULER_REFIT_ON_BOOT", false)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure working directories exist
		ensureDir(viper.GetString("APP_DATA_DIR"))
		ensureDir(viper.GetString("APP_EXPORT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				SyncPort:       viper.GetString("SYNC_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				DataDir:     viper.GetString("APP_DATA_DIR"),
				ExportDir:   viper.GetString("APP_EXPORT_DIR"),
				FiscalStart: viper.GetInt("APP_FISCAL_START_MONTH"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
				OverviewTTLSeconds: viper.GetInt("CACHE_OVERVIEW_TTL_SECONDS"),
			},
			Fit: FitConfig{
				Workers:          viper.GetInt("FIT_WORKERS"),
				MinHistoryMonths: viper.GetInt("FIT_MIN_HISTORY_MONTHS"),
				NudgeDecay:       viper.GetFloat64("FIT_NUDGE_DECAY"),
				SimTrials:        viper.GetInt("FIT_SIM_TRIALS"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsJSON: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
				SalesFolderID:   viper.GetString("DRIVE_SALES_FOLDER_ID"),
				BudgetFolderID:  viper.GetString("DRIVE_BUDGET_FOLDER_ID"),
				DownloadDir:     viper.GetString("DRIVE_DOWNLOAD_DIR"),
			},
			Scheduler: SchedulerConfig{
				Enabled:     viper.GetBool("SCHEDULER_ENABLED"),
				RefitSpec:   viper.GetString("SCHEDULER_REFIT_SPEC"),
				RefitOnBoot: viper.GetBool("SCHEDULER_REFIT_ON_BOOT"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
