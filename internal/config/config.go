package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env
	AppEnv  string

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort        string
	ServiceApiPort string // internal service API, empty disables it

	// AWS S3 (report archive, optional)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	ReportS3Bucket     string

	// Moderation
	ModerationKeywords []string // nil means the built-in blocklist
	ModerationCron     string

	// Ad lifecycle
	CleanupCron  string
	AdMaxAgeDays int
	JobLockTTL   time.Duration

	// Referrals
	ReferralReferredDiscountPercent float64
	ReferralReferrerDiscountPercent float64
	ReferralDefaultMaxUses          int // 0 = unlimited
	ReferralCodeLength              int

	// Rate limiting
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "tearence")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.AppEnv = getEnv("APP_ENV", "production")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.ReportS3Bucket = getEnv("REPORT_S3_BUCKET", "")
	cfg.ModerationKeywords = ParseKeywordList(getEnv("MODERATION_KEYWORDS", ""))
	cfg.ModerationCron = getEnv("MODERATION_CRON", "0 */6 * * *")
	cfg.CleanupCron = getEnv("CLEANUP_CRON", "0 0 * * *")

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "3600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	cfg.AdMaxAgeDays, err = strconv.Atoi(getEnv("AD_MAX_AGE_DAYS", "21"))
	if err != nil {
		return nil, fmt.Errorf("invalid AD_MAX_AGE_DAYS: %w", err)
	}
	if cfg.AdMaxAgeDays <= 0 {
		return nil, fmt.Errorf("invalid AD_MAX_AGE_DAYS: must be positive, got %d", cfg.AdMaxAgeDays)
	}

	jobLockSeconds, err := strconv.ParseInt(getEnv("JOB_LOCK_TTL_SECONDS", "3600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_LOCK_TTL_SECONDS: %w", err)
	}
	cfg.JobLockTTL = time.Duration(jobLockSeconds) * time.Second

	cfg.ReferralReferredDiscountPercent, err = strconv.ParseFloat(getEnv("REFERRAL_REFERRED_DISCOUNT_PERCENT", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid REFERRAL_REFERRED_DISCOUNT_PERCENT: %w", err)
	}

	cfg.ReferralReferrerDiscountPercent, err = strconv.ParseFloat(getEnv("REFERRAL_REFERRER_DISCOUNT_PERCENT", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid REFERRAL_REFERRER_DISCOUNT_PERCENT: %w", err)
	}

	cfg.ReferralDefaultMaxUses, err = strconv.Atoi(getEnv("REFERRAL_DEFAULT_MAX_USES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFERRAL_DEFAULT_MAX_USES: %w", err)
	}

	cfg.ReferralCodeLength, err = strconv.Atoi(getEnv("REFERRAL_CODE_LENGTH", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFERRAL_CODE_LENGTH: %w", err)
	}

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}

// ParseKeywordList splits a comma-separated keyword list, keeping order and
// dropping blanks. An empty input yields nil.
func ParseKeywordList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var keywords []string
	for _, part := range strings.Split(raw, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
