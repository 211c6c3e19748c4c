package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zainiii163/tearence-backend-sub004/internal/config"
	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
)

// Runtime-tunable keys. Values in the configuration collection override the
// environment defaults.
const (
	ConfigKeyModerationKeywords      = "MODERATION_KEYWORDS"
	ConfigKeyAdMaxAgeDays            = "AD_MAX_AGE_DAYS"
	ConfigKeyReferredDiscountPercent = "REFERRAL_REFERRED_DISCOUNT_PERCENT"
	ConfigKeyReferrerDiscountPercent = "REFERRAL_REFERRER_DISCOUNT_PERCENT"
	ConfigKeyReferralDefaultMaxUses  = "REFERRAL_DEFAULT_MAX_USES"
)

// IConfigService defines the interface for accessing configuration.
type IConfigService interface {
	GetAllPublic(ctx context.Context) (map[string]interface{}, error)
	Get(ctx context.Context, key string) (interface{}, error)
	GetInt(ctx context.Context, key string, defaultValue int) int
	GetFloat64(ctx context.Context, key string, defaultValue float64) float64
	GetStringSlice(ctx context.Context, key string, defaultValue []string) []string
	Load(ctx context.Context) error
	SubscribeToChanges(ctx context.Context) error
	SetConfigValue(ctx context.Context, key string, value interface{}, isPublic bool) error
}

const (
	configCollection    = "configuration"
	configUpdateChannel = "config_updates"
)

// configService implements IConfigService.
type configService struct {
	db    *mongo.Database
	cfg   *config.Config // env defaults
	rdb   *redis.Client
	cache map[string]interface{}
	mutex sync.RWMutex
}

// NewConfigService creates a ConfigService and loads the configuration
// collection into memory. Call SubscribeToChanges to follow updates.
func NewConfigService(db *mongo.Database, initialCfg *config.Config, rdb *redis.Client) IConfigService {
	s := &configService{
		db:    db,
		cfg:   initialCfg,
		rdb:   rdb,
		cache: make(map[string]interface{}),
	}
	if err := s.Load(context.Background()); err != nil {
		logger.Warn("failed to load runtime config, using environment defaults", "error", err)
	}
	return s
}

// ConfigEntry represents a document in the configuration collection.
type ConfigEntry struct {
	Key    string      `bson:"key" json:"key"`
	Value  interface{} `bson:"value" json:"value"`
	Public bool        `bson:"public" json:"public"`
}

// Load fetches all config entries from DB and replaces the in-memory cache.
func (s *configService) Load(ctx context.Context) error {
	cursor, err := s.db.Collection(configCollection).Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to query config collection: %w", err)
	}
	defer cursor.Close(ctx)

	newCache := make(map[string]interface{})
	for cursor.Next(ctx) {
		var entry ConfigEntry
		if err := cursor.Decode(&entry); err != nil {
			logger.Warn("failed to decode config entry", "error", err)
			continue
		}
		newCache[entry.Key] = entry.Value
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("error iterating config cursor: %w", err)
	}

	s.mutex.Lock()
	s.cache = newCache
	s.mutex.Unlock()

	logger.Info("loaded runtime config", "entries", len(newCache))
	return nil
}

// GetAllPublic retrieves all configuration parameters marked as public from DB.
func (s *configService) GetAllPublic(ctx context.Context) (map[string]interface{}, error) {
	publicConfig := map[string]interface{}{}
	cursor, err := s.db.Collection(configCollection).Find(ctx, bson.M{"public": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query public config from DB: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var entry ConfigEntry
		if err := cursor.Decode(&entry); err != nil {
			logger.Warn("failed to decode public config entry", "error", err)
			continue
		}
		publicConfig[entry.Key] = entry.Value
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating public config cursor: %w", err)
	}

	if _, exists := publicConfig[ConfigKeyReferredDiscountPercent]; !exists {
		publicConfig[ConfigKeyReferredDiscountPercent] = s.cfg.ReferralReferredDiscountPercent
	}
	return publicConfig, nil
}

// Get returns the cached value for key, falling back to the environment default.
func (s *configService) Get(ctx context.Context, key string) (interface{}, error) {
	s.mutex.RLock()
	val, exists := s.cache[key]
	s.mutex.RUnlock()

	if exists {
		return val, nil
	}

	switch key {
	case ConfigKeyModerationKeywords:
		if s.cfg.ModerationKeywords == nil {
			break
		}
		return s.cfg.ModerationKeywords, nil
	case ConfigKeyAdMaxAgeDays:
		return s.cfg.AdMaxAgeDays, nil
	case ConfigKeyReferredDiscountPercent:
		return s.cfg.ReferralReferredDiscountPercent, nil
	case ConfigKeyReferrerDiscountPercent:
		return s.cfg.ReferralReferrerDiscountPercent, nil
	case ConfigKeyReferralDefaultMaxUses:
		return s.cfg.ReferralDefaultMaxUses, nil
	}
	return nil, fmt.Errorf("config key '%s' not found", key)
}

func (s *configService) GetInt(ctx context.Context, key string, defaultValue int) int {
	val, err := s.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	// MongoDB might store numbers as float64 or int32/64
	switch v := val.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		logger.Warn("config value is not an integer, using default", "key", key, "type", fmt.Sprintf("%T", val))
		return defaultValue
	}
}

func (s *configService) GetFloat64(ctx context.Context, key string, defaultValue float64) float64 {
	val, err := s.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		logger.Warn("config value is not numeric, using default", "key", key, "type", fmt.Sprintf("%T", val))
		return defaultValue
	}
}

// GetStringSlice accepts a BSON array of strings or a comma-separated string.
func (s *configService) GetStringSlice(ctx context.Context, key string, defaultValue []string) []string {
	val, err := s.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	switch v := val.(type) {
	case []string:
		return v
	case string:
		if parsed := config.ParseKeywordList(v); parsed != nil {
			return parsed
		}
		return defaultValue
	case primitive.A:
		return interfacesToStrings(key, v, defaultValue)
	case []interface{}:
		return interfacesToStrings(key, v, defaultValue)
	default:
		logger.Warn("config value is not a list, using default", "key", key, "type", fmt.Sprintf("%T", val))
		return defaultValue
	}
}

func interfacesToStrings(key string, items []interface{}, defaultValue []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			logger.Warn("config list holds a non-string element, using default", "key", key)
			return defaultValue
		}
		if str = strings.TrimSpace(str); str != "" {
			out = append(out, str)
		}
	}
	return out
}

// SubscribeToChanges reloads the cache on every Redis notification until ctx is done.
func (s *configService) SubscribeToChanges(ctx context.Context) error {
	if s.rdb == nil {
		logger.Info("Redis client not configured, not subscribing to config changes")
		return nil
	}

	pubsub := s.rdb.Subscribe(ctx, configUpdateChannel)
	defer pubsub.Close()

	// Wait for confirmation that subscription is created before publishing anything.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to receive confirmation from Redis Pub/Sub subscription: %w", err)
	}

	ch := pubsub.Channel()
	logger.Info("subscribed to config updates", "channel", configUpdateChannel)

	for {
		select {
		case <-ctx.Done():
			logger.Info("config Pub/Sub listener stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			logger.Info("config update received", "key", msg.Payload)
			if err := s.Load(ctx); err != nil {
				logger.Error("failed to reload config after notification", "error", err)
			}
		}
	}
}

// SetConfigValue upserts a config value and publishes an update notification.
func (s *configService) SetConfigValue(ctx context.Context, key string, value interface{}, isPublic bool) error {
	filter := bson.M{"key": key}
	update := bson.M{
		"$set": bson.M{
			"key":    key,
			"value":  value,
			"public": isPublic,
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := s.db.Collection(configCollection).UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert config key '%s' in DB: %w", key, err)
	}

	s.mutex.Lock()
	s.cache[key] = value
	s.mutex.Unlock()

	if s.rdb != nil {
		if err := s.rdb.Publish(ctx, configUpdateChannel, key).Err(); err != nil {
			logger.Warn("failed to publish config update", "key", key, "error", err)
		}
	}

	logger.Info("config value updated", "key", key)
	return nil
}
