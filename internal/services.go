package internal

import (
	"context"

	"sjsage522/jobworker/config"
	"sjsage522/jobworker/logger"
	"sjsage522/jobworker/services/cache"
	"sjsage522/jobworker/services/mailer"
	"sjsage522/jobworker/services/publisher"
	"sjsage522/jobworker/services/store"
)

// InitializeServices builds the dependencies described by cfg. Redis,
// Memcached and e-mail are optional and left nil when not configured.
func InitializeServices(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	s, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	deps.Store = s
	logger.Info("Using %s store", cfg.StoreDriver)

	if cfg.MemcacheAddr != "" {
		deps.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Using Memcache run lock at %s", cfg.MemcacheAddr)
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			redisPublisher.Close()
			deps.Cleanup()
			return nil, err
		}
		deps.Publisher = redisPublisher

		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if cfg.MailEnabled() {
		deps.Mailer = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailSender, cfg.EmailRecipient, cfg.EmailPassword)
		logger.Info("Digest e-mail to %s via %s:%d", cfg.EmailRecipient, cfg.SMTPHost, cfg.SMTPPort)
	}

	return deps, nil
}
