package bootstrap

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/cgvrzon/arynstal/internal/config"
	"github.com/cgvrzon/arynstal/internal/notify"
	"github.com/cgvrzon/arynstal/internal/upload"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

// BuildEmailSender picks the configured transport: SendGrid when an API key
// is set, SES when a from-address is set, otherwise the log-only stub.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}

	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		logger.Info("email transport: sendgrid", "from", cfg.SendGridFromEmail)
		return sender
	}

	if cfg.SESFromEmail != "" {
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("email transport: ses unavailable, falling back to stub", "error", err)
			return notify.NewStubEmailSender(logger)
		}
		logger.Info("email transport: ses", "from", cfg.SESFromEmail)
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.CompanyName,
		}, logger)
	}

	logger.Warn("email transport: stub, lead notifications are log-only")
	return notify.NewStubEmailSender(logger)
}

// BuildUploadStore returns S3-backed media storage when a bucket is
// configured, otherwise a local directory store.
func BuildUploadStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (upload.Store, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if cfg.MediaBucket != "" {
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("media storage: s3", "bucket", cfg.MediaBucket)
		return upload.NewS3Store(s3.NewFromConfig(awsCfg), cfg.MediaBucket, logger), nil
	}

	logger.Info("media storage: local", "dir", cfg.MediaDir)
	return upload.NewLocalStore(cfg.MediaDir, logger), nil
}
