package main

import (
	"context"
	"fmt"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// runLogin performs first-time QR pairing and writes the session file the
// sync command resumes from. The QR token is rendered as a PNG on disk (the
// token rotates; the file is rewritten each time) and its URL is logged for
// terminals that can open links directly.
func runLogin(ctx context.Context, cfg Config, logger *zap.Logger) error {
	dispatcher := tg.NewUpdateDispatcher()
	client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionFile},
		UpdateHandler:  dispatcher,
		Logger:         logger.Named("mtproto"),
	})

	return client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		if status.Authorized {
			logger.Info("session already authorized", zap.String("session_file", cfg.SessionFile))
			return nil
		}

		_, err = client.QR().Auth(ctx, qrlogin.OnLoginToken(dispatcher), func(ctx context.Context, token qrlogin.Token) error {
			if err := qrcode.WriteFile(token.URL(), qrcode.Medium, 256, cfg.QRPath); err != nil {
				return fmt.Errorf("write QR png: %w", err)
			}
			logger.Info("scan the QR code with a logged-in device",
				zap.String("png", cfg.QRPath),
				zap.String("url", token.URL()))
			return nil
		})
		if tgerr.Is(err, "SESSION_PASSWORD_NEEDED") {
			if cfg.TwoFAPassword == "" {
				return fmt.Errorf("account has 2FA enabled, set TELEGRAM_2FA_PASSWORD")
			}
			if _, err := client.Auth().Password(ctx, cfg.TwoFAPassword); err != nil {
				return fmt.Errorf("2FA password: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("qr auth: %w", err)
		}

		logger.Info("login complete", zap.String("session_file", cfg.SessionFile))
		return nil
	})
}
