package cron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vpnshop/internal/config"
	"vpnshop/internal/models"
	"vpnshop/internal/pkg/utils"
	"vpnshop/internal/repository"
)

// reminderWindow is how far ahead of expiry buyers get nudged.
const reminderWindow = 3 * 24 * time.Hour

// Scheduler manages the recurring background jobs.
type Scheduler struct {
	cron   *cron.Cron
	cfg    *config.Config
	logger *zap.Logger
	repos  *CronRepos
	notify Notifier
}

// CronRepos bundles repositories needed by cron jobs.
type CronRepos struct {
	User    *repository.UserRepository
	Account *repository.AccountRepository
	Order   *repository.OrderRepository
}

// Notifier delivers a plain-text Telegram message to one chat.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// New creates a new cron scheduler.
func New(cfg *config.Config, repos *CronRepos, notify Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		cfg:    cfg,
		logger: logger,
		repos:  repos,
		notify: notify,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Expiry reminders - daily at 10:00
	s.cron.AddFunc("0 0 10 * * *", func() {
		s.logger.Debug("Running: expiry reminders")
		s.expiryReminders()
	})

	// Daily status report - at 23:45
	s.cron.AddFunc("0 45 23 * * *", func() {
		s.logger.Debug("Running: daily status report")
		s.dailyStatusReport()
	})

	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron scheduler stopped")
}

// expiryReminders nudges buyers whose accounts expire inside the
// reminder window. Accounts already past expiry are skipped; the panel
// has disabled them on its own.
func (s *Scheduler) expiryReminders() {
	now := time.Now()
	accounts, err := s.repos.Account.FindExpiringBefore(now.Add(reminderWindow))
	if err != nil {
		s.logger.Error("failed to load expiring accounts", zap.Error(err))
		return
	}

	reminded := 0
	for _, acc := range accounts {
		if acc.ExpiresAt == nil || acc.ExpiresAt.Before(now) {
			continue
		}

		title := acc.FriendlyName
		if title == "" {
			title = acc.PanelUsername
		}
		days := int(acc.ExpiresAt.Sub(now).Hours()/24) + 1

		text := fmt.Sprintf(
			"⏳ سرویس «%s» شما %d روز دیگر منقضی می‌شود.\n\nبرای تمدید، یک سرویس جدید از ربات تهیه کنید.",
			title, days)
		if err := s.notify.Notify(acc.User.TelegramID, text); err != nil {
			s.logger.Warn("expiry reminder not delivered",
				zap.Int64("telegram_id", acc.User.TelegramID), zap.Error(err))
			continue
		}
		reminded++
	}

	if reminded > 0 {
		s.logger.Info("expiry reminders sent", zap.Int("count", reminded))
	}
}

// dailyStatusReport sends the root admin a one-message summary.
func (s *Scheduler) dailyStatusReport() {
	users, _ := s.repos.User.Count()
	accounts, _ := s.repos.Account.CountAll()
	pending, _ := s.repos.Order.CountByStatus(models.OrderPending)
	confirmed, _ := s.repos.Order.CountByStatus(models.OrderConfirmed)
	failed, _ := s.repos.Order.CountByStatus(models.OrderFailed)

	text := fmt.Sprintf(
		"📊 گزارش روزانه ربات\n\n"+
			"👤 کاربران: %s\n"+
			"🔐 سرویس‌ها: %s\n"+
			"⏳ سفارش در انتظار: %d\n"+
			"✅ تایید شده: %d\n"+
			"⚠️ ناموفق: %d",
		utils.FormatNumber(users), utils.FormatNumber(accounts),
		pending, confirmed, failed)

	if err := s.notify.Notify(s.cfg.Bot.RootAdminID, text); err != nil {
		s.logger.Error("daily report not delivered", zap.Error(err))
	}
}
