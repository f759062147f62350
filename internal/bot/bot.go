package bot

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"vpnshop/internal/catalog"
	"vpnshop/internal/config"
	"vpnshop/internal/models"
	"vpnshop/internal/provision"
	"vpnshop/internal/repository"
)

// Bot wraps the telebot instance and all conversation handlers.
type Bot struct {
	tb         *tele.Bot
	webhook    *tele.Webhook
	useWebhook bool
	cfg        *config.Config
	catalog    *catalog.Store
	repos      *BotRepos
	prov       *provision.Provisioner
	logger     *zap.Logger

	// In-flight multi-step admin inputs, keyed by chat id. Cleared on
	// save or cancel; each entry only ever touched by its own chat.
	mu     sync.Mutex
	drafts map[int64]*draft
}

// BotRepos bundles the repositories the handlers need.
type BotRepos struct {
	User    *repository.UserRepository
	Panel   *repository.PanelRepository
	Account *repository.AccountRepository
	Order   *repository.OrderRepository
}

// draft accumulates multi-step data entry before it is persisted.
type draft struct {
	panelName string
	panelType string
	panelURL  string

	plan   catalog.Plan
	planID string

	renameAccountID uint
}

// New creates and configures a Bot. Webhook mode is used when a webhook
// URL is configured, long polling otherwise.
func New(cfg *config.Config, cat *catalog.Store, repos *BotRepos, prov *provision.Provisioner, logger *zap.Logger) (*Bot, error) {
	useWebhook := strings.TrimSpace(cfg.Bot.WebhookURL) != ""

	var poller tele.Poller
	var webhook *tele.Webhook
	if useWebhook {
		webhook = &tele.Webhook{
			Listen:   "", // mounted on Echo instead of telebot's own server
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
		poller = webhook
	} else {
		poller = &tele.LongPoller{Timeout: 10 * time.Second}
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: poller,
		OnError: func(err error, c tele.Context) {
			logger.Error("telebot error", zap.Error(err))
		},
	}

	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("create telebot: %w", err)
	}

	b := &Bot{
		tb:         tb,
		webhook:    webhook,
		useWebhook: useWebhook,
		cfg:        cfg,
		catalog:    cat,
		repos:      repos,
		prov:       prov,
		logger:     logger,
		drafts:     make(map[int64]*draft),
	}

	b.registerHandlers()
	return b, nil
}

// WebhookHandler returns the handler for mounting on Echo, nil when
// running in long-polling mode.
func (b *Bot) WebhookHandler() http.Handler {
	if b.webhook == nil {
		return nil
	}
	return b.webhook
}

// Start begins update processing.
func (b *Bot) Start() {
	if b.useWebhook {
		b.logger.Info("starting telegram bot", zap.String("mode", "webhook"))
	} else {
		if err := b.tb.RemoveWebhook(true); err != nil {
			b.logger.Warn("failed to remove webhook before long polling", zap.Error(err))
		}
		b.logger.Info("starting telegram bot", zap.String("mode", "polling"))
	}
	b.tb.Start()
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() {
	b.tb.Stop()
}

// Notify sends a plain-text message to one chat. Used by background
// jobs that have no telebot context of their own.
func (b *Bot) Notify(chatID int64, text string) error {
	_, err := b.tb.Send(tele.ChatID(chatID), text)
	return err
}

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/cancel", b.handleCancel)
	b.tb.Handle(tele.OnText, b.handleText)
	b.tb.Handle(tele.OnPhoto, b.handlePhoto)
	b.tb.Handle(tele.OnCallback, b.handleCallback)
}

// ── Guards ────────────────────────────────────────────────────────────

// blocked runs the two entry guards: maintenance mode and forced
// channel membership. Admins bypass both. Returns true when the update
// was consumed by a guard.
func (b *Bot) blocked(c tele.Context) bool {
	userID := c.Sender().ID
	if b.catalog.IsAdmin(userID) {
		return false
	}

	settings := b.catalog.Settings()

	if settings.Maintenance.Enabled {
		msg := settings.Maintenance.Message
		if c.Callback() != nil {
			_ = c.Respond(&tele.CallbackResponse{Text: msg, ShowAlert: true})
		} else {
			_ = c.Send(msg)
		}
		return true
	}

	if settings.ForceJoin.Enabled && settings.ForceJoin.ChannelID != "" {
		if !b.isChannelMember(settings.ForceJoin.ChannelID, c.Sender()) {
			b.sendJoinPrompt(c, settings.ForceJoin.ChannelID)
			return true
		}
	}

	return false
}

// isChannelMember checks forced-join membership. Lookup failures are
// treated as "member" so a misconfigured channel never locks users out;
// the root admin gets a diagnostic instead.
func (b *Bot) isChannelMember(channelID string, user *tele.User) bool {
	chat, err := b.resolveChannel(channelID)
	if err != nil {
		b.logger.Error("force-join channel unresolvable", zap.String("channel", channelID), zap.Error(err))
		b.notifyRootAdmin(fmt.Sprintf("⚠️ خطا در بررسی عضویت کانال %s: %v", channelID, err))
		return true
	}

	member, err := b.tb.ChatMemberOf(chat, user)
	if err != nil {
		return false
	}
	return member.Role != tele.Left && member.Role != tele.Kicked
}

func (b *Bot) resolveChannel(channelID string) (*tele.Chat, error) {
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		return &tele.Chat{ID: id}, nil
	}
	return b.tb.ChatByUsername(channelID)
}

func (b *Bot) sendJoinPrompt(c tele.Context, channelID string) {
	text := "🙏 برای استفاده از امکانات ربات، لطفا ابتدا در کانال ما عضو شوید و سپس دکمه «عضو شدم» را بزنید."

	var rows [][]tele.InlineButton
	if strings.HasPrefix(channelID, "@") {
		rows = append(rows, []tele.InlineButton{{
			Text: "عضویت در کانال",
			URL:  "https://t.me/" + strings.TrimPrefix(channelID, "@"),
		}})
	}
	rows = append(rows, []tele.InlineButton{btn("عضو شدم ✅", "check_join_again")})
	markup := inline(rows...)

	if c.Callback() != nil {
		_ = c.Edit(text, markup)
	} else {
		_ = c.Send(text, markup)
	}
}

func (b *Bot) notifyRootAdmin(text string) {
	if _, err := b.tb.Send(tele.ChatID(b.cfg.Bot.RootAdminID), text); err != nil {
		b.logger.Error("failed to notify root admin", zap.Error(err))
	}
}

// ── Entry points ──────────────────────────────────────────────────────

func (b *Bot) handleStart(c tele.Context) error {
	if b.blocked(c) {
		return nil
	}

	user, err := b.currentUser(c)
	if err != nil {
		b.logger.Error("get-or-create user failed", zap.Int64("telegram_id", c.Sender().ID), zap.Error(err))
		return c.Send("خطایی رخ داد. لطفا دوباره تلاش کنید.")
	}

	b.clearDraft(user.TelegramID)
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))

	return b.sendMainMenu(c, user.TelegramID, "")
}

func (b *Bot) handleCancel(c tele.Context) error {
	b.clearDraft(c.Sender().ID)
	_ = b.repos.User.UpdateStep(c.Sender().ID, string(StepNone))
	_ = c.Send("عملیات لغو شد.")
	return b.handleStart(c)
}

// handleText routes a text reply by the sender's persisted step. Inputs
// outside any data-entry step fall back to the main menu.
func (b *Bot) handleText(c tele.Context) error {
	if b.blocked(c) {
		return nil
	}

	user, err := b.currentUser(c)
	if err != nil {
		return err
	}

	step := NormalizeStep(user.Step)
	if step == StepAwaitingReceipt {
		// Only photo attachments are accepted as receipts.
		return c.Send("لطفا فقط عکس رسید را ارسال کنید.")
	}

	if h := b.textHandler(step); h != nil {
		return h(c, user)
	}
	return b.sendMainMenu(c, user.TelegramID, "")
}

// textHandler resolves the handler for a text-entry step. A nil return
// means the step expects no text and routing falls back to the menu.
func (b *Bot) textHandler(step Step) func(tele.Context, *models.User) error {
	switch step {
	case StepPanelName:
		return b.adminPanelNameInput
	case StepPanelURL:
		return b.adminPanelURLInput
	case StepPanelToken:
		return b.adminPanelTokenInput
	case StepPlanPrice:
		return b.adminPlanPriceInput
	case StepPlanGB:
		return b.adminPlanGBInput
	case StepPlanDays:
		return b.adminPlanDaysInput
	case StepPlanUserLimit:
		return b.adminPlanUserLimitInput
	case StepAdminAdd:
		return b.adminAddInput
	case StepAdminRemove:
		return b.adminRemoveInput
	case StepMaintenanceMessage:
		return b.adminMaintenanceMessageInput
	case StepChannelID:
		return b.adminChannelIDInput
	case StepBroadcast:
		return b.adminBroadcastInput
	case StepAccountRename:
		return b.accountRenameInput
	default:
		return nil
	}
}

func (b *Bot) handleCallback(c tele.Context) error {
	if b.blocked(c) {
		return nil
	}

	data := strings.TrimSpace(strings.TrimPrefix(c.Callback().Data, "\f"))

	user, err := b.currentUser(c)
	if err != nil {
		return err
	}

	switch {
	case data == "back_to_start", data == "check_join_again":
		b.clearDraft(user.TelegramID)
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
		_ = c.Respond(&tele.CallbackResponse{})
		return b.editMainMenu(c, user.TelegramID, "")

	// User flow.
	case data == "buy_service":
		// Leaving the payment screen abandons any receipt wait.
		if NormalizeStep(user.Step) == StepAwaitingReceipt {
			_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
		}
		return b.showPlans(c)
	case data == "price_list":
		return b.showPriceList(c)
	case data == "my_accounts":
		return b.showMyAccounts(c, user)
	case strings.HasPrefix(data, "plan_"):
		return b.selectPlan(c, user, strings.TrimPrefix(data, "plan_"))
	case strings.HasPrefix(data, "manage_account_"):
		return b.showAccountDetail(c, user, strings.TrimPrefix(data, "manage_account_"))
	case strings.HasPrefix(data, "get_links_"):
		return b.showAccountLinks(c, user, strings.TrimPrefix(data, "get_links_"))
	case strings.HasPrefix(data, "rename_account_"):
		return b.startAccountRename(c, user, strings.TrimPrefix(data, "rename_account_"))

	// Order decisions are admin-only but arrive outside the admin menu
	// tree: they are buttons under the fanned-out receipt photos.
	case strings.HasPrefix(data, "confirm_"), strings.HasPrefix(data, "reject_"):
		return b.handleOrderDecision(c, data)
	}

	if !b.catalog.IsAdmin(user.TelegramID) {
		return c.Respond(&tele.CallbackResponse{Text: "⛔️ شما دسترسی به این بخش را ندارید.", ShowAlert: true})
	}
	return b.handleAdminCallback(c, user, data)
}

// ── Helpers ───────────────────────────────────────────────────────────

func (b *Bot) currentUser(c tele.Context) (*models.User, error) {
	sender := c.Sender()
	return b.repos.User.GetOrCreate(sender.ID, senderName(sender), sender.Username)
}

func senderName(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

func (b *Bot) getDraft(chatID int64) *draft {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.drafts[chatID]
	if !ok {
		d = &draft{}
		b.drafts[chatID] = d
	}
	return d
}

func (b *Bot) clearDraft(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.drafts, chatID)
}

// sendOrEdit edits the callback's message in place when the update is a
// callback, otherwise sends a fresh message.
func sendOrEdit(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() != nil {
		_ = c.Respond(&tele.CallbackResponse{})
		if err := c.Edit(text, markup, tele.ModeMarkdown); err == nil {
			return nil
		}
		// Edit can fail e.g. when the original has a photo caption.
		return c.Send(text, markup, tele.ModeMarkdown)
	}
	return c.Send(text, markup, tele.ModeMarkdown)
}
