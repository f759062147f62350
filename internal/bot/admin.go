package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"vpnshop/internal/models"
	"vpnshop/internal/panel"
	"vpnshop/internal/pkg/utils"
	"vpnshop/internal/repository"
)

// handleAdminCallback routes admin-menu callbacks. The caller has
// already verified admin rights.
func (b *Bot) handleAdminCallback(c tele.Context, user *models.User, data string) error {
	// Returning to a menu root abandons any half-finished data entry.
	switch data {
	case "admin_panel_show", "manage_panels", "manage_plans",
		"manage_admins", "manage_maintenance", "manage_channel":
		b.clearDraft(user.TelegramID)
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
	}

	switch {
	case data == "admin_panel_show":
		return sendOrEdit(c, "🔐 *پنل مدیریت*\n\nیک بخش را انتخاب کنید:", adminMenuMarkup())

	// Panels.
	case data == "manage_panels":
		return b.showManagePanels(c)
	case data == "add_panel_start":
		return b.startAddPanel(c, user)
	case strings.HasPrefix(data, "paneltype_"):
		return b.selectPanelType(c, user, strings.TrimPrefix(data, "paneltype_"))
	case strings.HasPrefix(data, "delete_panel_"):
		return b.deletePanel(c, strings.TrimPrefix(data, "delete_panel_"))

	// Plans.
	case data == "manage_plans":
		return b.showManagePlans(c)
	case data == "add_plan_start":
		return b.startAddPlan(c)
	case strings.HasPrefix(data, "select_panel_"):
		return b.selectPlanPanel(c, user, strings.TrimPrefix(data, "select_panel_"))
	case data == "ask_user_limit_yes":
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepPlanUserLimit))
		return sendOrEdit(c, "👥 حداکثر تعداد کاربر همزمان را وارد کنید:", inline(backRow("manage_plans")))
	case data == "ask_user_limit_no":
		d := b.getDraft(user.TelegramID)
		d.plan.UserLimit = 0
		return b.savePlanDraft(c, user)
	case strings.HasPrefix(data, "delete_plan_"):
		return b.deletePlan(c, strings.TrimPrefix(data, "delete_plan_"))

	// Admins (root only).
	case data == "manage_admins":
		return b.showManageAdmins(c, user)
	case data == "admin_add_start":
		return b.startAdminEntry(c, user, StepAdminAdd, "🆔 شناسه عددی تلگرام ادمین جدید را ارسال کنید:")
	case data == "admin_remove_start":
		return b.startAdminEntry(c, user, StepAdminRemove, "🆔 شناسه عددی ادمینی که باید حذف شود را ارسال کنید:")

	// Maintenance.
	case data == "manage_maintenance":
		return b.showMaintenance(c)
	case data == "maintenance_toggle":
		return b.toggleMaintenance(c)
	case data == "maintenance_set_message":
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepMaintenanceMessage))
		return sendOrEdit(c, "✍️ متن پیام حالت تعمیرات را ارسال کنید:", inline(backRow("manage_maintenance")))

	// Forced channel.
	case data == "manage_channel":
		return b.showChannel(c)
	case data == "channel_toggle":
		return b.toggleChannel(c)
	case data == "channel_set_id":
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepChannelID))
		return sendOrEdit(c, "🆔 شناسه کانال را ارسال کنید (مثل @mychannel یا -100123456789):", inline(backRow("manage_channel")))

	// Broadcast + stats.
	case data == "broadcast_start":
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepBroadcast))
		return sendOrEdit(c, "📣 متن پیام همگانی را ارسال کنید:\n\nبرای انصراف /cancel را بزنید.", inline(backRow("admin_panel_show")))
	case data == "admin_stats":
		return b.showStats(c)
	}

	return c.Respond(&tele.CallbackResponse{Text: "دکمه نامعتبر است."})
}

// ── Panels ────────────────────────────────────────────────────────────

func (b *Bot) showManagePanels(c tele.Context) error {
	panels, err := b.repos.Panel.FindActive()
	if err != nil {
		b.logger.Error("list panels failed", zap.Error(err))
		return sendOrEdit(c, "خطایی رخ داد.", inline(backRow("admin_panel_show")))
	}

	var sb strings.Builder
	sb.WriteString("🖥 *مدیریت پنل‌ها*\n\n")
	var rows [][]tele.InlineButton
	for _, p := range panels {
		sb.WriteString(fmt.Sprintf("▫️ %s (%s)\n", p.Name, p.Type))
		rows = append(rows, []tele.InlineButton{
			btn("🗑 حذف "+p.Name, fmt.Sprintf("delete_panel_%d", p.ID)),
		})
	}
	if len(panels) == 0 {
		sb.WriteString("هیچ پنلی ثبت نشده است.\n")
	}
	rows = append(rows,
		[]tele.InlineButton{btn("➕ افزودن پنل", "add_panel_start")},
		backRow("admin_panel_show"),
	)

	return sendOrEdit(c, sb.String(), inline(rows...))
}

func (b *Bot) startAddPanel(c tele.Context, user *models.User) error {
	b.clearDraft(user.TelegramID)
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepPanelName))
	return sendOrEdit(c, "🖥 یک نام برای پنل وارد کنید (مثلا «سرور آلمان»):", inline(backRow("manage_panels")))
}

func (b *Bot) adminPanelNameInput(c tele.Context, user *models.User) error {
	name := strings.TrimSpace(c.Text())
	if name == "" {
		return c.Send("نام نمی‌تواند خالی باشد. دوباره تلاش کنید:")
	}

	d := b.getDraft(user.TelegramID)
	d.panelName = name
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))

	var typeRow []tele.InlineButton
	for _, t := range panel.Types() {
		typeRow = append(typeRow, btn(t, "paneltype_"+t))
	}
	return c.Send("نوع پنل را انتخاب کنید:", inline(typeRow, backRow("manage_panels")))
}

func (b *Bot) selectPanelType(c tele.Context, user *models.User, panelType string) error {
	d := b.getDraft(user.TelegramID)
	if d.panelName == "" {
		_ = c.Respond(&tele.CallbackResponse{Text: "فرآیند افزودن پنل از ابتدا شروع شود.", ShowAlert: true})
		return b.showManagePanels(c)
	}

	d.panelType = panelType
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepPanelURL))
	return sendOrEdit(c, "🌐 آدرس پنل را وارد کنید (با http یا https):", inline(backRow("manage_panels")))
}

func (b *Bot) adminPanelURLInput(c tele.Context, user *models.User) error {
	rawURL := strings.TrimRight(strings.TrimSpace(c.Text()), "/")
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return c.Send("آدرس باید با http:// یا https:// شروع شود. دوباره تلاش کنید:")
	}

	d := b.getDraft(user.TelegramID)
	d.panelURL = rawURL
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepPanelToken))
	return c.Send("🔑 رمز ادمین (مرزبان) یا توکن دسترسی (سنایی) را وارد کنید:")
}

func (b *Bot) adminPanelTokenInput(c tele.Context, user *models.User) error {
	token := strings.TrimSpace(c.Text())
	if token == "" {
		return c.Send("مقدار نمی‌تواند خالی باشد. دوباره تلاش کنید:")
	}

	d := b.getDraft(user.TelegramID)
	p := &models.Panel{
		Name:     d.panelName,
		Type:     d.panelType,
		APIURL:   d.panelURL,
		APIToken: token,
		IsActive: true,
	}
	if err := b.repos.Panel.Create(p); err != nil {
		b.logger.Error("create panel failed", zap.String("name", d.panelName), zap.Error(err))
		return c.Send("ثبت پنل با خطا مواجه شد. احتمالا نامی تکراری انتخاب کرده‌اید.")
	}

	b.clearDraft(user.TelegramID)
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
	return c.Send(fmt.Sprintf("✅ پنل «%s» با موفقیت ثبت شد.", p.Name))
}

func (b *Bot) deletePanel(c tele.Context, rawID string) error {
	id := utils.ParseInt(rawID, 0)
	if id <= 0 {
		return c.Respond(&tele.CallbackResponse{Text: "پنل یافت نشد."})
	}

	if err := b.repos.Panel.Delete(uint(id), b.catalog.PanelInUse); err != nil {
		if errors.Is(err, repository.ErrPanelInUse) {
			return c.Respond(&tele.CallbackResponse{
				Text:      "این پنل توسط یک یا چند پلن استفاده می‌شود و قابل حذف نیست.",
				ShowAlert: true,
			})
		}
		b.logger.Error("delete panel failed", zap.Int("panel_id", id), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "حذف پنل با خطا مواجه شد.", ShowAlert: true})
	}

	_ = c.Respond(&tele.CallbackResponse{Text: "پنل حذف شد."})
	return b.showManagePanels(c)
}

// ── Plans ─────────────────────────────────────────────────────────────

func (b *Bot) showManagePlans(c tele.Context) error {
	plans := b.catalog.Plans()

	var sb strings.Builder
	sb.WriteString("📦 *مدیریت پلن‌ها*\n\n")
	var rows [][]tele.InlineButton
	for _, id := range sortedPlanIDs(plans) {
		p := plans[id]
		sb.WriteString("▫️ " + planTitle(p) + "\n")
		rows = append(rows, []tele.InlineButton{
			btn("🗑 حذف "+p.Name, "delete_plan_"+id),
		})
	}
	if len(plans) == 0 {
		sb.WriteString("هیچ پلنی ثبت نشده است.\n")
	}
	rows = append(rows,
		[]tele.InlineButton{btn("➕ افزودن پلن", "add_plan_start")},
		backRow("admin_panel_show"),
	)

	return sendOrEdit(c, sb.String(), inline(rows...))
}

func (b *Bot) startAddPlan(c tele.Context) error {
	panels, err := b.repos.Panel.FindActive()
	if err != nil || len(panels) == 0 {
		return c.Respond(&tele.CallbackResponse{
			Text:      "ابتدا باید حداقل یک پنل ثبت کنید.",
			ShowAlert: true,
		})
	}

	var rows [][]tele.InlineButton
	for _, p := range panels {
		rows = append(rows, []tele.InlineButton{
			btn(p.Name, fmt.Sprintf("select_panel_%d", p.ID)),
		})
	}
	rows = append(rows, backRow("manage_plans"))

	return sendOrEdit(c, "🖥 پلن جدید روی کدام پنل ساخته شود؟", inline(rows...))
}

func (b *Bot) selectPlanPanel(c tele.Context, user *models.User, rawID string) error {
	id := utils.ParseInt(rawID, 0)
	if id <= 0 {
		return c.Respond(&tele.CallbackResponse{Text: "پنل یافت نشد."})
	}
	if _, err := b.repos.Panel.FindByID(uint(id)); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "پنل یافت نشد.", ShowAlert: true})
	}

	b.clearDraft(user.TelegramID)
	d := b.getDraft(user.TelegramID)
	d.plan.PanelID = uint(id)

	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepPlanPrice))
	return sendOrEdit(c, "💰 قیمت پلن را به هزار تومان وارد کنید (مثلا 150):", inline(backRow("manage_plans")))
}

func (b *Bot) adminPlanPriceInput(c tele.Context, user *models.User) error {
	price := utils.ParseInt(strings.TrimSpace(c.Text()), -1)
	if price <= 0 {
		return c.Send("قیمت باید یک عدد مثبت باشد. دوباره تلاش کنید:")
	}

	d := b.getDraft(user.TelegramID)
	d.plan.Price = price
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepPlanGB))
	return c.Send("💾 حجم پلن را به گیگابایت وارد کنید:")
}

func (b *Bot) adminPlanGBInput(c tele.Context, user *models.User) error {
	gb := utils.ParseInt(strings.TrimSpace(c.Text()), -1)
	if gb <= 0 {
		return c.Send("حجم باید یک عدد مثبت باشد. دوباره تلاش کنید:")
	}

	d := b.getDraft(user.TelegramID)
	d.plan.DataLimitGB = gb
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepPlanDays))
	return c.Send("📅 مدت پلن را به روز وارد کنید (0 برای نامحدود):")
}

func (b *Bot) adminPlanDaysInput(c tele.Context, user *models.User) error {
	days := utils.ParseInt(strings.TrimSpace(c.Text()), -1)
	if days < 0 {
		return c.Send("مدت باید صفر یا بیشتر باشد. دوباره تلاش کنید:")
	}

	d := b.getDraft(user.TelegramID)
	d.plan.DurationDays = days
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))

	return c.Send("👥 آیا محدودیت کاربر همزمان داشته باشد؟", inline(
		[]tele.InlineButton{
			btn("بله", "ask_user_limit_yes"),
			btn("خیر", "ask_user_limit_no"),
		},
	))
}

func (b *Bot) adminPlanUserLimitInput(c tele.Context, user *models.User) error {
	limit := utils.ParseInt(strings.TrimSpace(c.Text()), -1)
	if limit <= 0 {
		return c.Send("تعداد کاربر باید یک عدد مثبت باشد. دوباره تلاش کنید:")
	}

	d := b.getDraft(user.TelegramID)
	d.plan.UserLimit = limit
	return b.savePlanDraft(c, user)
}

func (b *Bot) savePlanDraft(c tele.Context, user *models.User) error {
	d := b.getDraft(user.TelegramID)
	if d.plan.PanelID == 0 || d.plan.Price <= 0 || d.plan.DataLimitGB <= 0 {
		b.clearDraft(user.TelegramID)
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "فرآیند افزودن پلن از ابتدا شروع شود.", ShowAlert: true})
		}
		return c.Send("فرآیند افزودن پلن ناقص است. دوباره شروع کنید.")
	}

	p := d.plan
	if p.DurationDays > 0 {
		p.Name = fmt.Sprintf("%d گیگ %d روزه", p.DataLimitGB, p.DurationDays)
	} else {
		p.Name = fmt.Sprintf("%d گیگ نامحدود", p.DataLimitGB)
	}

	id := utils.GenerateUUID()
	if err := b.catalog.SavePlan(id, p); err != nil {
		b.logger.Error("save plan failed", zap.Error(err))
		return c.Send("ثبت پلن با خطا مواجه شد.")
	}

	b.clearDraft(user.TelegramID)
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))

	msg := fmt.Sprintf("✅ پلن «%s» با قیمت %s ثبت شد.", p.Name, utils.FormatPrice(p.Price))
	if c.Callback() != nil {
		return sendOrEdit(c, msg, inline(backRow("manage_plans")))
	}
	return c.Send(msg)
}

func (b *Bot) deletePlan(c tele.Context, planID string) error {
	if _, ok := b.catalog.Plan(planID); !ok {
		return c.Respond(&tele.CallbackResponse{Text: "پلن یافت نشد."})
	}
	if err := b.catalog.DeletePlan(planID); err != nil {
		b.logger.Error("delete plan failed", zap.String("plan_id", planID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "حذف پلن با خطا مواجه شد.", ShowAlert: true})
	}

	_ = c.Respond(&tele.CallbackResponse{Text: "پلن حذف شد."})
	return b.showManagePlans(c)
}

// ── Admins ────────────────────────────────────────────────────────────

func (b *Bot) showManageAdmins(c tele.Context, user *models.User) error {
	if !b.catalog.IsRootAdmin(user.TelegramID) {
		return c.Respond(&tele.CallbackResponse{
			Text:      "فقط ادمین اصلی می‌تواند ادمین‌ها را مدیریت کند.",
			ShowAlert: true,
		})
	}

	var sb strings.Builder
	sb.WriteString("👥 *ادمین‌های فعلی:*\n\n")
	for _, id := range b.catalog.Admins() {
		if b.catalog.IsRootAdmin(id) {
			sb.WriteString(fmt.Sprintf("▫️ `%d` (اصلی)\n", id))
		} else {
			sb.WriteString(fmt.Sprintf("▫️ `%d`\n", id))
		}
	}

	return sendOrEdit(c, sb.String(), inline(
		[]tele.InlineButton{
			btn("➕ افزودن", "admin_add_start"),
			btn("➖ حذف", "admin_remove_start"),
		},
		backRow("admin_panel_show"),
	))
}

func (b *Bot) startAdminEntry(c tele.Context, user *models.User, step Step, prompt string) error {
	if !b.catalog.IsRootAdmin(user.TelegramID) {
		return c.Respond(&tele.CallbackResponse{
			Text:      "فقط ادمین اصلی می‌تواند ادمین‌ها را مدیریت کند.",
			ShowAlert: true,
		})
	}
	_ = b.repos.User.UpdateStep(user.TelegramID, string(step))
	return sendOrEdit(c, prompt, inline(backRow("manage_admins")))
}

func (b *Bot) adminAddInput(c tele.Context, user *models.User) error {
	if !b.catalog.IsRootAdmin(user.TelegramID) {
		return b.sendMainMenu(c, user.TelegramID, "")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil || id <= 0 {
		return c.Send("شناسه باید یک عدد باشد. دوباره تلاش کنید:")
	}

	if err := b.catalog.AddAdmin(id); err != nil {
		b.logger.Error("add admin failed", zap.Int64("admin_id", id), zap.Error(err))
		return c.Send("افزودن ادمین با خطا مواجه شد.")
	}

	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
	return c.Send(fmt.Sprintf("✅ کاربر `%d` به ادمین‌ها اضافه شد.", id), tele.ModeMarkdown)
}

func (b *Bot) adminRemoveInput(c tele.Context, user *models.User) error {
	if !b.catalog.IsRootAdmin(user.TelegramID) {
		return b.sendMainMenu(c, user.TelegramID, "")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil {
		return c.Send("شناسه باید یک عدد باشد. دوباره تلاش کنید:")
	}

	if err := b.catalog.RemoveAdmin(id); err != nil {
		return c.Send("حذف این ادمین ممکن نیست (ادمین اصلی قابل حذف نیست).")
	}

	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
	return c.Send(fmt.Sprintf("✅ کاربر `%d` از ادمین‌ها حذف شد.", id), tele.ModeMarkdown)
}

// ── Maintenance ───────────────────────────────────────────────────────

func (b *Bot) showMaintenance(c tele.Context) error {
	s := b.catalog.Settings()
	state := "خاموش 🔴"
	if s.Maintenance.Enabled {
		state = "روشن 🟢"
	}
	text := fmt.Sprintf("🛠 *حالت تعمیرات*\n\nوضعیت: %s\nپیام فعلی:\n%s", state, s.Maintenance.Message)

	return sendOrEdit(c, text, inline(
		[]tele.InlineButton{
			btn("🔄 تغییر وضعیت", "maintenance_toggle"),
			btn("✍️ تغییر پیام", "maintenance_set_message"),
		},
		backRow("admin_panel_show"),
	))
}

func (b *Bot) toggleMaintenance(c tele.Context) error {
	s := b.catalog.Settings()
	s.Maintenance.Enabled = !s.Maintenance.Enabled
	if err := b.catalog.SaveSettings(s); err != nil {
		b.logger.Error("save settings failed", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "ذخیره تنظیمات با خطا مواجه شد.", ShowAlert: true})
	}
	return b.showMaintenance(c)
}

func (b *Bot) adminMaintenanceMessageInput(c tele.Context, user *models.User) error {
	msg := strings.TrimSpace(c.Text())
	if msg == "" {
		return c.Send("پیام نمی‌تواند خالی باشد. دوباره تلاش کنید:")
	}

	s := b.catalog.Settings()
	s.Maintenance.Message = msg
	if err := b.catalog.SaveSettings(s); err != nil {
		return c.Send("ذخیره تنظیمات با خطا مواجه شد.")
	}

	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
	return c.Send("✅ پیام حالت تعمیرات به‌روزرسانی شد.")
}

// ── Forced channel ────────────────────────────────────────────────────

func (b *Bot) showChannel(c tele.Context) error {
	s := b.catalog.Settings()
	state := "خاموش 🔴"
	if s.ForceJoin.Enabled {
		state = "روشن 🟢"
	}
	channel := s.ForceJoin.ChannelID
	if channel == "" {
		channel = "تنظیم نشده"
	}
	text := fmt.Sprintf("📢 *کانال اجباری*\n\nوضعیت: %s\nکانال: %s", state, channel)

	return sendOrEdit(c, text, inline(
		[]tele.InlineButton{
			btn("🔄 تغییر وضعیت", "channel_toggle"),
			btn("🆔 تنظیم کانال", "channel_set_id"),
		},
		backRow("admin_panel_show"),
	))
}

func (b *Bot) toggleChannel(c tele.Context) error {
	s := b.catalog.Settings()
	if !s.ForceJoin.Enabled && s.ForceJoin.ChannelID == "" {
		return c.Respond(&tele.CallbackResponse{
			Text:      "ابتدا شناسه کانال را تنظیم کنید.",
			ShowAlert: true,
		})
	}
	s.ForceJoin.Enabled = !s.ForceJoin.Enabled
	if err := b.catalog.SaveSettings(s); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "ذخیره تنظیمات با خطا مواجه شد.", ShowAlert: true})
	}
	return b.showChannel(c)
}

func (b *Bot) adminChannelIDInput(c tele.Context, user *models.User) error {
	channel := strings.TrimSpace(c.Text())
	if !strings.HasPrefix(channel, "@") && !strings.HasPrefix(channel, "-100") {
		return c.Send("شناسه کانال باید با @ یا -100 شروع شود. دوباره تلاش کنید:")
	}

	s := b.catalog.Settings()
	s.ForceJoin.ChannelID = channel
	if err := b.catalog.SaveSettings(s); err != nil {
		return c.Send("ذخیره تنظیمات با خطا مواجه شد.")
	}

	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
	return c.Send(fmt.Sprintf("✅ کانال اجباری روی %s تنظیم شد.", channel))
}

// ── Broadcast + stats ─────────────────────────────────────────────────

func (b *Bot) adminBroadcastInput(c tele.Context, user *models.User) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return c.Send("پیام نمی‌تواند خالی باشد. دوباره تلاش کنید:")
	}

	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))

	users, err := b.repos.User.FindAll()
	if err != nil {
		b.logger.Error("list users for broadcast failed", zap.Error(err))
		return c.Send("خطایی رخ داد.")
	}

	sent, failed := 0, 0
	for _, u := range users {
		if _, err := b.tb.Send(tele.ChatID(u.TelegramID), text); err != nil {
			failed++
			continue
		}
		sent++
	}

	b.logger.Info("broadcast finished", zap.Int("sent", sent), zap.Int("failed", failed))
	return c.Send(fmt.Sprintf("📣 پیام همگانی ارسال شد.\n\n✅ موفق: %d\n❌ ناموفق: %d", sent, failed))
}

func (b *Bot) showStats(c tele.Context) error {
	userCount, _ := b.repos.User.Count()
	accountCount, _ := b.repos.Account.CountAll()
	pending, _ := b.repos.Order.CountByStatus(models.OrderPending)
	confirmed, _ := b.repos.Order.CountByStatus(models.OrderConfirmed)
	rejected, _ := b.repos.Order.CountByStatus(models.OrderRejected)
	failed, _ := b.repos.Order.CountByStatus(models.OrderFailed)

	text := fmt.Sprintf(
		"📊 *آمار ربات*\n\n"+
			"👤 کاربران: %s\n"+
			"🔐 سرویس‌های فعال: %s\n\n"+
			"🧾 سفارش‌ها:\n"+
			"⏳ در انتظار: %d\n"+
			"✅ تایید شده: %d\n"+
			"❌ رد شده: %d\n"+
			"⚠️ ناموفق: %d",
		utils.FormatNumber(userCount), utils.FormatNumber(accountCount),
		pending, confirmed, rejected, failed)

	return sendOrEdit(c, text, inline(backRow("admin_panel_show")))
}
