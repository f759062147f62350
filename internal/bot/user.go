package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"vpnshop/internal/catalog"
	"vpnshop/internal/models"
	"vpnshop/internal/panel"
	"vpnshop/internal/pkg/utils"
)

const panelCallTimeout = 20 * time.Second

// sortedPlanIDs returns catalog plan ids in a stable order for menus.
func sortedPlanIDs(plans map[string]catalog.Plan) []string {
	ids := make([]string, 0, len(plans))
	for id := range plans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := plans[ids[i]], plans[ids[j]]
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return ids[i] < ids[j]
	})
	return ids
}

func planTitle(p catalog.Plan) string {
	duration := "نامحدود"
	if p.DurationDays > 0 {
		duration = fmt.Sprintf("%d روزه", p.DurationDays)
	}
	return fmt.Sprintf("%s | %d گیگ | %s | %s", p.Name, p.DataLimitGB, duration, utils.FormatPrice(p.Price))
}

func (b *Bot) showPlans(c tele.Context) error {
	plans := b.catalog.Plans()
	if len(plans) == 0 {
		return sendOrEdit(c, "در حال حاضر پلنی برای فروش موجود نیست. 🙁", inline(backRow("back_to_start")))
	}

	var rows [][]tele.InlineButton
	for _, id := range sortedPlanIDs(plans) {
		rows = append(rows, []tele.InlineButton{btn(planTitle(plans[id]), "plan_"+id)})
	}
	rows = append(rows, backRow("back_to_start"))

	return sendOrEdit(c, "🛒 لطفا یکی از پلن‌های زیر را انتخاب کنید:", inline(rows...))
}

func (b *Bot) showPriceList(c tele.Context) error {
	plans := b.catalog.Plans()
	if len(plans) == 0 {
		return sendOrEdit(c, "در حال حاضر پلنی برای فروش موجود نیست. 🙁", inline(backRow("back_to_start")))
	}

	var sb strings.Builder
	sb.WriteString("💰 *لیست قیمت سرویس‌ها:*\n\n")
	for _, id := range sortedPlanIDs(plans) {
		p := plans[id]
		duration := "نامحدود"
		if p.DurationDays > 0 {
			duration = fmt.Sprintf("%d روز", p.DurationDays)
		}
		sb.WriteString(fmt.Sprintf("▫️ *%s*\n    حجم: %d گیگابایت | مدت: %s\n    قیمت: %s\n\n",
			p.Name, p.DataLimitGB, duration, utils.FormatPrice(p.Price)))
	}

	return sendOrEdit(c, sb.String(), inline(backRow("back_to_start")))
}

// selectPlan shows payment details and flips the buyer into the
// receipt-upload state.
func (b *Bot) selectPlan(c tele.Context, user *models.User, planID string) error {
	plan, ok := b.catalog.Plan(planID)
	if !ok {
		_ = c.Respond(&tele.CallbackResponse{Text: "این پلن دیگر موجود نیست.", ShowAlert: true})
		return b.showPlans(c)
	}

	payment := b.catalog.Settings().Payment
	if !payment.CardEnabled || payment.CardNumber == "" {
		return c.Respond(&tele.CallbackResponse{
			Text:      "پرداخت کارت به کارت در حال حاضر فعال نیست. لطفا با پشتیبانی تماس بگیرید.",
			ShowAlert: true,
		})
	}

	d := b.getDraft(user.TelegramID)
	d.planID = planID

	if err := b.repos.User.UpdateStep(user.TelegramID, string(StepAwaitingReceipt)); err != nil {
		b.logger.Error("update step failed", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		return c.Send("خطایی رخ داد. لطفا دوباره تلاش کنید.")
	}

	text := fmt.Sprintf(
		"🧾 شما پلن *%s* را انتخاب کردید.\n\n"+
			"💳 لطفا مبلغ *%s* را به شماره کارت زیر واریز کنید:\n\n"+
			"`%s`\n"+
			"به نام: *%s*\n\n"+
			"سپس *عکس رسید پرداخت* را همینجا ارسال کنید.\n"+
			"برای انصراف /cancel را بزنید.",
		plan.Name, utils.FormatPrice(plan.Price), payment.CardNumber, payment.CardHolder)

	return sendOrEdit(c, text, inline(backRow("buy_service")))
}

// handlePhoto accepts the payment receipt, records a pending order and
// fans it out to every admin with approve/reject buttons.
func (b *Bot) handlePhoto(c tele.Context) error {
	if b.blocked(c) {
		return nil
	}

	user, err := b.currentUser(c)
	if err != nil {
		return err
	}

	if NormalizeStep(user.Step) != StepAwaitingReceipt {
		return b.sendMainMenu(c, user.TelegramID, "")
	}

	d := b.getDraft(user.TelegramID)
	plan, ok := b.catalog.Plan(d.planID)
	if !ok {
		b.clearDraft(user.TelegramID)
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
		return c.Send("پلن انتخابی شما دیگر موجود نیست. لطفا دوباره از منو انتخاب کنید.")
	}

	code := utils.TrackingCode()

	caption := fmt.Sprintf(
		"🔔 سفارش جدید\n\n"+
			"👤 کاربر: %s (@%s)\n"+
			"🆔 شناسه: %d\n"+
			"📦 پلن: %s\n"+
			"💰 مبلغ: %s\n"+
			"🔖 کد پیگیری: %s",
		user.FirstName, user.Username, user.TelegramID,
		plan.Name, utils.FormatPrice(plan.Price), code)

	markup := inline([]tele.InlineButton{
		btn("✅ تایید", "confirm_"+code),
		btn("❌ رد", "reject_"+code),
	})

	photo := &tele.Photo{
		File:    c.Message().Photo.File,
		Caption: caption,
	}

	adminMsgs := make(map[int64]int)
	for _, adminID := range b.catalog.Admins() {
		msg, err := b.tb.Send(tele.ChatID(adminID), photo, markup)
		if err != nil {
			b.logger.Warn("failed to forward receipt to admin",
				zap.Int64("admin_id", adminID), zap.Error(err))
			continue
		}
		adminMsgs[adminID] = msg.ID
	}

	if len(adminMsgs) == 0 {
		b.logger.Error("receipt reached no admin", zap.String("tracking_code", code))
		return c.Send("خطایی در ثبت سفارش رخ داد. لطفا بعدا دوباره تلاش کنید.")
	}

	order := &models.Order{
		TrackingCode: code,
		UserID:       user.ID,
		PlanID:       d.planID,
		Status:       models.OrderPending,
	}
	if err := b.repos.Order.Create(order, adminMsgs); err != nil {
		b.logger.Error("create order failed", zap.String("tracking_code", code), zap.Error(err))
		return c.Send("خطایی در ثبت سفارش رخ داد. لطفا بعدا دوباره تلاش کنید.")
	}

	b.clearDraft(user.TelegramID)
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))

	return c.Send(fmt.Sprintf(
		"✅ رسید شما دریافت شد.\n\n"+
			"🔖 کد پیگیری: `%s`\n\n"+
			"پس از بررسی توسط ادمین، نتیجه به شما اطلاع داده می‌شود. 🙏", code),
		tele.ModeMarkdown)
}

// ── My accounts ───────────────────────────────────────────────────────

func (b *Bot) showMyAccounts(c tele.Context, user *models.User) error {
	accounts, err := b.repos.Account.FindByTelegramID(user.TelegramID)
	if err != nil {
		b.logger.Error("list accounts failed", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		return sendOrEdit(c, "خطایی رخ داد. لطفا دوباره تلاش کنید.", inline(backRow("back_to_start")))
	}

	if len(accounts) == 0 {
		return sendOrEdit(c, "شما هنوز سرویسی ندارید. از منوی خرید یک سرویس تهیه کنید. 🛒", inline(backRow("back_to_start")))
	}

	var rows [][]tele.InlineButton
	for _, acc := range accounts {
		title := acc.FriendlyName
		if title == "" {
			title = acc.PanelUsername
		}
		rows = append(rows, []tele.InlineButton{
			btn("🔐 "+title, fmt.Sprintf("manage_account_%d", acc.ID)),
		})
	}
	rows = append(rows, backRow("back_to_start"))

	return sendOrEdit(c, "📋 سرویس‌های شما:", inline(rows...))
}

// ownedAccount loads an account and enforces that it belongs to the
// requesting user. Admins can inspect any account.
func (b *Bot) ownedAccount(c tele.Context, user *models.User, rawID string) (*models.Account, bool) {
	id := utils.ParseInt(rawID, 0)
	if id <= 0 {
		_ = c.Respond(&tele.CallbackResponse{Text: "سرویس یافت نشد.", ShowAlert: true})
		return nil, false
	}

	acc, err := b.repos.Account.FindByID(uint(id))
	if err != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: "سرویس یافت نشد.", ShowAlert: true})
		return nil, false
	}
	if acc.User.TelegramID != user.TelegramID && !b.catalog.IsAdmin(user.TelegramID) {
		_ = c.Respond(&tele.CallbackResponse{Text: "⛔️ این سرویس متعلق به شما نیست.", ShowAlert: true})
		return nil, false
	}
	return acc, true
}

func (b *Bot) showAccountDetail(c tele.Context, user *models.User, rawID string) error {
	acc, ok := b.ownedAccount(c, user, rawID)
	if !ok {
		return nil
	}

	title := acc.FriendlyName
	if title == "" {
		title = acc.PanelUsername
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔐 *%s*\n\n", title))
	sb.WriteString(fmt.Sprintf("👤 نام کاربری: `%s`\n", acc.PanelUsername))
	sb.WriteString(fmt.Sprintf("🖥 سرور: %s\n", acc.Panel.Name))

	if pu, err := b.fetchPanelUser(acc); err != nil {
		sb.WriteString("\n⚠️ اطلاعات مصرف در حال حاضر در دسترس نیست.\n")
	} else {
		used := pu.UsedTraffic
		sb.WriteString(fmt.Sprintf("📊 مصرف: %s", utils.FormatTraffic(&used)))
		if pu.DataLimit > 0 {
			limit := pu.DataLimit
			sb.WriteString(fmt.Sprintf(" از %s", utils.FormatTraffic(&limit)))
		}
		sb.WriteString("\n")
		if pu.ExpireTime > 0 {
			sb.WriteString(fmt.Sprintf("⏳ انقضا: %d روز دیگر\n", utils.RemainingDays(pu.ExpireTime)))
		} else {
			sb.WriteString("⏳ انقضا: نامحدود\n")
		}
	}

	markup := inline(
		[]tele.InlineButton{
			btn("🔗 دریافت لینک‌ها", fmt.Sprintf("get_links_%d", acc.ID)),
			btn("✏️ تغییر نام", fmt.Sprintf("rename_account_%d", acc.ID)),
		},
		backRow("my_accounts"),
	)
	return sendOrEdit(c, sb.String(), markup)
}

func (b *Bot) showAccountLinks(c tele.Context, user *models.User, rawID string) error {
	acc, ok := b.ownedAccount(c, user, rawID)
	if !ok {
		return nil
	}

	pu, err := b.fetchPanelUser(acc)
	if err != nil {
		b.logger.Error("fetch panel user failed",
			zap.String("panel_username", acc.PanelUsername), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{
			Text:      "دریافت لینک‌ها با خطا مواجه شد. لطفا بعدا تلاش کنید.",
			ShowAlert: true,
		})
	}

	var sb strings.Builder
	sb.WriteString("🔗 *لینک‌های اتصال شما:*\n\n")
	if pu.SubLink != "" {
		sb.WriteString("📡 لینک اشتراک:\n`" + pu.SubLink + "`\n\n")
	}
	for _, link := range pu.Links {
		sb.WriteString("`" + link + "`\n\n")
	}
	if pu.SubLink == "" && len(pu.Links) == 0 {
		sb.WriteString("لینکی برای این سرویس یافت نشد.")
	}

	_ = c.Respond(&tele.CallbackResponse{})
	return c.Send(sb.String(), inline(backRow(fmt.Sprintf("manage_account_%d", acc.ID))), tele.ModeMarkdown)
}

func (b *Bot) fetchPanelUser(acc *models.Account) (*panel.PanelUser, error) {
	client, err := panel.New(&acc.Panel)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), panelCallTimeout)
	defer cancel()
	return client.GetUser(ctx, acc.PanelUsername)
}

// ── Rename ────────────────────────────────────────────────────────────

func (b *Bot) startAccountRename(c tele.Context, user *models.User, rawID string) error {
	acc, ok := b.ownedAccount(c, user, rawID)
	if !ok {
		return nil
	}

	d := b.getDraft(user.TelegramID)
	d.renameAccountID = acc.ID

	if err := b.repos.User.UpdateStep(user.TelegramID, string(StepAccountRename)); err != nil {
		return c.Send("خطایی رخ داد. لطفا دوباره تلاش کنید.")
	}
	return sendOrEdit(c, "✏️ نام جدید سرویس را ارسال کنید:", inline(backRow(fmt.Sprintf("manage_account_%d", acc.ID))))
}

func (b *Bot) accountRenameInput(c tele.Context, user *models.User) error {
	name := strings.TrimSpace(c.Text())
	if name == "" || len(name) > 100 {
		return c.Send("نام باید بین ۱ تا ۱۰۰ کاراکتر باشد. دوباره تلاش کنید:")
	}

	d := b.getDraft(user.TelegramID)
	id := d.renameAccountID
	if id == 0 {
		b.clearDraft(user.TelegramID)
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
		return b.sendMainMenu(c, user.TelegramID, "")
	}

	acc, err := b.repos.Account.FindByID(id)
	if err != nil || (acc.User.TelegramID != user.TelegramID && !b.catalog.IsAdmin(user.TelegramID)) {
		b.clearDraft(user.TelegramID)
		_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
		return c.Send("سرویس یافت نشد.")
	}

	if err := b.repos.Account.UpdateFriendlyName(id, name); err != nil {
		b.logger.Error("rename account failed", zap.Uint("account_id", id), zap.Error(err))
		return c.Send("خطایی رخ داد. لطفا دوباره تلاش کنید.")
	}

	b.clearDraft(user.TelegramID)
	_ = b.repos.User.UpdateStep(user.TelegramID, string(StepNone))
	return c.Send(fmt.Sprintf("✅ نام سرویس به «%s» تغییر کرد.", name))
}
