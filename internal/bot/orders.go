package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"vpnshop/internal/models"
	"vpnshop/internal/repository"
)

// handleOrderDecision processes a confirm_/reject_ button press under a
// fanned-out receipt. The pending order is claimed atomically before any
// side effect runs, so a double-tap or a second admin racing the first
// resolves the order exactly once.
func (b *Bot) handleOrderDecision(c tele.Context, data string) error {
	adminID := c.Sender().ID
	if !b.catalog.IsAdmin(adminID) {
		return c.Respond(&tele.CallbackResponse{Text: "⛔️ شما دسترسی به این بخش را ندارید.", ShowAlert: true})
	}

	approve := strings.HasPrefix(data, "confirm_")
	code := strings.TrimPrefix(strings.TrimPrefix(data, "confirm_"), "reject_")

	order, err := b.repos.Order.FindByTrackingCode(code)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "سفارش یافت نشد.", ShowAlert: true})
	}

	adminName := senderName(c.Sender())
	status := models.OrderRejected
	if approve {
		status = models.OrderConfirmed
	}

	if err := b.repos.Order.Resolve(code, status, adminName); err != nil {
		if errors.Is(err, repository.ErrOrderResolved) {
			return c.Respond(&tele.CallbackResponse{
				Text:      "این سفارش قبلا توسط ادمین دیگری پردازش شده است.",
				ShowAlert: true,
			})
		}
		b.logger.Error("resolve order failed", zap.String("tracking_code", code), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد.", ShowAlert: true})
	}

	if !approve {
		b.finishDecision(c, order, fmt.Sprintf("❌ رد شده توسط %s", adminName))
		b.notifyBuyer(order, rejectionNotice(code))
		return c.Respond(&tele.CallbackResponse{Text: "سفارش رد شد."})
	}

	_ = c.Respond(&tele.CallbackResponse{Text: "در حال ساخت سرویس..."})

	if err := b.provisionOrder(order); err != nil {
		b.logger.Error("provisioning failed",
			zap.String("tracking_code", code), zap.Error(err))

		if err := b.repos.Order.MarkFailed(code); err != nil {
			b.logger.Error("mark order failed", zap.String("tracking_code", code), zap.Error(err))
		}

		b.finishDecision(c, order, "⚠️ تایید شد ولی ساخت سرویس شکست خورد")
		b.notifyBuyer(order, provisionFailureNotice(code))
		b.notifyRootAdmin(fmt.Sprintf(
			"🚨 ساخت سرویس برای سفارش %s شکست خورد:\n%v", code, err))
		return nil
	}

	b.finishDecision(c, order, fmt.Sprintf("✅ تایید شده توسط %s", adminName))
	return nil
}

// Buyer notices always carry the tracking code; it is the only handle a
// buyer has when talking to support.

func rejectionNotice(code string) string {
	return fmt.Sprintf(
		"❌ متاسفانه پرداخت شما تایید نشد.\n\n🔖 کد پیگیری: `%s`\n\nدر صورت اعتراض با پشتیبانی در تماس باشید.", code)
}

func provisionFailureNotice(code string) string {
	return fmt.Sprintf(
		"⚠️ پرداخت شما تایید شد اما ساخت سرویس با خطا مواجه شد.\n\n"+
			"🔖 کد پیگیری: `%s`\n\nپشتیبانی به زودی مشکل را پیگیری می‌کند.", code)
}

// provisionOrder runs the panel pipeline for a claimed order and
// delivers the result to the buyer.
func (b *Bot) provisionOrder(order *models.Order) error {
	plan, ok := b.catalog.Plan(order.PlanID)
	if !ok {
		return fmt.Errorf("plan %q no longer exists", order.PlanID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*panelCallTimeout)
	defer cancel()

	delivery, err := b.prov.Provision(ctx, &order.User, plan)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("🎉 *سرویس شما آماده است!*\n\n")
	sb.WriteString(fmt.Sprintf("📦 پلن: %s\n", plan.Name))
	sb.WriteString(fmt.Sprintf("👤 نام کاربری: `%s`\n", delivery.Account.PanelUsername))
	sb.WriteString(fmt.Sprintf("🔖 کد پیگیری: `%s`\n\n", order.TrackingCode))
	if delivery.SubLink != "" {
		sb.WriteString("📡 لینک اشتراک:\n`" + delivery.SubLink + "`\n\n")
	}
	for _, link := range delivery.Links {
		sb.WriteString("`" + link + "`\n\n")
	}
	sb.WriteString("از بخش «سرویس‌های من» می‌توانید وضعیت سرویس را ببینید.")

	if _, err := b.tb.Send(tele.ChatID(order.User.TelegramID), sb.String(), tele.ModeMarkdown); err != nil {
		// The account exists either way; delivery failure is not a
		// provisioning failure.
		b.logger.Error("failed to deliver links to buyer",
			zap.Int64("telegram_id", order.User.TelegramID), zap.Error(err))
		b.notifyRootAdmin(fmt.Sprintf(
			"⚠️ سرویس سفارش %s ساخته شد ولی ارسال لینک به کاربر ناموفق بود.", order.TrackingCode))
	}
	return nil
}

// finishDecision stamps the outcome onto every admin's copy of the
// receipt so the buttons disappear everywhere at once.
func (b *Bot) finishDecision(c tele.Context, order *models.Order, verdict string) {
	caption := ""
	if msg := c.Message(); msg != nil {
		caption = msg.Caption
	}
	stamped := caption + "\n\n" + verdict

	for adminID, msgID := range b.repos.Order.AdminMessageIDs(order) {
		stored := tele.StoredMessage{
			ChatID:    adminID,
			MessageID: strconv.Itoa(msgID),
		}
		if _, err := b.tb.EditCaption(stored, stamped); err != nil {
			b.logger.Debug("failed to stamp admin copy",
				zap.Int64("admin_id", adminID), zap.Error(err))
		}
	}
}

func (b *Bot) notifyBuyer(order *models.Order, text string) {
	if _, err := b.tb.Send(tele.ChatID(order.User.TelegramID), text, tele.ModeMarkdown); err != nil {
		b.logger.Error("failed to notify buyer",
			zap.Int64("telegram_id", order.User.TelegramID), zap.Error(err))
	}
}
