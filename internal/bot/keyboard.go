package bot

import (
	tele "gopkg.in/telebot.v3"
)

// btn builds a raw inline button with callback data.
func btn(text, data string) tele.InlineButton {
	return tele.InlineButton{Text: text, Data: data}
}

func inline(rows ...[]tele.InlineButton) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func backRow(data string) []tele.InlineButton {
	return []tele.InlineButton{btn("🔙 بازگشت", data)}
}

func (b *Bot) mainMenuMarkup(chatID int64) *tele.ReplyMarkup {
	rows := [][]tele.InlineButton{
		{btn("🛒 خرید سرویس", "buy_service")},
		{btn("📋 سرویس‌های من", "my_accounts"), btn("💰 لیست قیمت", "price_list")},
	}
	if b.catalog.IsAdmin(chatID) {
		rows = append(rows, []tele.InlineButton{btn("🔐 پنل مدیریت", "admin_panel_show")})
	}
	return inline(rows...)
}

func (b *Bot) mainMenuText(extra string) string {
	settings := b.catalog.Settings()
	name := settings.BotName
	if name == "" {
		name = "فروشگاه VPN"
	}
	text := "👋 به *" + name + "* خوش آمدید!\n\nاز منوی زیر یکی از گزینه‌ها را انتخاب کنید:"
	if extra != "" {
		text = extra + "\n\n" + text
	}
	return text
}

func (b *Bot) sendMainMenu(c tele.Context, chatID int64, extra string) error {
	return c.Send(b.mainMenuText(extra), b.mainMenuMarkup(chatID), tele.ModeMarkdown)
}

func (b *Bot) editMainMenu(c tele.Context, chatID int64, extra string) error {
	if err := c.Edit(b.mainMenuText(extra), b.mainMenuMarkup(chatID), tele.ModeMarkdown); err != nil {
		return c.Send(b.mainMenuText(extra), b.mainMenuMarkup(chatID), tele.ModeMarkdown)
	}
	return nil
}

func adminMenuMarkup() *tele.ReplyMarkup {
	return inline(
		[]tele.InlineButton{btn("🖥 مدیریت پنل‌ها", "manage_panels"), btn("📦 مدیریت پلن‌ها", "manage_plans")},
		[]tele.InlineButton{btn("👥 مدیریت ادمین‌ها", "manage_admins"), btn("🛠 حالت تعمیرات", "manage_maintenance")},
		[]tele.InlineButton{btn("📢 کانال اجباری", "manage_channel"), btn("📣 پیام همگانی", "broadcast_start")},
		[]tele.InlineButton{btn("📊 آمار ربات", "admin_stats")},
		backRow("back_to_start"),
	)
}
