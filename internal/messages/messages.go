package messages

import (
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-post-guard/internal/models"
)

const (
	CbAbout   = "about"
	CbHelp    = "help"
	CbContact = "contact"
	CbRules   = "rules"
)

const (
	btnAbout   = "📚 About"
	btnHelp    = "❓ Help"
	btnWebsite = "🌐 Website"
	btnContact = "📞 Contact"
	btnRules   = "📜 Rules"
	btnGreet   = "👥 Say hello"
)

// --- scheduled post ---------------------

// Keyboard puts every button on its own row.
func Keyboard(buttons []models.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func Post(d models.PostDraft) tgbotapi.PhotoConfig {
	photo := tgbotapi.NewPhoto(d.TargetChatID, tgbotapi.FileID(d.PhotoRef))
	photo.Caption = d.Caption
	photo.ParseMode = tgbotapi.ModeHTML
	if len(d.Buttons) > 0 {
		photo.ReplyMarkup = Keyboard(d.Buttons)
	}
	return photo
}

func File(d models.PostDraft) tgbotapi.DocumentConfig {
	return tgbotapi.NewDocument(d.TargetChatID, tgbotapi.FileID(d.FileRef))
}

// --- static menus -----------------------

func StartMenu(websiteURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnAbout, CbAbout),
			tgbotapi.NewInlineKeyboardButtonData(btnHelp, CbHelp),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(btnWebsite, websiteURL),
			tgbotapi.NewInlineKeyboardButtonData(btnContact, CbContact),
		),
	)
}

// MenuText returns the text shown when a static menu button is pressed.
func MenuText(data, contact string) (string, bool) {
	switch data {
	case CbAbout:
		return "👋 Hello!\n\nThis bot keeps the group tidy and publishes scheduled posts.", true
	case CbHelp:
		return "❓ Need help?\n" +
			"- press /start\n" +
			"- /post to prepare a scheduled post\n" +
			"- contact an admin: " + html.EscapeString(contact), true
	case CbContact:
		return "📞 Contact\n👇 Admin account\n👉 " + html.EscapeString(contact), true
	case CbRules:
		return "📜 <b>Group rules</b>\n\n" +
			"1. Be polite\n" +
			"2. No spam or ads\n" +
			"3. Do not share off-topic content\n\n" +
			"Breaking the rules gets you removed from the group.", true
	}
	return "", false
}

// --- welcome ----------------------------

func Mention(u *tgbotapi.User) string {
	name := u.FirstName
	if name == "" {
		name = u.UserName
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, html.EscapeString(name))
}

// MentionID links a user known only by id.
func MentionID(id int64) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%d</a>`, id, id)
}

func Welcome(chatID int64, chatTitle, chatUsername string, u *tgbotapi.User) tgbotapi.MessageConfig {
	text := fmt.Sprintf("👋 Hello, %s!\n\n🎉 Welcome to <b>%s</b>.\n\n",
		Mention(u), html.EscapeString(chatTitle))

	link := "https://t.me"
	if chatUsername != "" {
		link = "https://t.me/" + chatUsername
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnRules, CbRules),
			tgbotapi.NewInlineKeyboardButtonURL(btnGreet, link),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnHelp, CbHelp),
		),
	)
	return msg
}
