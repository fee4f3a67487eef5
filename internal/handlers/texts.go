package handlers

const (
	textStart = "👋 Hello!\n\nUse /post to prepare a scheduled post."

	textAskPhoto   = "📷 Send the photo for the post (or /cancel)."
	textAskCaption = "✍️ Send the caption. HTML formatting is allowed. Send skip for none."
	textAskButtons = "🔗 Send buttons, one per line:\nLabel | https://example.com\nSend skip for none."
	textAskTime    = "⏰ When should it be published? Send now, a date like 2025-12-25 06:00, or in 2h30m."
	textAskFile    = "📎 Send a file to publish after the post, or skip."
	textBadTime    = "❌ Could not understand that time. Try 2025-12-25 06:00, in 45m or now."
	textCancelled  = "🚫 Draft discarded."
	textNoDraft    = "Nothing to cancel."
	textNotAllowed = "⛔ Only group admins can prepare posts."
	textSchedFail  = "❌ Could not schedule the post, try again."
	textPublishNow = "✅ Post accepted, publishing now."
	textScheduled  = "✅ Post scheduled for %s (in %s)."

	textAdminsOnly    = "⛔ This command is for admins only."
	textReplyToTarget = "↩️ Reply to the message of the user you mean. Bots and admins can't be targeted."
	textActionFailed  = "❌ Action failed, please try again later."

	textWarned          = "⚠️ %s has been warned (%d/%d)."
	textWarnBanned      = "🔨 %s reached %d warnings and has been banned."
	textWarnBanFailed   = "⚠️ %s has %d/%d warnings, but the ban failed. Warn again to retry."
	textWarnBannedStuck = "🔨 %s has been banned, but the %d warnings could not be cleared."
	textWarnCount       = "ℹ️ %s has %d/%d warnings."
	textWarnListHead    = "📋 Warned users:"
	textNoWarns         = "✨ Nobody has warnings here."
	textWarnsReset      = "♻️ Warnings of %s have been reset."
	textMuted           = "🔇 %s is muted for %d h (until %s)."
	textUnmuted         = "🔊 %s can talk again."
	textBanned          = "🔨 %s has been banned."
	textUnbanned        = "✅ %s has been unbanned."
)
