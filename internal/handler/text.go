package handler

import "marry-fun-bot/internal/model"

// texts holds the bot's reply strings for one locale.
type texts struct {
	greeting        string
	resumed         string
	groupOnly       string
	remaining       string
	gained          string
	total           string
	gameOver        string
	comeBack        string
	completed       string
	messageLength   string
	noSession       string
	chatLimit       string
	gameOverBlocked string
	busy            string
	genericError    string
	points          string
	noTransactions  string
	totalBoard      string
	dailyBoard      string
	noData          string
	userNotFound    string
	adminUsage      string
	adminDone       string
	adminDuplicate  string
}

var catalog = map[model.Locale]*texts{
	model.LocaleEN: {
		greeting:        "💌 Your date today: %s\n\n%s\n\n💬 %d messages left",
		resumed:         "💌 Welcome back! Your date with %s continues.\n💬 %d messages left",
		groupOnly:       "💌 Send me /start in a private chat to play.",
		remaining:       "💬 %d messages left",
		gained:          "❤️ +%d points",
		total:           "💰 Total: %d points",
		gameOver:        "💔 GAME OVER\n\n%s\n\n🚫 Taboo word: %s",
		comeBack:        "Come back tomorrow for a new date.",
		completed:       "🎉 That's all for today. Come back tomorrow!",
		messageLength:   "❌ Messages must be 1 to %d characters.",
		noSession:       "❌ You have no date in progress. Send /start to begin.",
		chatLimit:       "❌ Today's date is over. Come back tomorrow!",
		gameOverBlocked: "💔 You already lost today. Come back tomorrow!",
		busy:            "⏳ Still thinking about your last message...",
		genericError:    "❌ Something went wrong, please try again later.",
		points:          "💰 Balance: %d points",
		noTransactions:  "No point history yet.",
		totalBoard:      "🏆 All-time TOP %d",
		dailyBoard:      "📅 Today TOP %d",
		noData:          "No data yet",
		userNotFound:    "❌ User not found.",
		adminUsage:      "❌ Usage: /admin_points <user_id> <amount> [reason]\nExample: /admin_points 123456789 50 event bonus",
		adminDone:       "✅ Done\n\n👤 User: %s (ID: %d)\n➕ Change: %+d\n💰 Balance: %d",
		adminDuplicate:  "ℹ️ Already applied. Balance: %d",
	},
	model.LocaleJA: {
		greeting:        "💌 今日のお相手: %s\n\n%s\n\n💬 残り %d 回",
		resumed:         "💌 おかえりなさい！%s とのデートの続きです。\n💬 残り %d 回",
		groupOnly:       "💌 プライベートチャットで /start を送ってね。",
		remaining:       "💬 残り %d 回",
		gained:          "❤️ +%d ポイント",
		total:           "💰 合計: %d ポイント",
		gameOver:        "💔 ゲームオーバー\n\n%s\n\n🚫 NGワード: %s",
		comeBack:        "また明日来てね。",
		completed:       "🎉 今日のデートはここまで。また明日！",
		messageLength:   "❌ メッセージは 1〜%d 文字で送ってね。",
		noSession:       "❌ 進行中のデートがありません。/start で始めてね。",
		chatLimit:       "❌ 今日のデートは終わりました。また明日！",
		gameOverBlocked: "💔 今日はもうゲームオーバーです。また明日！",
		busy:            "⏳ 前のメッセージを考え中…",
		genericError:    "❌ エラーが発生しました。しばらくしてからもう一度試してね。",
		points:          "💰 残高: %d ポイント",
		noTransactions:  "ポイント履歴はまだありません。",
		totalBoard:      "🏆 累計 TOP %d",
		dailyBoard:      "📅 今日の TOP %d",
		noData:          "データなし",
		userNotFound:    "❌ ユーザーが見つかりません。",
		adminUsage:      "❌ 使い方: /admin_points <ユーザーID> <数> [理由]\n例: /admin_points 123456789 50 イベント",
		adminDone:       "✅ 完了\n\n👤 ユーザー: %s (ID: %d)\n➕ 変更: %+d\n💰 残高: %d",
		adminDuplicate:  "ℹ️ 適用済みです。残高: %d",
	},
}

func textsFor(locale model.Locale) *texts {
	if t, ok := catalog[locale]; ok {
		return t
	}
	return catalog[model.LocaleEN]
}
