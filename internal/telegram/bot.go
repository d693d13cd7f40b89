// Package telegram is a chat front end over the session controller: plain
// messages are ingredient lists, commands adjust the draft, and inline
// keyboards drive the shopping list.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecochef/internal/app"
	"ecochef/internal/auth"
	"ecochef/internal/config"
	"ecochef/internal/locale"
	"ecochef/internal/metrics"
	"ecochef/internal/planner"
	"ecochef/internal/selection"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// UsageReader reports token usage for the /metrics command.
type UsageReader interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Bot wraps the Telegram API and the session controller.
type Bot struct {
	api     API
	app     *app.App
	usage   UsageReader
	cfg     *config.Config
	log     *zap.Logger
	started time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, usage UsageReader, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Info("webhook set", zap.String("response", resp.Description))

	return newBot(api, cfg, a, usage, log), nil
}

func newBot(api API, cfg *config.Config, a *app.App, usage UsageReader, log *zap.Logger) *Bot {
	return &Bot{api: api, app: a, usage: usage, cfg: cfg, log: log, started: time.Now()}
}

// Handler serves the webhook endpoint.
func (b *Bot) Handler() http.Handler {
	return http.HandlerFunc(b.handleWebhook)
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.log.Warn("error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	// Generation outlives the webhook call; Telegram only needs a 200.
	go b.HandleUpdate(context.Background(), update)
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.processMessage(ctx, update.Message)
	}
}

// principalFor signs in allow-listed users; everyone else chats as a guest
// keyed by their Telegram id.
func (b *Bot) principalFor(userID int64) auth.Principal {
	id := strconv.FormatInt(userID, 10)
	for _, allowed := range b.cfg.TelegramAllowedUserIDs {
		if allowed == userID {
			return auth.Identity{UserID: "telegram-" + id}
		}
	}
	return auth.Guest{SessionID: "telegram-" + id}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	p := b.principalFor(msg.From.ID)
	if !msg.IsCommand() {
		b.handlePlannerRequest(ctx, p, msg)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "days":
		b.updateDraft(ctx, p, msg.Chat.ID, func(d *app.Draft) error {
			n, err := strconv.Atoi(args)
			if err != nil {
				return &planner.ValidationError{Fields: []string{"days"}}
			}
			d.Days = n
			return nil
		})
	case "diet":
		b.updateDraft(ctx, p, msg.Chat.ID, func(d *app.Draft) error {
			d.DietaryRestrictions = args
			return nil
		})
	case "lang":
		b.updateDraft(ctx, p, msg.Chat.ID, func(d *app.Draft) error {
			l, err := locale.Parse(args)
			if err != nil {
				return &planner.ValidationError{Fields: []string{"language"}}
			}
			d.Language = l
			return nil
		})
	case "reset":
		b.app.Reset(p)
		b.reply(msg.Chat.ID, "🧹 Plan cleared.")
	case "history":
		b.handleHistoryCommand(ctx, p, msg.Chat.ID)
	case "recipes":
		b.handleRecipesCommand(ctx, p, msg.Chat.ID)
	case "metrics":
		b.handleMetricsRequest(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "🤔 Unknown command. Send /help for the list.")
	}
}

const helpText = "🥦 *EcoChef*\n\n" +
	"Send me what you have in the kitchen, for example `rice, beans, onion`, and I will plan your meals.\n\n" +
	"/days N: days to plan (1-7)\n" +
	"/diet text: dietary restrictions\n" +
	"/lang es|en|zh|pt: answer language\n" +
	"/history: saved shopping lists\n" +
	"/recipes: saved recipes\n" +
	"/reset: forget the current plan"

func (b *Bot) updateDraft(ctx context.Context, p auth.Principal, chatID int64, fn func(*app.Draft) error) {
	d, err := b.app.Draft(ctx, p)
	if err == nil {
		err = fn(&d)
	}
	if err == nil {
		err = b.app.SaveDraft(ctx, p, d)
	}
	if err != nil {
		b.replyError(chatID, d.Language, err)
		return
	}
	diet := d.DietaryRestrictions
	if diet == "" {
		diet = d.Language.NoneRestriction()
	}
	b.reply(chatID, fmt.Sprintf("⚙️ *Settings*\nDays: %d\nDiet: %s\nLanguage: %s", d.Days, esc(diet), d.Language.Name()))
}

func (b *Bot) handlePlannerRequest(ctx context.Context, p auth.Principal, msg *tgbotapi.Message) {
	d, err := b.app.Draft(ctx, p)
	if err != nil {
		b.log.Warn("failed to load draft", zap.Error(err))
	}
	d.IngredientsText = msg.Text
	req := d.Request()
	if !req.HasIngredients() {
		return
	}

	sent, err := b.api.Send(markdown(tgbotapi.NewMessage(msg.Chat.ID, "🧑‍🍳 *Thinking...*\n(Analyzing your ingredients and planning your meals)")))
	if err != nil {
		b.log.Warn("failed to send initial reply", zap.Error(err))
		return
	}

	b.log.Info("generating plan", zap.String("owner", p.Owner()), zap.Int("days", req.Days))
	view, err := b.app.Generate(ctx, p, req)
	b.sendPlanResult(msg.Chat.ID, sent.MessageID, d.Language, view, err)
}

// sendPlanResult replaces the status message with the plan, then sends the
// shopping list and the recipes with their keyboards.
func (b *Bot) sendPlanResult(chatID int64, statusID int, lang locale.Language, view *app.PlanView, err error) {
	if err != nil {
		var ge *planner.GenerationError
		if errors.As(err, &ge) {
			b.sendAdminAlert(fmt.Sprintf("⚠️ *Generation failed*\nReason: %s", ge.Reason))
		}
		edit := tgbotapi.NewEditMessageText(chatID, statusID, "❌ "+userMessage(lang, err))
		b.send(edit)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, statusID, formatPlanMarkdown(view.Plan))
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)

	list := markdown(tgbotapi.NewMessage(chatID, "🛒 *Shopping List*\nTap what you already have or bought."))
	list.ReplyMarkup = shoppingKeyboard(view)
	b.send(list)

	chunks := splitMessage(formatRecipesMarkdown(view.Plan.Recipes), maxMessageLen)
	for i, chunk := range chunks {
		m := markdown(tgbotapi.NewMessage(chatID, chunk))
		if i == len(chunks)-1 {
			m.ReplyMarkup = recipesKeyboard(view)
		}
		b.send(m)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.From == nil {
		return
	}
	p := b.principalFor(query.From.ID)
	chatID, msgID := query.Message.Chat.ID, query.Message.MessageID

	cb, err := parseCallback(query.Data)
	if err != nil {
		b.log.Warn("ignoring callback", zap.Error(err))
		b.answer(query.ID, "")
		return
	}

	lang := locale.Default
	if d, derr := b.app.Draft(ctx, p); derr == nil {
		lang = d.Language
	}

	// Every keyboard belongs to the plan it was rendered for.
	view, err := b.planOf(ctx, p, cb.generation)
	if err != nil {
		b.answer(query.ID, userMessage(lang, err))
		return
	}

	switch cb.action {
	case actionToggle:
		err := b.toggleItem(p, view, cb.args[0], cb.args[1])
		if err == nil {
			view, err = b.app.CurrentPlan(ctx, p)
		}
		if err != nil {
			b.answer(query.ID, userMessage(lang, err))
			return
		}
		b.answer(query.ID, "")
		b.send(tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, shoppingKeyboard(view)))

	case actionSave:
		item, err := b.app.SaveSelection(ctx, p)
		switch {
		case err != nil:
			b.answer(query.ID, userMessage(lang, err))
		case item == nil:
			b.answer(query.ID, "Nothing checked yet.")
		default:
			b.answer(query.ID, fmt.Sprintf("💾 Saved %d items.", item.ItemCount()))
		}

	case actionRecalculate:
		b.answer(query.ID, "")
		sent, err := b.api.Send(markdown(tgbotapi.NewMessage(chatID, "🧑‍🍳 *Thinking...*")))
		if err != nil {
			b.log.Warn("failed to send status", zap.Error(err))
			return
		}
		view, err := b.app.Recalculate(ctx, p)
		b.sendPlanResult(chatID, sent.MessageID, lang, view, err)

	case actionFavourite:
		var err error
		if cb.args[0] >= len(view.Plan.Recipes) {
			err = selection.ErrUnknownItem
		}
		if err == nil {
			_, err = b.app.ToggleSavedRecipe(ctx, p, view.Plan.Recipes[cb.args[0]].Title)
		}
		if err == nil {
			view, err = b.app.CurrentPlan(ctx, p)
		}
		if err != nil {
			b.answer(query.ID, userMessage(lang, err))
			return
		}
		b.answer(query.ID, "")
		b.send(tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, recipesKeyboard(view)))
	}
}

// planOf returns the current plan if it is still the given generation.
func (b *Bot) planOf(ctx context.Context, p auth.Principal, generation uint64) (*app.PlanView, error) {
	view, err := b.app.CurrentPlan(ctx, p)
	if err != nil {
		return nil, err
	}
	if view.Generation != generation {
		return nil, app.ErrStalePlan
	}
	return view, nil
}

func (b *Bot) toggleItem(p auth.Principal, view *app.PlanView, ci, ii int) error {
	list := view.Plan.ShoppingList
	if ci >= len(list) || ii >= len(list[ci].Items) {
		return selection.ErrUnknownItem
	}
	k := selection.Key{CategoryIndex: ci, ItemIndex: ii, Text: list[ci].Items[ii]}
	_, err := b.app.ToggleItemIn(p, view.Generation, k)
	return err
}

func (b *Bot) handleHistoryCommand(ctx context.Context, p auth.Principal, chatID int64) {
	d, _ := b.app.Draft(ctx, p)
	groups, err := b.app.History(ctx, p, d.Language)
	if err != nil {
		b.replyError(chatID, d.Language, err)
		return
	}
	for _, chunk := range splitMessage(formatHistoryMarkdown(groups), maxMessageLen) {
		b.reply(chatID, chunk)
	}
}

func (b *Bot) handleRecipesCommand(ctx context.Context, p auth.Principal, chatID int64) {
	d, _ := b.app.Draft(ctx, p)
	groups, err := b.app.SavedRecipes(ctx, p, d.Language)
	if err != nil {
		b.replyError(chatID, d.Language, err)
		return
	}
	for _, chunk := range splitMessage(formatSavedRecipesMarkdown(groups), maxMessageLen) {
		b.reply(chatID, chunk)
	}
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if b.cfg.AdminTelegramID == 0 || msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	var usage []metrics.DailyUsage
	if b.usage != nil {
		var err error
		usage, err = b.usage.GetDailyUsage(ctx, 7)
		if err != nil {
			b.log.Error("failed to fetch usage", zap.Error(err))
			b.reply(msg.Chat.ID, "❌ Error fetching metrics.")
			return
		}
	}
	b.reply(msg.Chat.ID, formatMetricsMarkdown(usage, metrics.GetSysHealth(b.cfg.DataDir, b.started)))
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.reply(b.cfg.AdminTelegramID, text)
}

// userMessage turns an error into something safe to show in chat.
func userMessage(lang locale.Language, err error) string {
	var ve *planner.ValidationError
	switch {
	case errors.Is(err, auth.ErrSignInRequired):
		return lang.SignInRequired()
	case errors.Is(err, app.ErrBusy):
		return "⏳ Still working on your previous plan."
	case errors.Is(err, app.ErrNoPlan):
		return "Send me your ingredients first."
	case errors.Is(err, app.ErrStalePlan),
		errors.Is(err, selection.ErrUnknownItem):
		return "That item is no longer on the list."
	case errors.As(err, &ve):
		return "Invalid " + strings.Join(ve.Fields, ", ") + "."
	default:
		return lang.GenerationFailed()
	}
}

func markdown(m tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	m.ParseMode = tgbotapi.ModeMarkdown
	return m
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(markdown(tgbotapi.NewMessage(chatID, text)))
}

func (b *Bot) replyError(chatID int64, lang locale.Language, err error) {
	b.log.Info("request rejected", zap.Error(err))
	b.send(tgbotapi.NewMessage(chatID, "❌ "+userMessage(lang, err)))
}

func (b *Bot) answer(queryID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		b.log.Warn("failed to answer callback", zap.Error(err))
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("failed to send telegram message", zap.Error(err))
	}
}
