package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"ecochef/internal/app"
	"ecochef/internal/metrics"
	"ecochef/internal/planner"
	"ecochef/internal/recipe"
	"ecochef/internal/selection"
	"ecochef/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram rejects messages longer than this.
const maxMessageLen = 4096

// Callback actions. Callback data is capped at 64 bytes, so buttons carry
// the plan generation and positions in that plan instead of text.
const (
	actionToggle      = "t"
	actionRecalculate = "r"
	actionSave        = "s"
	actionFavourite   = "f"
)

// callbackArgs is the number of positions each action carries after the
// generation.
var callbackArgs = map[string]int{
	actionToggle:      2,
	actionFavourite:   1,
	actionRecalculate: 0,
	actionSave:        0,
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatPlanMarkdown(plan *planner.PlanResponse) string {
	var pb strings.Builder
	pb.WriteString("🥗 *Analysis*\n")
	pb.WriteString(esc(plan.Analysis.Summary) + "\n")
	if plan.Analysis.MissingMacros != "" {
		pb.WriteString(fmt.Sprintf("_Missing:_ %s\n", esc(plan.Analysis.MissingMacros)))
	}

	stats := plan.NutritionalStats
	pb.WriteString("\n📊 *Nutrition*\n")
	pb.WriteString(fmt.Sprintf("• %.0f kcal/day\n", stats.AverageDailyCalories))
	pb.WriteString(fmt.Sprintf("• Protein %s · Carbs %s · Fats %s\n",
		esc(stats.MacroSplit.Protein), esc(stats.MacroSplit.Carbs), esc(stats.MacroSplit.Fats)))
	if stats.Note != "" {
		pb.WriteString(fmt.Sprintf("_%s_\n", esc(stats.Note)))
	}

	pb.WriteString("\n📅 *Meal Plan*\n\n")
	day := ""
	for _, item := range plan.Plan {
		if item.Day != day {
			day = item.Day
			pb.WriteString(fmt.Sprintf("*%s*\n", esc(day)))
		}
		pb.WriteString(fmt.Sprintf("• %s: %s", esc(item.MealType), esc(item.Meal)))
		var extra []string
		if item.PrepTime != "" {
			extra = append(extra, esc(item.PrepTime))
		}
		if item.Cost != "" {
			extra = append(extra, esc(item.Cost))
		}
		if len(extra) > 0 {
			pb.WriteString(" (" + strings.Join(extra, ", ") + ")")
		}
		pb.WriteString("\n")
	}
	return pb.String()
}

func formatRecipesMarkdown(recipes []recipe.Recipe) string {
	var rb strings.Builder
	rb.WriteString("👩‍🍳 *Recipes*\n")
	for _, r := range recipes {
		rb.WriteString(fmt.Sprintf("\n*%s*\n", esc(r.Title)))
		for i, step := range r.Steps {
			rb.WriteString(fmt.Sprintf("%d. %s\n", i+1, esc(step)))
		}
		if r.ChefTips != "" {
			rb.WriteString(fmt.Sprintf("💡 _%s_\n", esc(r.ChefTips)))
		}
	}
	return rb.String()
}

// shoppingKeyboard renders one button per list item plus the actions on
// the selection.
func shoppingKeyboard(view *app.PlanView) tgbotapi.InlineKeyboardMarkup {
	checked := make(map[selection.Key]bool, len(view.Checked))
	for _, k := range view.Checked {
		checked[k] = true
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for ci, cat := range view.Plan.ShoppingList {
		for ii, item := range cat.Items {
			box := "⬜"
			if checked[selection.Key{CategoryIndex: ci, ItemIndex: ii, Text: item}] {
				box = "✅"
			}
			label := fmt.Sprintf("%s %s · %s", box, item, cat.Category)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, callbackData(actionToggle, view.Generation, ci, ii)),
			))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Recalculate", callbackData(actionRecalculate, view.Generation)),
		tgbotapi.NewInlineKeyboardButtonData("💾 Save list", callbackData(actionSave, view.Generation)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// recipesKeyboard renders a favourite toggle per recipe of the plan.
func recipesKeyboard(view *app.PlanView) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, r := range view.Plan.Recipes {
		star := "☆"
		if view.Saved[r.Title] {
			star = "⭐"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(star+" "+r.Title, callbackData(actionFavourite, view.Generation, i)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// callback is a parsed button press.
type callback struct {
	action     string
	generation uint64
	args       []int
}

func callbackData(action string, generation uint64, args ...int) string {
	parts := []string{action, strconv.FormatUint(generation, 10)}
	for _, a := range args {
		parts = append(parts, strconv.Itoa(a))
	}
	return strings.Join(parts, "|")
}

// parseCallback reads "action|generation|n|m".
func parseCallback(data string) (callback, error) {
	parts := strings.Split(data, "|")
	n, ok := callbackArgs[parts[0]]
	if !ok || len(parts) != n+2 {
		return callback{}, fmt.Errorf("unknown callback %q", data)
	}
	gen, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || gen == 0 {
		return callback{}, fmt.Errorf("malformed callback data %q", data)
	}
	cb := callback{action: parts[0], generation: gen, args: make([]int, 0, n)}
	for _, p := range parts[2:] {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return callback{}, fmt.Errorf("malformed callback data %q", data)
		}
		cb.args = append(cb.args, v)
	}
	return cb, nil
}

func formatHistoryMarkdown(groups []shopping.WeekGroup) string {
	if len(groups) == 0 {
		return "🗂 _No saved shopping lists yet._"
	}
	var hb strings.Builder
	hb.WriteString("🗂 *Shopping history*\n")
	for _, g := range groups {
		hb.WriteString(fmt.Sprintf("\n*%s*\n", esc(g.Label)))
		for _, item := range g.Items {
			hb.WriteString(fmt.Sprintf("_%s_ · %d items\n", item.Date.Format("Mon 02 Jan 15:04"), item.ItemCount()))
			for ci, cat := range item.List {
				var names []string
				for ii, name := range cat.Items {
					ref := shopping.ItemRef{CategoryIndex: ci, ItemIndex: ii, Text: name}
					if item.IsChecked(ref) {
						name = "✓ " + name
					}
					names = append(names, esc(name))
				}
				hb.WriteString(fmt.Sprintf("• %s: %s\n", esc(cat.Category), strings.Join(names, ", ")))
			}
		}
	}
	return hb.String()
}

func formatSavedRecipesMarkdown(groups []recipe.WeekGroup) string {
	if len(groups) == 0 {
		return "⭐ _No saved recipes yet._"
	}
	var sb strings.Builder
	sb.WriteString("⭐ *Saved recipes*\n")
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", esc(g.Label)))
		for _, r := range g.Recipes {
			sb.WriteString(fmt.Sprintf("• %s (%d steps)\n", esc(r.Title), len(r.Steps)))
		}
	}
	return sb.String()
}

func formatMetricsMarkdown(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	return sb.String()
}

// splitMessage cuts text on line boundaries into chunks Telegram accepts.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			cut := runeCut(line, limit)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// runeCut returns the largest offset no greater than limit that does not
// split a UTF-8 sequence. It always advances by at least one rune.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}
