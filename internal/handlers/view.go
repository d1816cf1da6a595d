package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"arive-prompt-bot/internal/catalog"
	"arive-prompt-bot/internal/gacha"
	"arive-prompt-bot/internal/prompt"
	"arive-prompt-bot/internal/state"
	"arive-prompt-bot/internal/storage"
)

const (
	menuMain     = "main"
	menuCategory = "category"
	menuModel    = "model"
	menuGacha    = "gacha"
)

type button = tgbotapi.InlineKeyboardButton

func btn(label, data string) button {
	return tgbotapi.NewInlineKeyboardButtonData(label, data)
}

func localized(lang prompt.Language, en, ja string) string {
	if lang.Localized() && ja != "" {
		return ja
	}
	if en == "" {
		return ja
	}
	return en
}

func panelText(c *catalog.Catalog, st state.State) string {
	model, _ := prompt.LookupModel(st.Model)

	var b strings.Builder
	b.WriteString("🎨 Prompt Builder\n\n")
	b.WriteString(fmt.Sprintf("Model: %s\n", model.DisplayName))
	b.WriteString(fmt.Sprintf("Language: %s, Negative: %s\n", strings.ToUpper(string(st.Language)), onOff(st.ShowNegative)))
	b.WriteString(fmt.Sprintf("Selected: %d\n", state.CountSelected(st.Selection)))
	if st.FreeText != "" {
		b.WriteString("Free text: " + truncateLine(st.FreeText, 80) + "\n")
	}
	if model.Features.ThumbnailText {
		cfg := st.ThumbnailText
		for i := 0; i < cfg.LineCount && i < prompt.MaxThumbnailLines; i++ {
			line := cfg.Lines[i]
			text := line.Text
			if strings.TrimSpace(text) == "" {
				text = "(empty)"
			}
			b.WriteString(fmt.Sprintf("Text %d: %s [%s/%s]\n", i+1, truncateLine(text, 40), line.Vertical, line.Horizontal))
		}
	}
	if len(st.Chat.Locked) > 0 {
		b.WriteString("🔒 Locked: " + strings.Join(st.Chat.Locked, ", ") + "\n")
	}

	switch st.Chat.Menu {
	case menuCategory:
		if cat, ok := c.Category(st.Chat.Category); ok {
			b.WriteString(fmt.Sprintf("\n📂 %s\n", localized(st.Language, cat.Label, cat.LabelJa)))
		}
	case menuModel:
		b.WriteString("\n🤖 Choose a model.\n")
	case menuGacha:
		b.WriteString("\n🎲 Choose a gacha mode.\n")
	}

	switch st.Chat.Awaiting {
	case "":
	case "free":
		b.WriteString("\n📝 Send the free text now (/cancel to stop).\n")
	case "fav":
		b.WriteString("\n⭐ Send a name for this favorite (/cancel to stop).\n")
	default:
		b.WriteString("\n✏️ Send the thumbnail text now (/cancel to stop).\n")
	}

	b.WriteString("\n📄 Prompt\n")
	if st.Result == nil {
		b.WriteString("(nothing selected yet)")
	} else {
		b.WriteString(st.Result.FullPrompt)
	}
	return b.String()
}

func panelKeyboard(c *catalog.Catalog, ownerID int64, st state.State) tgbotapi.InlineKeyboardMarkup {
	switch st.Chat.Menu {
	case menuCategory:
		if _, ok := c.Category(st.Chat.Category); ok {
			return categoryKeyboard(c, ownerID, st)
		}
	case menuModel:
		return modelKeyboard(ownerID, st)
	case menuGacha:
		return gachaKeyboard(ownerID, st)
	}
	return mainKeyboard(c, ownerID, st)
}

func mainKeyboard(c *catalog.Catalog, ownerID int64, st state.State) tgbotapi.InlineKeyboardMarkup {
	var rows [][]button

	var groupRow []button
	for _, g := range c.MainGroups(prompt.ThumbnailOnly(st.Model)) {
		label := localized(st.Language, g.Label, g.LabelJa)
		if g.ID == st.ActiveMainGroup {
			label = "✅ " + label
		}
		groupRow = append(groupRow, btn(label, cb(ownerID, actGroup, g.ID)))
	}
	rows = append(rows, groupRow)

	rows = append(rows, pairRows(c.CategoriesByMain(st.ActiveMainGroup), func(cat catalog.Category) button {
		label := localized(st.Language, cat.Label, cat.LabelJa)
		if n := len(st.Selection[cat.ID]); n > 0 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		if st.IsLocked(cat.ID) {
			label = "🔒 " + label
		}
		return btn(label, cb(ownerID, actCategory, cat.ID))
	})...)

	if prompt.ThumbnailOnly(st.Model) {
		var textRow []button
		for i := 1; i <= prompt.MaxThumbnailLines; i++ {
			n := strconv.Itoa(i)
			textRow = append(textRow, btn("✏️ Text "+n, cb(ownerID, actTextLine, n)))
		}
		rows = append(rows, textRow)
	}

	rows = append(rows,
		[]button{
			btn("🤖 Model", cb(ownerID, actMenu, menuModel)),
			btn("🌐 "+strings.ToUpper(string(st.Language)), cb(ownerID, actLanguage)),
			btn("🚫 Neg: "+onOff(st.ShowNegative), cb(ownerID, actNegative)),
		},
		[]button{
			btn("📝 Free text", cb(ownerID, actFreeText)),
			btn("🎲 Gacha", cb(ownerID, actMenu, menuGacha)),
		},
		[]button{
			btn("📄 Prompt", cb(ownerID, actPrompt)),
			btn("⭐ Save", cb(ownerID, actSave)),
		},
		[]button{
			btn("Reset", cb(ownerID, actReset)),
			btn("Close", cb(ownerID, actClose)),
		},
	)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func categoryKeyboard(c *catalog.Catalog, ownerID int64, st state.State) tgbotapi.InlineKeyboardMarkup {
	cat, _ := c.Category(st.Chat.Category)

	type indexed struct {
		idx int
		opt catalog.Option
	}
	options := make([]indexed, len(cat.Options))
	for i, opt := range cat.Options {
		options[i] = indexed{idx: i, opt: opt}
	}

	rows := pairRows(options, func(o indexed) button {
		label := o.opt.Label
		if st.Selection.Has(cat.ID, o.opt.ID) {
			label = "✅ " + label
		}
		return btn(label, cb(ownerID, actOption, cat.ID, strconv.Itoa(o.idx)))
	})

	rows = append(rows,
		[]button{
			btn("🔒 Lock: "+onOff(st.IsLocked(cat.ID)), cb(ownerID, actLock, cat.ID)),
			btn("Clear", cb(ownerID, actClear, cat.ID)),
		},
		[]button{
			btn("⬅ Back", cb(ownerID, actMenu, menuMain)),
		},
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func modelKeyboard(ownerID int64, st state.State) tgbotapi.InlineKeyboardMarkup {
	var rows [][]button
	for _, m := range prompt.Models() {
		label := m.DisplayName
		if m.ID == st.Model {
			label = "✅ " + label
		}
		rows = append(rows, []button{btn(label, cb(ownerID, actModel, string(m.ID)))})
	}
	rows = append(rows, []button{btn("⬅ Back", cb(ownerID, actMenu, menuMain))})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func gachaKeyboard(ownerID int64, st state.State) tgbotapi.InlineKeyboardMarkup {
	var row []button
	for _, p := range gacha.Profiles() {
		label := p.Icon + " " + p.Label
		if string(p.Mode) == st.Chat.GachaMode {
			label = "✅ " + label
		}
		row = append(row, btn(label, cb(ownerID, actGacha, string(p.Mode))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		[]button{btn("⬅ Back", cb(ownerID, actMenu, menuMain))},
	)
}

func favoritesText(favs []storage.Favorite) string {
	if len(favs) == 0 {
		return "⭐ No favorites yet. Save one with /fav <name>."
	}
	var b strings.Builder
	b.WriteString("⭐ Favorites\n\n")
	for i, f := range favs {
		model, _ := prompt.LookupModel(f.Snapshot.Model)
		b.WriteString(fmt.Sprintf("%d) %s (%s, %d selected)\n", i+1, f.Name, model.DisplayName, state.CountSelected(f.Snapshot.Selection)))
	}
	return strings.TrimSpace(b.String())
}

func favoritesKeyboard(ownerID int64, favs []storage.Favorite) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]button, 0, len(favs))
	for _, f := range favs {
		rows = append(rows, []button{
			btn("📂 "+truncateLine(f.Name, 24), cb(ownerID, actFavLoad, f.ID)),
			btn("🗑", cb(ownerID, actFavDelete, f.ID)),
		})
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func historyText(entries []storage.HistoryEntry, limit int) string {
	if len(entries) == 0 {
		return "🕘 No prompts yet. Use /prompt to copy one."
	}
	var b strings.Builder
	b.WriteString("🕘 Recent prompts\n")
	for i, e := range entries {
		if i >= limit {
			break
		}
		b.WriteString(fmt.Sprintf("\n%d) %s\n%s\n", i+1, e.CreatedAt.Format("2006-01-02 15:04"), e.FullPrompt))
	}
	return strings.TrimSpace(b.String())
}

func pairRows[T any](items []T, toButton func(T) button) [][]button {
	var rows [][]button
	var row []button
	for _, it := range items {
		row = append(row, toButton(it))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}
