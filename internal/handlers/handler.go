package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"arive-prompt-bot/internal/catalog"
	"arive-prompt-bot/internal/gacha"
	"arive-prompt-bot/internal/prompt"
	"arive-prompt-bot/internal/state"
	"arive-prompt-bot/internal/storage"
	"arive-prompt-bot/internal/telegram"
)

// Messenger is the part of the Telegram client the handler talks to.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb telegram.Keyboard) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb telegram.Keyboard) error
	AnswerCallback(callbackID, text string, alert bool) error
	SendTyping(chatID int64)
}

type Options struct {
	Telegram Messenger
	Catalog  *catalog.Catalog
	States   *state.Store
	Storage  *storage.Store
	// GachaPerMinute caps draws per user.
	GachaPerMinute int
	Rand           *rand.Rand
	Logger         *slog.Logger
}

type Handler struct {
	tg      Messenger
	catalog *catalog.Catalog
	states  *state.Store
	db      *storage.Store
	limiter *userLimiter
	logger  *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := opts.Catalog
	if c == nil {
		c = catalog.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = gacha.NewRand()
	}

	return &Handler{
		tg:      opts.Telegram,
		catalog: c,
		states:  opts.States,
		db:      opts.Storage,
		limiter: newUserLimiter(opts.GachaPerMinute),
		logger:  logger,
		rng:     rng,
	}
}

func owner(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, msg)
	}
	if msg.Text != "" {
		return h.handleText(ctx, chatID, userID, msg.Text)
	}
	return nil
}

const helpText = "🎨 Prompt Builder\n\n" +
	"Pick options with the buttons and copy the prompt.\n\n" +
	"/model [id] - choose the target model\n" +
	"/lang [en|ja] - prompt language\n" +
	"/neg [on|off] - negative prompt\n" +
	"/free [text] - free text appended to the prompt (- clears)\n" +
	"/text <1-3> [top|center|bottom] [left|center|right] <text> - thumbnail text\n" +
	"/prompt - send the prompt as a message\n" +
	"/reset - clear selections (common settings stay)\n" +
	"/gacha [person|background|texture] - random selection\n" +
	"/lock <category> - keep a category during gacha\n" +
	"/exclude [<category> <option> | clear [category]] - never draw an option\n" +
	"/fav [name] - save a favorite\n" +
	"/favs - list favorites\n" +
	"/load <id> - load a favorite\n" +
	"/history - recent prompts\n" +
	"/cancel - stop waiting for input"

func (h *Handler) handleCommand(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		h.states.Update(chatID, userID, func(c *state.Chat) {
			c.Menu = menuMain
			c.Awaiting = ""
			c.MessageID = 0
		})
		return h.render(chatID, userID, false)
	case "help":
		return h.tg.SendText(chatID, helpText)
	case "model":
		if args == "" {
			h.states.Update(chatID, userID, func(c *state.Chat) { c.Menu = menuModel })
			return h.render(chatID, userID, false)
		}
		id := prompt.ModelID(normalizeToken(args))
		if _, ok := prompt.LookupModel(id); !ok {
			return h.tg.SendText(chatID, "❌ Unknown model. Available: "+modelIDs())
		}
		h.states.Dispatch(chatID, userID, state.SetModel{Model: id})
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Menu = menuMain })
		return h.render(chatID, userID, false)
	case "lang":
		var action state.Action = state.ToggleLanguage{}
		if args != "" {
			action = state.SetLanguage{Language: prompt.ParseLanguage(normalizeToken(args))}
		}
		h.states.Dispatch(chatID, userID, action)
		return h.render(chatID, userID, false)
	case "neg":
		var action state.Action = state.ToggleNegative{}
		if on, ok := parseOnOff(args); ok {
			action = state.SetShowNegative{Show: on}
		}
		h.states.Dispatch(chatID, userID, action)
		return h.render(chatID, userID, false)
	case "free":
		switch args {
		case "":
			h.states.Update(chatID, userID, func(c *state.Chat) { c.Awaiting = "free" })
			return h.tg.SendText(chatID, "📝 Send the free text (/cancel to stop).")
		case "-":
			args = ""
		}
		h.states.Dispatch(chatID, userID, state.SetFreeText{Text: args})
		return h.render(chatID, userID, false)
	case "text":
		return h.setTextLine(chatID, userID, args)
	case "prompt":
		return h.sendPrompt(ctx, chatID, userID)
	case "reset":
		h.states.Dispatch(chatID, userID, state.ResetAll{})
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Menu = menuMain })
		return h.render(chatID, userID, false)
	case "gacha":
		notice := h.drawGacha(ctx, chatID, userID, gacha.Mode(normalizeToken(args)))
		if err := h.tg.SendText(chatID, notice); err != nil {
			return err
		}
		return h.render(chatID, userID, false)
	case "lock":
		return h.toggleLock(chatID, userID, args)
	case "exclude":
		return h.exclude(ctx, chatID, userID, args)
	case "fav":
		if args == "" {
			h.states.Update(chatID, userID, func(c *state.Chat) { c.Awaiting = "fav" })
			return h.tg.SendText(chatID, "⭐ Send a name for this favorite (/cancel to stop).")
		}
		return h.saveFavorite(ctx, chatID, userID, args)
	case "favs":
		return h.listFavorites(ctx, chatID, userID, 0)
	case "load":
		if args == "" {
			return h.listFavorites(ctx, chatID, userID, 0)
		}
		notice := h.loadFavorite(ctx, chatID, userID, args)
		if err := h.tg.SendText(chatID, notice); err != nil {
			return err
		}
		return h.render(chatID, userID, false)
	case "history":
		entries, err := h.db.ListHistory(ctx, owner(userID), storage.KindPrompt)
		if err != nil {
			h.logger.Error("list history failed", "err", err)
			return h.tg.SendText(chatID, "❌ Could not load the history.")
		}
		return h.tg.SendText(chatID, historyText(entries, 10))
	case "cancel":
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Awaiting = "" })
		return h.tg.SendText(chatID, "✅ Cancelled.")
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. See /help.")
	}
}

func (h *Handler) handleText(ctx context.Context, chatID, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	st := h.states.Get(chatID, userID)
	awaiting := st.Chat.Awaiting
	h.states.Update(chatID, userID, func(c *state.Chat) { c.Awaiting = "" })

	switch awaiting {
	case "free":
		h.states.Dispatch(chatID, userID, state.SetFreeText{Text: text})
	case "fav":
		return h.saveFavorite(ctx, chatID, userID, text)
	case "text1", "text2", "text3":
		idx := int(awaiting[len(awaiting)-1] - '1')
		line := st.ThumbnailText.Lines[idx]
		line.Text = text
		h.states.Dispatch(chatID, userID, state.SetThumbnailLine{Index: idx, Line: line})
	default:
		return h.tg.SendText(chatID, "Use the buttons or /help. /free <text> adds free text to the prompt.")
	}
	return h.render(chatID, userID, true)
}

// render shows the builder panel, editing the last panel when edit is set.
func (h *Handler) render(chatID, userID int64, edit bool) error {
	st := h.states.Get(chatID, userID)
	text := panelText(h.catalog, st)
	kb := panelKeyboard(h.catalog, userID, st)

	if edit && st.Chat.MessageID != 0 {
		if err := h.tg.EditTextWithKeyboard(chatID, st.Chat.MessageID, text, kb); err == nil {
			return nil
		}
	}

	msgID, err := h.tg.SendTextWithKeyboard(chatID, text, kb)
	if err != nil {
		return err
	}
	h.states.Update(chatID, userID, func(c *state.Chat) { c.MessageID = msgID })
	return nil
}

func (h *Handler) setTextLine(chatID, userID int64, args string) error {
	st := h.states.Get(chatID, userID)
	if !prompt.ThumbnailOnly(st.Model) {
		return h.tg.SendText(chatID, "❌ Thumbnail text needs the "+string(prompt.NanobananaThumb)+" model (/model "+string(prompt.NanobananaThumb)+").")
	}
	idx, line, ok := parseTextLine(args)
	if !ok {
		return h.tg.SendText(chatID, "Usage: /text <1-3> [top|center|bottom] [left|center|right] <text>")
	}
	if line.Text == "" {
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Awaiting = "text" + strconv.Itoa(idx+1) })
		return h.tg.SendText(chatID, fmt.Sprintf("✏️ Send text %d (/cancel to stop).", idx+1))
	}
	h.states.Dispatch(chatID, userID, state.SetThumbnailLine{Index: idx, Line: line})
	return h.render(chatID, userID, false)
}

func (h *Handler) sendPrompt(ctx context.Context, chatID, userID int64) error {
	st := h.states.Get(chatID, userID)
	if st.Result == nil {
		return h.tg.SendText(chatID, "Nothing selected yet.")
	}

	snap := st.Snapshot()
	if _, err := h.db.AddHistory(ctx, storage.HistoryEntry{
		Owner:      owner(userID),
		Kind:       storage.KindPrompt,
		FullPrompt: st.Result.FullPrompt,
		Snapshot:   &snap,
	}); err != nil {
		h.logger.Error("add history failed", "err", err)
	}
	return h.tg.SendText(chatID, st.Result.FullPrompt)
}

// drawGacha applies a random selection and returns the notice to show.
func (h *Handler) drawGacha(ctx context.Context, chatID, userID int64, mode gacha.Mode) string {
	if !h.limiter.Allow(userID) {
		return "⏳ Too many draws. Wait a moment."
	}

	st := h.states.Get(chatID, userID)
	if prompt.ThumbnailOnly(st.Model) {
		return "❌ Gacha is not available for the thumbnail model."
	}
	if mode == "" {
		mode = gacha.Mode(st.Chat.GachaMode)
	}
	if mode == "" {
		mode = gacha.Person
	}
	profile, err := gacha.LookupProfile(mode)
	if err != nil {
		return "❌ Unknown gacha mode. Use person, background or texture."
	}

	excluded, err := h.db.LoadExclusions(ctx, owner(userID))
	if err != nil {
		h.logger.Error("load exclusions failed", "err", err)
	}

	h.rngMu.Lock()
	sel, err := gacha.Draw(h.catalog, h.rng, gacha.Request{
		Mode:     mode,
		Current:  st.Selection,
		Locked:   st.Chat.Locked,
		Excluded: excluded,
	})
	h.rngMu.Unlock()
	if err != nil {
		h.logger.Error("gacha draw failed", "err", err, "mode", mode)
		return "❌ Gacha failed."
	}

	h.states.Dispatch(chatID, userID,
		state.ApplyGacha{Selection: sel},
		state.SetActiveMainGroup{Group: string(mode)},
	)
	h.states.Update(chatID, userID, func(c *state.Chat) {
		c.GachaMode = string(mode)
		c.Menu = menuMain
	})
	h.logger.Debug("gacha drawn", "user_id", userID, "mode", mode, "categories", len(sel))
	return fmt.Sprintf("🎲 %s %s gacha!", profile.Icon, profile.Label)
}

func (h *Handler) toggleLock(chatID, userID int64, args string) error {
	if args == "" {
		st := h.states.Get(chatID, userID)
		if len(st.Chat.Locked) == 0 {
			return h.tg.SendText(chatID, "🔒 No locked categories. Usage: /lock <category>")
		}
		return h.tg.SendText(chatID, "🔒 Locked: "+strings.Join(st.Chat.Locked, ", "))
	}
	id := normalizeToken(args)
	if _, ok := h.catalog.Category(id); !ok {
		return h.tg.SendText(chatID, "❌ Unknown category: "+id)
	}
	h.states.Dispatch(chatID, userID, state.ToggleLock{Category: id})
	return h.render(chatID, userID, false)
}

func (h *Handler) exclude(ctx context.Context, chatID, userID int64, args string) error {
	who := owner(userID)
	ex, err := h.db.LoadExclusions(ctx, who)
	if err != nil {
		h.logger.Error("load exclusions failed", "err", err)
		return h.tg.SendText(chatID, "❌ Could not load exclusions.")
	}

	tokens := fields(args)
	switch {
	case len(tokens) == 0:
		if ex.Count() == 0 {
			return h.tg.SendText(chatID, "🚫 Nothing excluded. Usage: /exclude <category> <option>")
		}
		return h.tg.SendText(chatID, fmt.Sprintf("🚫 Excluded (%d):\n%s", ex.Count(), strings.Join(ex.Keys(), "\n")))
	case strings.ToLower(tokens[0]) == "clear":
		if len(tokens) > 1 {
			ex.ClearCategory(strings.ToLower(tokens[1]))
		} else {
			ex.Clear()
		}
	case len(tokens) == 2:
		categoryID, optionID := strings.ToLower(tokens[0]), strings.ToLower(tokens[1])
		if _, ok := h.catalog.Option(categoryID, optionID); !ok {
			return h.tg.SendText(chatID, "❌ Unknown option: "+categoryID+" "+optionID)
		}
		ex = ex.Toggle(categoryID, optionID)
	default:
		return h.tg.SendText(chatID, "Usage: /exclude [<category> <option> | clear [category]]")
	}

	if err := h.db.SaveExclusions(ctx, who, ex); err != nil {
		h.logger.Error("save exclusions failed", "err", err)
		return h.tg.SendText(chatID, "❌ Could not save exclusions.")
	}
	return h.tg.SendText(chatID, fmt.Sprintf("🚫 %d option(s) excluded from gacha.", ex.Count()))
}

func (h *Handler) saveFavorite(ctx context.Context, chatID, userID int64, name string) error {
	st := h.states.Get(chatID, userID)
	fav, err := h.db.AddFavorite(ctx, owner(userID), truncateLine(name, 60), st.Snapshot())
	if err != nil {
		h.logger.Error("add favorite failed", "err", err)
		return h.tg.SendText(chatID, "❌ Could not save the favorite.")
	}
	return h.tg.SendText(chatID, fmt.Sprintf("⭐ Saved %q. /favs lists your favorites.", fav.Name))
}

// listFavorites sends the list, or edits messageID when it is set.
func (h *Handler) listFavorites(ctx context.Context, chatID, userID int64, messageID int) error {
	favs, err := h.db.ListFavorites(ctx, owner(userID))
	if err != nil {
		h.logger.Error("list favorites failed", "err", err)
		return h.tg.SendText(chatID, "❌ Could not load favorites.")
	}

	text := favoritesText(favs)
	kb := favoritesKeyboard(userID, favs)
	if messageID != 0 {
		return h.tg.EditTextWithKeyboard(chatID, messageID, text, kb)
	}
	if len(favs) == 0 {
		return h.tg.SendText(chatID, text)
	}
	_, err = h.tg.SendTextWithKeyboard(chatID, text, kb)
	return err
}

func (h *Handler) loadFavorite(ctx context.Context, chatID, userID int64, id string) string {
	fav, err := h.db.GetFavorite(ctx, owner(userID), strings.TrimSpace(id))
	if errors.Is(err, storage.ErrNotFound) {
		return "❌ Favorite not found."
	}
	if err != nil {
		h.logger.Error("get favorite failed", "err", err)
		return "❌ Could not load the favorite."
	}
	h.states.Dispatch(chatID, userID, state.LoadPreset{Snapshot: fav.Snapshot})
	h.states.Update(chatID, userID, func(c *state.Chat) { c.Menu = menuMain })
	return fmt.Sprintf("📂 Loaded %q.", fav.Name)
}

func modelIDs() string {
	ids := make([]string, 0, len(prompt.Models()))
	for _, m := range prompt.Models() {
		ids = append(ids, string(m.ID))
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}
