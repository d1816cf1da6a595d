package handlers

import (
	"context"
	"errors"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"arive-prompt-bot/internal/gacha"
	"arive-prompt-bot/internal/prompt"
	"arive-prompt-bot/internal/state"
	"arive-prompt-bot/internal/storage"
)

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}
	data, ok := parseCallback(q.Data)
	if !ok {
		return nil
	}
	if data.Owner != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "This menu belongs to someone else.", true)
		return nil
	}

	chatID := q.Message.Chat.ID
	userID := data.Owner
	msgID := q.Message.MessageID

	// Favorites live in their own message, not in the builder panel.
	switch data.Action {
	case actFavLoad:
		_ = h.tg.AnswerCallback(q.ID, h.loadFavorite(ctx, chatID, userID, data.arg(0)), false)
		return h.render(chatID, userID, true)
	case actFavDelete:
		notice := "🗑 Deleted."
		if err := h.db.RemoveFavorite(ctx, owner(userID), data.arg(0)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error("remove favorite failed", "err", err)
			notice = "❌ Could not delete."
		}
		_ = h.tg.AnswerCallback(q.ID, notice, false)
		return h.listFavorites(ctx, chatID, userID, msgID)
	}

	h.states.Update(chatID, userID, func(c *state.Chat) { c.MessageID = msgID })

	notice := ""
	switch data.Action {
	case actMenu:
		menu := data.arg(0)
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Menu = menu })
	case actGroup:
		h.states.Dispatch(chatID, userID, state.SetActiveMainGroup{Group: data.arg(0)})
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Menu = menuMain })
	case actCategory:
		categoryID := data.arg(0)
		h.states.Update(chatID, userID, func(c *state.Chat) {
			c.Menu = menuCategory
			c.Category = categoryID
		})
	case actOption:
		categoryID := data.arg(0)
		optionID, ok := h.optionAt(categoryID, data.arg(1))
		if !ok {
			notice = "❌ Unknown option."
			break
		}
		h.states.Dispatch(chatID, userID, state.ToggleOption{Category: categoryID, Option: optionID})
	case actClear:
		h.states.Dispatch(chatID, userID, state.ResetCategory{Category: data.arg(0)})
	case actLock:
		h.states.Dispatch(chatID, userID, state.ToggleLock{Category: data.arg(0)})
	case actModel:
		id := prompt.ModelID(data.arg(0))
		if _, ok := prompt.LookupModel(id); !ok {
			notice = "❌ Unknown model."
			break
		}
		h.states.Dispatch(chatID, userID, state.SetModel{Model: id})
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Menu = menuMain })
	case actLanguage:
		h.states.Dispatch(chatID, userID, state.ToggleLanguage{})
	case actNegative:
		h.states.Dispatch(chatID, userID, state.ToggleNegative{})
	case actGacha:
		notice = h.drawGacha(ctx, chatID, userID, gacha.Mode(data.arg(0)))
	case actPrompt:
		_ = h.tg.AnswerCallback(q.ID, "Sending the prompt…", false)
		return h.sendPrompt(ctx, chatID, userID)
	case actSave:
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Awaiting = "fav" })
		notice = "Send a name for this favorite."
	case actFreeText:
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Awaiting = "free" })
		notice = "Send the free text."
	case actTextLine:
		n, err := strconv.Atoi(data.arg(0))
		if err != nil || n < 1 || n > prompt.MaxThumbnailLines {
			break
		}
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Awaiting = "text" + strconv.Itoa(n) })
		notice = "Send text " + strconv.Itoa(n) + "."
	case actReset:
		h.states.Dispatch(chatID, userID, state.ResetAll{})
		h.states.Update(chatID, userID, func(c *state.Chat) { c.Menu = menuMain })
	case actClose:
		h.states.Update(chatID, userID, func(c *state.Chat) {
			c.Menu = menuMain
			c.Awaiting = ""
		})
	}

	if notice == "" {
		notice = "OK"
	}
	_ = h.tg.AnswerCallback(q.ID, notice, false)
	return h.render(chatID, userID, true)
}

// optionAt resolves the option index carried in callback data.
func (h *Handler) optionAt(categoryID, index string) (string, bool) {
	cat, ok := h.catalog.Category(categoryID)
	if !ok {
		return "", false
	}
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(cat.Options) {
		return "", false
	}
	return cat.Options[i].ID, true
}
