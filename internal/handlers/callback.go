package handlers

import (
	"fmt"
	"strconv"
	"strings"
)

const callbackPrefix = "pb"

// Callback actions. Short names keep the data under Telegram's 64 bytes.
const (
	actMenu      = "menu"
	actGroup     = "g"
	actCategory  = "c"
	actOption    = "o"
	actClear     = "cc"
	actLock      = "lk"
	actModel     = "md"
	actLanguage  = "l"
	actNegative  = "n"
	actGacha     = "gd"
	actPrompt    = "p"
	actSave      = "fav"
	actFavLoad   = "fl"
	actFavDelete = "fd"
	actTextLine  = "t"
	actReset     = "r"
	actClose     = "x"
	actFreeText  = "ft"
)

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", callbackPrefix, ownerID, strings.Join(parts, ":"))
}

type callbackData struct {
	Owner  int64
	Action string
	Args   []string
}

func parseCallback(data string) (callbackData, bool) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	if len(parts) < 3 || parts[0] != callbackPrefix {
		return callbackData{}, false
	}
	owner, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || parts[2] == "" {
		return callbackData{}, false
	}
	return callbackData{Owner: owner, Action: parts[2], Args: parts[3:]}, true
}

func (d callbackData) arg(i int) string {
	if i < len(d.Args) {
		return d.Args[i]
	}
	return ""
}
