package tgui

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCallbackDataLen is Telegram's callback_data limit in bytes.
const MaxCallbackDataLen = 64

var ErrCallbackDataTooLong = errors.New("tgui: callback_data too long")

// Data formats callback data as "prefix:action" or "prefix:action:payload".
// The payload may itself contain ':'.
func Data(prefix, action, payload string) string {
	prefix = strings.TrimSpace(prefix)
	action = strings.TrimSpace(action)
	if payload == "" {
		return prefix + ":" + action
	}
	return prefix + ":" + action + ":" + payload
}

// CheckData reports ErrCallbackDataTooLong when data would be rejected by Telegram.
func CheckData(data string) error {
	if len(data) > MaxCallbackDataLen {
		return fmt.Errorf("%w: %d bytes", ErrCallbackDataTooLong, len(data))
	}
	return nil
}
