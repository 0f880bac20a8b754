// Package tgui provides small Telegram UI helpers for the menu screens:
// inline keyboards, "prefix:action:payload" callback data, HTML escaping and a
// message builder that sends or edits a screen in one call.
package tgui
