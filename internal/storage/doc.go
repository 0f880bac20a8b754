// Package storage is the SQLite persistence layer of the bot.
//
// It holds generated content (deduplicated by title and type), subscriptions,
// the external API response cache, daily counters, reference sports data and
// per-user settings. All timestamps are stored as unix milliseconds.
package storage
