// Package logx wraps zerolog for the bot.
//
// Console output stays short (timestamp and file:line caller), file output is
// JSON, and warnings can optionally be mirrored into an operator chat with a
// minimum level and a rate limit.
package logx
