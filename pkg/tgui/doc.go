// Package tgui provides small Telegram UI helpers:
//   - Inline keyboard builders
//   - Callback data helpers (scope:action:payload)
//   - A simple, safe message builder with sensible defaults
//
// Design goals:
//   - Ergonomic for handlers (one builder covers text + send options)
//   - Safe by default for Telegram ParseMode="HTML" (auto escaping)
package tgui
