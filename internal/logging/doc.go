// Package logging wires log/slog with the repository's console and JSON
// handlers and exposes small attribute helpers so call sites stay uniform.
// Console output colorizes level labels only when every sink is a terminal.
package logging
