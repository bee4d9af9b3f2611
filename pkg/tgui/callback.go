package tgui

import (
	"strings"
)

// Data formats inline callback data as "ns:action" plus optional args,
// e.g. Data("admin", "approve", "pre_race", "monaco-2026", "ru").
// Telegram limits callback_data to 64 bytes; keep args short and stable.
func Data(ns, action string, args ...string) string {
	parts := make([]string, 0, 2+len(args))
	parts = append(parts, strings.TrimSpace(ns), strings.TrimSpace(action))
	parts = append(parts, args...)
	return strings.Join(parts, ":")
}

// Split decodes callback data produced by Data. It returns the namespace,
// the action and the remaining args.
func Split(data string) (ns, action string, args []string) {
	parts := strings.Split(data, ":")
	if len(parts) > 0 {
		ns = parts[0]
	}
	if len(parts) > 1 {
		action = parts[1]
	}
	if len(parts) > 2 {
		args = parts[2:]
	}
	return ns, action, args
}
