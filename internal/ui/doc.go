// Package ui provides terminal output helpers for the non-interactive
// commands (snapshot, prune). The dashboard has its own styles in
// internal/monitor.
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Healthy values, completed steps
//	ColorError     (red)    - Failures, critical usage
//	ColorWarning   (yellow) - Warnings, elevated usage
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Labels, timing info
//
// Use DisableColors() for --no-color.
//
// # Progress Bars
//
//	ui.RenderBar(67.5, ui.DefaultBarConfig(20))  // [█████████████░░░░░░░]  68%
//
// Colors follow resource thresholds: green below 70%, yellow below 90%, red above.
package ui
