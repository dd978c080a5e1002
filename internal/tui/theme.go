package tui

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"rehabinv-cli/internal/inventory"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette helpers. Colors are adaptive; "faint" is only applied on dark
// backgrounds, where it stays legible.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

// Common semantic colors used across the TUI.
var (
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorChromeFg   lipgloss.TerminalColor = ac("240", "245")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorSurfaceFg  lipgloss.TerminalColor = ac("235", "252")
	colorControlBg  lipgloss.TerminalColor = ac("252", "235")
	colorInputBg    lipgloss.TerminalColor = ac("254", "234")
	colorAccent     lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg   lipgloss.TerminalColor = ac("255", "235")
	colorDirty      lipgloss.TerminalColor = ac("130", "214")

	// Status tiers.
	colorCritical lipgloss.TerminalColor = ac("160", "203")
	colorLow      lipgloss.TerminalColor = ac("136", "221")
	colorOK       lipgloss.TerminalColor = ac("28", "114")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleChrome() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChromeFg)
}

func styleStatus(t inventory.StatusTier) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	switch t {
	case inventory.TierCritical:
		return st.Foreground(colorCritical)
	case inventory.TierLow:
		return st.Foreground(colorLow)
	default:
		return st.Foreground(colorOK)
	}
}

func styleToast(k toastKind) lipgloss.Style {
	st := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	switch k {
	case toastError:
		return st.Foreground(colorAccentFg).Background(colorCritical)
	case toastSuccess:
		return st.Foreground(colorAccentFg).Background(colorOK)
	default:
		return st.Foreground(colorAccentFg).Background(colorAccent)
	}
}

// applyColorProfilePreference picks the color profile for the editor. Only
// NO_COLOR disables color; CLICOLOR is ignored here.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	// Start from termenv's best guess.
	profile := termenv.ColorProfile()

	// TERM/COLORTERM win when they claim more than the probe found.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") {
		if profile == termenv.Ascii {
			profile = termenv.ANSI256
		} else if profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}

	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures Lip Gloss's background detection.
//
// Some terminals don't reliably report their background, which can cause
// lipgloss.AdaptiveColor to pick the wrong variant (e.g. dark palette on a light theme).
//
// Priority:
// 1) theme=light|dark|auto (REHABINV_TUI_THEME)
// 2) REHABINV_TUI_DARKBG=true|false
// 3) COLORFGBG heuristic (common in terminals; format like "15;0" = fg;bg)
func applyThemePreference(theme string) {
	if v := strings.TrimSpace(theme); v != "" {
		switch strings.ToLower(v) {
		case "light":
			lipgloss.SetHasDarkBackground(false)
			return
		case "dark":
			lipgloss.SetHasDarkBackground(true)
			return
		case "auto":
			// fallthrough to heuristics/default
		default:
			// Unknown value: ignore.
		}
	}

	if v := strings.TrimSpace(os.Getenv("REHABINV_TUI_DARKBG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			lipgloss.SetHasDarkBackground(b)
			return
		}
	}

	// Heuristic: COLORFGBG is often "fg;bg" (sometimes more segments). Use last segment as bg.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		bgStr := strings.TrimSpace(parts[len(parts)-1])
		if bg, err := strconv.Atoi(bgStr); err == nil {
			// Treat "lighter" backgrounds as non-dark. This is heuristic, but better than
			// consistently choosing the wrong palette.
			lipgloss.SetHasDarkBackground(bg < 7)
			return
		}
	}

	// macOS Terminal.app often doesn't set COLORFGBG, and background probing can be unreliable.
	// As a fallback, use the OS appearance (Light vs Dark) when available.
	if runtime.GOOS == "darwin" {
		if dark, ok := macOSHasDarkAppearance(); ok {
			lipgloss.SetHasDarkBackground(dark)
			return
		}
	}
}

func macOSHasDarkAppearance() (dark bool, ok bool) {
	// `defaults read -g AppleInterfaceStyle` prints "Dark" in dark mode and returns exit status 1
	// in light mode (key missing).
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
	if ctx.Err() != nil {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}

// markdownStyle picks the glamour standard style for the current background.
func markdownStyle() string {
	if lipgloss.ColorProfile() == termenv.Ascii {
		return "notty"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorCritical)
}
