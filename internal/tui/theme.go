package tui

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/pubscope/internal/config"
)

// ErrInvalidColor is returned for colours that are neither hex nor ANSI 0-255.
var ErrInvalidColor = errors.New("invalid colour")

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// maxANSIColor is the highest 256-colour palette index.
const maxANSIColor = 255

// Theme holds the styles used by every terminal view.
type Theme struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Current  lipgloss.Style
	Link     lipgloss.Style
	Selected lipgloss.Style
	Focused  lipgloss.Style
	Box      lipgloss.Style
}

// ParseColor validates s as "#RGB", "#RRGGBB" or an ANSI palette index.
func ParseColor(s string) (lipgloss.Color, error) {
	s = strings.TrimSpace(s)
	if hexColor.MatchString(s) {
		return lipgloss.Color(s), nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= maxANSIColor {
		return lipgloss.Color(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// LoadTheme builds a Theme from configured colours. Every invalid colour is reported.
func LoadTheme(cfg config.ThemeConfig) (Theme, error) {
	var errs []error
	parse := func(field, value string) lipgloss.Color {
		c, err := ParseColor(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("theme.%s: %w", field, err))
		}
		return c
	}

	accent := parse("accent", cfg.Accent)
	muted := parse("muted", cfg.Muted)
	errColor := parse("error", cfg.Error)
	selected := parse("selected", cfg.Selected)
	border := parse("border", cfg.Border)
	if err := errors.Join(errs...); err != nil {
		return Theme{}, err
	}

	return Theme{
		Title:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		Label:    lipgloss.NewStyle().Foreground(accent),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Error:    lipgloss.NewStyle().Foreground(errColor).Bold(true),
		Current:  lipgloss.NewStyle().Foreground(selected).Bold(true).Underline(true),
		Link:     lipgloss.NewStyle().Foreground(accent),
		Selected: lipgloss.NewStyle().Foreground(selected).Bold(true),
		Focused:  lipgloss.NewStyle().Foreground(selected),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
	}, nil
}

// DefaultTheme returns the theme built from the default configuration.
func DefaultTheme() Theme {
	t, err := LoadTheme(config.Default().Theme)
	if err != nil {
		panic(err)
	}
	return t
}

// PlainTheme renders everything unstyled.
func PlainTheme() Theme {
	s := lipgloss.NewStyle()
	return Theme{
		Title: s, Label: s, Muted: s, Error: s, Current: s,
		Link: s, Selected: s, Focused: s, Box: s,
	}
}
