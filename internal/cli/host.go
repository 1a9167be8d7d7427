package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/pubscope/internal/tui"
	"github.com/rshade/pubscope/internal/widget"
)

// Built-in mount points.
const (
	MountTerminal = "#terminal"
	MountPlain    = "#plain"
	MountJSON     = "#json"
)

// newHost registers the built-in surfaces, writing to the command's streams.
func newHost(cmd *cobra.Command, theme tui.Theme) *widget.Host {
	h := widget.NewHost()
	out := cmd.OutOrStdout()

	plainTheme := theme
	if !isTerminal(out) {
		plainTheme = tui.PlainTheme()
	}

	// Registration cannot fail for these ids.
	_ = h.Register(MountTerminal, tui.TerminalSurface{
		Theme:     theme,
		In:        cmd.InOrStdin(),
		Out:       out,
		AltScreen: true,
	})
	_ = h.Register(MountPlain, tui.PlainSurface{Out: out, Theme: plainTheme})
	_ = h.Register(MountJSON, tui.JSONSurface{Out: out})
	return h
}

// resolveMount picks the mount point. An interactive terminal mount falls back to
// plain text when stdout is not a terminal and no mount was requested explicitly.
func resolveMount(cmd *cobra.Command, requested, configured string) string {
	if cmd.Flags().Changed("mount") {
		return requested
	}
	if configured == MountTerminal && !isTerminal(cmd.OutOrStdout()) {
		logger.Debug().Ctx(cmd.Context()).Msg("stdout is not a terminal, printing plain text")
		return MountPlain
	}
	return configured
}
