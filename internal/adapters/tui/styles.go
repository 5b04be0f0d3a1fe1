package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/ui/style"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(style.Violet)
	historyStyle = lipgloss.NewStyle().Foreground(style.Slate)
	okStyle      = lipgloss.NewStyle().Foreground(style.Mint)
	failStyle    = lipgloss.NewStyle().Foreground(style.Coral)
	plainStyle   = lipgloss.NewStyle().Foreground(style.Cloud)
)

func messageStyle(msg string) lipgloss.Style {
	switch msg {
	case domain.MsgAllCached, domain.MsgAssetsReady:
		return okStyle
	case domain.MsgLoadFailed, domain.MsgLimitedAssets:
		return failStyle
	default:
		return plainStyle
	}
}
