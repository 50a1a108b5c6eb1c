package screen

import "github.com/charmbracelet/lipgloss"

var (
	brandStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7f5af0"))
	navStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	navActive     = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#ffd166"))
	welcomeStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("147"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	authorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	helperStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	linkStyle     = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#8ecae6"))
	favoriteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb347"))
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("244"))
	tabActive     = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd166"))
	answerStyle   = lipgloss.NewStyle().PaddingLeft(2)
	disabledStyle = lipgloss.NewStyle().Faint(true)
	buttonStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#a3be8c")).Padding(0, 1)
	overlayStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	blockingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff8c00"))

	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8ecae6"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)
