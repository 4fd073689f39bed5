package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	// Primary colors
	colorPrimary = lipgloss.Color("#7D56F4") // Purple
	colorAccent  = lipgloss.Color("#00D9FF") // Cyan

	// Status colors
	colorSuccess = lipgloss.Color("#00D787") // Green
	colorWarning = lipgloss.Color("#FFB86C") // Orange
	colorError   = lipgloss.Color("#FF5555") // Red
	colorInfo    = lipgloss.Color("#8BE9FD") // Cyan

	// UI colors
	colorText    = lipgloss.Color("#F8F8F2") // White
	colorTextDim = lipgloss.Color("#6272A4") // Gray
	colorBorder  = lipgloss.Color("#44475A") // Dark gray
	colorBgAlt   = lipgloss.Color("#21222C") // Alt background
)

// Style definitions
var (
	// Title bar
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Padding(0, 1)

	contextStyle = lipgloss.NewStyle().
			Foreground(colorInfo).
			Padding(0, 1)

	// Kind tabs
	tabStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(colorBgAlt).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1)

	// Prompt
	promptStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	// Selected item in the kind picker
	selectedStyle = lipgloss.NewStyle().
			Foreground(colorBgAlt).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1)

	normalStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorInfo)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	// Box style for pickers/dialogs
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2).
			Width(60)

	// Detail viewport style
	viewportStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	// Section headings in the detail view
	highlightStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	// Status indicator styles
	statusReadyStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)

	statusPendingStyle = lipgloss.NewStyle().
				Foreground(colorWarning).
				Bold(true)

	statusFailedStyle = lipgloss.NewStyle().
				Foreground(colorError).
				Bold(true)
)

// RenderTitle renders the title bar
func RenderTitle(context, namespaces string) string {
	left := titleStyle.Render("kubesync")
	right := contextStyle.Render("[context: " + context + "]  [namespaces: " + namespaces + "]")
	return lipgloss.JoinHorizontal(lipgloss.Left, left, right)
}

// RenderTabs renders the kind tabs with the active one highlighted
func RenderTabs(kinds []string, active int) string {
	tabs := make([]string, len(kinds))
	for i, k := range kinds {
		if i == active {
			tabs[i] = activeTabStyle.Render(k)
		} else {
			tabs[i] = tabStyle.Render(k)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// RenderPrompt renders the picker prompt
func RenderPrompt() string {
	return promptStyle.Render("> ")
}

// RenderSuccess renders a success message
func RenderSuccess(msg string) string {
	return successStyle.Render("✓ " + msg)
}

// RenderError renders an error message
func RenderError(msg string) string {
	return errorStyle.Render("✗ " + msg)
}

// RenderWarning renders a warning message
func RenderWarning(msg string) string {
	return warningStyle.Render("⚠ " + msg)
}

// RenderInfo renders an info message
func RenderInfo(msg string) string {
	return infoStyle.Render("ℹ " + msg)
}

// RenderHelp renders help text
func RenderHelp(text string) string {
	return helpStyle.Render(text)
}

// RenderBox renders content in a bordered box
func RenderBox(title, content string) string {
	titleRendered := titleStyle.Render(title)
	return boxStyle.Render(titleRendered + "\n\n" + content)
}

// RenderPickerItem renders one entry of the kind picker
func RenderPickerItem(title string, selected bool) string {
	if selected {
		return selectedStyle.Render("❯ " + title)
	}
	return normalStyle.Render("  " + title)
}

// RenderStatus renders a status indicator
func RenderStatus(status string) string {
	switch status {
	case "Running", "Ready", "Active", "Succeeded", "Normal":
		return statusReadyStyle.Render("●")
	case "Pending", "ContainerCreating", "Terminating", "Warning":
		return statusPendingStyle.Render("●")
	case "Failed", "Error", "CrashLoopBackOff", "Unknown":
		return statusFailedStyle.Render("●")
	default:
		return helpStyle.Render("●")
	}
}

// GetMaxWidth returns the maximum width for a given screen width
func GetMaxWidth(screenWidth int) int {
	maxWidth := screenWidth - 4 // Account for padding
	if maxWidth < 40 {
		maxWidth = 40
	}
	return maxWidth
}

// GetMaxHeight returns the maximum height for a given screen height
func GetMaxHeight(screenHeight int) int {
	maxHeight := screenHeight - 8 // Title, tabs, status, help
	if maxHeight < 10 {
		maxHeight = 10
	}
	return maxHeight
}
