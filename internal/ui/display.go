package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"fsearch/internal/conversation"
	"fsearch/internal/search"
)

// Display renders search results in the terminal
type Display struct {
	width    int
	renderer *glamour.TermRenderer
}

// NewDisplay creates a new display instance
func NewDisplay() *Display {
	width := terminalWidth()

	// Create markdown renderer
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)

	return &Display{
		width:    width,
		renderer: renderer,
	}
}

// Color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// PrintWelcome displays the welcome message
func (d *Display) PrintWelcome(modelName string) {
	fmt.Printf("%s╔════════════════════════════════════════╗%s\n", colorCyan, colorReset)
	fmt.Printf("%s║   fsearch - AI search with citations   ║%s\n", colorCyan, colorReset)
	fmt.Printf("%s╚════════════════════════════════════════╝%s\n", colorCyan, colorReset)
	fmt.Printf("\n%sModel: %s%s\n", colorGray, modelName, colorReset)
	fmt.Printf("%sType a question, '/new' to start over, '/sessions' for past chats, '/exit' to quit%s\n\n", colorGray, colorReset)
}

// PrintGoodbye displays the goodbye message
func (d *Display) PrintGoodbye() {
	fmt.Printf("\n%sGoodbye!%s\n", colorCyan, colorReset)
}

// PrintError displays an error message
func (d *Display) PrintError(err error) {
	fmt.Printf("%s✗ Error: %v%s\n", colorRed, err, colorReset)
}

// PrintInfo displays an info message
func (d *Display) PrintInfo(msg string) {
	fmt.Printf("%sℹ %s%s\n", colorCyan, msg, colorReset)
}

// PrintWarning displays a warning message
func (d *Display) PrintWarning(msg string) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, msg, colorReset)
}

// PrintPrompt displays the user input prompt
func (d *Display) PrintPrompt() {
	fmt.Printf("\n%s> %s", colorGreen, colorReset)
}

// PrintAnswer renders the model's markdown answer
func (d *Display) PrintAnswer(markdown string) {
	if d.renderer != nil {
		if rendered, err := d.renderer.Render(markdown); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Println(markdown)
}

// PrintSources displays the numbered list of cited sources
func (d *Display) PrintSources(sources []search.Source) {
	if len(sources) == 0 {
		return
	}

	fmt.Printf("%sSources:%s\n", colorGray, colorReset)
	for i, src := range sources {
		fmt.Printf("%s  %d. %s%s\n", colorGray, i+1, src.Title, colorReset)
		fmt.Printf("%s     %s%s\n", colorGray, truncate(src.URL, d.width-8), colorReset)
	}
	fmt.Println()
}

// PrintSessionList displays past chat sessions, newest first
func (d *Display) PrintSessionList(sessions []conversation.ChatSession) {
	if len(sessions) == 0 {
		d.PrintInfo("No saved sessions yet")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%s  %s · %d turns · %s%s\n",
			colorGray, truncate(s.Query, 50), len(s.History), s.CreatedAt.Format("2006-01-02 15:04"), colorReset)
	}
}

// PrintFollowUpHint marks that the next query continues the conversation
func (d *Display) PrintFollowUpHint(query string) {
	fmt.Printf("%sContinuing conversation for %q%s\n", colorGray, truncate(query, 50), colorReset)
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// terminalWidth returns the terminal width, defaulting when stdout is not
// a terminal.
func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}
