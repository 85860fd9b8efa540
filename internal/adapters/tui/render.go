package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jsamuelsen/quote-client/internal/app"
)

// Title heads every rendered view.
const Title = "Quote of the Moment"

const (
	welcomeText = "Welcome! Ask for a new quote to get an inspiring one."
	loadingText = "Loading quote..."
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	loadingStyle = lipgloss.NewStyle().Faint(true)

	quoteTextStyle = lipgloss.NewStyle().Italic(true)

	quoteAuthorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Bold(true).
				Align(lipgloss.Right)

	quoteBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	welcomeStyle = lipgloss.NewStyle().Faint(true)
)

// Render draws the view selected for s. It is pure: the same state
// always renders the same string.
func Render(s app.State) string {
	return RenderWidth(s, 0)
}

// RenderWidth is Render with text wrapped to width columns.
// A width of zero or less disables wrapping.
func RenderWidth(s app.State, width int) string {
	var body string

	switch app.SelectView(s) {
	case app.ViewError:
		body = errorStyle.Render("Error: " + s.ErrorMessage)
	case app.ViewLoading:
		body = loadingStyle.Render(loadingText)
	case app.ViewQuote:
		body = renderQuote(s, width)
	default:
		body = welcomeStyle.Render(welcomeText)
	}

	if width > 0 && app.SelectView(s) != app.ViewQuote {
		body = lipgloss.NewStyle().Width(width).Render(body)
	}

	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(Title), body)
}

func renderQuote(s app.State, width int) string {
	text := quoteTextStyle
	author := quoteAuthorStyle
	box := quoteBoxStyle

	if width > 0 {
		inner := max(width-box.GetHorizontalFrameSize(), 1)
		text = text.Width(inner)
		author = author.Width(inner)
	}

	content := strings.Join([]string{
		text.Render(`"` + s.Quote.Text + `"`),
		author.Render("- " + s.Quote.Author),
	}, "\n")

	return box.Render(content)
}
