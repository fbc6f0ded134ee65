package play

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gokatarajesh/quiz-bank/internal/session"
)

var (
	colorTitle   = lipgloss.Color("33")
	colorMuted   = lipgloss.Color("242")
	colorCorrect = lipgloss.Color("42")
	colorWrong   = lipgloss.Color("196")
	colorCursor  = lipgloss.Color("214")
)

func renderTitle(noColor bool) string {
	title := "Kuis Pengetahuan Umum"
	if noColor {
		return title + "\n"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colorTitle).MarginBottom(1).Render(title)
}

func renderStart(v session.View, count int, noColor bool) string {
	lines := []string{
		fmt.Sprintf("Bank soal: %d pertanyaan", v.BankSize),
		fmt.Sprintf("Jumlah soal: < %d >", count),
	}
	if v.BankSize == 0 {
		lines = append(lines, stylize("Belum ada soal untuk dimainkan.", noColor, colorWrong))
	}
	return strings.Join(lines, "\n")
}

func renderPlaying(v session.View, cursor int, bar string, noColor bool) string {
	q := v.Question
	var b strings.Builder
	fmt.Fprintf(&b, "Soal %d dari %d\n", v.Index+1, v.Total)
	fmt.Fprintf(&b, "%s %2ds\n\n", bar, v.TimeLeft)
	b.WriteString(stylize(q.Question, noColor, lipgloss.Color("255")))
	b.WriteString("\n\n")

	for i, opt := range q.Options {
		marker := "  "
		if i == cursor && !v.ShowFeedback {
			marker = "> "
		}
		line := fmt.Sprintf("%s%d. %s", marker, i+1, opt)
		switch {
		case v.ShowFeedback && opt == q.Answer:
			line = stylize(line+" ✓", noColor, colorCorrect)
		case v.ShowFeedback && opt == v.Selected:
			line = stylize(line+" ✗", noColor, colorWrong)
		case i == cursor && !v.ShowFeedback:
			line = stylize(line, noColor, colorCursor)
		}
		b.WriteString(line + "\n")
	}

	if v.ShowFeedback {
		b.WriteString("\n")
		switch {
		case v.Selected == "":
			b.WriteString(stylize("Tidak dijawab. Jawaban: "+q.Answer, noColor, colorWrong))
		case v.Correct:
			b.WriteString(stylize("Benar!", noColor, colorCorrect))
		default:
			b.WriteString(stylize("Salah. Jawaban: "+q.Answer, noColor, colorWrong))
		}
	}
	return b.String()
}

func renderResults(r *session.Result, noColor bool) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Skor: %d / %d (%d%%)\n", r.Score, r.Total, r.Percentage)
	if r.Unanswered > 0 {
		fmt.Fprintf(&b, "Tidak dijawab: %d\n", r.Unanswered)
	}
	fmt.Fprintf(&b, "Beruntun terbaik: %d\n\n", r.BestStreak)

	for _, item := range r.Review {
		mark, color := "✓", colorCorrect
		if !item.Correct {
			mark, color = "✗", colorWrong
		}
		selected := item.Selected
		if item.TimedOut {
			selected = "(waktu habis)"
		}
		line := fmt.Sprintf("%s %d. %s\n     jawabanmu: %s | kunci: %s", mark, item.Index+1, item.Question, selected, item.Answer)
		b.WriteString(stylize(line, noColor, color) + "\n")
	}
	return b.String()
}

func renderNotice(notice string, noColor bool) string {
	if notice == "" {
		return ""
	}
	return "\n" + stylize(notice, noColor, colorCursor)
}

func renderHelp(v session.View, noColor bool) string {
	var help string
	switch v.Phase {
	case session.PhaseStart:
		help = "↑/↓ jumlah soal • enter mulai • q keluar"
	case session.PhasePlaying:
		if v.ShowFeedback {
			help = "enter lanjut • q keluar"
		} else {
			help = "1-9 atau ↑/↓ + enter pilih • q keluar"
		}
	case session.PhaseResults:
		help = "r main lagi • q keluar"
	}
	return "\n" + stylize(help, noColor, colorMuted)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
