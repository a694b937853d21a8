package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/david/grant-agent/internal/alerts"
	"github.com/david/grant-agent/internal/app"
	"github.com/david/grant-agent/internal/ingest"
	"github.com/david/grant-agent/internal/models"
)

// funnelTerminator ends a pasted block.
const funnelTerminator = "END"

var (
	titleColor = color.New(color.FgHiCyan, color.Bold)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
)

// Menu is the interactive front end. It tracks alerts sent during the session.
type Menu struct {
	App *app.App
	in  *bufio.Scanner
	out io.Writer

	session alerts.Counters
}

func NewMenu(a *app.App, in io.Reader, out io.Writer) *Menu {
	return &Menu{App: a, in: bufio.NewScanner(in), out: out}
}

// Session returns the alerts counted so far.
func (m *Menu) Session() alerts.Counters {
	return m.session
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

// readLine returns false at end of input.
func (m *Menu) readLine() (string, bool) {
	if !m.in.Scan() {
		return "", false
	}
	return m.in.Text(), true
}

// Run loops until the user exits, input ends or ctx is cancelled.
func (m *Menu) Run(ctx context.Context) error {
	m.printf("%s\n", titleColor.Sprint("=========================================="))
	m.printf("%s\n", titleColor.Sprint("        🤖 GRANT AUTOMATION AGENT        "))
	m.printf("%s\n", titleColor.Sprint("=========================================="))

	for ctx.Err() == nil {
		m.printf("\nCOMMANDS:\n")
		m.printf("1. [SCAN]   Run batch (%s)\n", m.App.Options.Source)
		m.printf("2. [STATS]  Show stats\n")
		m.printf("3. [TEST]   Send test alert\n")
		m.printf("4. [FUNNEL] Parse raw text (smart add)\n")
		m.printf("5. [EXIT]   Quit\n")
		m.printf("\nSelect command (1-5): ")

		choice, ok := m.readLine()
		if !ok {
			m.printf("\n")
			return nil
		}

		switch strings.TrimSpace(choice) {
		case "1":
			if err := m.runBatch(ctx); err != nil {
				return err
			}
		case "2":
			if err := m.showStats(ctx); err != nil {
				return err
			}
		case "3":
			m.sendTest(ctx)
		case "4":
			if err := m.funnel(ctx); err != nil {
				return err
			}
		case "5":
			m.printf("Goodbye! 👋\n")
			return nil
		default:
			m.printf("%s\n", warnColor.Sprint("Invalid command."))
		}
	}
	return ctx.Err()
}

func (m *Menu) runBatch(ctx context.Context) error {
	report, err := m.App.RunConfiguredBatch(ctx)
	m.session = m.session.Add(report.Alerts)
	if err != nil {
		m.printf("%s\n", errColor.Sprintf("❌ Batch failed: %v", err))
		return err
	}
	renderReport(m.out, report)
	return nil
}

func (m *Menu) showStats(ctx context.Context) error {
	if err := m.App.Store.Load(ctx); err != nil {
		return err
	}
	renderStats(m.out, m.App.Store.Stats(), m.session)
	return nil
}

func (m *Menu) sendTest(ctx context.Context) {
	c := m.App.Dispatcher.SendTest(ctx)
	m.session = m.session.Add(c)

	switch {
	case !m.App.Dispatcher.Enabled():
		m.printf("%s\n", warnColor.Sprint("⚠️ No webhook configured; test alert counted but not sent."))
	case c.Failures > 0:
		m.printf("%s\n", errColor.Sprint("❌ Test alert failed, see log."))
	default:
		m.printf("%s\n", okColor.Sprint("✅ Test alert sent."))
	}
}

func (m *Menu) funnel(ctx context.Context) error {
	m.printf("\n📥 SMART FUNNEL ACTIVATED\n")
	m.printf("Paste the raw text of a grant email or webpage below.\n")
	m.printf("Type '%s' on a new line when finished:\n\n", funnelTerminator)

	var lines []string
	for {
		line, ok := m.readLine()
		if !ok || strings.TrimSpace(line) == funnelTerminator {
			break
		}
		lines = append(lines, line)
	}

	rec, err := ingest.ParseFunnel(strings.Join(lines, "\n"))
	if err != nil {
		m.printf("%s\n", warnColor.Sprintf("⚠️ %v", err))
		return nil
	}

	m.printf("\n✅ Extracted data:\n")
	renderGrant(m.out, rec)

	m.printf("Add this grant to database? (y/n): ")
	answer, _ := m.readLine()
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		m.printf("Discarded.\n")
		return nil
	}

	source := ingest.StaticSource{Label: ingest.FunnelSourceName, Records: []models.GrantRecord{rec}}
	report, err := m.App.Pipeline.RunBatch(ctx, source)
	m.session = m.session.Add(report.Alerts)
	if err != nil {
		m.printf("%s\n", errColor.Sprintf("❌ Could not add grant: %v", err))
		return err
	}
	if report.Duplicates > 0 {
		m.printf("%s\n", warnColor.Sprint("⚠️ Grant already exists!"))
		return nil
	}
	renderReport(m.out, report)
	return nil
}
