package tui

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
)

const panicMessage = "Unexpected error (see logs)"

// resettable models know how to get back to a usable state after a panic.
type resettable interface {
	afterPanic() tea.Model
}

// safeModel keeps the program alive when Update or View panics: the panic
// is logged with its stack and the inner model is reset.
type safeModel struct {
	inner  tea.Model
	log    *slog.Logger
	panics int
}

func wrapSafe(m tea.Model, log *slog.Logger) safeModel {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return safeModel{inner: m, log: log}
}

func (s safeModel) Init() tea.Cmd { return s.inner.Init() }

func (s safeModel) Update(msg tea.Msg) (out tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			s.report("update", r, msg)
			if rm, ok := s.inner.(resettable); ok {
				s.inner = rm.afterPanic()
			}
			out, cmd = s, nil
		}
	}()

	next, c := s.inner.Update(msg)
	if sm, ok := next.(safeModel); ok {
		next = sm.inner
	}
	s.inner = next
	return s, c
}

func (s safeModel) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			s.report("view", r, nil)
			out = panicMessage
		}
	}()
	return s.inner.View()
}

func (s *safeModel) report(where string, r any, msg tea.Msg) {
	s.panics++
	s.log.Error("tui.panic",
		"where", where,
		"panic", fmt.Sprint(r),
		"msg_type", fmt.Sprintf("%T", msg),
		"count", s.panics,
		"stack", string(debug.Stack()),
	)
}

func (m model) afterPanic() tea.Model {
	m.scr = screenHome
	m.running = false
	m.toast = panicMessage
	return m
}

var _ tea.Model = safeModel{}
