// Package tui renders live keyboard state in the terminal while a keylog
// loop is running.
package tui

import (
	"fmt"

	"github.com/dasdy/xkbstate/keylog"
	"github.com/dasdy/xkbstate/model"
	"github.com/dasdy/xkbstate/xkb"
	"github.com/gdamore/tcell/v2"
)

const maxRecent = 12

var (
	styleTitle  = tcell.StyleDefault.Bold(true)
	styleLabel  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleValue  = tcell.StyleDefault
	styleActive = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleDim    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

type recentEvent struct {
	text    string
	pressed bool
}

// Monitor draws modifier, group and LED state plus a tail of recent events.
// It receives transitions as one of the loop's trackers, so it must be fed by
// the same loop it is drawing; it is not safe for use from other goroutines.
type Monitor struct {
	screen tcell.Screen
	km     *xkb.Keymap
	loop   *keylog.Loop
	recent []recentEvent
}

// NewMonitor wires a monitor to the loop it will draw. Register it on the
// same loop with AddTracker so the recent-events tail fills up.
func NewMonitor(loop *keylog.Loop, km *xkb.Keymap, screen tcell.Screen) *Monitor {
	return &Monitor{
		screen: screen,
		km:     km,
		loop:   loop,
		recent: make([]recentEvent, 0, maxRecent),
	}
}

// HandleTransitionNow appends the transition to the recent-events tail.
func (m *Monitor) HandleTransitionNow(tr *model.Transition, _ bool) {
	marker := "up  "
	if tr.Pressed {
		marker = "down"
	}

	event := recentEvent{
		text:    fmt.Sprintf("%s %-16s mods %s", marker, m.keyLabel(tr.Keycode), tr.After.ModsEffective),
		pressed: tr.Pressed,
	}

	m.recent = append(m.recent, event)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[1:]
	}
}

// Run feeds lines to the loop and redraws after every event until the line
// stream closes or the user quits.
func (m *Monitor) Run(lines <-chan string) error {
	if err := m.screen.Init(); err != nil {
		return fmt.Errorf("could not initialize screen: %w", err)
	}
	defer m.screen.Fini()

	// PollEvent returns nil once the screen is finalized, stopping the pump.
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := m.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	m.Draw()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			m.loop.HandleLine(line)
			m.Draw()
		case ev := <-events:
			if m.handleEvent(ev) {
				return nil
			}
		}
	}
}

// handleEvent reports whether the user asked to quit.
func (m *Monitor) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return true
		}
		if ev.Key() == tcell.KeyRune && ev.Rune() == 'q' {
			return true
		}
	case *tcell.EventResize:
		m.screen.Sync()
		m.Draw()
	}

	return false
}

// Draw repaints the whole view from the loop's current state.
func (m *Monitor) Draw() {
	m.screen.Clear()

	state := m.loop.State()
	comps := state.Components()

	m.puts(0, 0, styleTitle, m.km.Name())

	m.puts(0, 2, styleLabel, "mods")
	m.puts(7, 2, styleValue, fmt.Sprintf("depressed %s   latched %s   locked %s   effective %s",
		comps.ModsDepressed, comps.ModsLatched, comps.ModsLocked, comps.ModsEffective))

	m.puts(0, 3, styleLabel, "group")
	m.puts(7, 3, styleValue, fmt.Sprintf("%s   (depressed %+d, latched %+d, locked %d)",
		m.groupLabel(comps.GroupEffective), comps.GroupDepressed, comps.GroupLatched, comps.GroupLocked))

	m.puts(0, 4, styleLabel, "leds")
	ledMask := state.LEDMask()
	col := 7
	for i, led := range m.km.LEDs() {
		style := styleDim
		mark := "( )"
		if ledMask&(1<<i) != 0 {
			style = styleActive
			mark = "(*)"
		}

		col = m.puts(col, 4, style, fmt.Sprintf("%s %s", mark, led.Name)) + 3
	}

	m.puts(0, 6, styleLabel, "recent")
	for i, event := range m.recent {
		style := styleDim
		if event.pressed {
			style = styleValue
		}

		m.puts(2, 7+i, style, event.text)
	}

	_, height := m.screen.Size()
	m.puts(0, height-1, styleDim, "q quits")

	m.screen.Show()
}

// puts draws a string and returns the column after its last cell.
func (m *Monitor) puts(x, y int, style tcell.Style, text string) int {
	col := x
	for _, r := range text {
		m.screen.SetContent(col, y, r, nil, style)
		col++
	}

	return col
}

func (m *Monitor) keyLabel(kc xkb.KeyCode) string {
	syms := m.loop.State().KeyGetSyms(kc)
	if len(syms) == 0 {
		return fmt.Sprintf("keycode %d", kc)
	}

	return syms[0].Name()
}

func (m *Monitor) groupLabel(group xkb.GroupIndex) string {
	name, err := m.km.GroupName(group)
	if err != nil {
		return fmt.Sprintf("group %d", group)
	}

	return name
}
