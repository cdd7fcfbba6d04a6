package ui

import (
	"fmt"
	"image/color"

	"wallclock/display"
	"wallclock/netcfg"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

var (
	colorBackground = color.RGBA{R: 0x08, G: 0x0B, B: 0x10, A: 0xFF}
	colorBar        = color.RGBA{R: 0x16, G: 0x1C, B: 0x26, A: 0xFF}
	colorText       = color.RGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}
	colorDim        = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xFF}
	colorAccent     = color.RGBA{R: 0x00, G: 0x96, B: 0x88, A: 0xFF}
	colorPanel      = color.RGBA{R: 0x26, G: 0x32, B: 0x38, A: 0xFF}
	colorBorder     = color.RGBA{R: 0x60, G: 0x7D, B: 0x8B, A: 0xFF}
	colorOn         = color.RGBA{R: 0x9A, G: 0xC6, B: 0xFF, A: 0xFF}
)

var (
	fontClock  = &freemono.Bold24pt7b
	fontDate   = &freemono.Regular12pt7b
	fontLabel  = &freemono.Regular9pt7b
	fontStatus = &proggy.TinySZ8pt7b
)

const (
	statusBarH = 32
	consoleH   = 100
	rowH       = 40
)

// Rect is a widget's hit and paint area.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.W && y < r.Y+r.H
}

// NetworkRow is one line of the settings network list.
type NetworkRow struct {
	Label  string
	Active bool
}

// Screen holds all widget state and paints complete frames.
type Screen struct {
	w, h int

	timeText string
	dateText string
	status   string

	settingsOpen bool
	prefs        netcfg.Prefs
	rows         []NetworkRow

	popupTitle string
	popupText  string

	entryOpen  bool
	entrySSID  string
	entryText  []rune
	entryShift bool

	console *display.Framebuffer
	term    *tinyterm.Terminal

	rects [widgetCount]Rect
}

// NewScreen lays out the widgets for a w x h panel.
func NewScreen(w, h int) *Screen {
	s := &Screen{w: w, h: h, prefs: netcfg.DefaultPrefs()}

	s.console = display.NewCanvas(w, consoleH)
	s.console.Fill(colorBackground)
	s.term = tinyterm.NewTerminal(s.console)
	s.term.Configure(&tinyterm.Config{
		Font:              fontStatus,
		FontHeight:        10,
		FontOffset:        6,
		UseSoftwareScroll: true,
	})

	s.rects[WidgetSettingsButton] = Rect{X: w - 110, Y: 4, W: 104, H: statusBarH - 8}
	s.rects[WidgetClock] = Rect{X: 0, Y: statusBarH, W: w, H: h - statusBarH - consoleH}

	// Settings panel.
	p := s.panelRect()
	s.rects[WidgetSettingsClose] = Rect{X: p.X + p.W - 44, Y: p.Y + 4, W: 40, H: 32}
	toggles := []WidgetID{WidgetToggle24h, WidgetToggleSeconds, WidgetToggleDay, WidgetToggleDate}
	tw := (p.W - 20) / len(toggles)
	for i, id := range toggles {
		s.rects[id] = Rect{X: p.X + 10 + i*tw, Y: p.Y + 44, W: tw - 8, H: 32}
	}
	for i := 0; i < MaxNetworkRows; i++ {
		s.rects[NetworkRowWidget(i)] = Rect{X: p.X + 10, Y: p.Y + 92 + i*rowH, W: p.W - 20, H: rowH - 6}
	}

	q := s.popupRect()
	s.rects[WidgetPopupClose] = Rect{X: q.X + q.W/2 - 40, Y: q.Y + q.H - 40, W: 80, H: 32}

	// Password entry: a text field, the key grid and a row of actions.
	e := s.entryRect()
	kw := (e.W - 20) / keyColumns
	for i := 0; i < KeyCount; i++ {
		row, col := i/keyColumns, i%keyColumns
		s.rects[KeyWidget(i)] = Rect{X: e.X + 10 + col*kw, Y: e.Y + entryKeysY + row*keyH, W: kw - 4, H: keyH - 4}
	}
	actions := []WidgetID{WidgetEntryShift, WidgetEntryDelete, WidgetEntryCancel, WidgetEntryConnect}
	aw := (e.W - 20) / len(actions)
	ay := e.Y + entryKeysY + (KeyCount+keyColumns-1)/keyColumns*keyH + 2
	for i, id := range actions {
		s.rects[id] = Rect{X: e.X + 10 + i*aw, Y: ay, W: aw - 4, H: keyH - 4}
	}
	return s
}

const (
	entryKeysY = 70
	keyH       = 38
)

func (s *Screen) entryRect() Rect {
	return Rect{X: 8, Y: statusBarH + 4, W: s.w - 16, H: s.h - statusBarH - 8}
}

func (s *Screen) panelRect() Rect {
	return Rect{X: s.w / 8, Y: statusBarH + 8, W: s.w * 3 / 4, H: 92 + MaxNetworkRows*rowH + 8}
}

func (s *Screen) popupRect() Rect {
	return Rect{X: s.w/2 - 180, Y: s.h/2 - 70, W: 360, H: 140}
}

// Rect returns the area of widget id.
func (s *Screen) Rect(id WidgetID) Rect {
	if id >= widgetCount {
		return Rect{}
	}
	return s.rects[id]
}

// SetTime sets the clock and date labels.
func (s *Screen) SetTime(timeText, dateText string) {
	s.timeText, s.dateText = timeText, dateText
}

// Time returns the clock label.
func (s *Screen) Time() string { return s.timeText }

// SetStatus sets the status bar text.
func (s *Screen) SetStatus(text string) { s.status = text }

// Status returns the status bar text.
func (s *Screen) Status() string { return s.status }

// SetPrefs updates the preference toggles.
func (s *Screen) SetPrefs(p netcfg.Prefs) { s.prefs = p }

// SetNetworks replaces the network rows. Rows past MaxNetworkRows are
// dropped.
func (s *Screen) SetNetworks(rows []NetworkRow) {
	if len(rows) > MaxNetworkRows {
		rows = rows[:MaxNetworkRows]
	}
	s.rows = append(s.rows[:0], rows...)
}

// Networks returns the network rows.
func (s *Screen) Networks() []NetworkRow { return s.rows }

func (s *Screen) OpenSettings()      { s.settingsOpen = true }
func (s *Screen) CloseSettings()     { s.settingsOpen = false }
func (s *Screen) SettingsOpen() bool { return s.settingsOpen }

// ShowPopup opens the modal message box.
func (s *Screen) ShowPopup(title, text string) {
	s.popupTitle, s.popupText = title, text
}

func (s *Screen) ClosePopup()     { s.popupTitle, s.popupText = "", "" }
func (s *Screen) PopupOpen() bool { return s.popupTitle != "" }

// OpenEntry shows the password entry for ssid, prefilled with text.
func (s *Screen) OpenEntry(ssid, text string) {
	s.entryOpen = true
	s.entrySSID = ssid
	s.entryText = append(s.entryText[:0], []rune(text)...)
	s.entryShift = false
}

// CloseEntry hides the password entry and forgets the typed text.
func (s *Screen) CloseEntry() {
	s.entryOpen = false
	s.entrySSID = ""
	s.entryText = s.entryText[:0]
	s.entryShift = false
}

func (s *Screen) EntryOpen() bool   { return s.entryOpen }
func (s *Screen) EntrySSID() string { return s.entrySSID }
func (s *Screen) EntryText() string { return string(s.entryText) }
func (s *Screen) Shifted() bool     { return s.entryShift }

// TypeKey appends the character of key widget id, upper-cased while shift
// is on. It reports false for non-key widgets and once the text is
// netcfg.MaxPasswordLen bytes long.
func (s *Screen) TypeKey(id WidgetID) bool {
	r, ok := id.Key()
	if !ok || !s.entryOpen {
		return false
	}
	if s.entryShift && r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	if len(string(s.entryText))+1 > netcfg.MaxPasswordLen {
		return false
	}
	s.entryText = append(s.entryText, r)
	return true
}

// Backspace removes the last typed character.
func (s *Screen) Backspace() {
	if n := len(s.entryText); n > 0 {
		s.entryText = s.entryText[:n-1]
	}
}

// ToggleShift flips between lower and upper case letters.
func (s *Screen) ToggleShift() { s.entryShift = !s.entryShift }

// Logf appends a line to the status console.
func (s *Screen) Logf(format string, args ...any) {
	fmt.Fprintf(s.term, format+"\n", args...)
}

// Hit returns the topmost widget at (x, y). The popup and the password
// entry are modal, and the settings panel hides the clock while open.
func (s *Screen) Hit(x, y int) WidgetID {
	if s.PopupOpen() {
		if s.rects[WidgetPopupClose].Contains(x, y) {
			return WidgetPopupClose
		}
		return WidgetNone
	}
	if s.entryOpen {
		for i := 0; i < KeyCount; i++ {
			if id := KeyWidget(i); s.rects[id].Contains(x, y) {
				return id
			}
		}
		for _, id := range []WidgetID{WidgetEntryShift, WidgetEntryDelete, WidgetEntryCancel, WidgetEntryConnect} {
			if s.rects[id].Contains(x, y) {
				return id
			}
		}
		return WidgetNone
	}
	if s.settingsOpen {
		for _, id := range []WidgetID{WidgetSettingsClose, WidgetToggle24h, WidgetToggleSeconds, WidgetToggleDay, WidgetToggleDate} {
			if s.rects[id].Contains(x, y) {
				return id
			}
		}
		for i := range s.rows {
			if id := NetworkRowWidget(i); s.rects[id].Contains(x, y) {
				return id
			}
		}
		return WidgetNone
	}
	if s.rects[WidgetSettingsButton].Contains(x, y) {
		return WidgetSettingsButton
	}
	if s.rects[WidgetClock].Contains(x, y) {
		return WidgetClock
	}
	return WidgetNone
}

// Draw paints a complete frame into fb.
func (s *Screen) Draw(fb *display.Framebuffer) {
	fb.Fill(colorBackground)

	// Status bar.
	_ = fb.FillRectangle(0, 0, int16(s.w), statusBarH, colorBar)
	drawText(fb, fontStatus, 8, 20, truncateToWidth(fontStatus, s.status, s.w-140), colorDim)
	s.drawButton(fb, s.rects[WidgetSettingsButton], "Settings", s.settingsOpen)

	// Clock face.
	c := s.rects[WidgetClock]
	cy := c.Y + c.H/2
	drawCentered(fb, fontClock, s.w/2, cy, s.timeText, colorText)
	if s.dateText != "" {
		drawCentered(fb, fontDate, s.w/2, cy+40, s.dateText, colorDim)
	}

	fb.Blit(0, s.h-consoleH, s.console)

	if s.settingsOpen {
		s.drawSettings(fb)
	}
	if s.entryOpen {
		s.drawEntry(fb)
	}
	if s.PopupOpen() {
		s.drawPopup(fb)
	}
}

func (s *Screen) drawSettings(fb *display.Framebuffer) {
	p := s.panelRect()
	drawBox(fb, p, colorPanel, colorBorder)
	drawText(fb, fontLabel, p.X+12, p.Y+26, "Settings", colorText)
	s.drawButton(fb, s.rects[WidgetSettingsClose], "X", false)

	for _, t := range []struct {
		id    WidgetID
		label string
		on    bool
	}{
		{WidgetToggle24h, "24h", s.prefs.Hour24},
		{WidgetToggleSeconds, "Secs", s.prefs.Seconds},
		{WidgetToggleDay, "Day", s.prefs.ShowDay},
		{WidgetToggleDate, "Date", s.prefs.ShowDate},
	} {
		s.drawButton(fb, s.rects[t.id], t.label, t.on)
	}

	if len(s.rows) == 0 {
		r := s.rects[NetworkRowWidget(0)]
		drawText(fb, fontLabel, r.X+8, r.Y+22, "WiFi: Looking for Networks...", colorDim)
		return
	}
	for i, row := range s.rows {
		r := s.rects[NetworkRowWidget(i)]
		fg := colorText
		if row.Active {
			fg = colorOn
		}
		_ = fb.FillRectangle(int16(r.X), int16(r.Y+r.H-1), int16(r.W), 1, colorBorder)
		drawText(fb, fontLabel, r.X+8, r.Y+22, truncateToWidth(fontLabel, row.Label, r.W-16), fg)
	}
}

func (s *Screen) drawEntry(fb *display.Framebuffer) {
	e := s.entryRect()
	drawBox(fb, e, colorPanel, colorBorder)
	drawText(fb, fontLabel, e.X+12, e.Y+22, truncateToWidth(fontLabel, "Password for "+s.entrySSID, e.W-24), colorText)

	field := Rect{X: e.X + 10, Y: e.Y + 30, W: e.W - 20, H: 32}
	drawBox(fb, field, colorBackground, colorBorder)
	drawText(fb, fontLabel, field.X+8, field.Y+21, tailToWidth(fontLabel, string(s.entryText), field.W-16), colorOn)

	for i := 0; i < KeyCount; i++ {
		id := KeyWidget(i)
		r, _ := id.Key()
		if s.entryShift && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		s.drawButton(fb, s.rects[id], string(r), false)
	}
	s.drawButton(fb, s.rects[WidgetEntryShift], "Shift", s.entryShift)
	s.drawButton(fb, s.rects[WidgetEntryDelete], "Del", false)
	s.drawButton(fb, s.rects[WidgetEntryCancel], "Cancel", false)
	s.drawButton(fb, s.rects[WidgetEntryConnect], "Connect", true)
}

func (s *Screen) drawPopup(fb *display.Framebuffer) {
	q := s.popupRect()
	drawBox(fb, q, colorPanel, colorBorder)
	drawCentered(fb, fontLabel, q.X+q.W/2, q.Y+28, s.popupTitle, colorText)
	drawCentered(fb, fontStatus, q.X+q.W/2, q.Y+60, truncateToWidth(fontStatus, s.popupText, q.W-20), colorDim)
	s.drawButton(fb, s.rects[WidgetPopupClose], "OK", false)
}

func (s *Screen) drawButton(fb *display.Framebuffer, r Rect, label string, on bool) {
	bg := colorBar
	if on {
		bg = colorAccent
	}
	drawBox(fb, r, bg, colorBorder)
	drawCentered(fb, fontLabel, r.X+r.W/2, r.Y+r.H/2+5, label, colorText)
}

func drawBox(fb *display.Framebuffer, r Rect, fill, border color.RGBA) {
	x, y, w, h := int16(r.X), int16(r.Y), int16(r.W), int16(r.H)
	_ = fb.FillRectangle(x, y, w, h, border)
	_ = fb.FillRectangle(x+2, y+2, w-4, h-4, fill)
}

// drawText writes s with its baseline at y.
func drawText(fb *display.Framebuffer, f tinyfont.Fonter, x, y int, s string, c color.RGBA) {
	tinyfont.WriteLine(fb, f, int16(x), int16(y), s, c)
}

func drawCentered(fb *display.Framebuffer, f tinyfont.Fonter, cx, y int, s string, c color.RGBA) {
	drawText(fb, f, cx-textWidth(f, s)/2, y, s, c)
}

func truncateToWidth(f tinyfont.Fonter, s string, maxW int) string {
	if maxW <= 0 {
		return ""
	}
	if textWidth(f, s) <= maxW {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if textWidth(f, string(r)+"...") <= maxW {
			return string(r) + "..."
		}
	}
	return ""
}

// tailToWidth keeps the end of s, which is where typing happens.
func tailToWidth(f tinyfont.Fonter, s string, maxW int) string {
	r := []rune(s)
	for len(r) > 0 && textWidth(f, string(r)) > maxW {
		r = r[1:]
	}
	return string(r)
}

func textWidth(f tinyfont.Fonter, s string) int {
	w, _ := tinyfont.LineWidth(f, s)
	return int(w)
}
