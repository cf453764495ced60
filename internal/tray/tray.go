// Package tray provides the capture tray menu using getlantern/systray.
package tray

import (
	"github.com/getlantern/systray"
)

// MenuItem is one entry of the tray menu.
type MenuItem struct {
	ID       int
	Title    string
	Disabled bool
	Callback func()
	item     *systray.MenuItem
}

// Tray owns the notification-area icon and its menu.
type Tray struct {
	items   []*MenuItem
	tooltip string
	onExit  func()
	readyCh chan struct{}
	quitCh  chan struct{}
}

// Ready is closed once the menu exists.
func (t *Tray) Ready() <-chan struct{} {
	return t.readyCh
}

// New returns a tray whose menu is built when Run starts.
func New(tooltip string) *Tray {
	t := &Tray{
		items:   make([]*MenuItem, 0),
		tooltip: tooltip,
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}

	t.onExit = func() {
		close(t.quitCh)
	}

	return t
}

// AddMenuItem queues an item and returns its id for later updates.
func (t *Tray) AddMenuItem(title string, callback func()) int {
	id := len(t.items)
	menuItem := &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	}
	t.items = append(t.items, menuItem)
	return id
}

// AddLabel adds a disabled item used for status text.
func (t *Tray) AddLabel(title string) int {
	id := t.AddMenuItem(title, nil)
	t.items[id].Disabled = true
	return id
}

// AddSeparator queues a divider line.
func (t *Tray) AddSeparator() {
	t.items = append(t.items, nil) // nil indicates separator
}

// built returns the systray item for id once the menu exists.
func (t *Tray) built(id int) *systray.MenuItem {
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return nil
	}
	return t.items[id].item
}

// SetItemChecked toggles the check mark on an item.
func (t *Tray) SetItemChecked(id int, checked bool) {
	item := t.built(id)
	switch {
	case item == nil:
	case checked:
		item.Check()
	default:
		item.Uncheck()
	}
}

// SetItemTitle changes the text of a menu item after the menu is built.
func (t *Tray) SetItemTitle(id int, title string) {
	if item := t.built(id); item != nil {
		item.SetTitle(title)
	}
}

// SetItemEnabled enables or greys out a menu item.
func (t *Tray) SetItemEnabled(id int, enabled bool) {
	item := t.built(id)
	switch {
	case item == nil:
	case enabled:
		item.Enable()
	default:
		item.Disable()
	}
}

// SetActive switches between the idle and capturing icons.
func (t *Tray) SetActive(active bool) {
	systray.SetIcon(Icon(active))
}

// Run blocks on the platform event loop until Stop.
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

// setupMenu runs on the systray thread once the icon exists.
func (t *Tray) setupMenu() {
	systray.SetTitle("keylatch")
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(Icon(false))

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}

		menuItem.item = systray.AddMenuItem(menuItem.Title, "")
		if menuItem.Disabled {
			menuItem.item.Disable()
		}
		if menuItem.Callback != nil {
			go t.dispatch(menuItem)
		}
	}

	close(t.readyCh)
}

// dispatch runs the item's callback on every click until the tray exits.
func (t *Tray) dispatch(mi *MenuItem) {
	for {
		select {
		case <-mi.item.ClickedCh:
			mi.Callback()
		case <-t.quitCh:
			return
		}
	}
}

// Stop ends the event loop.
func (t *Tray) Stop() {
	systray.Quit()
}
