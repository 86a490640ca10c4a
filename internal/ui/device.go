package ui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/pleimann/camel-arbiter/internal/hid"
)

// deviceSelectModel wraps huh form in Bubble Tea for proper escape handling
type deviceSelectModel struct {
	form    *huh.Form
	aborted bool
}

func (m deviceSelectModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m deviceSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.aborted = true
			return m, tea.Quit
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, tea.Quit
	}

	return m, cmd
}

func (m deviceSelectModel) View() string {
	if m.form.State == huh.StateCompleted {
		return ""
	}
	return m.form.View()
}

// SelectDevice asks the user to pick one of devices. It returns nil when
// the user cancels.
func SelectDevice(devices []hid.DeviceInfo) (*hid.DeviceInfo, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices to select from")
	}

	options := make([]huh.Option[int], len(devices))
	for i, d := range devices {
		label := fmt.Sprintf("%s  %s", render(DeviceIDStyle, d.ID()), deviceName(d))
		options[i] = huh.NewOption(label, i)
	}

	var selected int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Select HID Device").
				Description("Choose the macropad to arbitrate (esc to cancel)").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(customTheme()).WithShowHelp(false)

	final, err := tea.NewProgram(deviceSelectModel{form: form}).Run()
	if err != nil {
		return nil, err
	}
	if final.(deviceSelectModel).aborted {
		return nil, nil
	}

	return &devices[selected], nil
}

func deviceName(d hid.DeviceInfo) string {
	name := d.Product
	if name == "" {
		name = "Unknown Device"
	}
	if d.Manufacturer != "" {
		name = d.Manufacturer + " " + name
	}
	return name
}

// PrintDeviceList writes a styled list of HID devices
func PrintDeviceList(w io.Writer, devices []hid.DeviceInfo) {
	if len(devices) == 0 {
		fmt.Fprintln(w, Warning("No HID devices found"))
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, Title("HID Devices"))
	fmt.Fprintln(w, Muted(fmt.Sprintf("Found %d device(s)", len(devices))))
	fmt.Fprintln(w)

	for _, d := range devices {
		details := []string{render(DeviceNameStyle, deviceName(d))}
		if d.UsagePage != 0 {
			details = append(details, Muted(fmt.Sprintf("usage 0x%04X/0x%04X", d.UsagePage, d.Usage)))
		}
		fmt.Fprintf(w, "  %s  %s\n", render(DeviceIDStyle, d.ID()), strings.Join(details, " "))
	}
	fmt.Fprintln(w)
}

// PrintDeviceSaved reports a device written to the config file
func PrintDeviceSaved(w io.Writer, configPath string, created bool, vendorID, productID uint16) {
	msg := "Device configuration updated"
	if created {
		msg = "Device configuration created"
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, Success(msg))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", Muted("Config:"), configPath)
	fmt.Fprintf(w, "  %s %s\n", Muted("Device:"), render(DeviceIDStyle, fmt.Sprintf("0x%04X:0x%04X", vendorID, productID)))
	fmt.Fprintln(w)
}

// customTheme returns a huh theme matching the palette
func customTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorPrimary)
	t.Focused.UnselectedOption = t.Focused.UnselectedOption.Foreground(ColorText)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorPrimary)

	return t
}
