package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/pleimann/camel-arbiter/internal/utils"
)

type example struct {
	cmd  string
	desc string
}

// PrintUsage writes the help text
func PrintUsage(w io.Writer, version string) {
	name := utils.ExecutableName()

	PrintVersion(w, version)
	fmt.Fprintln(w, Muted("Input arbitration between a macropad and a TUI"))
	fmt.Fprintln(w)

	printSection(w, "Usage", []string{
		name + " [flags]              Run the arbiter",
		name + " list-devices         List available HID devices",
		name + " set-device [args]    Configure the HID device",
		name + " schemes [flags]      Show the configured schemes and arbitration",
		name + " help                 Show this help message",
	})

	printSection(w, "Flags", []string{
		"-config string    Path to configuration file (default \"config.yaml\")",
		"-verbose          Log scheme and dispatch activity",
		"-version          Print version and exit",
	})

	fmt.Fprintln(w, Bold("Commands"))
	printCommand(w, "list-devices", "List available HID devices")
	printCommand(w, "set-device", "Set the HID device in the config file",
		"Run "+Code(name+" set-device --help")+" for more information")
	printCommand(w, "schemes", "Build the schemes from the config and show which",
		"controls each one claims")

	fmt.Fprintln(w, Bold("Examples"))
	printExamples(w, []example{
		{name, "Run with default config.yaml"},
		{name + " -config my.yaml", "Run with custom config file"},
		{name + " -verbose", "Log every dispatched event"},
		{name + " schemes", "Check a config before running it"},
		{name + " set-device 0x1234 0x5678", "Set device by vendor/product ID"},
	})
}

func printSection(w io.Writer, title string, items []string) {
	fmt.Fprintln(w, Bold(title))
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
	fmt.Fprintln(w)
}

func printCommand(w io.Writer, name string, lines ...string) {
	fmt.Fprintf(w, "  %s\n", render(CommandStyle, name))
	for _, l := range lines {
		fmt.Fprintf(w, "      %s\n", l)
	}
	fmt.Fprintln(w)
}

func printExamples(w io.Writer, examples []example) {
	width := 0
	for _, ex := range examples {
		width = max(width, len(ex.cmd))
	}
	for _, ex := range examples {
		padding := strings.Repeat(" ", width-len(ex.cmd)+2)
		fmt.Fprintf(w, "  %s%s%s\n", render(SubtitleStyle, ex.cmd), padding, Muted(ex.desc))
	}
	fmt.Fprintln(w)
}

// PrintSetDeviceUsage writes the help text for set-device
func PrintSetDeviceUsage(w io.Writer) {
	name := utils.ExecutableName()

	fmt.Fprintln(w, Bold("Usage:"), name+" set-device [options] [vendor_id product_id]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Set the HID device in the configuration file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, Muted("If vendor_id and product_id are provided, updates the config directly."))
	fmt.Fprintln(w, Muted("Otherwise, displays a list of connected devices to choose from."))
	fmt.Fprintln(w)

	printSection(w, "Arguments", []string{
		Subtitle("vendor_id") + "    Device vendor ID (hex with 0x prefix or decimal)",
		Subtitle("product_id") + "   Device product ID (hex with 0x prefix or decimal)",
	})
	printSection(w, "Options", []string{
		Subtitle("-config string") + "    Path to configuration file (default \"config.yaml\")",
	})

	fmt.Fprintln(w, Bold("Examples"))
	printExamples(w, []example{
		{name + " set-device", "Interactive selection"},
		{name + " set-device 0x1234 0x5678", "Direct specification"},
		{name + " set-device -config my.yaml", "Use different config"},
	})
}

// PrintVersion writes the name and version
func PrintVersion(w io.Writer, version string) {
	fmt.Fprintf(w, "%s %s\n", Title(utils.ExecutableName()), render(SuccessStyle, "v"+version))
}

// PrintError writes a styled error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintln(w, Error(message))
}

// PrintFatalError writes a styled error with context
func PrintFatalError(w io.Writer, context, message string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, Error(context))
	fmt.Fprintf(w, "  %s\n", Muted(message))
	fmt.Fprintln(w)
}
