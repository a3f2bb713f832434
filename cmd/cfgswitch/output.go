package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/aleister1102/cfgswitch/internal/comparator"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

func printSuccess(format string, args ...any) {
	if jsonOutput {
		return
	}
	successColor.Fprintf(stdout, format+"\n", args...)
}

func printInfo(format string, args ...any) {
	if jsonOutput {
		return
	}
	infoColor.Fprintf(stdout, format+"\n", args...)
}

func printWarning(format string, args ...any) {
	warningColor.Fprintf(stderr, format+"\n", args...)
}

func printError(format string, args ...any) {
	errorColor.Fprintf(stderr, "Error: "+format+"\n", args...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(stdout)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// colorStatus renders a comparison result for humans.
func colorStatus(status comparator.Status) string {
	switch status.Kind {
	case comparator.FullMatch:
		return successColor.Sprint("full match")
	case comparator.PartialMatch:
		return infoColor.Sprint("partial match")
	case comparator.Error:
		return errorColor.Sprint("error: " + status.Reason)
	default:
		return dimColor.Sprint("no match")
	}
}

func humanSize(n int64) string {
	if n < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}
