package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/pantti/internal/palpa"
)

// Texts of the lookup verdict.
const (
	DepositFoundTitle = "Pantti get!"
	NoDepositTitle    = "No deposit"
	NoDepositHint     = "Check if the barcode was correct and scan again if it was not."
)

// Printer provides methods for printing UI components to a writer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected width.
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Detail) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintResult prints any result box
func (p *Printer) PrintResult(r *Result) {
	p.Println(r.SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.PrintResult(NewSuccessResult(title, details...))
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.PrintResult(NewWarningResult(title, details...))
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.PrintResult(NewFailureResult(title, err, troubleshooting))
}

// PrintLookup prints the verdict of a deposit lookup together with the
// raw response.
func (p *Printer) PrintLookup(barcode string, resp palpa.Response) {
	p.PrintResult(LookupResult(barcode, resp))
}

// LookupResult builds the result box for a deposit lookup.
func LookupResult(barcode string, resp palpa.Response) *Result {
	var r *Result
	if resp.DepositFound() {
		r = NewSuccessResult(DepositFoundTitle)
	} else {
		r = NewWarningResult(NoDepositTitle)
	}

	r.AddDetail("Barcode", barcode)
	if resp.ProductName != nil {
		r.AddDetail("Product", *resp.ProductName)
	}
	if resp.RecyclingSystem != nil {
		r.AddDetail("Recycling system", *resp.RecyclingSystem)
	}
	if resp.Deposit != nil {
		r.AddDetail("Deposit", *resp.Deposit)
	}
	r.AddDetail("Status", fmt.Sprint(resp.Status))

	if !resp.DepositFound() {
		r.Troubleshooting = []string{NoDepositHint}
	}
	return r.SetBody(resp.Pretty())
}
