package rsbuild

import "fmt"

// colorPrinter is satisfied by gookit themes and styles.
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// stagePrintf prints one arrow-prefixed status line in the given style.
// Every user-facing stage message goes through here so the pipeline output
// keeps a uniform shape.
func stagePrintf(p colorPrinter, format string, a ...any) {
	colArrow.Print("-> ")
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// stagePrintln is stagePrintf for unformatted lines.
func stagePrintln(p colorPrinter, a ...any) {
	colArrow.Print("-> ")
	if p == nil {
		fmt.Println(a...)
		return
	}
	p.Println(a...)
}

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}
