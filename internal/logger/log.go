package logger

import (
	"bytes"
	"fmt"

	"github.com/logrusorgru/aurora/v3"
)

// Printer is satisfied by *log.Logger from the standard library.
type Printer interface {
	Output(calldepth int, s string) error
}

type Logger interface {
	Successf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Error(err error)
	SQL(query string, args ...interface{})
}

// ColoredLogger writes colorized human oriented output, meant for terminals.
type ColoredLogger struct {
	printer Printer
	debug   bool
	sql     bool
}

// BWLogger writes the same output without color codes, meant for pipes
// and log collectors.
type BWLogger struct {
	printer Printer
	debug   bool
	sql     bool
}

var _ Logger = (*ColoredLogger)(nil)
var _ Logger = (*BWLogger)(nil)

func NewColorLogger(p Printer, sql, debug bool) *ColoredLogger {
	return &ColoredLogger{
		printer: p,
		debug:   debug,
		sql:     sql,
	}
}

func NewBWLogger(p Printer, sql, debug bool) *BWLogger {
	return &BWLogger{
		printer: p,
		debug:   debug,
		sql:     sql,
	}
}

func sqlMessage(query string, args []interface{}) string {
	var buf bytes.Buffer
	buf.WriteString("\ngodwit running sql: ")
	buf.WriteString(query)

	if len(args) > 0 {
		buf.WriteString("\nquery parameters: ")

		for i := range args {
			if i+1 < len(args) {
				buf.WriteString(fmt.Sprintf("{%#v}, ", args[i]))
			} else {
				buf.WriteString(fmt.Sprintf("{%#v}", args[i]))
			}
		}
	}

	return buf.String()
}

func (cl *ColoredLogger) Debugf(format string, args ...interface{}) {
	if cl.debug {
		msg := fmt.Sprintf("\ngodwit debug: "+format, args...)
		_ = cl.printer.Output(2, aurora.Yellow(msg).String())
	}
}

func (cl *ColoredLogger) Successf(format string, args ...interface{}) {
	msg := fmt.Sprintf("\ngodwit: "+format, args...)
	_ = cl.printer.Output(2, aurora.Green(msg).String())
}

func (cl *ColoredLogger) Error(err error) {
	msg := fmt.Sprintf("\ngodwit error: %s", err.Error())
	_ = cl.printer.Output(2, aurora.Red(msg).String())
}

func (cl *ColoredLogger) SQL(query string, args ...interface{}) {
	if cl.sql {
		_ = cl.printer.Output(2, aurora.Gray(15, sqlMessage(query, args)).String())
	}
}

func (bwl *BWLogger) Debugf(format string, args ...interface{}) {
	if bwl.debug {
		msg := fmt.Sprintf("\ngodwit debug: "+format, args...)
		_ = bwl.printer.Output(2, msg)
	}
}

func (bwl *BWLogger) Successf(format string, args ...interface{}) {
	msg := fmt.Sprintf("\ngodwit: "+format, args...)
	_ = bwl.printer.Output(2, msg)
}

func (bwl *BWLogger) Error(err error) {
	msg := fmt.Sprintf("\ngodwit error: %s", err.Error())
	_ = bwl.printer.Output(2, msg)
}

func (bwl *BWLogger) SQL(query string, args ...interface{}) {
	if bwl.sql {
		_ = bwl.printer.Output(2, sqlMessage(query, args))
	}
}
