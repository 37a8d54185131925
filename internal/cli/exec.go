package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/vogtb/sheetcore/internal/engine"
	"github.com/vogtb/sheetcore/internal/formula"
)

// Exec runs one sheetctl command line (already split into fields, verb
// first) against sheet, writing its result to w. Shared by every
// standalone subcommand and by the repl loop, so both surfaces stay in
// lockstep.
func Exec(sheet *engine.Sheet, w io.Writer, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	verb, args := fields[0], fields[1:]
	switch verb {
	case "set":
		return execSet(sheet, w, args)
	case "formula":
		return execFormula(sheet, w, args)
	case "get":
		return execGet(sheet, w, args)
	case "source":
		return execSource(sheet, w, args)
	case "clear":
		return execClear(sheet, w, args)
	case "insert-rows":
		return execSplice(sheet, w, "insert-rows <at-position> <count>", args, sheet.InsertRows)
	case "delete-rows":
		return execSplice(sheet, w, "delete-rows <from-position> <to-position>", args, sheet.DeleteRows)
	case "insert-cols":
		return execSplice(sheet, w, "insert-cols <at-position> <count>", args, sheet.InsertCols)
	case "delete-cols":
		return execSplice(sheet, w, "delete-cols <from-position> <to-position>", args, sheet.DeleteCols)
	default:
		return fmt.Errorf("cli: unknown command %q", verb)
	}
}

func execSet(sheet *engine.Sheet, w io.Writer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("cli: usage: set <cell> <number>")
	}
	pos, err := ParsePosition(args[0])
	if err != nil {
		return err
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("cli: %q is not a number: %w", args[1], err)
	}
	sheet.SetValue(pos, value)
	fmt.Fprintf(w, "%s = %v\n", args[0], value)
	return nil
}

func execFormula(sheet *engine.Sheet, w io.Writer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("cli: usage: formula <cell> <expression>")
	}
	pos, err := ParsePosition(args[0])
	if err != nil {
		return err
	}
	sheet.SetFormula(pos, args[1])
	fmt.Fprintf(w, "%s => %s\n", args[0], formula.ToDisplayString(sheet.GetValue(pos)))
	return nil
}

func execGet(sheet *engine.Sheet, w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("cli: usage: get <cell>")
	}
	pos, err := ParsePosition(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", formula.ToDisplayString(sheet.GetValue(pos)))
	return nil
}

func execSource(sheet *engine.Sheet, w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("cli: usage: source <cell>")
	}
	pos, err := ParsePosition(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", sheet.GetSource(pos))
	return nil
}

func execClear(sheet *engine.Sheet, w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("cli: usage: clear <cell>")
	}
	pos, err := ParsePosition(args[0])
	if err != nil {
		return err
	}
	sheet.ClearCell(pos)
	fmt.Fprintf(w, "%s cleared\n", args[0])
	return nil
}

func execSplice(sheet *engine.Sheet, w io.Writer, usage string, args []string, apply func(int, int)) error {
	if len(args) != 2 {
		return fmt.Errorf("cli: usage: %s", usage)
	}
	first, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("cli: %q is not an integer: %w", args[0], err)
	}
	second, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("cli: %q is not an integer: %w", args[1], err)
	}
	apply(first, second)
	fmt.Fprintf(w, "ok\n")
	return nil
}
