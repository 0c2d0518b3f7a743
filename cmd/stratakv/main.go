// Command stratakv is a thin line-oriented shell over engine.Engine, useful
// for poking at a database directory by hand. It is not the focus of this
// module — see the engine package for the storage engine itself.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/arjunvedant/stratakv/engine"
	"github.com/arjunvedant/stratakv/kviter"
)

func main() {
	dir := flag.String("dir", "", "database directory")
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: stratakv -dir <path>")
		os.Exit(1)
	}

	e, err := engine.Open(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *dir, err)
		os.Exit(1)
	}

	if err := repl(e, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// repl reads one command per line from in and writes responses to out:
//
//	put <key> <value>
//	get <key>
//	delete <key>
//	scan
//	sync
func repl(e *engine.Engine, in *os.File, out *os.File) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "put":
			if len(fields) != 3 {
				fmt.Fprintln(out, "usage: put <key> <value>")
				continue
			}
			if err := e.Put([]byte(fields[1]), []byte(fields[2])); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
		case "get":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: get <key>")
				continue
			}
			v, ok, err := e.Get([]byte(fields[1]))
			switch {
			case err != nil:
				fmt.Fprintln(out, "error:", err)
			case !ok:
				fmt.Fprintln(out, "(absent)")
			default:
				fmt.Fprintln(out, string(v))
			}
		case "delete":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: delete <key>")
				continue
			}
			if err := e.Delete([]byte(fields[1])); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
		case "scan":
			it, err := e.Scan(kviter.Unbound(), kviter.Unbound())
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			for it.Valid() {
				fmt.Fprintf(out, "%s=%s\n", it.Key(), it.Value())
				if err := it.Next(); err != nil {
					fmt.Fprintln(out, "error:", err)
					break
				}
			}
		case "sync":
			if err := e.Sync(); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
	return scanner.Err()
}
