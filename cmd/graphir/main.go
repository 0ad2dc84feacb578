// Command graphir sorts, checks and edits IR graphs described in YAML.
package main

import (
	"fmt"
	"io"
	"os"
)

const version = "0.3.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "sort":
		err = runSort(args[1:], stdout, stderr)
	case "check":
		err = runCheck(args[1:], stdout, stderr)
	case "isolate":
		err = runIsolate(args[1:], stdout, stderr)
	case "dump":
		err = runDump(args[1:], stdout, stderr)
	case "view":
		err = runView(args[1:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "graphir %s\n", version)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintln(stderr, renderError(err))
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	usage := `graphir - topological ordering for IR graphs

Usage:
  graphir <command> [options] <graph.yaml>

Available Commands:
  sort        Order a graph and its subgraphs
  check       Report cycles and strongly connected components
  isolate     Remove a node, reconnecting its producers to its consumers
  dump        List or inspect diagnostic dumps
  view        Browse the sorted order interactively
  help        Show this help message
  version     Show version information

Configuration is read from -config and GRAPHIR_* environment variables.
Use "graphir <command> -h" for the options of a command.
`
	fmt.Fprint(w, usage)
}
