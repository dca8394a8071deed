package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/JuhQ/MongoHelper/autoinc/command"
	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/util"

	_ "github.com/JuhQ/MongoHelper/autoinc/seqstore/cassandra"
	_ "github.com/JuhQ/MongoHelper/autoinc/seqstore/etcd"
	_ "github.com/JuhQ/MongoHelper/autoinc/seqstore/leveldb"
	_ "github.com/JuhQ/MongoHelper/autoinc/seqstore/memory"
	_ "github.com/JuhQ/MongoHelper/autoinc/seqstore/mongodb"
	_ "github.com/JuhQ/MongoHelper/autoinc/seqstore/mysql"
	_ "github.com/JuhQ/MongoHelper/autoinc/seqstore/postgres"
	_ "github.com/JuhQ/MongoHelper/autoinc/seqstore/redis"
	_ "github.com/JuhQ/MongoHelper/autoinc/seqstore/sqlite"
)

var commands = command.Commands

var exitStatus = 0
var exitMu sync.Mutex

func setExitStatus(n int) {
	exitMu.Lock()
	if exitStatus < n {
		exitStatus = n
	}
	exitMu.Unlock()
}

func init() {
	flag.Var(&util.ConfigurationFileDirectory, "config_dir", "directory with toml configuration files")
}

func main() {
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) < 1 {
		usage()
	}

	if args[0] == "help" {
		help(args[1:])
		return
	}

	for _, cmd := range commands {
		if cmd.Name() == args[0] && cmd.Run != nil {
			cmd.Flag.Usage = func() { cmd.Usage() }
			cmd.Flag.Parse(args[1:])
			args = cmd.Flag.Args()
			if cmd.IsDebug != nil && *cmd.IsDebug {
				flag.Set("v", "4")
			}
			if !cmd.Run(cmd, args) {
				fmt.Fprintf(os.Stderr, "\n")
				cmd.Flag.Usage()
			}
			setExitStatus(command.ExitStatus)
			exit()
			return
		}
	}

	fmt.Fprintf(os.Stderr, "autoinc: unknown subcommand %q\nRun 'autoinc help' for usage.\n", args[0])
	setExitStatus(2)
	exit()
}

var usageTemplate = `autoinc hands out increasing ids per named sequence, safe under concurrent callers!

Usage:

	autoinc command [arguments]

The commands are:
{{range .}}{{if .Runnable}}
    {{.Name | printf "%-11s"}} {{.Short}}{{end}}{{end}}

Use "autoinc help [command]" for more information about a command.

`

var helpTemplate = `{{if .Runnable}}Usage: autoinc {{.UsageLine}}
{{end}}
  {{.Long}}
`

// tmpl executes the given template text on data, writing the result to w.
func tmpl(w io.Writer, text string, data interface{}) {
	t := template.New("top")
	t.Funcs(template.FuncMap{"trim": strings.TrimSpace, "capitalize": capitalize})
	template.Must(t.Parse(text))
	if err := t.Execute(w, data); err != nil {
		panic(err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToTitle(r)) + s[n:]
}

func printUsage(w io.Writer) {
	tmpl(w, usageTemplate, commands)
}

func usage() {
	printUsage(os.Stderr)
	fmt.Fprintf(os.Stderr, "For Logging, use \"autoinc [logging_options] [command]\". The logging options are:\n")
	flag.PrintDefaults()
	os.Exit(2)
}

// help implements the 'help' command.
func help(args []string) {
	if len(args) == 0 {
		printUsage(os.Stdout)
		// not exit 2: succeeded at 'autoinc help'.
		return
	}
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: autoinc help command\n\nToo many arguments given.\n")
		os.Exit(2) // failed at 'autoinc help'
	}

	arg := args[0]

	for _, cmd := range commands {
		if cmd.Name() == arg {
			tmpl(os.Stdout, helpTemplate, cmd)
			// not exit 2: succeeded at 'autoinc help cmd'.
			return
		}
	}

	fmt.Fprintf(os.Stderr, "Unknown help topic %#q.  Run 'autoinc help'.\n", arg)
	os.Exit(2) // failed at 'autoinc help cmd'
}

func exit() {
	glog.Flush()
	os.Exit(exitStatus)
}
