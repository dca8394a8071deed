package command

import (
	"fmt"
	"runtime"

	"github.com/JuhQ/MongoHelper/autoinc/util"
)

var cmdVersion = &Command{
	Run:       runVersion,
	UsageLine: "version",
	Short:     "print autoinc version",
	Long:      `Version prints the autoinc version`,
}

func runVersion(cmd *Command, args []string) bool {
	if len(args) != 0 {
		cmd.Usage()
	}

	fmt.Printf("version %s %s %s\n", util.Version(), runtime.GOOS, runtime.GOARCH)
	return true
}
