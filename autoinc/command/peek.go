package command

import (
	"context"
	"fmt"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
)

func init() {
	cmdPeek.Run = runPeek // break init cycle
}

var cmdPeek = &Command{
	UsageLine: "peek -name=orders",
	Short:     "print the last allocated value of a sequence",
	Long: `Print the highest allocated value of a named sequence without allocating.

  Nothing is printed if the sequence has no values yet.

  `,
}

var (
	peekName   = cmdPeek.Flag.String("name", "", "sequence name")
	peekConfig = cmdPeek.Flag.String("config", "sequence", "configuration name, or path to a .toml file")
)

func runPeek(cmd *Command, args []string) bool {
	if *peekName == "" {
		return false
	}

	allocator, store, err := loadAllocator(*peekConfig)
	if err != nil {
		glog.Errorf("load sequence store: %v", err)
		return false
	}
	defer store.Shutdown()

	value, found, err := allocator.Peek(context.Background(), *peekName)
	if err != nil {
		glog.Errorf("peek %s: %v", *peekName, err)
		ExitStatus = 1
		return true
	}
	if found {
		fmt.Println(value)
	}
	return true
}
