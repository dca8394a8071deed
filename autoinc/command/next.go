package command

import (
	"context"
	"fmt"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/util/request_id"
)

func init() {
	cmdNext.Run = runNext // break init cycle
}

var cmdNext = &Command{
	UsageLine: "next -name=orders [-initial=0] [-n=1]",
	Short:     "allocate the next values of a sequence",
	Long: `Allocate one or more values of a named sequence and print them, one per line.

  The store is configured in sequence.toml, see "autoinc scaffold".
  A sequence without records starts at -initial + 1.

  `,
}

var (
	nextName    = cmdNext.Flag.String("name", "", "sequence name")
	nextInitial = cmdNext.Flag.Int64("initial", 0, "value before the first one of a new sequence")
	nextCount   = cmdNext.Flag.Int("n", 1, "number of values to allocate")
	nextConfig  = cmdNext.Flag.String("config", "sequence", "configuration name, or path to a .toml file")
)

func runNext(cmd *Command, args []string) bool {
	if *nextName == "" || *nextCount < 1 {
		return false
	}

	allocator, store, err := loadAllocator(*nextConfig)
	if err != nil {
		glog.Errorf("load sequence store: %v", err)
		return false
	}
	defer store.Shutdown()

	ctx := request_id.New(context.Background())
	for i := 0; i < *nextCount; i++ {
		value, err := allocator.Next(ctx, *nextName, *nextInitial)
		if err != nil {
			glog.ErrorfCtx(ctx, "next %s: %v", *nextName, err)
			ExitStatus = 1
			return true
		}
		fmt.Println(value)
	}
	return true
}
