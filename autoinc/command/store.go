package command

import (
	"fmt"
	"strings"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/sequence"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

// loadConfiguration reads an explicit .toml file, or searches the usual
// directories for <name>.toml.
func loadConfiguration(name string) (util.Configuration, error) {
	if strings.HasSuffix(name, ".toml") {
		config, err := util.LoadConfigurationFile(util.ResolvePath(name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return config, nil
	}
	util.LoadConfiguration(name, true)
	return util.GetViper(), nil
}

// loadStore connects to the enabled store. The caller shuts the store down.
func loadStore(configName string) (util.Configuration, seqstore.SequenceStore, error) {
	config, err := loadConfiguration(configName)
	if err != nil {
		return nil, nil, err
	}
	store, err := seqstore.LoadStore(config)
	if err != nil {
		return nil, nil, err
	}
	return config, store, nil
}

// loadAllocator connects to the enabled store. The caller shuts the store down.
func loadAllocator(configName string) (*sequence.Allocator, seqstore.SequenceStore, error) {
	config, store, err := loadStore(configName)
	if err != nil {
		return nil, nil, err
	}
	allocator, err := sequence.NewAllocatorFromConfiguration(store, config)
	if err != nil {
		store.Shutdown()
		return nil, nil, err
	}
	return allocator, store, nil
}
