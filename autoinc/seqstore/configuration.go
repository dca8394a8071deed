package seqstore

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

var (
	Stores []SequenceStore
)

// LoadStore initializes the one store whose "<name>.enabled" is true.
func LoadStore(config util.Configuration) (SequenceStore, error) {

	if err := validateOneEnabledStore(config); err != nil {
		return nil, err
	}

	for _, store := range Stores {
		if config.GetBool(store.GetName() + ".enabled") {
			store = reflect.New(reflect.ValueOf(store).Elem().Type()).Interface().(SequenceStore)
			if err := store.Initialize(config, store.GetName()+"."); err != nil {
				return nil, fmt.Errorf("initialize store %s: %w", store.GetName(), err)
			}
			glog.V(0).Infof("configured sequence store to %s", store.GetName())
			return NewSequenceStoreWrapper(store), nil
		}
	}

	return nil, fmt.Errorf("no sequence store enabled, supported stores are %v", StoreNames())
}

func StoreNames() (names []string) {
	for _, store := range Stores {
		names = append(names, store.GetName())
	}
	sort.Strings(names)
	return
}

func validateOneEnabledStore(config util.Configuration) error {
	enabledStore := ""
	for _, store := range Stores {
		if config.GetBool(store.GetName() + ".enabled") {
			if enabledStore == "" {
				enabledStore = store.GetName()
			} else {
				return fmt.Errorf("sequence store is enabled for both %s and %s", enabledStore, store.GetName())
			}
		}
	}
	return nil
}
