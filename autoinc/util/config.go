package util

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
)

var (
	ConfigurationFileDirectory DirectoryValueType
)

type DirectoryValueType string

func (s *DirectoryValueType) Set(value string) error {
	*s = DirectoryValueType(value)
	return nil
}
func (s *DirectoryValueType) String() string {
	return string(*s)
}

type Configuration interface {
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetStringSlice(key string) []string
	SetDefault(key string, value interface{})
}

// LoadConfiguration merges <configFileName>.toml into the shared viper instance.
// It returns false when the file is absent and not required.
func LoadConfiguration(configFileName string, required bool) (loaded bool) {

	v := GetViper()
	v.Lock()
	defer v.Unlock()

	v.SetConfigName(configFileName)                                   // name of config file (without extension)
	v.AddConfigPath(ResolvePath(ConfigurationFileDirectory.String())) // path to look for the config file in
	v.AddConfigPath(".")                                              // optionally look for config in the working directory
	v.AddConfigPath("$HOME/.autoinc")                                 // call multiple times to add many search paths
	v.AddConfigPath("/usr/local/etc/autoinc/")                        // search path for bsd-style config directory in
	v.AddConfigPath("/etc/autoinc/")                                  // path to look for the config file in

	if err := v.MergeInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound || strings.Contains(err.Error(), "Not Found") {
			glog.V(1).Infof("Reading %s: %v", v.ConfigFileUsed(), err)
		} else {
			glog.Fatalf("Reading %s: %v", v.ConfigFileUsed(), err)
		}
		if required {
			glog.Fatalf("Failed to load %s.toml file from current directory, or $HOME/.autoinc/, or /etc/autoinc/"+
				"\n\nPlease use this command to generate the default %s.toml file\n"+
				"    autoinc scaffold -config=%s -output=.\n\n\n",
				configFileName, configFileName, configFileName)
		}
		return false
	}
	glog.V(1).Infof("Reading %s.toml from %s", configFileName, v.ConfigFileUsed())

	return true
}

// LoadConfigurationFile reads one explicit file into a fresh viper instance.
func LoadConfigurationFile(path string) (*ViperProxy, error) {
	v := viper.New()
	withEnvOverrides(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return &ViperProxy{Viper: v}, nil
}

type ViperProxy struct {
	*viper.Viper
	sync.Mutex
}

var (
	vp = &ViperProxy{}
)

// NewViperProxy returns an empty configuration, separate from the global one.
func NewViperProxy() *ViperProxy {
	return &ViperProxy{Viper: viper.New()}
}

func (vp *ViperProxy) SetDefault(key string, value interface{}) {
	vp.Lock()
	defer vp.Unlock()
	vp.Viper.SetDefault(key, value)
}

func (vp *ViperProxy) GetString(key string) string {
	vp.Lock()
	defer vp.Unlock()
	return vp.Viper.GetString(key)
}

func (vp *ViperProxy) GetBool(key string) bool {
	vp.Lock()
	defer vp.Unlock()
	return vp.Viper.GetBool(key)
}

func (vp *ViperProxy) GetInt(key string) int {
	vp.Lock()
	defer vp.Unlock()
	return vp.Viper.GetInt(key)
}

func (vp *ViperProxy) GetStringSlice(key string) []string {
	vp.Lock()
	defer vp.Unlock()
	return vp.Viper.GetStringSlice(key)
}

func GetViper() *ViperProxy {
	vp.Lock()
	defer vp.Unlock()

	if vp.Viper == nil {
		vp.Viper = viper.GetViper()
		withEnvOverrides(vp.Viper)
	}

	return vp
}

// withEnvOverrides lets AUTOINC_SEQUENCE_COLLECTION override sequence.collection.
func withEnvOverrides(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvPrefix("autoinc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// ResolvePath expands a leading ~ to the user's home directory.
func ResolvePath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
