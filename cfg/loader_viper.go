package cfg

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ViperLoader struct {
	ConfigPath  string
	ConfigName  string
	WatchChange bool

	v                     *viper.Viper
	once                  sync.Once
	mu                    sync.RWMutex
	current               *Config
	configChangeCallbacks []func(*Config)
}

func NewViperLoader() (*ViperLoader, error) {
	return &ViperLoader{
		ConfigPath:            "cfg/yaml",
		ConfigName:            "mode",
		WatchChange:           true,
		v:                     viper.New(),
		configChangeCallbacks: make([]func(*Config), 0),
	}, nil
}

func (yl *ViperLoader) Load() (*Config, error) {
	var err error
	yl.once.Do(func() {
		err = yl.loadConfig()
		if err == nil && yl.IsWatchChange() {
			yl.v.OnConfigChange(func(e fsnotify.Event) {
				fmt.Printf("[INFO][CONFIG] Config file changed: %s\n", e.Name)
				if errReload := yl.reloadConfig(); errReload != nil {
					fmt.Printf("[ERROR][CONFIG] Failed to reload config: %v\n", errReload)
				}
			})
			yl.v.WatchConfig()
		}
	})

	if err != nil {
		return nil, err
	}

	yl.mu.RLock()
	defer yl.mu.RUnlock()
	return yl.current, nil
}

// IsWatchChange is false when no config file was found, there is nothing to watch.
func (yl *ViperLoader) IsWatchChange() bool {
	return yl.WatchChange && yl.v.ConfigFileUsed() != ""
}

func (yl *ViperLoader) RegisterConfigChangeCallback(callback func(*Config)) {
	yl.mu.Lock()
	yl.configChangeCallbacks = append(yl.configChangeCallbacks, callback)
	yl.mu.Unlock()
}

func (yl *ViperLoader) loadConfig() error {
	// .env is optional, real environment variables win over it
	_ = godotenv.Load()

	yl.v.AddConfigPath(yl.ConfigPath)
	yl.v.SetConfigName(yl.ConfigName)
	yl.v.SetConfigType("yaml")
	yl.v.SetEnvPrefix("WFP")
	yl.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	yl.v.AutomaticEnv()

	// Plain names used by existing deployments
	if err := yl.v.BindEnv("youtube.apikey", "WFP_YOUTUBE_APIKEY", "YOUTUBE_API_KEY"); err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to bind env: %w", err)
	}
	if err := yl.v.BindEnv("app.developmentmode", "WFP_APP_DEVELOPMENTMODE", "DEVELOPMENT_MODE"); err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to bind env: %w", err)
	}

	if err := yl.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("[ERROR][CONFIG] failed to read config file: %w", err)
		}
		fmt.Printf("[WARN][CONFIG] No config file in %s, using defaults and environment\n", yl.ConfigPath)
	}

	config, err := yl.decode()
	if err != nil {
		return err
	}

	yl.mu.Lock()
	yl.current = config
	yl.mu.Unlock()

	return nil
}

// decode layers the file and environment on top of Defaults, unset keys keep their default.
func (yl *ViperLoader) decode() (*Config, error) {
	config := Defaults()
	if err := yl.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("[ERROR][CONFIG] failed to unmarshal config: %w", err)
	}
	return config, nil
}

func (yl *ViperLoader) reloadConfig() error {
	config, err := yl.decode()
	if err != nil {
		return err
	}

	yl.mu.Lock()
	yl.current = config
	callbacks := make([]func(*Config), len(yl.configChangeCallbacks))
	copy(callbacks, yl.configChangeCallbacks)
	yl.mu.Unlock()

	for _, callback := range callbacks {
		go callback(config)
	}

	fmt.Println("[INFO][CONFIG] Configuration reloaded successfully")
	return nil
}
