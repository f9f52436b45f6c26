// Package config loads application configuration from yaml or toml
// files, then applies environment-variable overrides derived from the
// struct's field names under a configurable prefix.
package config

import (
	"fmt"
	"os"
	"path"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

type Settings struct {
	ENVPrefix string
	Debug     bool
}

type Config struct {
	*Settings
}

// New initializes a Config.
func New(settings *Settings) *Config {
	if settings == nil {
		settings = &Settings{}
	}
	if os.Getenv("CONFIG_DEBUG_MODE") != "" {
		settings.Debug = true
	}
	return &Config{Settings: settings}
}

func (c *Config) getENVPrefix() string {
	if c.ENVPrefix == "" {
		return "CONFIG"
	}
	return c.ENVPrefix
}

// Load unmarshals configuration into cfg from the given files, in
// order, then applies environment overrides. Files that do not exist
// are skipped so the struct's defaults stand.
func (c *Config) Load(cfg interface{}, files ...string) error {
	if !reflect.Indirect(reflect.ValueOf(cfg)).CanAddr() {
		return fmt.Errorf("config %v should be addressable", cfg)
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if c.Debug {
			fmt.Printf("Loading configuration from '%v'...\n", file)
		}
		if err := processFile(cfg, file); err != nil {
			return err
		}
	}

	return c.processTags(cfg, c.getENVPrefix())
}

func processFile(cfg interface{}, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	switch path.Ext(file) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		if _, err := toml.Decode(string(data), cfg); err == nil {
			return nil
		}
		return yaml.Unmarshal(data, cfg)
	}
}

// processTags walks cfg and, for each scalar field, checks PREFIX_FIELD
// (upper-cased, nested fields joined with underscores) in the
// environment. An `env` struct tag overrides the derived name.
func (c *Config) processTags(cfg interface{}, prefixes ...string) error {
	cfgValue := reflect.Indirect(reflect.ValueOf(cfg))
	if cfgValue.Kind() != reflect.Struct {
		return fmt.Errorf("invalid config, should be struct")
	}

	cfgType := cfgValue.Type()
	for i := 0; i < cfgType.NumField(); i++ {
		fieldStruct := cfgType.Field(i)
		field := cfgValue.Field(i)

		if !field.CanAddr() || !field.CanInterface() {
			continue
		}

		envName := fieldStruct.Tag.Get("env")
		if envName == "" {
			envName = strings.ToUpper(strings.Join(append(prefixes, fieldStruct.Name), "_"))
		}

		if value := os.Getenv(envName); value != "" {
			if c.Debug {
				fmt.Printf("Loading field `%v` from env %v...\n", fieldStruct.Name, envName)
			}
			if err := setField(field, value); err != nil {
				return fmt.Errorf("env %s: %w", envName, err)
			}
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := c.processTags(field.Addr().Interface(), append(prefixes, fieldStruct.Name)...); err != nil {
				return err
			}
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		switch strings.ToLower(value) {
		case "", "0", "f", "false":
			field.SetBool(false)
		default:
			field.SetBool(true)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	default:
		return yaml.Unmarshal([]byte(value), field.Addr().Interface())
	}
	return nil
}

// Load is a convenience wrapper using default settings.
func Load(cfg interface{}, files ...string) (*Config, error) {
	c := New(nil)
	if err := c.Load(cfg, files...); err != nil {
		return nil, err
	}
	return c, nil
}
