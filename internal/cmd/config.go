package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/lanmouse/lanmouse/internal/configpaths"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration template"`
}

// ConfigInit scaffolds a configuration file for a specific command.
type ConfigInit struct {
	Command string `arg:"" name:"command" help:"Command to generate config for" enum:"run"`
	Format  string `help:"Output format" enum:"json,yaml,toml" default:"json"`
	Output  string `help:"Destination file path (defaults to current directory)"`
	Force   bool   `help:"Overwrite if the file already exists"`
}

// Run generates a configuration template dynamically via reflection of the command structs and tags.
func (c *ConfigInit) Run() error {
	format := normalizeFormat(c.Format)
	if format == "" {
		return fmt.Errorf("unsupported format: %s", c.Format)
	}

	flags := map[string]any{}
	switch c.Command {
	case "run":
		flagDefaults(reflect.TypeOf(Run{}), "", flags)
	default:
		return errors.New("unknown command; expected 'run'")
	}

	root := shapeTemplate(format, c.Command, flags)

	dest := c.Output
	if dest == "" {
		dest = c.Command + "." + configpaths.Ext(format)
	}

	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}

	var data []byte
	var err error
	switch format {
	case "json":
		data, err = json.MarshalIndent(root, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(root)
	case "toml":
		data, err = toml.Marshal(root)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}
	return nil
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return ""
	}
}

// flagDefaults collects the default of every flag declared by t, keyed by
// the flag name kong derives for it.
func flagDefaults(t reflect.Type, prefix string, out map[string]any) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Tag.Get("kong") == "-" {
			continue
		}

		if _, ok := f.Tag.Lookup("embed"); ok {
			flagDefaults(f.Type, prefix+f.Tag.Get("prefix"), out)
			continue
		}

		def := f.Tag.Get("default")
		// kong expands an empty path to the working directory.
		if def == "" && f.Tag.Get("type") == "path" {
			continue
		}
		name := f.Tag.Get("name")
		if name == "" {
			name = strcase.ToKebab(f.Name)
		}
		if val := defaultValueForField(f.Type, def); val != nil {
			out[prefix+name] = val
		}
	}
}

// shapeTemplate lays out flag defaults the way each config loader looks
// them up. The JSON loader walks dotted prefixes as objects and matches the
// leaf in snake_case, kong-yaml scopes flags under the command name and
// kong-toml takes flag names as top-level keys.
func shapeTemplate(format, command string, flags map[string]any) map[string]any {
	switch format {
	case "json":
		root := map[string]any{}
		for name, v := range flags {
			parts := strings.Split(name, ".")
			m := root
			for _, p := range parts[:len(parts)-1] {
				sub, ok := m[p].(map[string]any)
				if !ok {
					sub = map[string]any{}
					m[p] = sub
				}
				m = sub
			}
			m[strings.ReplaceAll(parts[len(parts)-1], "-", "_")] = v
		}
		return root
	case "yaml":
		return map[string]any{command: flags}
	default:
		return flags
	}
}

func defaultValueForField(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "time" && t.Name() == "Duration" {
		if def != "" {
			return def
		}
		return "0s"
	}
	switch t.Kind() {
	case reflect.String:
		return def // may be empty
	case reflect.Bool:
		if def == "" {
			return false
		}
		b, err := strconv.ParseBool(def)
		if err != nil {
			return false
		}
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if def == "" {
			return 0
		}
		n, err := strconv.ParseInt(def, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if def == "" {
			return 0
		}
		n, err := strconv.ParseUint(def, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case reflect.Float32, reflect.Float64:
		if def == "" {
			return 0
		}
		f, err := strconv.ParseFloat(def, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		// Structs without embed, interfaces and other runtime-only fields
		// have no flag form.
		return nil
	}
}
