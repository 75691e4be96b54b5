//go:build generate

// Command schema_generator renders the config JSON schema, an example YAML config
// and an example env file from the config struct and its default tags.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	iyaml "github.com/invopop/yaml"
	"github.com/mcuadros/go-defaults"

	"github.com/theopenlane/utils/envparse"

	"github.com/Cipherweave/VortexWatch/config"
	"github.com/Cipherweave/VortexWatch/internal/policydoc"
)

const (
	modulePath   = "github.com/Cipherweave/VortexWatch/"
	tagName      = "koanf"
	skipper      = "-"
	defaultTag   = "default"
	sensitiveTag = "sensitive"
	varPrefix    = "VORTEXWATCH"

	ownerReadWrite = 0600
)

// generator renders one output file from the default config
type generator struct {
	path   string
	render func(cfg *config.Config) ([]byte, error)
}

func main() {
	cfg := &config.Config{}
	defaults.SetDefaults(cfg)
	cfg.Locator.Terms = policydoc.DefaultTerms

	outputs := []generator{
		{path: "./jsonschema/vortexwatch.config.json", render: renderSchema},
		{path: "./config/config.example.yaml", render: renderYAML},
		{path: "./config/.env.example", render: renderEnv},
	}

	for _, out := range outputs {
		data, err := out.render(cfg)
		if err != nil {
			panic(fmt.Errorf("rendering %s: %w", out.path, err))
		}

		if err := os.WriteFile(out.path, data, ownerReadWrite); err != nil {
			panic(fmt.Errorf("writing %s: %w", out.path, err))
		}

		fmt.Printf("wrote %s\n", out.path)
	}
}

// renderSchema reflects the config struct, using Go doc comments as descriptions
func renderSchema(cfg *config.Config) ([]byte, error) {
	comments := &jsonschema.Reflector{}
	if err := comments.AddGoComments(modulePath, "./config"); err != nil {
		return nil, fmt.Errorf("parsing config comments: %w", err)
	}

	r := jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
		FieldNameTag:               tagName,
		CommentMap:                 comments.CommentMap,
	}

	return json.MarshalIndent(r.Reflect(cfg), "", "  ")
}

// renderYAML writes the defaults as YAML with sensitive values blanked
func renderYAML(cfg *config.Config) ([]byte, error) {
	return iyaml.Marshal(toYAMLValue(reflect.ValueOf(cfg)))
}

// toYAMLValue converts v to plain maps and slices, rendering durations as strings
func toYAMLValue(v reflect.Value) any {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}

		v = v.Elem()
	}

	if v.Type() == reflect.TypeOf(time.Duration(0)) {
		return time.Duration(v.Int()).String()
	}

	switch v.Kind() {
	case reflect.Struct:
		out := make(map[string]any)

		for i := range v.NumField() {
			field := v.Type().Field(i)

			key := field.Tag.Get(tagName)
			if !field.IsExported() || key == "" || key == skipper {
				continue
			}

			if field.Tag.Get(sensitiveTag) == "true" {
				out[key] = ""
				continue
			}

			out[key] = toYAMLValue(v.Field(i))
		}

		return out
	case reflect.Slice, reflect.Array:
		items := make([]any, 0, v.Len())
		for i := range v.Len() {
			items = append(items, toYAMLValue(v.Index(i)))
		}

		return items
	default:
		return v.Interface()
	}
}

// renderEnv lists every VORTEXWATCH_ variable with its default
func renderEnv(cfg *config.Config) ([]byte, error) {
	cp := envparse.Config{
		FieldTagName: tagName,
		Skipper:      skipper,
	}

	vars, err := cp.GatherEnvInfo(varPrefix, cfg)
	if err != nil {
		return nil, fmt.Errorf("gathering environment info: %w", err)
	}

	var b strings.Builder

	for _, v := range vars {
		if v.Tags.Get(sensitiveTag) == "true" {
			fmt.Fprintf(&b, "# %s is sensitive and should be set securely\n%s=\"\"\n", v.Key, v.Key)
			continue
		}

		value := v.Tags.Get(defaultTag)

		if v.Type == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(value); err == nil {
				value = d.String()
			}
		}

		fmt.Fprintf(&b, "%s=%q\n", v.Key, value)
	}

	return []byte(b.String()), nil
}
