package cascade

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// source supplies configuration as a normalized map:
//   - keys are lower cased and have no "." (dotted keys are expanded into nested maps)
//   - values are nil, string, int64, float64, bool, []any of values, or nested normalized maps (only as map[string]any)
type source interface {
	Name() string
	ToMap() (map[string]any, error)
}

type sourceMap struct {
	m map[string]any
}

func (s *sourceMap) Name() string {
	return "Defaults"
}

func (s *sourceMap) ToMap() (map[string]any, error) {
	return normalizeMap(s.m)
}

type fileFormat int

const (
	formatJSON fileFormat = iota
	formatTOML
)

func formatOf(path string) fileFormat {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return formatTOML
	}
	return formatJSON
}

// sourceFile is a JSON or TOML file read at load time. Empty or whitespace-only files contribute no values.
type sourceFile struct {
	path   string
	format fileFormat
}

func (s *sourceFile) Name() string {
	if s.format == formatTOML {
		return "TOML File: " + s.path
	}
	return "JSON File: " + s.path
}

func (s *sourceFile) ToMap() (map[string]any, error) {
	data, err := os.ReadFile(ExpandPath(s.path))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var raw map[string]any
	switch s.format {
	case formatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var top any
		if err := dec.Decode(&top); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		obj, ok := top.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("top-level JSON must be an object")
		}
		raw = obj
	}
	return normalizeMap(raw)
}

type sourceEnv struct {
	envToKey map[string]string // config key -> env variable
}

func (s *sourceEnv) Name() string {
	return "ENV"
}

// ToMap reads the mapped variables. Unset and empty variables set no key, so an exported-but-empty variable can't blank out a file's setting.
func (s *sourceEnv) ToMap() (map[string]any, error) {
	out := map[string]any{}
	for key, envVar := range s.envToKey {
		if envVar == "" {
			continue
		}
		val := os.Getenv(envVar)
		if val == "" {
			continue
		}
		if err := mergeIntoObject(out, strings.Split(strings.ToLower(key), "."), val, key); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func normalizeMap(m map[string]any) (map[string]any, error) {
	out := map[string]any{}
	for k, v := range m {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("key '%s': %w", k, err)
		}
		if err := mergeIntoObject(out, strings.Split(strings.ToLower(k), "."), nv, k); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// normalizeValue converts values produced by Go literals, encoding/json (with UseNumber) and go-toml into normalized values.
func normalizeValue(v any) (any, error) {
	switch vv := v.(type) {
	case nil, string, bool, int64, float64:
		return vv, nil
	case json.Number:
		if i, err := vv.Int64(); err == nil {
			return i, nil
		}
		return vv.Float64()
	case map[string]any:
		return normalizeMap(vv)
	case fmt.Stringer:
		// TOML dates and times.
		return vv.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			nv, err := normalizeValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = nv
		}
		return out, nil
	}
	return nil, fmt.Errorf("type %T is not allowed", v)
}

// mergeIntoObject sets value at the path parts in obj, deep-merging maps. Setting a leaf twice, or a leaf where an object is, is a key conflict. fullKey annotates errors.
func mergeIntoObject(obj map[string]any, parts []string, value any, fullKey string) error {
	part := parts[0]
	existing, exists := obj[part]

	if len(parts) > 1 {
		if !exists {
			child := map[string]any{}
			obj[part] = child
			return mergeIntoObject(child, parts[1:], value, fullKey)
		}
		if m, ok := existing.(map[string]any); ok {
			return mergeIntoObject(m, parts[1:], value, fullKey)
		}
		return fmt.Errorf("key conflict at '%s': '%s' is not an object", fullKey, part)
	}

	if !exists {
		obj[part] = value
		return nil
	}
	dest, destIsMap := existing.(map[string]any)
	src, srcIsMap := value.(map[string]any)
	if !destIsMap || !srcIsMap {
		return fmt.Errorf("key conflict: key '%s' was already set", fullKey)
	}
	for k, v := range src {
		if err := mergeIntoObject(dest, []string{k}, v, fullKey+"."+k); err != nil {
			return err
		}
	}
	return nil
}
