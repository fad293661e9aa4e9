package cascade

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
)

// Loader builds a prioritized cascade of configuration sources and applies them to a destination struct. The zero value is ready to use.
type Loader struct {
	sources []source // low to high priority
	loaded  []string
}

// New returns a new Loader. It exists for fluent chaining.
func New() *Loader {
	return &Loader{}
}

// WithDefaults registers m as a source of default values. Keys may use dot-notation. A nil map contributes no values.
func (c *Loader) WithDefaults(m map[string]any) *Loader {
	c.sources = append(c.sources, &sourceMap{m: m})
	return c
}

// WithFile registers the JSON or TOML file at path (expanded with ExpandPath). The format is chosen by extension: ".toml" is TOML and anything else is JSON. The file is read
// during StrictlyLoad.
func (c *Loader) WithFile(path string) *Loader {
	c.sources = append(c.sources, &sourceFile{path: path, format: formatOf(path)})
	return c
}

// WithJSONFile registers path as a JSON file regardless of its extension.
func (c *Loader) WithJSONFile(path string) *Loader {
	c.sources = append(c.sources, &sourceFile{path: path, format: formatJSON})
	return c
}

// WithTOMLFile registers path as a TOML file regardless of its extension.
func (c *Loader) WithTOMLFile(path string) *Loader {
	c.sources = append(c.sources, &sourceFile{path: path, format: formatTOML})
	return c
}

// WithNearestFile registers the file found by NearestFile(fileName, start), if any, like WithFile.
func (c *Loader) WithNearestFile(fileName string, start string) *Loader {
	if path := NearestFile(fileName, start); path != "" {
		c.WithFile(path)
	}
	return c
}

// WithEnv registers environment variables as a source. m maps a configuration key (dots denote nesting) to an environment variable name.
func (c *Loader) WithEnv(m map[string]string) *Loader {
	c.sources = append(c.sources, &sourceEnv{envToKey: m})
	return c
}

// Loaded returns the names of the sources that contributed at least one key in the last StrictlyLoad, from low to high priority.
func (c *Loader) Loaded() []string {
	return c.loaded
}

// StrictlyLoad applies c's sources to dest, a non-nil pointer to a struct, from low to high priority. Later sources overwrite earlier values.
//
// Missing or unreadable files are skipped. A source that can't be parsed, or a value that can't be coerced to its field's type, fails the load; later sources are not applied.
// Errors name the source.
func (c *Loader) StrictlyLoad(dest any) error {
	destVal := reflect.ValueOf(dest)
	if dest == nil || destVal.Kind() != reflect.Pointer || destVal.IsNil() || destVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a non-nil pointer to struct")
	}

	c.loaded = nil
	for _, src := range c.sources {
		m, err := src.ToMap()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				continue
			}
			return fmt.Errorf("%s: %w", src.Name(), err)
		}
		if len(m) == 0 {
			continue
		}
		if err := applyMapToStruct(destVal.Elem(), m, ""); err != nil {
			return fmt.Errorf("%s: %w", src.Name(), err)
		}
		c.loaded = append(c.loaded, src.Name())
	}
	return nil
}

// NearestFile searches upward from start (a directory or file; "" means the working directory) for the first non-empty file named fileName, and returns its path or "".
// fileName is relative and may include directories (ex: ".app/config.json"). It panics if fileName is absolute.
func NearestFile(fileName string, start string) string {
	if filepath.IsAbs(fileName) {
		panic("fileName shouldn't be absolute")
	}
	if start == "" {
		start, _ = os.Getwd()
		if start == "" {
			return ""
		}
	}
	if fi, err := os.Stat(start); err == nil && !fi.IsDir() {
		start = filepath.Dir(start)
	}

	for dir := start; ; {
		candidate := filepath.Join(dir, fileName)
		if data, err := os.ReadFile(candidate); err == nil && strings.TrimSpace(string(data)) != "" {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// fieldKey returns the key of f: its cascade tag name, else its json tag name, else its name, lowercased. "-" means f is skipped.
func fieldKey(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("cascade"), ","); strings.TrimSpace(name) != "" {
		return strings.ToLower(strings.TrimSpace(name))
	}
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return strings.ToLower(name)
	}
	return strings.ToLower(f.Name)
}

// applyMapToStruct writes m into structVal. Unknown keys are ignored. basePath prefixes error paths.
func applyMapToStruct(structVal reflect.Value, m map[string]any, basePath string) error {
	structType := structVal.Type()
	fieldIndex := map[string]int{}
	for i := range structType.NumField() {
		f := structType.Field(i)
		if !structVal.Field(i).CanSet() {
			continue
		}
		key := fieldKey(f)
		if key == "-" {
			continue
		}
		if prev, exists := fieldIndex[key]; exists {
			return fmt.Errorf("struct contains case-insensitive field key collision for %q: %s and %s", key, structType.Field(prev).Name, f.Name)
		}
		fieldIndex[key] = i
	}

	for key, raw := range m {
		idx, ok := fieldIndex[key]
		if !ok {
			continue
		}
		path := key
		if basePath != "" {
			path = basePath + "." + key
		}
		if err := setFieldValue(structVal.Field(idx), raw, path); err != nil {
			return err
		}
	}
	return nil
}

// setFieldValue sets fVal from raw, allocating pointers as needed. Supported kinds are structs (from objects), scalars (via coerceScalar) and slices of scalars.
func setFieldValue(fVal reflect.Value, raw any, path string) error {
	if fVal.Kind() == reflect.Pointer {
		if raw == nil {
			fVal.SetZero()
			return nil
		}
		if fVal.IsNil() {
			fVal.Set(reflect.New(fVal.Type().Elem()))
		}
		return setFieldValue(fVal.Elem(), raw, path)
	}
	if raw == nil {
		return nil
	}

	switch fVal.Kind() {
	case reflect.Struct:
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object for struct field", path)
		}
		return applyMapToStruct(fVal, obj, path)

	case reflect.Slice:
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%s: cannot coerce %T to a list", path, raw)
		}
		slice := reflect.MakeSlice(fVal.Type(), len(items), len(items))
		for i, item := range items {
			if err := setFieldValue(slice.Index(i), item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		fVal.Set(slice)
		return nil

	default:
		coerced, err := coerceScalar(raw, fVal.Kind(), path)
		if err != nil {
			return err
		}
		fVal.Set(reflect.ValueOf(coerced).Convert(fVal.Type()))
		return nil
	}
}

// coerceScalar converts raw (a normalized scalar: string, int64, float64 or bool) into a value convertible to targetKind: string, bool, int64 for the signed int kinds, or float64 for
// the float kinds.
func coerceScalar(raw any, targetKind reflect.Kind, path string) (any, error) {
	switch targetKind {
	case reflect.String:
		switch v := raw.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
	case reflect.Bool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%s: cannot parse bool from %q", path, v)
			}
			return parsed, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := raw.(type) {
		case int64:
			return v, nil
		case float64:
			return int64(v), nil
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: cannot parse int from %q", path, v)
			}
			return parsed, nil
		}
	case reflect.Float32, reflect.Float64:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: cannot parse float from %q", path, v)
			}
			return parsed, nil
		}
	default:
		return nil, fmt.Errorf("%s: unsupported field kind %s", path, targetKind)
	}
	return nil, fmt.Errorf("%s: cannot coerce %T to %s", path, raw, targetKind)
}
