// Package cascade loads layered configuration into Go structs from multiple sources with predictable precedence.
//
// A Loader builds a prioritized cascade of sources and writes into a destination struct. Register sources from lowest to highest priority using the With* methods, then call StrictlyLoad.
//
// Sources
//   - Defaults from a map[string]any whose keys may use dot-notation to denote nesting.
//   - JSON and TOML files read at load time. WithFile picks the format from the extension; WithNearestFile searches upward from a starting path for the first non-empty file with
//     a given relative name.
//   - Environment variables mapped to configuration keys via WithEnv; missing or empty variables are ignored and present values are strings.
//
// Keys are case-insensitive and dot-separated for nesting. A field's key is its cascade tag name, else its json tag name, else its name. Unknown keys are ignored. Values are coerced
// when reasonable (strings to numbers and bools, numbers to strings). Missing files, unreadable files and empty files are skipped; unparsable files and uncoercible values are errors.
//
// Example
//
//	var cfg Config
//	err := New().
//	    WithDefaults(map[string]any{"model": "gpt-5-mini", "markers.addopen": "=="}).
//	    WithNearestFile(".app/config.toml", "").
//	    WithEnv(map[string]string{"model": "APP_MODEL"}).
//	    StrictlyLoad(&cfg)
package cascade
