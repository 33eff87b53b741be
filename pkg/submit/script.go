package submit

import (
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// safeModules are the only script-accessible stdlib modules. No file I/O,
// no network, no OS access: a tamper script transforms strings and nothing
// else.
var safeModules = stdlib.GetModuleMap("text", "fmt", "math", "times")

// ScriptFile loads a Tengo tamper script. The script must define a
// transform(payload) function returning the tampered payload; it runs in a
// sandboxed VM once per delivery.
func ScriptFile(path string) (Tamperer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tamper script: %w", err)
	}
	return Script(string(data))
}

// Script compiles tamper script source. See ScriptFile.
func Script(source string) (Tamperer, error) {
	wrapper := source + "\n__result__ := transform(__input__)\n"

	script := tengo.NewScript([]byte(wrapper))
	script.SetImports(safeModules)
	script.SetMaxAllocs(10_000_000)
	if err := script.Add("__input__", ""); err != nil {
		return nil, fmt.Errorf("compile tamper script: %w", err)
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile tamper script: %w", err)
	}

	return func(payload string) (string, error) {
		c := compiled.Clone()
		if err := c.Set("__input__", payload); err != nil {
			return "", fmt.Errorf("tamper script: %w", err)
		}
		if err := c.Run(); err != nil {
			return "", fmt.Errorf("tamper script: %w", err)
		}
		result := c.Get("__result__")
		if result.IsUndefined() {
			return "", fmt.Errorf("tamper script: transform returned no value")
		}
		return result.String(), nil
	}, nil
}
