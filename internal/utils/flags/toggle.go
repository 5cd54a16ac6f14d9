package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTypeNameConstant          = "bool"
	toggleTrueValueConstant         = "true"
	toggleFalseValueConstant        = "false"
	toggleDefaultTruePlaceholder    = "<YES|no>"
	toggleDefaultFalsePlaceholder   = "<yes|NO>"
	toggleInvalidValueErrorTemplate = "invalid toggle value %q"
	longFlagPrefixConstant          = "--"
	shortFlagPrefixConstant         = "-"
	flagValueSeparatorConstant      = "="
)

var (
	toggleLiterals = map[string]bool{
		"true": true, "yes": true, "on": true, "1": true, "t": true, "y": true,
		"false": false, "no": false, "off": false, "0": false, "f": false, "n": false,
	}

	registeredTogglesMutex sync.RWMutex
	registeredToggles      = map[string]bool{}
)

// AddToggleFlag registers a boolean flag that also accepts yes/no, on/off and 1/0 as a separate argument.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil || len(name) == 0 {
		return
	}

	*target = defaultValue
	flag := flagSet.VarPF(&toggleValue{target: target}, name, shorthand, usage)
	flag.NoOptDefVal = toggleTrueValueConstant

	placeholder := toggleDefaultFalsePlaceholder
	if defaultValue {
		placeholder = toggleDefaultTruePlaceholder
	}
	flag.Usage = strings.TrimSpace(fmt.Sprintf("`%s` %s", placeholder, strings.TrimSpace(usage)))

	registeredTogglesMutex.Lock()
	defer registeredTogglesMutex.Unlock()
	registeredToggles[longFlagPrefixConstant+name] = true
	if len(shorthand) > 0 {
		registeredToggles[shortFlagPrefixConstant+shorthand] = true
	}
}

// NormalizeToggleArguments joins "--flag value" into "--flag=value" for registered toggles
// so pflag does not treat the value as a positional argument.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	registeredTogglesMutex.RLock()
	defer registeredTogglesMutex.RUnlock()

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == longFlagPrefixConstant {
			return append(normalized, arguments[index:]...)
		}
		if registeredToggles[current] && index+1 < len(arguments) && isToggleLiteral(arguments[index+1]) {
			normalized = append(normalized, current+flagValueSeparatorConstant+arguments[index+1])
			index++
			continue
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func isToggleLiteral(candidate string) bool {
	_, known := toggleLiterals[strings.ToLower(strings.TrimSpace(candidate))]
	return known
}

type toggleValue struct {
	target *bool
}

func (value *toggleValue) Set(rawValue string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		normalizedValue = toggleTrueValueConstant
	}
	parsedValue, known := toggleLiterals[normalizedValue]
	if !known {
		return fmt.Errorf(toggleInvalidValueErrorTemplate, rawValue)
	}
	*value.target = parsedValue
	return nil
}

func (value *toggleValue) String() string {
	if value == nil || value.target == nil || !*value.target {
		return toggleFalseValueConstant
	}
	return toggleTrueValueConstant
}

func (value *toggleValue) Type() string {
	return toggleTypeNameConstant
}
