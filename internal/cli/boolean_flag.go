package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName            = "bool"
	invalidBooleanFlagValueMessage = "invalid boolean value '%s'"
)

var (
	trueBooleanLiterals = map[string]struct{}{
		"":     {},
		"true": {},
		"t":    {},
		"1":    {},
		"yes":  {},
		"y":    {},
		"on":   {},
	}
	falseBooleanLiterals = map[string]struct{}{
		"false": {},
		"f":     {},
		"0":     {},
		"no":    {},
		"n":     {},
		"off":   {},
	}
)

func interpretBooleanLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if _, matches := trueBooleanLiterals[normalized]; matches {
		return true, true
	}
	if _, matches := falseBooleanLiterals[normalized]; matches {
		return false, true
	}
	return false, false
}

// booleanFlagValue accepts yes/no style literals in addition to true/false.
type booleanFlagValue struct {
	target *bool
}

func (value *booleanFlagValue) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf(invalidBooleanFlagValueMessage, input)
	}
	booleanValue, ok := interpretBooleanLiteral(input)
	if !ok {
		return fmt.Errorf(invalidBooleanFlagValueMessage, input)
	}
	*value.target = booleanValue
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil || !*value.target {
		return "false"
	}
	return "true"
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

// registerBooleanFlag adds a flag that is true when given bare and accepts an explicit literal after '='.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = false
	flagSet.Var(&booleanFlagValue{target: target}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.NoOptDefVal = "true"
	}
}
