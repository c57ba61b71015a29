package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amlgo/aml/internal/aml"
)

func newNamespaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "namespace <table.aml> [more tables...]",
		Short: "Parse the given tables and print the resulting namespace tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContext(args)
			if err != nil {
				return err
			}
			c.Namespace().Traverse(func(depth int, e aml.Entity) bool {
				if e.Name() == "" {
					return false // anonymous method-body terms are not namespace entries
				}
				fmt.Printf("%s%s\n", strings.Repeat("  ", depth), describe(e))
				return true
			})
			return nil
		},
	}
}

func newInvokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <table.aml> <path> [args...]",
		Short: "Parse a table, invoke the named method, and print its result",
		Long: "Arguments are decoded as integers when they parse as one " +
			"in Go integer syntax (decimal, 0x hex, 0o or leading-0 octal, 0b binary) " +
			"and passed as strings otherwise.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContext(args[:1])
			if err != nil {
				return err
			}
			methodArgs := make([]interface{}, 0, len(args)-2)
			for _, a := range args[2:] {
				methodArgs = append(methodArgs, parseArg(a))
			}
			result, ierr := c.InvokeMethod(context.Background(), args[1], methodArgs...)
			if ierr != nil {
				return ierr
			}
			fmt.Println(formatValue(result))
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <table.aml> [more tables...]",
		Short: "Parse the given tables and run the _STA/_INI initialization pass",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContext(args)
			if err != nil {
				return err
			}
			if ierr := c.InitializeObjects(context.Background()); ierr != nil {
				return ierr
			}
			log.Info("device initialization complete")
			return nil
		},
	}
}

func parseArg(s string) interface{} {
	if n, err := strconv.ParseUint(s, 0, 64); err == nil {
		return n
	}
	return s
}

// describe renders one namespace entry for the tree listing.
func describe(e aml.Entity) string {
	name := strings.TrimRight(e.Name(), "_")
	if name == "" {
		name = e.Name()
	}
	switch t := e.(type) {
	case *aml.Integer:
		return fmt.Sprintf("%s = 0x%X", name, t.Val)
	case *aml.String:
		return fmt.Sprintf("%s = %q", name, t.Val)
	case *aml.Buffer:
		return fmt.Sprintf("%s = Buffer(%d bytes)", name, len(t.Data))
	case *aml.Package:
		return fmt.Sprintf("%s = Package(%d elements)", name, len(t.Elements))
	case *aml.Method:
		return fmt.Sprintf("Method %s(%d args)", name, t.ArgCount)
	case *aml.OpRegion:
		return fmt.Sprintf("OperationRegion %s [%s, 0x%X, 0x%X]", name, t.Space, t.Offset, t.Length)
	case *aml.FieldUnit:
		return fmt.Sprintf("Field %s [%s, bit %d, width %d]", name, strings.TrimRight(t.RegionName, "_"), t.BitOffset, t.BitWidth)
	case *aml.IndexField:
		return fmt.Sprintf("IndexField %s [bit %d, width %d]", name, t.BitOffset, t.BitWidth)
	case *aml.BankField:
		return fmt.Sprintf("BankField %s [bank 0x%X, bit %d, width %d]", name, t.BankValue, t.BitOffset, t.BitWidth)
	case *aml.Device:
		return fmt.Sprintf("Device %s", name)
	case *aml.Processor:
		return fmt.Sprintf("Processor %s (id %d)", name, t.ProcID)
	case *aml.PowerResource:
		return fmt.Sprintf("PowerResource %s", name)
	case *aml.ThermalZone:
		return fmt.Sprintf("ThermalZone %s", name)
	case *aml.Mutex:
		return fmt.Sprintf("Mutex %s", name)
	case *aml.Event:
		return fmt.Sprintf("Event %s", name)
	case *aml.Scope:
		return fmt.Sprintf("Scope %s", name)
	default:
		return fmt.Sprintf("%s (%s)", name, e.Kind())
	}
}

// formatValue renders a method-invocation result.
func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "(no value)"
	case uint64:
		return fmt.Sprintf("Integer(0x%X)", t)
	case bool:
		return fmt.Sprintf("Boolean(%v)", t)
	case string:
		return fmt.Sprintf("String(%q)", t)
	case []byte:
		return fmt.Sprintf("Buffer(% X)", t)
	case *aml.Integer:
		return fmt.Sprintf("Integer(0x%X)", t.Val)
	case *aml.Boolean:
		return fmt.Sprintf("Boolean(%v)", t.Val)
	case *aml.String:
		return fmt.Sprintf("String(%q)", t.Val)
	case *aml.Buffer:
		return fmt.Sprintf("Buffer(% X)", t.Data)
	case *aml.Package:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = formatValue(e)
		}
		return fmt.Sprintf("Package[%s]", strings.Join(parts, ", "))
	case aml.Entity:
		return fmt.Sprintf("%s(%s)", t.Kind(), t.Name())
	default:
		return fmt.Sprintf("%v", t)
	}
}
