// Package aml implements a tree-walking interpreter for ACPI Machine
// Language, the bytecode format ACPI tables (DSDT/SSDT) use to describe
// platform device behavior to an OS-independent degree. Grounded on the
// teacher's device/acpi/aml package (src/gopheros/device/acpi/aml in the
// gopheros kernel), restructured to run hosted rather than freestanding and
// to take raw AML bytes directly rather than locating ACPI tables itself.
package aml

import (
	"context"

	"github.com/amlgo/aml/internal/aml/host"
	"github.com/sirupsen/logrus"
)

// Verbosity controls how much of the interpreter's internal activity is
// logged, per this module's ambient logging concern.
type Verbosity int

const (
	VerbosityNone Verbosity = iota
	VerbosityScopes
	VerbosityAllScopes
	VerbosityAll
)

// Config bundles the interpreter's tunables, loadable from TOML by the CLI
// tools (internal/aml itself never touches the filesystem).
type Config struct {
	Verbosity        Verbosity
	MaxCallDepth     int
	OSIOverrides     map[string]bool
}

func DefaultConfig() Config {
	return Config{Verbosity: VerbosityNone, MaxCallDepth: 255}
}

// Context is the top-level interpreter: a namespace, a Host binding, and
// the table-parsing/method-invocation operations that act on them.
// Grounded on the teacher's vm.go VM type and its NewVM/Init/Lookup/Visit/
// execMethod methods, restructured so ParseTable takes raw bytes (no
// table.Resolver, no RSDP/RSDT/XSDT scan -- that is the table-locating
// collaborator this module does not carry, per DESIGN.md).
type Context struct {
	ns       *Namespace
	host     host.Interface
	log      logrus.Ext1FieldLogger
	cfg      Config
	intWidth int
}

// NewContext constructs an interpreter bound to h for all memory/IO/PCI/
// platform actions. log may be nil, in which case a logger that discards
// everything is used.
func NewContext(h host.Interface, log logrus.Ext1FieldLogger, cfg Config) *Context {
	if log == nil {
		l := logrus.New()
		l.SetOutput(discardWriter{})
		log = l
	}
	if cfg.MaxCallDepth == 0 {
		cfg.MaxCallDepth = 255
	}
	return &Context{host: h, log: log, cfg: cfg, intWidth: 32}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Namespace exposes the parsed namespace tree for inspection (used by
// cmd/amlshell and by tests).
func (c *Context) Namespace() *Namespace { return c.ns }

// ParseTable parses one DSDT/SSDT AML payload (the raw bytes that follow
// the table header -- this module does not parse SDTHeader/RSDP/RSDT/XSDT
// structures, which are the table-locating collaborator's job) and merges
// its namespace-modifier objects into the interpreter's namespace. On the
// first call, revision selects the integer width per ACPI sec. 19.6.115:
// DSDT header Revision < 2 implies 32-bit integers, >= 2 implies 64-bit.
// Later calls keep that width and ignore revision.
func (c *Context) ParseTable(data []byte, revision uint8) *Error {
	if c.ns == nil {
		width := 64
		if revision < 2 {
			width = 32
		}
		c.intWidth = width
		c.ns = buildPredefinedNamespace(width)
	}

	declare := newParser(data, c.intWidth)
	declare.declareMode = true
	scratch := NewScope("_scratch")
	if err := declare.parseTermList(scratch, uint32(len(data))); err != nil {
		return err
	}

	real := newParser(data, c.intWidth)
	real.methodArgCounts = declare.methodArgCounts
	if err := real.parseTermList(c.ns.Root(), uint32(len(data))); err != nil {
		return err
	}

	if c.cfg.Verbosity >= VerbosityScopes {
		c.log.Infof("parsed AML table (%d bytes, %d-bit integers)", len(data), c.intWidth)
	}
	return nil
}

// Device status bits returned by _STA, per ACPI sec. 6.3.7.
const (
	staPresent     = 1 << 0
	staFunctioning = 1 << 3
)

// InitializeObjects invokes \_SB._INI (when it exists), then walks the
// namespace invoking every device's _INI method, gated by _STA per ACPI sec.
// 6.5.1: _INI runs only when the device is present (bit 0); the walk
// descends into a device's children only when the device is present or at
// least functioning (bit 3). Scopes always descend; Processor/PowerResource/
// ThermalZone levels and method bodies are never descended into.
func (c *Context) InitializeObjects(goCtx context.Context) *Error {
	if c.ns == nil {
		return newNameError("no table parsed yet")
	}
	if sbIni, err := c.ns.GetByPath("\\_SB._INI"); err == nil && sbIni != nil {
		if _, err := c.InvokeMethod(goCtx, "\\_SB._INI"); err != nil {
			return err
		}
	}
	var walkErr *Error
	c.ns.Traverse(func(depth int, e Entity) bool {
		switch e.(type) {
		case *Device:
		case *Method, *Processor, *PowerResource, *ThermalZone:
			return false
		default:
			return true
		}
		dev := e.(*Device)
		if c.cfg.Verbosity >= VerbosityAllScopes {
			c.log.Debugf("initializing device %s", dev.Name())
		}
		sta := uint64(0xf) // default: present, enabled, shown, functioning
		if staMethod := findChild(dev, "_STA"); staMethod != nil {
			v, err := c.InvokeMethod(goCtx, pathOf(dev)+"._STA")
			if err != nil {
				walkErr = err
				return false
			}
			sta, _ = toInteger(v, c.intWidth)
		}
		if sta&staPresent != 0 {
			if iniMethod := findChild(dev, "_INI"); iniMethod != nil {
				if _, err := c.InvokeMethod(goCtx, pathOf(dev)+"._INI"); err != nil {
					walkErr = err
					return false
				}
			}
		}
		return sta&(staPresent|staFunctioning) != 0
	})
	return walkErr
}

func pathOf(e Entity) string {
	var segs []string
	for cur := e; cur != nil; {
		if cur.Name() != "" && cur.Name() != "\\" {
			segs = append([]string{cur.Name()}, segs...)
		}
		p := cur.Parent()
		if p == nil {
			break
		}
		cur = p
	}
	return "\\" + joinDot(segs)
}

func joinDot(segs []string) string {
	s := ""
	for i, seg := range segs {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// InvokeMethod resolves path from the namespace root and, if it names a
// Method, invokes it with args; if it names anything else, its current
// value is returned (so callers can use InvokeMethod uniformly to both call
// methods and read named values, per spec.md's invoke_method operation).
func (c *Context) InvokeMethod(goCtx context.Context, path string, args ...interface{}) (interface{}, *Error) {
	if c.ns == nil {
		return nil, newNameError("no table parsed yet")
	}
	if path == "\\_OSI" || path == "_OSI" {
		return c.invokeOSI(args)
	}
	target, err := c.ns.GetByPath(path)
	if err != nil {
		return nil, err
	}
	m, ok := target.(*Method)
	if !ok {
		ec := &execContext{curScope: c.ns.Root()}
		return c.eval(goCtx, ec, target)
	}
	return c.invokeMethodEntity(goCtx, m, args, 1)
}

func (c *Context) invokeOSI(args []interface{}) (interface{}, *Error) {
	if len(args) != 1 {
		return nil, newMethodError("_OSI expects exactly 1 argument, got %d", len(args))
	}
	query, err := toAmlString(args[0], c.intWidth)
	if err != nil {
		return nil, err
	}
	if query == "Linux" {
		c.log.Warn("ACPI evaluated _OSI(\"Linux\"). This is a firmware bug; reporting no support.")
	}
	if isOSISupported(query, c.cfg.OSIOverrides) {
		return ^uint64(0), nil
	}
	return uint64(0), nil
}

func (c *Context) invokeMethodEntity(goCtx context.Context, m *Method, args []interface{}, depth int) (interface{}, *Error) {
	if depth > c.cfg.MaxCallDepth {
		return nil, errRecursionLimit
	}
	if len(args) > m.ArgCount {
		args = args[:m.ArgCount]
	}
	ec := &execContext{curScope: m, depth: depth}
	for i, a := range args {
		ec.methodArg[i] = a
	}
	for i := len(args); i < m.ArgCount; i++ {
		ec.methodArg[i] = &Uninitialized{}
	}
	if c.cfg.Verbosity >= VerbosityAll {
		c.log.Tracef("invoking %s with %d args", pathOf(m), len(args))
	}
	if err := c.execBlock(goCtx, ec, m); err != nil {
		return nil, err.withFrame(Frame{Method: pathOf(m)})
	}
	switch ec.ctrlFlow {
	case ctrlFlowBreak:
		return nil, errBreakInInvalidPosition.withFrame(Frame{Method: pathOf(m)})
	case ctrlFlowContinue:
		return nil, errContinueInInvalidPosition.withFrame(Frame{Method: pathOf(m)})
	}
	if ec.retVal == nil {
		return uint64(0), nil
	}
	return ec.retVal, nil
}
