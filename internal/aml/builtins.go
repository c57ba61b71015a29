package aml

// osiSupportedStrings is the allow-list the native \_OSI method reports
// true for. Grounded on defaultACPIScopes (the empty predefined scopes) plus
// original_source/aml/src/lib.rs's initialize_objects, which carries the
// fuller Windows-version table spec.md's distillation compresses to "ACPI
// 2000-2019, 'Darwin', and a couple of feature strings". The original's
// per-entry commentary (mapping each string to the real Windows release
// that introduced it) is preserved as a narrow set of inline comments,
// matching how the original itself documents the list.
var osiSupportedStrings = map[string]bool{
	"Windows 2000":      true, // Windows 2000
	"Windows 2001":      true, // Windows XP
	"Windows 2001 SP1":  true, // Windows XP SP1
	"Windows 2001 SP2":  true, // Windows XP SP2
	"Windows 2001.1":    true, // Windows Server 2003
	"Windows 2001.1 SP1": true, // Windows Server 2003 SP1
	"Windows 2006":      true, // Windows Vista
	"Windows 2006 SP1":  true, // Windows Vista SP1
	"Windows 2006 SP2":  true, // Windows Vista SP2
	"Windows 2006.1":    true, // Windows Server 2008
	"Windows 2009":      true, // Windows 7 / Server 2008 R2
	"Windows 2012":      true, // Windows 8 / Server 2012
	"Windows 2013":      true, // Windows 8.1 / Server 2012 R2
	"Windows 2015":      true, // Windows 10
	"Windows 2016":      true, // Windows 10, version 1607
	"Windows 2017":      true, // Windows 10, version 1703
	"Windows 2017.2":    true, // Windows 10, version 1709
	"Windows 2018":      true, // Windows 10, version 1803
	"Windows 2018.2":    true, // Windows 10, version 1809
	"Windows 2019":      true, // Windows 10, version 1903
	"Darwin":            true,
	"Extended Address Space Descriptor": true,
	"3.0 Thermal Model":                true,
	"3.0 _SCP Extensions":              true,
}

// Queries absent from osiSupportedStrings report false. That includes
// "Linux", "Module Device" and "Processor Aggregator Device", so a
// firmware's feature-detection branch degrades instead of taking a
// Linux-specific (and therefore untested-by-this-interpreter) code path.

// buildPredefinedNamespace seeds the five well-known top-level scopes plus
// _OS/_REV, grounded on vm.go's defaultACPIScopes. _OSI is not a namespace
// entry: Context.InvokeMethod answers "\_OSI" and "_OSI" itself through
// Context.invokeOSI, and a reference to _OSI from inside AML code does not
// resolve.
func buildPredefinedNamespace(intWidth int) *Namespace {
	ns := NewNamespace()
	root := ns.Root()
	for _, name := range []string{"_GPE", "_PR_", "_SB_", "_SI_", "_TZ_"} {
		root.Append(NewScope(name))
	}
	root.Append(NewString("_OS_", "Microsoft Windows NT"))
	root.Append(NewInteger("_REV", 2, intWidth))
	return ns
}

// isOSISupported reports whether \_OSI should report true for the given
// query string: an entry in extra wins, otherwise the allow-list decides.
// It does not log; Context.invokeOSI is what warns about "_OSI(\"Linux\")".
func isOSISupported(query string, extra map[string]bool) bool {
	if extra != nil {
		if v, ok := extra[query]; ok {
			return v
		}
	}
	return osiSupportedStrings[query]
}
