package aml

// This file resolves the forward/sibling references Field()/IndexField()/
// BankField() leave unresolved at parse time (a FieldUnit only knows its
// region's *name* until first use). Grounded on the teacher's entity.go
// fieldUnitEntity.Resolve()/indexFieldEntity.Resolve(), which performs the
// same lazy lookup-by-name the first time a field is touched rather than
// during parsing, so that Field() can textually precede or follow its
// OperationRegion.
//
// Region/bank names are resolved as a single segment within the field's
// own defining scope (ascending the scope chain on miss, per ACPI's normal
// search rules) -- this module's Field()/IndexField()/BankField() parsing
// only captures the leaf segment of what is usually already a
// single-segment reference in practice; see DESIGN.md.

import "context"

func scopeOf(e Entity) ScopeEntity {
	if sc, ok := e.Parent().(ScopeEntity); ok {
		return sc
	}
	return nil
}

func (c *Context) resolveFieldUnit(f *FieldUnit) *Error {
	scope := scopeOf(f)
	if scope == nil {
		return newNameError("field unit %s has no enclosing scope", f.Name())
	}
	target, err := c.ns.Search(scope, ParseAmlName(f.RegionName))
	if err != nil {
		return err
	}
	region, ok := target.(*OpRegion)
	if !ok {
		return newTypeError("%s does not name an OperationRegion", f.RegionName)
	}
	if err := c.resolvePCIAddress(region); err != nil {
		return err
	}
	f.Region = region
	return nil
}

// resolvePCIAddress derives a PCIConfig region's config-space address from
// the enclosing device's _ADR (device/function) and the _SEG/_BBN values
// visible from that device (segment/bus), per ACPI sec. 6.1.1. Names that
// are absent default to zero, matching firmware that only declares _ADR.
func (c *Context) resolvePCIAddress(r *OpRegion) *Error {
	if r.Space != RegionPCIConfig || r.pciResolved {
		return nil
	}
	// Parent links point at a scope's embedded baseScope, so each level is
	// matched against its own parent's children to recover the *Device.
	var dev *Device
	for cur := r.Parent(); cur != nil && dev == nil; cur = cur.Parent() {
		if d, ok := cur.(*Device); ok {
			dev = d
			break
		}
		if p := cur.Parent(); p != nil {
			for _, c := range p.Children() {
				if d, ok := c.(*Device); ok && ScopeEntity(&d.baseScope) == cur {
					dev = d
				}
			}
		}
	}
	if dev == nil {
		return newUnsupportedError("PCIConfig region %s has no enclosing device to supply _ADR", r.Name())
	}
	adr, err := c.evalDeviceConstant(dev, "_ADR")
	if err != nil {
		return err
	}
	seg, err := c.evalDeviceConstant(dev, "_SEG")
	if err != nil {
		return err
	}
	bus, err := c.evalDeviceConstant(dev, "_BBN")
	if err != nil {
		return err
	}
	r.pciSeg = uint8(seg)
	r.pciBus = uint8(bus)
	r.pciDev = uint8((adr >> 16) & 0x1f)
	r.pciFn = uint8(adr & 0x7)
	r.pciResolved = true
	return nil
}

// evalDeviceConstant evaluates a single-segment name visible from scope
// (climbing the scope chain, so _SEG/_BBN on a parent bridge are found) to
// an integer. A name that does not resolve yields zero; a name that
// resolves but cannot evaluate or convert is a real error.
func (c *Context) evalDeviceConstant(scope ScopeEntity, name string) (uint64, *Error) {
	target, err := c.ns.Search(scope, ParseAmlName(name))
	if err != nil {
		return 0, nil
	}
	ec := &execContext{curScope: scope}
	v, verr := c.eval(context.Background(), ec, target)
	if verr != nil {
		return 0, verr
	}
	return toInteger(v, c.intWidth)
}

func (c *Context) resolveBufferField(bf *BufferField) *Error {
	if bf.Source != nil || bf.SourceName == "" {
		return nil
	}
	scope := scopeOf(bf)
	if scope == nil {
		return newNameError("buffer field %s has no enclosing scope", bf.Name())
	}
	target, err := c.ns.Search(scope, ParseAmlName(bf.SourceName))
	if err != nil {
		return err
	}
	buf, ok := target.(*Buffer)
	if !ok {
		return newTypeError("%s does not name a Buffer", bf.SourceName)
	}
	bf.Source = buf
	return nil
}

func (c *Context) resolveIndexField(f *IndexField) *Error {
	scope := scopeOf(f)
	if scope == nil {
		return newNameError("index field %s has no enclosing scope", f.Name())
	}
	if f.IndexReg == nil {
		target, err := c.ns.Search(scope, ParseAmlName(f.IndexRegName))
		if err != nil {
			return err
		}
		fu, ok := target.(*FieldUnit)
		if !ok {
			return newTypeError("%s does not name a FieldUnit", f.IndexRegName)
		}
		if fu.Region == nil {
			if err := c.resolveFieldUnit(fu); err != nil {
				return err
			}
		}
		f.IndexReg = fu
	}
	if f.DataReg == nil {
		target, err := c.ns.Search(scope, ParseAmlName(f.DataRegName))
		if err != nil {
			return err
		}
		fu, ok := target.(*FieldUnit)
		if !ok {
			return newTypeError("%s does not name a FieldUnit", f.DataRegName)
		}
		if fu.Region == nil {
			if err := c.resolveFieldUnit(fu); err != nil {
				return err
			}
		}
		f.DataReg = fu
	}
	return nil
}

func (c *Context) resolveBankField(f *BankField) *Error {
	scope := scopeOf(f)
	if scope == nil {
		return newNameError("bank field %s has no enclosing scope", f.Name())
	}
	if f.Region == nil {
		target, err := c.ns.Search(scope, ParseAmlName(f.RegionName))
		if err != nil {
			return err
		}
		region, ok := target.(*OpRegion)
		if !ok {
			return newTypeError("%s does not name an OperationRegion", f.RegionName)
		}
		if err := c.resolvePCIAddress(region); err != nil {
			return err
		}
		f.Region = region
	}
	if f.Bank == nil {
		target, err := c.ns.Search(scope, ParseAmlName(f.BankName))
		if err != nil {
			return err
		}
		fu, ok := target.(*FieldUnit)
		if !ok {
			return newTypeError("%s does not name a FieldUnit", f.BankName)
		}
		if fu.Region == nil {
			if err := c.resolveFieldUnit(fu); err != nil {
				return err
			}
		}
		f.Bank = fu
	}
	return nil
}
