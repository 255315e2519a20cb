package model

// Described is implemented by anything that can yield a resource descriptor.
// *Resource describes itself; decorators such as Proxy describe the resource
// they wrap.
type Described interface {
	Describe() *Resource
}

// ApplicationDescribed is the application-level counterpart of Described.
type ApplicationDescribed interface {
	DescribeApplication() *Application
}

// Proxy decorates a resource descriptor, for example one produced by a
// framework that wraps handlers. Markers are always read from the
// underlying declaration.
type Proxy struct {
	Name   string
	Target Described
}

// Underlying returns the wrapped descriptor.
func (p *Proxy) Underlying() Described {
	return p.Target
}

// Describe implements Described by delegating to the wrapped descriptor.
func (p *Proxy) Describe() *Resource {
	return Unwrap(p.Target)
}

// ApplicationProxy decorates an application descriptor.
type ApplicationProxy struct {
	Name   string
	Target ApplicationDescribed
}

// Underlying returns the wrapped descriptor.
func (p *ApplicationProxy) Underlying() ApplicationDescribed {
	return p.Target
}

// DescribeApplication implements ApplicationDescribed.
func (p *ApplicationProxy) DescribeApplication() *Application {
	return UnwrapApplication(p.Target)
}

// Unwrap follows Underlying accessors until it reaches the declaring
// resource. It returns nil for a nil or empty chain.
func Unwrap(d Described) *Resource {
	for d != nil {
		p, ok := d.(*Proxy)
		if !ok {
			return d.Describe()
		}
		if p == nil {
			return nil
		}
		d = p.Underlying()
	}
	return nil
}

// UnwrapApplication is Unwrap for application descriptors.
func UnwrapApplication(d ApplicationDescribed) *Application {
	for d != nil {
		p, ok := d.(*ApplicationProxy)
		if !ok {
			return d.DescribeApplication()
		}
		if p == nil {
			return nil
		}
		d = p.Underlying()
	}
	return nil
}
