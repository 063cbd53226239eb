package composer

import "fmt"

// Port declares one named input or output slot on a node and whether a value
// for it must be present at resolution time.
type Port struct {
	Name     string
	Required bool
}

// Ports is a node type's full port schema, declared once per node kind.
type Ports struct {
	Inputs  []Port
	Outputs []Port
}

// Input returns the declared input port with the given name.
func (p Ports) Input(name string) (Port, bool) {
	for _, port := range p.Inputs {
		if port.Name == name {
			return port, true
		}
	}
	return Port{}, false
}

// Output returns the declared output port with the given name.
func (p Ports) Output(name string) (Port, bool) {
	for _, port := range p.Outputs {
		if port.Name == name {
			return port, true
		}
	}
	return Port{}, false
}

// Bindings maps port names to concrete context keys. A port absent from the
// map binds to a key equal to its own name.
type Bindings map[string]string

// Key resolves the context key bound to a port name.
func (b Bindings) Key(port string) string {
	if b != nil {
		if key, ok := b[port]; ok {
			return key
		}
	}
	return port
}

// validateBindings checks a node's port schema against its bindings and the
// set of keys producible before the node runs (host-seeded keys plus upstream
// outputs). Missing required bindings are construction errors, reported
// before any execution.
func validateBindings(nodeID string, ports Ports, bindings Bindings, producible map[string]struct{}) error {
	for _, port := range ports.Inputs {
		if !port.Required {
			continue
		}
		key := bindings.Key(port.Name)
		if _, ok := producible[key]; !ok {
			return fmt.Errorf("%w: node %q input port %q bound to key %q, which no upstream node or seed provides",
				ErrUnboundPort, nodeID, port.Name, key)
		}
	}
	return nil
}
