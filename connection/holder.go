package connection

import (
	"errors"

	"golang.org/x/exp/slices"
)

// ConnectionsHolder is the built set of connections. It is not modified after
// the build and may be shared freely.
type ConnectionsHolder struct {
	list  []*SmscConnection
	index map[string]*SmscConnection
}

func newConnectionsHolder(list []*SmscConnection) *ConnectionsHolder {
	index := make(map[string]*SmscConnection, len(list))
	for _, c := range list {
		index[c.name] = c
	}
	return &ConnectionsHolder{list: list, index: index}
}

func (h *ConnectionsHolder) Get(name string) (*SmscConnection, bool) {
	c, ok := h.index[name]
	return c, ok
}

// All returns the connections in build order.
func (h *ConnectionsHolder) All() []*SmscConnection {
	return slices.Clone(h.list)
}

func (h *ConnectionsHolder) Names() []string {
	names := make([]string, 0, len(h.list))
	for _, c := range h.list {
		names = append(names, c.name)
	}
	return names
}

func (h *ConnectionsHolder) Len() int {
	return len(h.list)
}

// Close closes every connection in reverse build order.
func (h *ConnectionsHolder) Close() error {
	return closeAll(h.list)
}

func closeAll(list []*SmscConnection) error {
	var errs []error
	for i := len(list) - 1; i >= 0; i-- {
		errs = append(errs, list[i].Close())
	}
	return errors.Join(errs...)
}
