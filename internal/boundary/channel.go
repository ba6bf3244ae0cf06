// Package boundary carries records from the capture service to the host
// application. A Channel is the Go side of the host's method channel.
package boundary

import (
	"context"
	stderrors "errors"
	"strings"

	"mirror/pkg/errors"
)

type Channel interface {
	Name() string
	// Ready reports whether Invoke can currently reach a host.
	Ready() bool
	// Invoke sends method with args without waiting for a reply.
	Invoke(ctx context.Context, method string, args map[string]interface{}) error
	Close() error
}

// Fanout invokes every ready member. It is ready while any member is.
type Fanout struct {
	members []Channel
}

func NewFanout(members ...Channel) *Fanout {
	return &Fanout{members: members}
}

func (f *Fanout) Name() string {
	names := make([]string, 0, len(f.members))
	for _, m := range f.members {
		names = append(names, m.Name())
	}
	return strings.Join(names, "+")
}

func (f *Fanout) Ready() bool {
	for _, m := range f.members {
		if m.Ready() {
			return true
		}
	}
	return false
}

func (f *Fanout) Invoke(ctx context.Context, method string, args map[string]interface{}) error {
	var (
		errs      []error
		delivered bool
	)
	for _, m := range f.members {
		if !m.Ready() {
			continue
		}
		if err := m.Invoke(ctx, method, args); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered = true
	}
	if !delivered && len(errs) == 0 {
		return errors.ErrChannelNotReady
	}
	return stderrors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, m := range f.members {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
