// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package registry

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/retry"
)

var logger = loggo.GetLogger("sdkmigrate.registry")

const (
	retryAttempts = 3
	retryDelay    = 200 * time.Millisecond
)

// retryingClient retries transient registry failures a small, bounded
// number of times. NotFound is authoritative and never retried; after
// the attempts are exhausted the last error escalates to the caller as
// a lookup failure, never a hang.
type retryingClient struct {
	client Client
	clock  clock.Clock
}

// NewRetryingClient wraps client with the bounded retry policy.
func NewRetryingClient(client Client, clk clock.Clock) Client {
	return &retryingClient{client: client, clock: clk}
}

func (c *retryingClient) call(ctx context.Context, what string, f func() error) error {
	return retry.Call(retry.CallArgs{
		Func: f,
		IsFatalError: func(err error) bool {
			return errors.Is(err, errors.NotFound) || ctx.Err() != nil
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debugf("registry %s failed (attempt %d): %v", what, attempt, err)
		},
		Attempts: retryAttempts,
		Delay:    retryDelay,
		Clock:    c.clock,
		Stop:     ctx.Done(),
	})
}

// ResolveAssemblyToPackage implements Client.
func (c *retryingClient) ResolveAssemblyToPackage(ctx context.Context, assemblyName string) (*PackageResolution, error) {
	var resolution *PackageResolution
	err := c.call(ctx, "reverse lookup", func() error {
		var err error
		resolution, err = c.client.ResolveAssemblyToPackage(ctx, assemblyName)
		return err
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return resolution, nil
}

// DependencyClosure implements Client.
func (c *retryingClient) DependencyClosure(ctx context.Context, id, version, framework string) (set.Strings, error) {
	var closure set.Strings
	err := c.call(ctx, "dependency closure", func() error {
		var err error
		closure, err = c.client.DependencyClosure(ctx, id, version, framework)
		return err
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return closure, nil
}

// LatestVersion implements Client.
func (c *retryingClient) LatestVersion(ctx context.Context, id string, includePrerelease bool) (string, error) {
	var version string
	err := c.call(ctx, "latest version", func() error {
		var err error
		version, err = c.client.LatestVersion(ctx, id, includePrerelease)
		return err
	})
	if err != nil {
		return "", errors.Trace(err)
	}
	return version, nil
}
