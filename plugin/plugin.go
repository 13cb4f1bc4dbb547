/*
Package plugin defines the contract between Hei and the plugins that extend
it with extra image and package loaders.

A host asks a plugin to describe itself by calling Query with the interface
version it implements. If the plugin answers with a matching description the
host calls Initialize, passing an ExportTable through which the plugin
registers its loaders. Loaders stay registered for the lifetime of the host.
*/
package plugin

import (
	"fmt"

	"github.com/oldtimes-software/hei/archive"
	"github.com/oldtimes-software/hei/image"
	"github.com/oldtimes-software/hei/result"
)

// InterfaceVersion is the version of the ExportTable offered by this host.
const InterfaceVersion = 1

// Version is a plugin's own release version.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Description is returned by a plugin from Query.
type Description struct {
	Text             string
	Version          Version
	InterfaceVersion int
}

// ExportTable holds the host functions a plugin may call.
type ExportTable struct {
	RegisterPackageLoader func(extension string, load archive.LoadFunc) error
	RegisterImageLoader   func(extension string, load image.LoadFunc) error
}

// Plugin is implemented by every plugin.
type Plugin interface {
	Query(interfaceVersion int) *Description
	Initialize(table *ExportTable) error
}

// Check validates a description returned from Query.
func Check(d *Description) error {
	const op = "query plugin"

	if d == nil {
		return result.Errorf(result.Unsupported, op, "", "no plugin description")
	}
	if d.InterfaceVersion != InterfaceVersion {
		return result.Errorf(result.Unsupported, op, "", "%q uses interface version %d, expected %d", d.Text, d.InterfaceVersion, InterfaceVersion)
	}
	return nil
}

// Static is a Plugin built from a fixed description and an initialization
// function, for plugins compiled into the host.
type Static struct {
	Description Description
	Init        func(table *ExportTable) error
}

// Query returns the static description whatever version is asked for.
func (s *Static) Query(int) *Description {
	return &s.Description
}

// Initialize calls Init, if set.
func (s *Static) Initialize(table *ExportTable) error {
	if s.Init == nil {
		return nil
	}
	return s.Init(table)
}
