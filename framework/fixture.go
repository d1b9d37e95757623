package framework

import (
	"net/http"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Fixture is the state shared by the ordered cases of one module run. It is the only channel
// through which one case can pass information to a later one.
//
// The engine creates a Fixture when a module run starts and discards it when the run ends.
// A case may read and write it during its own invocation, but must not keep a reference to it
// afterward. If a case ends with a Skip outcome, any changes it made are rolled back.
type Fixture struct {
	// CreatedResource is the version-specific identity of the resource most recently created or
	// updated by the module, if any.
	CreatedResource ldvalue.OptionalString
	// Versions lists every version-specific identity recorded so far, in creation order.
	Versions []string
	// LastKnownTimestamp is a point in time known to precede the module's first change.
	LastKnownTimestamp *time.Time
	// LastResponseHeaders are the headers of the last response received from the server.
	LastResponseHeaders http.Header

	scratch map[string]interface{}
}

func NewFixture() *Fixture {
	return &Fixture{scratch: make(map[string]interface{})}
}

// RecordVersion appends a version-specific identity and makes it the current CreatedResource.
func (f *Fixture) RecordVersion(uri string) {
	f.Versions = append(f.Versions, uri)
	f.CreatedResource = ldvalue.NewOptionalString(uri)
}

// Store saves a module-specific value under a key.
//
// Values are kept as-is; restoring after a Skip only undoes the Store call itself, not
// in-place changes to a stored slice or map.
func (f *Fixture) Store(key string, value interface{}) {
	f.scratch[key] = value
}

func (f *Fixture) Load(key string) (interface{}, bool) {
	v, ok := f.scratch[key]
	return v, ok
}

func (f *Fixture) snapshot() *Fixture {
	s := &Fixture{
		CreatedResource:     f.CreatedResource,
		Versions:            append([]string(nil), f.Versions...),
		LastResponseHeaders: f.LastResponseHeaders.Clone(),
		scratch:             make(map[string]interface{}, len(f.scratch)),
	}
	if f.LastKnownTimestamp != nil {
		t := *f.LastKnownTimestamp
		s.LastKnownTimestamp = &t
	}
	for k, v := range f.scratch {
		s.scratch[k] = v
	}
	return s
}

func (f *Fixture) restore(s *Fixture) {
	*f = *s
}
