package fhirclient

import (
	"fmt"
	"net/url"
	"strings"
)

const historySegment = "_history"

// ResourceIdentity identifies a resource, and optionally one version of it, either relative to
// a server base URL ("Patient/1/_history/2") or absolutely.
type ResourceIdentity struct {
	// Base is the server base URL for an absolute identity, or "" for a relative one.
	Base         string
	ResourceType string
	ID           string
	VersionID    string
}

// ParseIdentity parses "[base/]Type/id[/_history/vid]". A query string or fragment is ignored.
func ParseIdentity(s string) (ResourceIdentity, error) {
	var base, path string
	if u, err := url.Parse(s); err == nil && u.IsAbs() {
		path = strings.Trim(u.Path, "/")
		u.RawQuery, u.Fragment, u.Path, u.RawPath = "", "", "", ""
		base = u.String()
	} else {
		path = strings.Trim(strings.SplitN(strings.SplitN(s, "?", 2)[0], "#", 2)[0], "/")
	}

	parts := strings.Split(path, "/")
	var ret ResourceIdentity
	n := len(parts)
	if n >= 4 && parts[n-2] == historySegment {
		ret.VersionID = parts[n-1]
		parts = parts[:n-2]
		n -= 2
	}
	if n < 2 || parts[n-1] == "" || !isResourceType(parts[n-2]) {
		return ResourceIdentity{}, fmt.Errorf("%q is not a resource identity", s)
	}
	ret.ResourceType, ret.ID = parts[n-2], parts[n-1]
	if prefix := strings.Join(parts[:n-2], "/"); base != "" {
		if prefix != "" {
			base += "/" + prefix
		}
		ret.Base = base
	} else if prefix != "" {
		ret.Base = prefix
	}
	return ret, nil
}

func isResourceType(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z' && s != historySegment
}

func (r ResourceIdentity) String() string {
	parts := make([]string, 0, 5)
	if r.Base != "" {
		parts = append(parts, strings.TrimSuffix(r.Base, "/"))
	}
	parts = append(parts, r.ResourceType, r.ID)
	if r.VersionID != "" {
		parts = append(parts, historySegment, r.VersionID)
	}
	return strings.Join(parts, "/")
}

// Path is the identity relative to the server base.
func (r ResourceIdentity) Path() string {
	r.Base = ""
	return r.String()
}

func (r ResourceIdentity) WithoutVersion() ResourceIdentity {
	r.VersionID = ""
	return r
}

func (r ResourceIdentity) WithVersion(versionID string) ResourceIdentity {
	r.VersionID = versionID
	return r
}

func (r ResourceIdentity) IsVersionSpecific() bool {
	return r.VersionID != ""
}

// IsAbsolute is true if the identity includes an absolute server base URL.
func (r ResourceIdentity) IsAbsolute() bool {
	u, err := url.Parse(r.Base)
	return err == nil && u.IsAbs()
}

// IsAbsoluteURL returns true if s parses as an absolute URL.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}
