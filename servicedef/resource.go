package servicedef

import (
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Content types accepted for resource bodies. The second form was used by servers
// implementing earlier drafts of the protocol.
const (
	ContentTypeFHIRJSON       = "application/fhir+json"
	ContentTypeFHIRJSONLegacy = "application/json+fhir"
	ContentTypeFHIRXML        = "application/fhir+xml"
	ContentTypeFHIRXMLLegacy  = "application/xml+fhir"
)

// InstantFormat is the wire format of meta.lastUpdated and the _since parameter.
const InstantFormat = time.RFC3339Nano

// IsResourceContentType returns true if a Content-Type header value names one of the
// resource formats, ignoring parameters such as charset.
func IsResourceContentType(value string) bool {
	mediaType := strings.TrimSpace(strings.SplitN(value, ";", 2)[0])
	switch strings.ToLower(mediaType) {
	case ContentTypeFHIRJSON, ContentTypeFHIRJSONLegacy, ContentTypeFHIRXML, ContentTypeFHIRXMLLegacy:
		return true
	}
	return false
}

func ResourceType(resource ldvalue.Value) string {
	return resource.GetByKey("resourceType").StringValue()
}

func ResourceID(resource ldvalue.Value) string {
	return resource.GetByKey("id").StringValue()
}

func VersionID(resource ldvalue.Value) string {
	return resource.GetByKey("meta").GetByKey("versionId").StringValue()
}

// LastUpdated returns meta.lastUpdated, or nil if it is missing or malformed.
func LastUpdated(resource ldvalue.Value) *time.Time {
	return ParseInstant(resource.GetByKey("meta").GetByKey("lastUpdated").StringValue())
}

// ParseInstant parses a timestamp in InstantFormat, returning nil if s is not one.
func ParseInstant(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(InstantFormat, s)
	if err != nil {
		return nil
	}
	return &t
}

// WithProperty returns a copy of an object value with one property replaced.
func WithProperty(resource ldvalue.Value, key string, value ldvalue.Value) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for _, k := range resource.Keys() {
		if k != key {
			b.Set(k, resource.GetByKey(k))
		}
	}
	b.Set(key, value)
	return b.Build()
}

// WithMeta returns a copy of a resource whose meta element holds the given version and
// update time.
func WithMeta(resource ldvalue.Value, versionID string, lastUpdated time.Time) ldvalue.Value {
	meta := ldvalue.ObjectBuild().
		Set("versionId", ldvalue.String(versionID)).
		Set("lastUpdated", ldvalue.String(lastUpdated.UTC().Format(InstantFormat))).
		Build()
	return WithProperty(resource, "meta", meta)
}
