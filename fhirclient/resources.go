package fhirclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sprinkler-fhir/sprinkler/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Resource is a resource as returned by a create, read or update interaction.
type Resource struct {
	// SelfLink is the absolute, version-specific identity of this version of the resource,
	// when the server made it known.
	SelfLink ResourceIdentity
	Body     ldvalue.Value
}

// Create posts a new resource to its type endpoint, letting the server assign the id.
func (c *Client) Create(ctx context.Context, body ldvalue.Value) (Resource, error) {
	resourceType := servicedef.ResourceType(body)
	if resourceType == "" {
		return Resource{}, errNoResourceType
	}
	details, data, err := c.do(ctx, request{method: http.MethodPost, target: resourceType, body: body})
	if err != nil {
		return Resource{}, err
	}
	if details.Location == "" {
		return Resource{}, fmt.Errorf("server did not return a Location header for created %s", resourceType)
	}
	return c.resourceFromResponse(details, data, body, details.Location)
}

// CreateWithID creates a resource with a client-chosen id, using update-as-create.
func (c *Client) CreateWithID(ctx context.Context, id string, body ldvalue.Value) (Resource, error) {
	resourceType := servicedef.ResourceType(body)
	if resourceType == "" {
		return Resource{}, errNoResourceType
	}
	body = servicedef.WithProperty(body, "id", ldvalue.String(id))
	target := ResourceIdentity{ResourceType: resourceType, ID: id}
	details, data, err := c.do(ctx, request{method: http.MethodPut, target: target.Path(), body: body})
	if err != nil {
		return Resource{}, err
	}
	return c.resourceFromResponse(details, data, body, details.Location, details.ContentLocation)
}

// Read fetches the current version of a resource, or, if id is version-specific, that
// version (vread).
func (c *Client) Read(ctx context.Context, id ResourceIdentity) (Resource, error) {
	details, data, err := c.do(ctx, request{method: http.MethodGet, target: c.absolute(id).String()})
	if err != nil {
		return Resource{}, err
	}
	ret, err := c.resourceFromResponse(details, data, ldvalue.Null(), details.ContentLocation)
	if err == nil && ret.Body.IsNull() {
		err = fmt.Errorf("%s %s returned an empty body", details.Method, details.URL)
	}
	return ret, err
}

// Update replaces a resource with a new version. If the current self link is version-specific,
// the request is made conditional on that version with If-Match.
func (c *Client) Update(ctx context.Context, current Resource) (Resource, error) {
	id := current.SelfLink
	if id.ResourceType == "" {
		id.ResourceType = servicedef.ResourceType(current.Body)
	}
	if id.ID == "" {
		id.ID = servicedef.ResourceID(current.Body)
	}
	if id.ResourceType == "" || id.ID == "" {
		return Resource{}, fmt.Errorf("cannot update a resource without a type and id")
	}
	r := request{method: http.MethodPut, target: c.absolute(id.WithoutVersion()).String(), body: current.Body}
	if id.IsVersionSpecific() {
		r.headers = map[string]string{"If-Match": fmt.Sprintf(`W/"%s"`, id.VersionID)}
	}
	details, data, err := c.do(ctx, r)
	if err != nil {
		return Resource{}, err
	}
	return c.resourceFromResponse(details, data, current.Body, details.Location, details.ContentLocation)
}

// Delete deletes the resource, whatever version id names.
func (c *Client) Delete(ctx context.Context, id ResourceIdentity) error {
	_, _, err := c.do(ctx, request{method: http.MethodDelete, target: c.absolute(id.WithoutVersion()).String()})
	return err
}

// Conformance fetches the capability statement from /metadata.
func (c *Client) Conformance(ctx context.Context) (ldvalue.Value, error) {
	details, data, err := c.do(ctx, request{method: http.MethodGet, target: "metadata"})
	if err != nil {
		return ldvalue.Null(), err
	}
	var body ldvalue.Value
	if err := decodeBody(details, data, &body); err != nil {
		return ldvalue.Null(), err
	}
	return body, nil
}

// resourceFromResponse determines the self link from the first usable location header,
// falling back to the id and meta.versionId of the returned resource. An empty response
// body, as sent by servers that honor return=minimal, leaves the request body in place.
func (c *Client) resourceFromResponse(
	details ResponseDetails,
	data []byte,
	sent ldvalue.Value,
	locations ...string,
) (Resource, error) {
	body := sent
	if len(data) > 0 {
		var returned ldvalue.Value
		if err := decodeBody(details, data, &returned); err != nil {
			return Resource{}, err
		}
		if servicedef.ResourceType(returned) != servicedef.ResourceTypeOperationOutcome {
			body = returned
		}
	}

	ret := Resource{Body: body}
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		if id, err := ParseIdentity(loc); err == nil {
			ret.SelfLink = c.absolute(id)
			break
		}
	}
	if ret.SelfLink.ID == "" {
		if resourceType, id := servicedef.ResourceType(body), servicedef.ResourceID(body); resourceType != "" && id != "" {
			ret.SelfLink = c.absolute(ResourceIdentity{ResourceType: resourceType, ID: id})
		}
	}
	if !ret.SelfLink.IsVersionSpecific() && ret.SelfLink.ID != "" {
		ret.SelfLink.VersionID = servicedef.VersionID(body)
	}
	return ret, nil
}
