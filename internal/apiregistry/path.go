package apiregistry

import (
	"fmt"
	"strings"
)

// DefaultAPIPrefix is used for synthesized paths when no prefix is known.
const DefaultAPIPrefix = "/apis"

// APIPath is a parsed Kubernetes REST path.
type APIPath struct {
	Prefix    string // "/api" or "/apis"
	Group     string // empty for the core group
	Version   string
	Namespace string
	Resource  string
	Name      string
}

// APIVersion returns "group/version", or just "version" for the core group.
func (p APIPath) APIVersion() string {
	if p.Group == "" {
		return p.Version
	}
	return p.Group + "/" + p.Version
}

// APIBase returns the collection path with namespace and name stripped.
func (p APIPath) APIBase() string {
	return CreatePath(PathOptions{Prefix: p.Prefix, APIVersion: p.APIVersion(), Resource: p.Resource})
}

// ParsePath parses paths such as
//
//	/api/v1/pods
//	/api/v1/namespaces/default/pods/web-0
//	/apis/apps/v1/namespaces/default/deployments/web
//	/api/v1/namespaces/kube-system
//
// Query strings and trailing subresources are ignored.
func ParsePath(path string) (APIPath, error) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 {
		return APIPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	var p APIPath
	var rest []string
	switch parts[0] {
	case "api":
		p.Prefix = "/api"
		p.Version = parts[1]
		rest = parts[2:]
	case "apis":
		if len(parts) < 4 {
			return APIPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		p.Prefix = "/apis"
		p.Group = parts[1]
		p.Version = parts[2]
		rest = parts[3:]
	default:
		return APIPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	// "namespaces/<ns>/<resource>/..." is a namespaced request; "namespaces"
	// alone or "namespaces/<name>" addresses the Namespace kind itself.
	if rest[0] == "namespaces" && len(rest) >= 3 {
		p.Namespace = rest[1]
		rest = rest[2:]
	}
	p.Resource = rest[0]
	if len(rest) > 1 {
		p.Name = rest[1]
	}
	if p.Resource == "" || p.Version == "" {
		return APIPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return p, nil
}

// PathOptions are the inputs of CreatePath.
type PathOptions struct {
	Prefix     string
	APIVersion string
	Namespace  string
	Resource   string
	Name       string
}

// CreatePath builds a conventional REST path. An empty prefix means DefaultAPIPrefix.
func CreatePath(o PathOptions) string {
	prefix := o.Prefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString("/")
	b.WriteString(o.APIVersion)
	if o.Namespace != "" {
		b.WriteString("/namespaces/")
		b.WriteString(o.Namespace)
	}
	b.WriteString("/")
	b.WriteString(o.Resource)
	if o.Name != "" {
		b.WriteString("/")
		b.WriteString(o.Name)
	}
	return b.String()
}

// Pluralize guesses a resource name from a kind. It is deliberately naive
// ("Ingress" -> "ingresses", "Pod" -> "pods", "NetworkPolicy" -> "networkpolicys").
func Pluralize(kind string) string {
	k := strings.ToLower(kind)
	if strings.HasSuffix(k, "s") {
		return k + "es"
	}
	return k + "s"
}
