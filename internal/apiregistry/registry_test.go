package apiregistry

import (
	"errors"
	"testing"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		path string
		want APIPath
	}{
		{"/api/v1/pods", APIPath{Prefix: "/api", Version: "v1", Resource: "pods"}},
		{"/api/v1/namespaces/default/pods/web-0", APIPath{Prefix: "/api", Version: "v1", Namespace: "default", Resource: "pods", Name: "web-0"}},
		{"/apis/apps/v1/namespaces/prod/deployments/api", APIPath{Prefix: "/apis", Group: "apps", Version: "v1", Namespace: "prod", Resource: "deployments", Name: "api"}},
		{"/api/v1/namespaces", APIPath{Prefix: "/api", Version: "v1", Resource: "namespaces"}},
		{"/api/v1/namespaces/kube-system", APIPath{Prefix: "/api", Version: "v1", Resource: "namespaces", Name: "kube-system"}},
		{"/api/v1/nodes/node-1?watch=true", APIPath{Prefix: "/api", Version: "v1", Resource: "nodes", Name: "node-1"}},
	}

	for _, tt := range tests {
		got, err := ParsePath(tt.path)
		if err != nil {
			t.Errorf("ParsePath(%q) error = %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePath(%q) = %+v, want %+v", tt.path, got, tt.want)
		}
	}
}

func TestParsePath_Invalid(t *testing.T) {
	for _, path := range []string{"", "/", "/api/v1", "/apis/apps/v1", "/foo/v1/pods"} {
		if _, err := ParsePath(path); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ParsePath(%q) error = %v, want ErrInvalidPath", path, err)
		}
	}
}

func TestAPIPath_APIBase(t *testing.T) {
	p, err := ParsePath("/apis/apps/v1/namespaces/prod/deployments/api")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.APIBase(); got != "/apis/apps/v1/deployments" {
		t.Errorf("APIBase() = %s", got)
	}
}

func TestPluralize(t *testing.T) {
	tests := map[string]string{
		"Pod":         "pods",
		"Ingress":     "ingresses",
		"Deployment":  "deployments",
		"StatefulSet": "statefulsets",
	}
	for kind, want := range tests {
		if got := Pluralize(kind); got != want {
			t.Errorf("Pluralize(%s) = %s, want %s", kind, got, want)
		}
	}
}

func TestDescriptor_URL(t *testing.T) {
	if got := Pods.URL("default", "web"); got != "/api/v1/namespaces/default/pods/web" {
		t.Errorf("Pods.URL = %s", got)
	}
	if got := Deployments.URL("", ""); got != "/apis/apps/v1/deployments" {
		t.Errorf("Deployments.URL = %s", got)
	}
	if got := Nodes.URL("ignored", "node-1"); got != "/api/v1/nodes/node-1" {
		t.Errorf("Nodes.URL = %s", got)
	}
	want := schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"}
	if got := Deployments.GroupVersionResource(); got != want {
		t.Errorf("GroupVersionResource() = %v", got)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := New()
	d := &Descriptor{APIBase: "/api/v1/pods", Kind: "Pod", APIVersion: "v1", Namespaced: true}

	if err := r.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(&Descriptor{APIBase: "/api/v1/pods", Kind: "Pod"}); !errors.Is(err, ErrDuplicateDescriptor) {
		t.Errorf("duplicate Register() error = %v, want ErrDuplicateDescriptor", err)
	}
	if err := r.Register(&Descriptor{Kind: "Nothing"}); !errors.Is(err, ErrEmptyAPIBase) {
		t.Errorf("empty Register() error = %v, want ErrEmptyAPIBase", err)
	}

	if !r.Unregister(d) {
		t.Error("expected first Unregister to report presence")
	}
	if r.Unregister(d) {
		t.Error("expected second Unregister to be a no-op")
	}
	if len(r.Descriptors()) != 0 {
		t.Errorf("expected empty registry, got %d", len(r.Descriptors()))
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := New()
	for _, d := range Builtin() {
		if err := r.Register(d); err != nil {
			t.Fatal(err)
		}
	}

	if d := r.Resolve("/api/v1/pods"); d == nil || d.Kind != "Pod" {
		t.Errorf("exact base resolved to %v", d)
	}
	if d := r.Resolve("/apis/apps/v1/namespaces/default/deployments/web"); d == nil || d.Kind != "Deployment" {
		t.Errorf("resource path resolved to %v", d)
	}
	if d := r.Resolve("/apis/foo/v1/bars", "not a path", "/api/v1/namespaces/default/services/x"); d == nil || d.Kind != "Service" {
		t.Errorf("candidate list resolved to %v", d)
	}
	if d := r.Resolve("/apis/foo/v1/bars"); d != nil {
		t.Errorf("expected no match, got %v", d)
	}
	if d := r.ResolveByKindAndVersion("HorizontalPodAutoscaler", "autoscaling/v2"); d == nil {
		t.Error("expected HPA by kind and version")
	}
	if d := r.ResolveByKindAndVersion("HorizontalPodAutoscaler", "autoscaling/v1"); d != nil {
		t.Errorf("expected no v1 HPA, got %v", d)
	}
	if d := r.ResolveFunc(func(d *Descriptor) bool { return !d.Namespaced }); d == nil || d.Kind != "Namespace" {
		t.Errorf("ResolveFunc should honour registration order, got %v", d)
	}
}
