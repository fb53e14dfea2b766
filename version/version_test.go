package version

import "testing"

func TestGet(t *testing.T) {
	info := Get()
	if info.Service != Service {
		t.Errorf("service = %q, want %q", info.Service, Service)
	}
	if info.GoVersion == "" {
		t.Error("go version should always be set")
	}
}
