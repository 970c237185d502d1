package tasks_test

import (
	"testing"

	"github.com/careline/triage/internal/tasks"
)

func TestJSONMapValue(t *testing.T) {
	var nilMap tasks.JSONMap
	v, err := nilMap.Value()
	if err != nil {
		t.Fatalf("Value on nil map: %v", err)
	}
	if string(v.([]byte)) != "{}" {
		t.Errorf("nil map should serialize to empty object, got %s", v)
	}

	v, err = tasks.JSONMap{"score": 0.5}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(v.([]byte)) != `{"score":0.5}` {
		t.Errorf("unexpected serialization %s", v)
	}
}

func TestJSONMapScan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		wantKey string
		wantNil bool
		wantErr bool
	}{
		{name: "bytes", src: []byte(`{"a": 1}`), wantKey: "a"},
		{name: "string", src: `{"b": 2}`, wantKey: "b"},
		{name: "null column", src: nil, wantNil: true},
		{name: "unsupported type", src: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tasks.JSONMap
			err := m.Scan(tt.src)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if tt.wantNil {
				if m != nil {
					t.Errorf("expected nil map, got %v", m)
				}
				return
			}
			if _, ok := m[tt.wantKey]; !ok {
				t.Errorf("expected key %q present, got %v", tt.wantKey, m)
			}
		})
	}
}
