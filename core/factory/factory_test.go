package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renderer struct {
	Width   int
	Timeout time.Duration
}

type rendererConf struct {
	Width   int           `json:"width"`
	Timeout time.Duration `json:"timeout"`
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*renderer]()
	require.NoError(t, reg.Register("png", func(conf map[string]any) (*renderer, error) {
		var c rendererConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &renderer{Width: c.Width, Timeout: c.Timeout}, nil
	}))
	inst, err := reg.Create(ModuleConfig{Type: "png", Conf: map[string]any{"width": "800", "timeout": "2s"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	assert.Equal(t, 800, inst.Width)
	assert.Equal(t, 2*time.Second, inst.Timeout)
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("b", func(map[string]any) (int, error) { return 1, nil }))
	require.NoError(t, reg.Register("a", func(map[string]any) (int, error) { return 2, nil }))
	if err := reg.Register("b", func(map[string]any) (int, error) { return 3, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("c", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	_, err := reg.Create(ModuleConfig{Type: "z"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[a b]")
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}
