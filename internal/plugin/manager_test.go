package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	name    string
	initErr error
	log     *[]string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Initialize(EditorAPI) error {
	*r.log = append(*r.log, "init "+r.name)
	return r.initErr
}

func (r *recorder) Shutdown() error {
	*r.log = append(*r.log, "shutdown "+r.name)
	return nil
}

func TestRegisterRejectsDuplicatesAndEmptyNames(t *testing.T) {
	var log []string
	m := NewManager()
	require.NoError(t, m.Register(&recorder{name: "a", log: &log}))
	assert.Error(t, m.Register(&recorder{name: "a", log: &log}))
	assert.Error(t, m.Register(&recorder{name: "", log: &log}))
}

func TestLifecycleOrder(t *testing.T) {
	var log []string
	m := NewManager()
	require.NoError(t, m.Register(&recorder{name: "first", log: &log}))
	require.NoError(t, m.Register(&recorder{name: "broken", initErr: errors.New("boom"), log: &log}))
	require.NoError(t, m.Register(&recorder{name: "last", log: &log}))

	m.InitializePlugins(nil)
	m.ShutdownPlugins()
	m.ShutdownPlugins()

	assert.Equal(t, []string{
		"init first", "init broken", "init last",
		"shutdown last", "shutdown first",
	}, log)
}
