package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	require.NotNil(t, app.Command("run"))
	require.NotNil(t, app.Command("once"))
	assert.Nil(t, app.Command("serve"))
}
