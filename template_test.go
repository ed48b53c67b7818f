package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageTemplateRender(t *testing.T) {
	tmpl, err := newMessageTemplate("hi {{.Number}}, offer inside")
	require.NoError(t, err)

	got, err := tmpl.render("+14155552671")
	require.NoError(t, err)
	assert.Equal(t, "hi +14155552671, offer inside", got)
}

func TestMessageTemplateLiteralBodyPassesThrough(t *testing.T) {
	tmpl, err := newMessageTemplate("*bold* and _italic_ stay literal")
	require.NoError(t, err)

	got, err := tmpl.render("+14155552671")
	require.NoError(t, err)
	assert.Equal(t, "*bold* and _italic_ stay literal", got)
}

func TestMessageTemplateBadSyntax(t *testing.T) {
	_, err := newMessageTemplate("hi {{.Number")
	assert.Error(t, err)
}
