package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/golemon/pkg/sdk/lemon"
)

func TestParseEuro(t *testing.T) {
	a, err := parseEuro("12.50")
	require.NoError(t, err)
	assert.Equal(t, lemon.Amount(125000), *a)

	a, err = parseEuro(" ")
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = parseEuro("1.00001")
	assert.Error(t, err)
	_, err = parseEuro("ten")
	assert.Error(t, err)
}

func TestCommandsRequireArguments(t *testing.T) {
	for _, args := range [][]string{
		{"lemon", "market", "quote"},
		{"lemon", "orders", "get"},
		{"lemon", "withdraw"},
	} {
		err := newApp().Run(context.Background(), args)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "usage:", args)
	}
}
