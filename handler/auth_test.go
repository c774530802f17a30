package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAuthenticator(t *testing.T) {

	auth := &StaticAuthenticator{Principal: Principal{UserId: 1, Name: "admin"}}

	p, err := auth.Verify(context.Background(), "any-token")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.UserId)
	assert.Equal(t, "admin", p.Name)

	//each call hands out a copy, callers cannot mutate the shared principal
	p.Name = "changed"
	p2, err := auth.Verify(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, "admin", p2.Name)

	_, err = auth.Verify(context.Background(), "")
	assert.Error(t, err)
}
