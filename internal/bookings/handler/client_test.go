package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"jire/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationClientAgainstHandler(t *testing.T) {
	srv := httptest.NewServer(newRouter(t))
	defer srv.Close()

	c := client.NewReservationClient(srv.URL)
	ctx := context.Background()

	res, err := c.AddReservation(ctx, client.ReservationInput{
		Name: "Board Room", Owner: "carol", StartTime: "2024-01-01T09:00:00Z", Duration: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(45*60), res.Duration)

	got, err := c.GetReservation(ctx, "Board Room")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.ID, got.ID)

	session, err := c.Allocate(ctx, "Board Room", "carol", "")
	require.NoError(t, err)
	assert.Equal(t, res.ID, session.ID)

	_, err = c.Allocate(ctx, "board room", "carol", "")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, res.ID, apiErr.ConflictID)

	ok, err := c.DeleteConference(ctx, "board_room")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.DeleteReservation(ctx, "board_room")
	require.NoError(t, err)
	assert.False(t, ok)
}
