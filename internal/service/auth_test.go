package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/utils"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hash, err := utils.HashPassword("s3cret!", 4)
	require.NoError(t, err)
	u := &model.User{Email: "member@x.test", PasswordHash: hash, LastName: "M", Role: model.RoleUser, IsActive: true}
	require.NoError(t, f.store.UpsertUser(ctx, u))

	tok, got, err := f.auth.Login(ctx, " Member@X.test", "s3cret!")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, u.ID, got.ID)

	_, _, err = f.auth.Login(ctx, "member@x.test", "wrong")
	assert.ErrorIs(t, err, booking.ErrUnauthenticated)
	_, _, err = f.auth.Login(ctx, "nobody@x.test", "s3cret!")
	assert.ErrorIs(t, err, booking.ErrUnauthenticated)

	me, err := f.auth.Me(ctx, booking.Caller{ID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, "member@x.test", me.Email)
	_, err = f.auth.Me(ctx, anon)
	assert.ErrorIs(t, err, booking.ErrUnauthenticated)
}
