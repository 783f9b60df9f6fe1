package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/events"
	"github.com/Cristi-la/EOL-Net/internal/service"
)

type mockTokenAdmin struct {
	mock.Mock
}

func (m *mockTokenAdmin) Create(ctx context.Context, actor events.Actor, input service.TokenCreateInput) (*service.IssuedToken, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssuedToken), args.Error(1)
}

func (m *mockTokenAdmin) List(ctx context.Context) ([]domain.APIToken, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.APIToken), args.Error(1)
}

func (m *mockTokenAdmin) Delete(ctx context.Context, actor events.Actor, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func TestRunCreateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		tokens := &mockTokenAdmin{}
		input := service.TokenCreateInput{Name: "ci", OwnerID: "u-1", CanWrite: true, AllowedVendors: []int64{5}}
		tokens.On("Create", ctx, cliActor, input).Return(&service.IssuedToken{
			Token:      &domain.APIToken{ID: "t-1", Name: "ci"},
			Credential: "header.payload.sig",
			ExpiresAt:  time.Date(2027, 10, 15, 0, 0, 0, 0, time.UTC),
		}, nil)

		var out bytes.Buffer
		require.NoError(t, runCreateToken(ctx, tokens, &out, input))
		assert.Contains(t, out.String(), "credential: header.payload.sig")
		assert.Contains(t, out.String(), "expires: 2027-10-15T00:00:00Z")
		tokens.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		tokens := &mockTokenAdmin{}
		tokens.On("Create", ctx, cliActor, mock.Anything).Return(nil, errors.New("boom"))

		var out bytes.Buffer
		require.Error(t, runCreateToken(ctx, tokens, &out, service.TokenCreateInput{}))
		assert.Empty(t, out.String())
	})
}

func TestRunListTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	tokens := &mockTokenAdmin{}
	tokens.On("List", ctx).Return([]domain.APIToken{
		{ID: "t-1", Name: "ci", OwnerID: "u-1", CanWrite: true, CanDelete: true, AllowedVendors: []int64{5, 7}, ThrottleClass: domain.ThrottleHighAvailability, ValidUntil: now.Add(time.Hour)},
		{ID: "t-2", Name: "old", OwnerID: "u-1", ThrottleClass: domain.ThrottleDefault, ValidUntil: now.Add(-time.Hour)},
	}, nil)

	var out bytes.Buffer
	require.NoError(t, runListTokens(ctx, tokens, &out, now))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[1]), "w-d")
	assert.Contains(t, string(lines[1]), "5,7")
	assert.Contains(t, string(lines[1]), "true")
	assert.Contains(t, string(lines[2]), "---")
	assert.Contains(t, string(lines[2]), "false")
}

func TestRunDeleteToken(t *testing.T) {
	ctx := context.Background()
	tokens := &mockTokenAdmin{}
	tokens.On("Delete", ctx, cliActor, "t-1").Return(nil)

	var out bytes.Buffer
	require.NoError(t, runDeleteToken(ctx, tokens, &out, "t-1"))
	assert.Equal(t, "revoked token t-1\n", out.String())
}

func TestParseVendors(t *testing.T) {
	ids, err := parseVendors(" 5, 7 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7}, ids)

	ids, err = parseVendors("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseVendors("5,x")
	assert.Error(t, err)
}

func TestParseValidUntil(t *testing.T) {
	got, err := parseValidUntil("2027-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseValidUntil("2027-01-31T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	got, err = parseValidUntil("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseValidUntil("next year")
	assert.Error(t, err)
}
