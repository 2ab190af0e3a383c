package server

import (
	"strconv"
	"testing"

	"github.com/isk-daniar/bulletin-board/model"
	"github.com/stretchr/testify/require"
)

func TestCryptoCodeProviderBounds(t *testing.T) {
	provider := CryptoCodeProvider{}
	for i := 0; i < 1000; i++ {
		code, err := provider.Code()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}

func TestRegisterAndActivate(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "424242"})

	user, err := h.server.RegisterUser(RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cretpw",
	})
	require.NoError(t, err)
	require.False(t, user.Active)

	// Exactly one key bound to the new user.
	var keys []model.EmailActivationKey
	require.NoError(t, h.db.Where("user_id = ?", user.Id).Find(&keys).Error)
	require.Len(t, keys, 1)
	require.Equal(t, "424242", keys[0].Key)

	// One email to the user's address carrying the code.
	sent := h.waitForEmails(t, 1)
	require.Equal(t, []string{"alice@example.com"}, sent[0].Recipients)
	require.Contains(t, sent[0].Body, "424242")

	// Wrong code: failure, still inactive.
	_, err = h.server.SubmitCode("alice", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)

	var stored model.User
	require.NoError(t, h.db.First(&stored, "id = ?", user.Id).Error)
	require.False(t, stored.Active)

	// Wrong username with the right code must fail too.
	_, err = h.server.SubmitCode("alise", "424242")
	require.ErrorIs(t, err, ErrInvalidCode)

	// Right pair: active, keys dropped.
	activated, err := h.server.SubmitCode("alice", "424242")
	require.NoError(t, err)
	require.True(t, activated.Active)

	require.NoError(t, h.db.First(&stored, "id = ?", user.Id).Error)
	require.True(t, stored.Active)

	var remaining int64
	require.NoError(t, h.db.Model(&model.EmailActivationKey{}).Where("user_id = ?", user.Id).Count(&remaining).Error)
	require.Equal(t, int64(0), remaining)
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "111111"})

	_, err := h.server.RegisterUser(RegisterInput{Username: "bob", Email: "bob@example.com", Password: "s3cretpw"})
	require.NoError(t, err)

	_, err = h.server.RegisterUser(RegisterInput{Username: "bob", Email: "other@example.com", Password: "s3cretpw"})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestResendKeepsEarlierCodesValid(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "111111"})

	user, err := h.server.RegisterUser(RegisterInput{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "s3cretpw",
	})
	require.NoError(t, err)

	// Resend with a different code; both keys now coexist.
	h.server.Codes = fixedCodeProvider{code: "222222"}
	require.NoError(t, h.server.IssueActivationKey(user))

	var count int64
	require.NoError(t, h.db.Model(&model.EmailActivationKey{}).Where("user_id = ?", user.Id).Count(&count).Error)
	require.Equal(t, int64(2), count)

	// The earlier code still activates.
	activated, err := h.server.SubmitCode("carol", "111111")
	require.NoError(t, err)
	require.True(t, activated.Active)
}

func TestStoreFailuresAreNotMaskedAsLookupMisses(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "424242"})

	// Kill the connection so every lookup fails with a store error.
	sqlDB, err := h.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = h.server.RegisterUser(RegisterInput{Username: "dana", Email: "dana@example.com", Password: "s3cretpw"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUsernameTaken)

	_, err = h.server.SubmitCode("dana", "424242")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCode)

	_, err = h.server.AuthenticateUser("dana", "s3cretpw")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrBadCredentials)
}

func TestAuthenticateUser(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "333333"})

	_, err := h.server.RegisterUser(RegisterInput{
		Username: "dave",
		Email:    "dave@example.com",
		Password: "s3cretpw",
	})
	require.NoError(t, err)

	// Not activated yet.
	_, err = h.server.AuthenticateUser("dave", "s3cretpw")
	require.ErrorIs(t, err, ErrInactiveUser)

	_, err = h.server.SubmitCode("dave", "333333")
	require.NoError(t, err)

	_, err = h.server.AuthenticateUser("dave", "wrong-password")
	require.ErrorIs(t, err, ErrBadCredentials)

	user, err := h.server.AuthenticateUser("dave", "s3cretpw")
	require.NoError(t, err)
	require.Equal(t, "dave", user.Username)
}
