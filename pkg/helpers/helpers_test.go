package helpers

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-wallet-accounts/pkg/mailer"
	mailtpl "github.com/oksasatya/go-wallet-accounts/pkg/mailer/templates"
)

func TestGenerateHex(t *testing.T) {
	s, err := GenerateHex(WalletKeyBytes)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(s, "0x"))
	assert.Len(t, s, 66)
	b, err := hex.DecodeString(s[2:])
	require.NoError(t, err)
	assert.Len(t, b, 32)
	assert.Equal(t, strings.ToLower(s), s)

	_, err = GenerateHex(0)
	assert.Error(t, err)
}

func TestNewWalletKeys_Independent(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		k, err := NewWalletKeys()
		require.NoError(t, err)
		for _, v := range []string{k.Address, k.PrivateKey, k.PublicKey} {
			assert.Len(t, v, 66)
			assert.False(t, seen[v], "repeated key material")
			seen[v] = true
		}
	}
}

func TestVerifyPassword(t *testing.T) {
	h, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, IsBcryptHash(h))
	assert.True(t, VerifyPassword(h, "s3cret"))
	assert.False(t, VerifyPassword(h, "other"))

	assert.False(t, IsBcryptHash("s3cret"))
	assert.True(t, VerifyPassword("s3cret", "s3cret"))
	assert.False(t, VerifyPassword("s3cret", "s3cre"))
	assert.False(t, VerifyPassword("", "x"))
}

func TestNormalizeTemplate(t *testing.T) {
	job := mailer.EmailJob{Template: "  Account_Created "}
	assert.True(t, NormalizeTemplate(&job))
	assert.Equal(t, mailtpl.AccountCreated, job.Template)

	assert.False(t, NormalizeTemplate(&mailer.EmailJob{Template: "universal"}))
	assert.False(t, NormalizeTemplate(&mailer.EmailJob{Subject: "only subject"}))
	assert.True(t, NormalizeTemplate(&mailer.EmailJob{Subject: "s", HTML: "<p>x</p>"}))
}

func TestEnsureRecipientAndEmail(t *testing.T) {
	job := mailer.EmailJob{To: "a@x.com", Data: map[string]any{"Email": "", "RecipientEmail": "keep@x.com"}}
	EnsureRecipientAndEmail(&job)
	assert.Equal(t, "a@x.com", job.Data["Email"])
	assert.Equal(t, "keep@x.com", job.Data["RecipientEmail"])

	empty := mailer.EmailJob{To: "b@x.com"}
	EnsureRecipientAndEmail(&empty)
	assert.Equal(t, "b@x.com", empty.Data["RecipientEmail"])
}

type stubGeo struct {
	g   mailtpl.Geo
	err error
}

func (s stubGeo) Lookup(context.Context, string) (mailtpl.Geo, error) { return s.g, s.err }

func TestLocalizeTimesIfPossible(t *testing.T) {
	data := map[string]any{
		"IP":     "203.0.113.9",
		"Time":   "15 October 2026, 09:30",
		"TimeAt": "2026-10-15T09:30:00Z",
	}
	LocalizeTimesIfPossible(context.Background(), stubGeo{g: mailtpl.Geo{City: "Tokyo", Country: "Japan", Timezone: "Asia/Tokyo"}}, data)
	assert.Equal(t, "Tokyo, Japan", data["Location"])
	assert.Equal(t, "15 October 2026, 18:30 JST", data["Time"])

	untouched := map[string]any{"IP": "203.0.113.9", "Time": "x"}
	LocalizeTimesIfPossible(context.Background(), stubGeo{err: errors.New("offline")}, untouched)
	assert.Equal(t, "x", untouched["Time"])
	assert.NotContains(t, untouched, "Location")

	noIP := map[string]any{"Time": "x"}
	LocalizeTimesIfPossible(context.Background(), stubGeo{}, noIP)
	assert.Equal(t, map[string]any{"Time": "x"}, noIP)
}

func TestSnapshotObjectPath(t *testing.T) {
	at := time.Date(2026, 10, 15, 10, 11, 12, 123456789, time.UTC)
	assert.Equal(t, "backups/Accounts.json/20261015T101112.123456789Z.json", SnapshotObjectPath("backups", "Accounts.json", at))

	later := SnapshotObjectPath("backups", "Accounts.json", at.Add(time.Millisecond))
	assert.Less(t, SnapshotObjectPath("backups", "Accounts.json", at), later)
}

func TestOptionalClientsDisabledWithoutAddress(t *testing.T) {
	assert.Nil(t, NewRedisClient("", "", 0))

	es, err := NewESClient(nil, "", "")
	require.NoError(t, err)
	assert.Nil(t, es)

	var pub *RabbitPublisher
	assert.Error(t, pub.PublishJSON(context.Background(), "x", map[string]string{}))
	pub.Close()
}
