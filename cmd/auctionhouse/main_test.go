package main

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Usage(t *testing.T) {
	assert.NoError(t, run(nil))
	assert.NoError(t, run([]string{"help"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run([]string{"list"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRun_SellWithoutKeypair(t *testing.T) {
	t.Setenv("AUCTION_HOUSE_KEYPAIR", "")
	err := run([]string{"sell", "--log_file=", "--rpc_url=http://127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keypair is required")
}

func TestCommandsRegisterFlags(t *testing.T) {
	for name, cmd := range commands {
		t.Run(name, func(t *testing.T) {
			fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
			assert.NotPanics(t, func() { cmd.flags(fs) })
			assert.NotEmpty(t, cmd.summary)
		})
	}
}

func TestPubkeyFlags(t *testing.T) {
	key := solana.NewWallet().PublicKey()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("mint", "", "")
	fs.String("owner", "", "")
	fs.String("bad", "", "")
	require.NoError(t, fs.Parse([]string{"--mint=" + key.String(), "--bad=xyz0"}))

	got, err := requiredPubkey(fs, "mint")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = optionalPubkey(fs, "owner")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = requiredPubkey(fs, "owner")
	assert.ErrorContains(t, err, "--owner is required")

	_, err = optionalPubkey(fs, "bad")
	assert.Error(t, err)
}

func TestParseRecipients(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()

	got, err := parseRecipients([]string{a.String(), b.String(), a.String(), " " + b.String()})
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{a, b}, got)

	_, err = parseRecipients(nil)
	assert.ErrorContains(t, err, "--to is required")

	_, err = parseRecipients([]string{"not-a-key"})
	assert.Error(t, err)
}
