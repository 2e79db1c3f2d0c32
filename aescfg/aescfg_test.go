package aescfg_test

import (
	"os/user"
	"path/filepath"
	"testing"
	"time"

	"github.com/lightninglabs/aesctrl/aescfg"
	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/stretchr/testify/require"
)

// TestValidateCipher asserts that only S-boxes consistent with the masking
// option are accepted.
func TestValidateCipher(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *aescfg.Cipher
		valid bool
	}{
		{
			name:  "default",
			cfg:   aescfg.DefaultCipher(),
			valid: true,
		},
		{
			name: "masked dom",
			cfg: &aescfg.Cipher{
				Masking: true,
				SBox:    "dom",
			},
			valid: true,
		},
		{
			name: "masked sbox without masking",
			cfg: &aescfg.Cipher{
				SBox: "canright-masked",
			},
		},
		{
			name: "masking with unmasked sbox",
			cfg: &aescfg.Cipher{
				Masking: true,
				SBox:    "canright",
			},
		},
		{
			name: "unknown sbox",
			cfg: &aescfg.Cipher{
				SBox: "bitsliced",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := aescfg.Validate(test.cfg)
			if test.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

// TestValidateNamespace checks that failures of namespaced configurations
// name the namespace and the first failure wins.
func TestValidateNamespace(t *testing.T) {
	err := aescfg.Validate(
		aescfg.DefaultCipher(),
		&aescfg.Workload{Rate: -1},
		&aescfg.Cipher{SBox: "bitsliced"},
	)
	require.ErrorContains(t, err, "workload: ")

	err = aescfg.Validate(&aescfg.Cipher{SBox: "bitsliced"})
	require.ErrorContains(t, err, "cipher: ")

	require.NoError(t, aescfg.Validate(
		aescfg.DefaultCipher(), aescfg.DefaultPipeline(),
		aescfg.DefaultWorkload(),
	))
}

// TestCipherController checks the conversion into a controller
// configuration.
func TestCipherController(t *testing.T) {
	cfg, err := (&aescfg.Cipher{
		Masking: true,
		SBox:    "canright-masked-noreuse",
	}).Controller()
	require.NoError(t, err)
	require.Equal(t, cipherctrl.Config{
		Masking:  true,
		SBoxImpl: cipherctrl.SBoxCanrightMaskedNoReuse,
	}, cfg)

	_, err = (&aescfg.Cipher{SBox: "dom"}).Controller()
	require.ErrorIs(t, err, cipherctrl.ErrMaskingRequired)
}

// TestValidatePipeline asserts the latency bounds.
func TestValidatePipeline(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *aescfg.Pipeline
		valid bool
	}{
		{
			name:  "default",
			cfg:   aescfg.DefaultPipeline(),
			valid: true,
		},
		{
			name: "max valid",
			cfg: &aescfg.Pipeline{
				SubBytesLatency:  aescfg.MaxLatency,
				KeyExpandLatency: aescfg.MaxLatency,
				ReseedLatency:    aescfg.MaxLatency,
				Jitter:           aescfg.MaxLatency,
			},
			valid: true,
		},
		{
			name: "zero key expansion",
			cfg: &aescfg.Pipeline{
				ReseedLatency: 1,
			},
		},
		{
			name: "jitter too large",
			cfg: &aescfg.Pipeline{
				KeyExpandLatency: 1,
				Jitter:           aescfg.MaxLatency + 1,
			},
		},
		{
			name: "sub bytes too slow",
			cfg: &aescfg.Pipeline{
				SubBytesLatency:  aescfg.MaxLatency + 1,
				KeyExpandLatency: 1,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

// TestPipelineLatencyFuncs checks that the default S-box latency applies
// when none is configured and that jitter stays within bounds.
func TestPipelineLatencyFuncs(t *testing.T) {
	fixed := &aescfg.Pipeline{KeyExpandLatency: 2}
	sb, ke := fixed.LatencyFuncs(5)
	require.EqualValues(t, 5, sb())
	require.EqualValues(t, 2, ke())

	jittered := &aescfg.Pipeline{
		SubBytesLatency:  3,
		KeyExpandLatency: 1,
		Jitter:           4,
		Seed:             42,
	}
	sb, ke = jittered.LatencyFuncs(5)
	for i := 0; i < 100; i++ {
		require.GreaterOrEqual(t, sb(), uint32(3))
		require.LessOrEqual(t, sb(), uint32(7))
		require.GreaterOrEqual(t, ke(), uint32(1))
		require.LessOrEqual(t, ke(), uint32(5))
	}

	// The same seed yields the same timing.
	a, _ := jittered.LatencyFuncs(5)
	b, _ := jittered.LatencyFuncs(5)
	for i := 0; i < 10; i++ {
		require.Equal(t, a(), b())
	}
}

// TestValidateWorkload asserts the generator limits.
func TestValidateWorkload(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*aescfg.Workload)
		valid  bool
	}{
		{
			name:   "default",
			mutate: func(*aescfg.Workload) {},
			valid:  true,
		},
		{
			name: "disabled ignores rate",
			mutate: func(w *aescfg.Workload) {
				w.Disable = true
				w.Rate = 0
			},
			valid: true,
		},
		{
			name: "zero rate",
			mutate: func(w *aescfg.Workload) {
				w.Rate = 0
			},
		},
		{
			name: "no weights",
			mutate: func(w *aescfg.Workload) {
				w.Encrypt, w.Decrypt, w.Derive = 0, 0, 0
				w.Reseed, w.Clear = 0, 0
			},
		},
		{
			name: "drop window inverted",
			mutate: func(w *aescfg.Workload) {
				w.DropMin = w.DropMax + 1
			},
		},
		{
			name: "drop above capacity",
			mutate: func(w *aescfg.Workload) {
				w.DropMax = w.QueueSize + 1
			},
		},
		{
			name: "piggy-back above 100",
			mutate: func(w *aescfg.Workload) {
				w.PiggyReseed = 101
			},
		},
		{
			name: "no queue",
			mutate: func(w *aescfg.Workload) {
				w.QueueSize = 0
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := aescfg.DefaultWorkload()
			test.mutate(cfg)

			err := cfg.Validate()
			if test.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

// TestValidateHealthChecks asserts the minimums of enabled checks.
func TestValidateHealthChecks(t *testing.T) {
	require.NoError(t, aescfg.DefaultHealthChecks().Validate())

	cfg := aescfg.DefaultHealthChecks()
	cfg.Alert.Interval = time.Nanosecond
	require.Error(t, cfg.Validate())

	// Disabled checks are not validated.
	cfg.Alert.Attempts = 0
	require.NoError(t, cfg.Validate())
	require.False(t, cfg.Alert.Enabled())

	cfg.Progress.Attempts = -1
	require.Error(t, cfg.Validate())
}

// TestCleanAndExpandPath checks home and environment expansion.
func TestCleanAndExpandPath(t *testing.T) {
	require.Empty(t, aescfg.CleanAndExpandPath(""))

	t.Setenv("AESCFG_TEST_DIR", "/tmp/aes")
	require.Equal(t, "/tmp/aes/traces",
		aescfg.CleanAndExpandPath("$AESCFG_TEST_DIR/./traces/"))

	u, err := user.Current()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(u.HomeDir, "x"),
		aescfg.CleanAndExpandPath("~/x"))
}
