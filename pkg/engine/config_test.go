package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfigOverridesOnlyGivenFields(t *testing.T) {
	path := writeConfig(t, `
pool:
  lp_fee_bps: 50
lending:
  default_borrow_apr_bps: 750
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.EqualValues(t, 50, cfg.Pool.LPFeeBps)
	// Fields the file didn't mention keep DefaultConfig's values.
	require.EqualValues(t, 0, cfg.Pool.ProtocolFeeBps)
	require.EqualValues(t, 750, cfg.Lending.DefaultBorrowAPRBps)
	require.EqualValues(t, 500, cfg.Lending.DefaultDepositAPRBps)
}

func TestLoadConfigRejectsFeesAtOrAboveOneHundredPercent(t *testing.T) {
	path := writeConfig(t, `
pool:
  lp_fee_bps: 9000
  protocol_fee_bps: 1000
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigRequiresPath(t *testing.T) {
	_, err := LoadConfig("")
	require.Error(t, err)
}
