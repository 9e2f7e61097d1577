package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/setupvault/internal/config"
	"github.com/blackwell-systems/setupvault/internal/vault"
)

// isolate points HOME and the config directory at a temp dir so commands
// never see the developer's real vault, defaults or ledger.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv(vault.PathEnv, "")
	t.Setenv(config.LogLevelEnv, "")
	return home
}

// resetFlags restores every flag to its default. Cobra keeps flag values
// and their Changed state between Execute calls in the same process.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("failed to reset --%s: %v", f.Name, err)
		}
		f.Changed = false
	}
	cmds := append([]*cobra.Command{RootCmd}, RootCmd.Commands()...)
	for _, cmd := range cmds {
		cmd.Flags().VisitAll(reset)
		cmd.PersistentFlags().VisitAll(reset)
	}
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(t)

	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	err = RootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}
