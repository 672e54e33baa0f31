package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Argv(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []string
	}{
		{"plain", Plain("python3", "--version"), []string{"python3", "--version"}},
		{"sudo", Sudo("apt-get", "update"), []string{"sudo", "apt-get", "update"}},
		{"shell", Shell("curl x | sh"), []string{"bash", "-o", "pipefail", "-c", "curl x | sh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Argv())
		})
	}
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "sudo apt-get install -y jq", Sudo("apt-get", "install", "-y", "jq").String())
	assert.Equal(t, "bash -o pipefail -c 'curl -LsSf https://astral.sh/uv/install.sh | sh'",
		Shell("curl -LsSf https://astral.sh/uv/install.sh | sh").String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 100, ExitCode(Fail(100)))
	assert.Equal(t, 7, ExitCode(fmt.Errorf("wrapped: %w", Fail(7))))
}

func TestRealExecutor_ExitCodePropagates(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	e := NewReal(&bytes.Buffer{}, &bytes.Buffer{})

	err := e.Run(context.Background(), Plain("sh", "-c", "exit 42"))

	require.Error(t, err)
	assert.Equal(t, 42, ExitCode(err))
}

func TestRealExecutor_OutputFallsBackToStderr(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	e := NewReal(&bytes.Buffer{}, &bytes.Buffer{})

	out, err := e.Output(context.Background(), Plain("sh", "-c", "echo 'Python 3.12.3' >&2"))

	require.NoError(t, err)
	assert.Equal(t, "Python 3.12.3", out)
}

func TestRealExecutor_Stdin(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	e := NewReal(&bytes.Buffer{}, &bytes.Buffer{})

	out, err := e.Output(context.Background(), Command{Name: "cat", Stdin: "deb line\n"})

	require.NoError(t, err)
	assert.Equal(t, "deb line", out)
}

func TestRealExecutor_PrependPath(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	e := NewReal(&bytes.Buffer{}, &bytes.Buffer{})

	e.PrependPath("/home/dev/.local/bin")
	e.PrependPath("/home/dev/.local/bin")

	assert.Equal(t, "/home/dev/.local/bin"+string(os.PathListSeparator)+"/usr/bin", os.Getenv("PATH"))
}

func TestRealExecutor_Files(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "os-release")
	require.NoError(t, os.WriteFile(path, []byte("ID=ubuntu\n"), 0644))
	e := NewReal(&bytes.Buffer{}, &bytes.Buffer{})

	assert.True(t, e.FileExists(path))
	assert.False(t, e.FileExists(filepath.Join(dir, "missing")))
	data, err := e.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID=ubuntu\n", string(data))
}

func TestRealExecutor_AppendFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".bashrc")
	e := NewReal(&bytes.Buffer{}, &bytes.Buffer{})

	require.NoError(t, e.AppendFile(path, "a\n"))
	require.NoError(t, e.AppendFile(path, "a\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\na\n", string(data))
}

func TestDryRun_AppendFileOnlyPrints(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".bashrc")
	var buf bytes.Buffer
	d := NewDryRun(&buf)

	require.NoError(t, d.AppendFile(path, "export PATH=\"$HOME/.local/bin:$PATH\"\n"))

	assert.NoFileExists(t, path)
	assert.Contains(t, buf.String(), "+ append to "+path)
}

func TestDryRun_ReadsFromConfiguredExecutor(t *testing.T) {
	f := NewFake()
	f.Files["/etc/os-release"] = "ID=debian\n"
	f.Missing["python"] = true
	d := NewDryRun(&bytes.Buffer{})
	d.Reads = f

	data, err := d.ReadFile("/etc/os-release")
	require.NoError(t, err)
	assert.Equal(t, "ID=debian\n", string(data))
	assert.True(t, d.FileExists("/etc/os-release"))
	_, err = d.LookPath("python")
	assert.Error(t, err)
}

func TestDryRun_PrintsInsteadOfRunning(t *testing.T) {
	var buf bytes.Buffer
	d := NewDryRun(&buf)

	require.NoError(t, d.Run(context.Background(), Sudo("apt-get", "update")))
	out, err := d.Output(context.Background(), Plain("node", "--version"))
	require.NoError(t, err)
	d.PrependPath("$HOME/.local/bin")

	assert.Equal(t, "(dry-run)", out)
	assert.Contains(t, buf.String(), "+ sudo apt-get update")
	assert.Contains(t, buf.String(), "+ node --version")
	assert.Contains(t, buf.String(), "export PATH=")
}

func TestFake_RulesAndRecording(t *testing.T) {
	f := NewFake().
		On("python3 --version", "Python 3.12.3", nil).
		On("apt-get remove", "", Fail(100))
	ctx := context.Background()

	out, err := f.Output(ctx, Plain("python3", "--version"))
	require.NoError(t, err)
	assert.Equal(t, "Python 3.12.3", out)

	err = f.Run(ctx, Sudo("apt-get", "remove", "-y", "docker.io"))
	assert.Equal(t, 100, ExitCode(err))

	assert.Equal(t, []string{"python3 --version", "sudo apt-get remove -y docker.io"}, f.Lines())
	assert.Equal(t, 1, f.Count("apt-get"))
}

func TestFake_SimulatesTeeAppend(t *testing.T) {
	f := NewFake()
	ctx := context.Background()
	cmd := Command{Name: "tee", Args: []string{"-a", "/etc/apt/sources.list.d/docker.list"}, Sudo: true, Stdin: "deb x\n"}

	require.NoError(t, f.Run(ctx, cmd))
	require.NoError(t, f.Run(ctx, cmd))

	data, err := f.ReadFile("/etc/apt/sources.list.d/docker.list")
	require.NoError(t, err)
	assert.Equal(t, "deb x\ndeb x\n", string(data))
}

func TestFake_LookPath(t *testing.T) {
	f := NewFake()
	f.Missing["python"] = true

	path, err := f.LookPath("python3")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/python3", path)

	_, err = f.LookPath("python")
	assert.Error(t, err)
}
