package provision

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/preflight"
	"github.com/jaspreet-dot-casa/devstrap/pkg/report"
	"github.com/jaspreet-dot-casa/devstrap/pkg/runner"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
)

const ubuntu = `PRETTY_NAME="Ubuntu 24.04 LTS"
ID=ubuntu
ID_LIKE=debian
VERSION_ID="24.04"
VERSION_CODENAME=noble
UBUNTU_CODENAME=noble
`

func fixture(t *testing.T, f *executor.Fake) Options {
	t.Helper()
	dir := t.TempDir()
	osRelease := filepath.Join(dir, "os-release")
	f.Files[osRelease] = ubuntu
	return Options{
		Identity:      preflight.Identity{UID: 1000, Username: "dev", Home: "/home/dev"},
		Exec:          f,
		Plan:          steps.DefaultOptions(),
		ProfilePath:   filepath.Join(dir, ".bashrc"),
		OSReleasePath: osRelease,
		Reports:       report.NewStoreWithDir(filepath.Join(dir, "runs")),
	}
}

func stubbed() *executor.Fake {
	return executor.NewFake().
		On("dpkg --print-architecture", "amd64", nil).
		On("python3 --version", "Python 3.12.3", nil).
		On("poetry --version", "Poetry (version 1.8.3)", nil).
		On("uv --version", "uv 0.4.18", nil).
		On("node --version", "v20.11.1", nil).
		On("docker --version", "Docker version 27.3.1, build ce12230", nil).
		On("kubectl version --client", "Client Version: v1.29.9", nil).
		On("terraform version", "Terraform v1.9.5", nil).
		On("jq --version", "jq-1.7.1", nil)
}

func TestRun_RootIsRejectedWithoutSideEffects(t *testing.T) {
	f := stubbed()
	opts := fixture(t, f)
	opts.Identity = preflight.Identity{UID: 0, Username: "root", Home: "/root"}

	out, err := New(opts).Run(context.Background(), nil)

	require.ErrorIs(t, err, preflight.ErrRunningAsRoot)
	assert.Equal(t, 1, executor.ExitCode(err))
	assert.Empty(t, f.Calls)
	assert.Nil(t, out.Result)
	files, listErr := opts.Reports.List()
	require.NoError(t, listErr)
	assert.Empty(t, files)
	assert.NotContains(t, f.Files, opts.ProfilePath)
}

func TestRun_Success(t *testing.T) {
	f := stubbed()
	opts := fixture(t, f)
	tracker := runner.NewTracker()

	out, err := New(opts).Run(context.Background(), tracker.Callback())

	require.NoError(t, err)
	assert.Equal(t, "ubuntu", out.Release.ID)
	assert.Equal(t, 10, out.Result.Count(runner.StatusOK))

	var installers []string
	for _, e := range tracker.ByStage(runner.StageStep) {
		installers = append(installers, e.StepID)
	}
	assert.Equal(t, steps.IDs(steps.Installers(steps.DefaultOptions())), installers[1:])

	require.NotNil(t, out.Summary)
	assert.False(t, out.Summary.HasWarnings())
	for _, v := range out.Summary.Versions {
		switch v.Label {
		case "Python":
			assert.Equal(t, "Python 3.12.3", v.Output)
		case "Docker":
			assert.Equal(t, "Docker version 27.3.1, build ce12230", v.Output)
		case "jq":
			assert.Equal(t, "jq-1.7.1", v.Output)
		}
	}

	require.NotEmpty(t, out.ReportPath)
	saved, err := opts.Reports.Load(out.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, report.StatusOK, saved.Status)
	assert.Equal(t, "Ubuntu 24.04 LTS", saved.Host.OS)
	assert.Len(t, saved.Steps, 10)
}

func TestRun_FailFastPropagatesExitCode(t *testing.T) {
	f := stubbed().On("apt-get install -y docker-ce", "", executor.Fail(100))
	opts := fixture(t, f)

	out, err := New(opts).Run(context.Background(), nil)

	require.Error(t, err)
	var stepErr *runner.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, steps.IDDocker, stepErr.StepID)
	assert.Equal(t, 100, executor.ExitCode(err))
	assert.Nil(t, out.Summary)
	assert.Zero(t, f.Count("kubernetes"))
	assert.Zero(t, f.Count("terraform"))

	saved, loadErr := opts.Reports.Load(out.ReportPath)
	require.NoError(t, loadErr)
	assert.Equal(t, report.StatusFailed, saved.Status)
	assert.Equal(t, 100, saved.ExitCode)
}

func TestRun_BestEffortWarningReachesSummary(t *testing.T) {
	f := stubbed().On("apt-get remove", "", executor.Fail(100))
	opts := fixture(t, f)

	out, err := New(opts).Run(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, out.Summary.Warnings, 1)
	assert.Contains(t, out.Summary.Warnings[0], "Docker")
}

func TestRun_TwiceDuplicatesAppends(t *testing.T) {
	f := stubbed()
	opts := fixture(t, f)

	for i := 0; i < 2; i++ {
		_, err := New(opts).Run(context.Background(), nil)
		require.NoError(t, err)
	}

	data := f.Files[opts.ProfilePath]
	assert.Equal(t, 2, strings.Count(data, `export PATH="$HOME/.local/bin:$PATH"`))
	assert.Equal(t, 2, strings.Count(data, `export PATH="$HOME/.cargo/bin:$PATH"`))
	assert.Equal(t, 2, f.Count("tee -a /etc/apt/sources.list.d/docker.list"))

	files, err := opts.Reports.List()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRun_UnsupportedPlatform(t *testing.T) {
	f := stubbed()
	opts := fixture(t, f)
	f.Files[opts.OSReleasePath] = "ID=fedora\nVERSION_ID=40\n"

	_, err := New(opts).Run(context.Background(), nil)

	require.ErrorIs(t, err, preflight.ErrUnsupportedPlatform)
	assert.Empty(t, f.Calls)
}

func TestRun_DryRunLeavesProfileUntouched(t *testing.T) {
	f := stubbed()
	opts := fixture(t, f)
	var buf bytes.Buffer
	dry := executor.NewDryRun(&buf)
	dry.Reads = f
	opts.Exec = dry
	opts.DryRun = true

	out, err := New(opts).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.True(t, out.Report.DryRun)
	assert.NoFileExists(t, opts.ProfilePath)
	assert.NotContains(t, f.Files, opts.ProfilePath)
	assert.Empty(t, f.Calls)
	assert.Contains(t, buf.String(), "+ append to "+opts.ProfilePath)
	assert.Contains(t, buf.String(), "+ sudo apt-get update")
}

// cancelling cancels the run when a matching command starts, the way an
// interrupt kills the running child.
type cancelling struct {
	*executor.Fake
	match  string
	cancel context.CancelFunc
}

func (c *cancelling) Run(ctx context.Context, cmd executor.Command) error {
	if strings.Contains(executor.Line(cmd), c.match) {
		c.cancel()
		return errors.New("signal: killed")
	}
	return c.Fake.Run(ctx, cmd)
}

func TestRun_InterruptDuringCommandIsRecorded(t *testing.T) {
	f := stubbed()
	opts := fixture(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	opts.Exec = &cancelling{Fake: f, match: "python3-pip", cancel: cancel}

	out, err := New(opts).Run(ctx, nil)

	require.Error(t, err)
	var stepErr *runner.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, steps.IDPython, stepErr.StepID)
	assert.Zero(t, f.Count("poetry"))

	saved, loadErr := opts.Reports.Load(out.ReportPath)
	require.NoError(t, loadErr)
	assert.Equal(t, report.StatusInterrupted, saved.Status)
}
