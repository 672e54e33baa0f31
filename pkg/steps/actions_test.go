package steps

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/osrelease"
	"github.com/jaspreet-dot-casa/devstrap/pkg/profile"
)

func testEnv(t *testing.T, f *executor.Fake) *Env {
	t.Helper()
	rel, err := osrelease.FromBytes([]byte("ID=ubuntu\nVERSION_CODENAME=noble\n"))
	require.NoError(t, err)
	return &Env{
		Exec:    f,
		Profile: profile.New(filepath.Join(t.TempDir(), ".bashrc"), false),
		Release: rel,
		User:    "dev",
		Home:    "/home/dev",
	}
}

func TestAptActions(t *testing.T) {
	f := executor.NewFake()
	env := testEnv(t, f)
	ctx := context.Background()

	require.NoError(t, AptUpdate().Run(ctx, env))
	require.NoError(t, AptInstall("jq", "tree").Run(ctx, env))
	require.NoError(t, AptHold("kubectl").Run(ctx, env))

	assert.Equal(t, []string{
		"sudo apt-get update",
		"sudo apt-get install -y jq tree",
		"sudo apt-mark hold kubectl",
	}, f.Lines())
	assert.True(t, AptRemove("runc").BestEffort)
}

func TestSource_Resolve(t *testing.T) {
	f := executor.NewFake().On("dpkg --print-architecture", "amd64\n", nil)
	env := testEnv(t, f)

	keyURL, line, err := DockerSource.Resolve(context.Background(), env)

	require.NoError(t, err)
	assert.Equal(t, "https://download.docker.com/linux/ubuntu/gpg", keyURL)
	assert.Equal(t, "deb [arch=amd64 signed-by=/etc/apt/keyrings/docker.gpg] https://download.docker.com/linux/ubuntu noble stable", line)
}

func TestSource_ResolveWithoutRelease(t *testing.T) {
	env := testEnv(t, executor.NewFake())
	env.Release = nil

	_, _, err := HashiCorpSource.Resolve(context.Background(), env)

	assert.Error(t, err)
}

func TestAddAptSource_AppendsEveryRun(t *testing.T) {
	f := executor.NewFake().On("dpkg --print-architecture", "amd64", nil)
	env := testEnv(t, f)
	action := AddAptSource(HashiCorpSource)

	require.NoError(t, action.Run(context.Background(), env))
	require.NoError(t, action.Run(context.Background(), env))

	assert.Equal(t, 2, f.Count("tee -a /etc/apt/sources.list.d/hashicorp.list"))
	assert.Equal(t, 2, f.Count("gpg --dearmor"))
	content := f.Files["/etc/apt/sources.list.d/hashicorp.list"]
	assert.Equal(t, 2, strings.Count(content, "https://apt.releases.hashicorp.com noble main"))
}

func TestAddAptSource_Dedupe(t *testing.T) {
	f := executor.NewFake()
	env := testEnv(t, f)
	env.Dedupe = true
	action := AddAptSource(KubernetesSource("v1.29"))

	require.NoError(t, action.Run(context.Background(), env))
	require.NoError(t, action.Run(context.Background(), env))

	assert.Equal(t, 1, f.Count("tee -a /etc/apt/sources.list.d/kubernetes.list"))
	assert.Equal(t, 0, f.Count("dpkg"))
}

func TestAddAptSource_KeyFetchFailure(t *testing.T) {
	f := executor.NewFake().
		On("dpkg", "amd64", nil).
		On("gpg --dearmor", "", executor.Fail(22))
	env := testEnv(t, f)

	err := AddAptSource(HashiCorpSource).Run(context.Background(), env)

	require.Error(t, err)
	assert.Equal(t, 22, executor.ExitCode(err))
	assert.Contains(t, err.Error(), "HashiCorp signing key")
	assert.Equal(t, 0, f.Count("tee"))
}

func TestExportPath(t *testing.T) {
	f := executor.NewFake()
	env := testEnv(t, f)

	require.NoError(t, ExportPath("$HOME/.local/bin").Run(context.Background(), env))

	assert.Equal(t, []string{"/home/dev/.local/bin"}, f.Path)
	assert.Equal(t, "export PATH=\"$HOME/.local/bin:$PATH\"\n", f.Files[env.Profile.Path])
}

func TestSymlinkIfMissing(t *testing.T) {
	action := SymlinkIfMissing("python", "/usr/bin/python3", "/usr/bin/python")

	t.Run("present", func(t *testing.T) {
		env := testEnv(t, executor.NewFake())
		skip, reason := action.Skip(context.Background(), env)
		assert.True(t, skip)
		assert.Contains(t, reason, "/usr/bin/python")
	})

	t.Run("absent", func(t *testing.T) {
		f := executor.NewFake()
		f.Missing["python"] = true
		env := testEnv(t, f)

		skip, _ := action.Skip(context.Background(), env)
		require.False(t, skip)
		require.NoError(t, action.Run(context.Background(), env))
		assert.Equal(t, []string{"sudo ln -s /usr/bin/python3 /usr/bin/python"}, f.Lines())
	})
}

func TestAddUserToGroup(t *testing.T) {
	f := executor.NewFake()
	env := testEnv(t, f)

	require.NoError(t, AddUserToGroup("docker").Run(context.Background(), env))
	assert.Equal(t, []string{"sudo usermod -aG docker dev"}, f.Lines())

	env.User = ""
	assert.Error(t, AddUserToGroup("docker").Run(context.Background(), env))
}
