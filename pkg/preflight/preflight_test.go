package preflight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/osrelease"
)

func ubuntuFake() *executor.Fake {
	f := executor.NewFake()
	f.Files[osrelease.DefaultPath] = "ID=ubuntu\nID_LIKE=debian\nVERSION_CODENAME=noble\n"
	return f
}

func TestGuard_RejectsRoot(t *testing.T) {
	f := ubuntuFake()
	g := NewGuard(f)

	rel, err := g.Check(Identity{UID: 0, Username: "root", Home: "/root"})

	assert.ErrorIs(t, err, ErrRunningAsRoot)
	assert.Nil(t, rel)
	assert.Empty(t, f.Calls)
}

func TestGuard_AcceptsRegularUser(t *testing.T) {
	g := NewGuard(ubuntuFake())

	rel, err := g.Check(Identity{UID: 1000, Username: "dev", Home: "/home/dev"})

	require.NoError(t, err)
	assert.Equal(t, "noble", rel.AptCodename())
}

func TestGuard_RequiresApt(t *testing.T) {
	f := ubuntuFake()
	f.Missing["apt-get"] = true

	_, err := NewGuard(f).Check(Identity{UID: 1000})

	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestGuard_RejectsNonDebian(t *testing.T) {
	f := executor.NewFake()
	f.Files["/tmp/os-release"] = "ID=fedora\n"
	g := NewGuard(f)
	g.SetOSReleasePath("/tmp/os-release")

	_, err := g.Check(Identity{UID: 1000})

	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.Contains(t, err.Error(), "fedora")
}

func TestGuard_MissingOSRelease(t *testing.T) {
	_, err := NewGuard(executor.NewFake()).Check(Identity{UID: 1000})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "/etc/os-release")
}

func TestCurrentIdentity(t *testing.T) {
	id, err := CurrentIdentity()

	require.NoError(t, err)
	assert.NotEmpty(t, id.Home)
}
