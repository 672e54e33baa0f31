package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
)

// KeyringDir holds the signing keys of registered package sources.
const KeyringDir = "/etc/apt/keyrings"

func runCommand(cmd executor.Command) func(context.Context, *Env) error {
	return func(ctx context.Context, env *Env) error {
		return env.Exec.Run(ctx, cmd)
	}
}

// AptUpdate refreshes the package index.
func AptUpdate() Action {
	return Action{
		Description: "Refresh package index",
		Run:         runCommand(executor.Sudo("apt-get", "update")),
	}
}

// AptUpgrade upgrades every installed package.
func AptUpgrade() Action {
	return Action{
		Description: "Upgrade installed packages",
		Run:         runCommand(executor.Sudo("apt-get", "upgrade", "-y")),
	}
}

// AptInstall installs packages.
func AptInstall(pkgs ...string) Action {
	args := append([]string{"install", "-y"}, pkgs...)
	return Action{
		Description: "Install " + strings.Join(pkgs, " "),
		Run:         runCommand(executor.Sudo("apt-get", args...)),
	}
}

// AptRemove removes conflicting packages. Failure is ignored.
func AptRemove(pkgs ...string) Action {
	args := append([]string{"remove", "-y"}, pkgs...)
	return Action{
		Description: "Remove conflicting packages " + strings.Join(pkgs, " "),
		BestEffort:  true,
		Run:         runCommand(executor.Sudo("apt-get", args...)),
	}
}

// AptHold exempts packages from future upgrades.
func AptHold(pkgs ...string) Action {
	args := append([]string{"hold"}, pkgs...)
	return Action{
		Description: "Hold " + strings.Join(pkgs, " "),
		Run:         runCommand(executor.Sudo("apt-mark", args...)),
	}
}

// Source is a third-party apt repository.
//
// KeyURL and Line may contain the placeholders {arch}, {distro}, {codename}
// and {keyring}, resolved on the host at run time.
type Source struct {
	Name    string
	KeyURL  string
	Keyring string // Absolute path of the dearmored key
	List    string // Absolute path of the .list file
	Line    string
}

// Resolve returns the key URL and repository line with placeholders filled in.
func (s Source) Resolve(ctx context.Context, env *Env) (keyURL, line string, err error) {
	replacements := []string{"{keyring}", s.Keyring}
	both := s.KeyURL + " " + s.Line

	if strings.Contains(both, "{arch}") {
		arch, err := env.Exec.Output(ctx, executor.Plain("dpkg", "--print-architecture"))
		if err != nil {
			return "", "", fmt.Errorf("failed to detect architecture: %w", err)
		}
		replacements = append(replacements, "{arch}", strings.TrimSpace(arch))
	}
	if strings.Contains(both, "{distro}") || strings.Contains(both, "{codename}") {
		if env.Release == nil {
			return "", "", errors.New("distribution release is unknown")
		}
		replacements = append(replacements,
			"{distro}", env.Release.AptDistro(),
			"{codename}", env.Release.AptCodename())
	}

	r := strings.NewReplacer(replacements...)
	return r.Replace(s.KeyURL), r.Replace(s.Line), nil
}

// AddAptSource registers a signed repository: fetch the key, dearmor it into
// KeyringDir and append the repository line to the list file.
//
// The line is appended with `tee -a`, so re-running adds it again unless
// Env.Dedupe is set.
func AddAptSource(src Source) Action {
	return Action{
		Description: "Register " + src.Name + " package source",
		Run: func(ctx context.Context, env *Env) error {
			keyURL, line, err := src.Resolve(ctx, env)
			if err != nil {
				return err
			}

			if err := env.Exec.Run(ctx, executor.Sudo("install", "-m", "0755", "-d", KeyringDir)); err != nil {
				return err
			}

			fetch := fmt.Sprintf("curl -fsSL %s | sudo gpg --dearmor --yes -o %s", keyURL, src.Keyring)
			if err := env.Exec.Run(ctx, executor.Shell(fetch)); err != nil {
				return fmt.Errorf("failed to fetch %s signing key: %w", src.Name, err)
			}
			if err := env.Exec.Run(ctx, executor.Sudo("chmod", "a+r", src.Keyring)); err != nil {
				return err
			}

			if env.Dedupe {
				if existing, err := env.Exec.ReadFile(src.List); err == nil && hasLine(string(existing), line) {
					env.Logger.Info().Str("list", src.List).Msg("Repository line already present, skipping")
					return nil
				}
			}

			return env.Exec.Run(ctx, executor.Command{
				Name:  "tee",
				Args:  []string{"-a", src.List},
				Sudo:  true,
				Stdin: line + "\n",
				Quiet: true,
			})
		},
	}
}

func hasLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}

// PipeInstaller downloads a vendor install script over HTTPS and pipes it
// into a shell as the invoking user.
func PipeInstaller(description, script string) Action {
	return Action{
		Description: description,
		Run:         runCommand(executor.Shell(script)),
	}
}

// ExportPath makes dir (which may start with $HOME) visible to later steps
// and appends an export line to the shell profile.
func ExportPath(dir string) Action {
	return Action{
		Description: "Add " + dir + " to PATH",
		Run: func(_ context.Context, env *Env) error {
			expanded := dir
			if env.Home != "" {
				expanded = strings.Replace(dir, "$HOME", env.Home, 1)
			}
			env.Exec.PrependPath(expanded)

			if env.Profile == nil {
				return nil
			}
			modified, err := env.Profile.AppendPathExport(env.Exec, dir)
			if err != nil {
				return err
			}
			if modified {
				env.Logger.Info().Str("profile", env.Profile.Path).Str("dir", dir).Msg("Appended PATH export")
			}
			return nil
		},
	}
}

// SymlinkIfMissing links target to link unless command already resolves.
func SymlinkIfMissing(command, target, link string) Action {
	return Action{
		Description: fmt.Sprintf("Link %s to %s", link, target),
		Skip: func(_ context.Context, env *Env) (bool, string) {
			if path, err := env.Exec.LookPath(command); err == nil {
				return true, command + " already resolves to " + path
			}
			return false, ""
		},
		Run: runCommand(executor.Sudo("ln", "-s", target, link)),
	}
}

// AddUserToGroup adds the invoking user to group. Membership applies from
// the next login.
func AddUserToGroup(group string) Action {
	return Action{
		Description: "Add user to the " + group + " group",
		Run: func(ctx context.Context, env *Env) error {
			if env.User == "" {
				return errors.New("invoking user is unknown")
			}
			return env.Exec.Run(ctx, executor.Sudo("usermod", "-aG", group, env.User))
		},
	}
}
