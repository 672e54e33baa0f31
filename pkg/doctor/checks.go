package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/osrelease"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
)

// stepFix returns the manual install command for a step.
func stepFix(s *steps.Step) *FixCommand {
	if s == nil || s.Hint == "" {
		return nil
	}
	return &FixCommand{
		Description: "Install " + s.Name,
		Command:     s.Hint,
		Sudo:        strings.Contains(s.Hint, "sudo"),
		StepID:      s.ID,
	}
}

// checkProbe checks that a probe's binary exists and reports its version.
func checkProbe(ctx context.Context, exec executor.Executor, step *steps.Step, p steps.Probe) Check {
	check := Check{
		ID:          p.Binary(),
		Name:        p.Label,
		Description: step.Description,
		FixCommand:  stepFix(step),
	}

	if _, err := exec.LookPath(p.Binary()); err != nil {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}

	output, err := exec.Output(ctx, p.Command)
	if err != nil {
		// Tool exists but version check failed - still consider it OK
		check.Status = StatusOK
		check.Message = "installed (version unknown)"
		return check
	}

	version := p.Version(output)
	switch {
	case version == "":
		check.Status = StatusOK
		check.Message = "installed"
	case p.Constraint != "":
		if err := steps.CheckConstraint(version, p.Constraint); err != nil {
			check.Status = StatusWarning
			check.Message = fmt.Sprintf("%s (expected %s)", version, p.Constraint)
			return check
		}
		fallthrough
	default:
		check.Status = StatusOK
		check.Message = version
	}
	return check
}

// CheckPlatform checks that the host is Debian-family.
func CheckPlatform(exec executor.Executor, osReleasePath string) Check {
	check := Check{
		ID:          IDPlatform,
		Name:        "Distribution",
		Description: "Debian or a Debian derivative",
	}

	data, err := exec.ReadFile(osReleasePath)
	if err != nil {
		check.Status = StatusError
		check.Message = fmt.Sprintf("cannot read %s", osReleasePath)
		return check
	}
	rel, err := osrelease.FromBytes(data)
	if err != nil {
		check.Status = StatusError
		check.Message = err.Error()
		return check
	}

	name := rel.PrettyName
	if name == "" {
		name = rel.ID
	}
	if !rel.IsDebianFamily() {
		check.Status = StatusError
		check.Message = name + " is not supported"
		return check
	}
	check.Status = StatusOK
	check.Message = name
	return check
}

// CheckSudo checks that sudo is available.
func CheckSudo(exec executor.Executor) Check {
	check := Check{
		ID:          IDSudo,
		Name:        "sudo",
		Description: "Privilege elevation for package installs",
	}
	if _, err := exec.LookPath("sudo"); err != nil {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}
	check.Status = StatusOK
	check.Message = "installed"
	return check
}

// CheckDockerGroup checks that user belongs to the docker group.
func CheckDockerGroup(ctx context.Context, exec executor.Executor, user string) Check {
	check := Check{
		ID:          IDDockerGroup,
		Name:        "docker group",
		Description: "Run docker without sudo",
	}
	if user == "" {
		check.Status = StatusError
		check.Message = "current user is unknown"
		return check
	}
	check.FixCommand = &FixCommand{
		Description: "Add " + user + " to the docker group",
		Command:     "sudo usermod -aG docker " + user,
		Sudo:        true,
		StepID:      steps.IDDocker,
	}

	output, err := exec.Output(ctx, executor.Plain("id", "-nG", user))
	if err != nil {
		check.Status = StatusError
		check.Message = "cannot list groups"
		return check
	}
	for _, g := range strings.Fields(output) {
		if g == "docker" {
			check.Status = StatusOK
			check.Message = user + " is a member"
			return check
		}
	}
	check.Status = StatusWarning
	check.Message = user + " is not a member (log out and back in after provisioning)"
	return check
}

// CheckDockerDaemon pings the Docker daemon.
func CheckDockerDaemon(ctx context.Context, pinger DaemonPinger) Check {
	check := Check{
		ID:          IDDockerDaemon,
		Name:        "Docker daemon",
		Description: "Docker Engine API is reachable",
	}
	if pinger == nil {
		check.Status = StatusWarning
		check.Message = "docker client unavailable"
		return check
	}

	api, err := pinger.Ping(ctx)
	if err != nil {
		check.Status = StatusWarning
		check.Message = fmt.Sprintf("not reachable: %v", err)
		return check
	}
	check.Status = StatusOK
	check.Message = "API " + api
	return check
}
