package steps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
)

// Pinned tags.
const (
	DefaultNodeMajor       = 20
	DefaultKubernetesMinor = "v1.29"
)

// Options tunes the pinned major/LTS tags. The plan itself is fixed.
type Options struct {
	NodeMajor       int
	KubernetesMinor string
}

// DefaultOptions returns the pinned defaults.
func DefaultOptions() Options {
	return Options{
		NodeMajor:       DefaultNodeMajor,
		KubernetesMinor: DefaultKubernetesMinor,
	}
}

func (o Options) withDefaults() Options {
	if o.NodeMajor <= 0 {
		o.NodeMajor = DefaultNodeMajor
	}
	if o.KubernetesMinor == "" {
		o.KubernetesMinor = DefaultKubernetesMinor
	}
	if !strings.HasPrefix(o.KubernetesMinor, "v") {
		o.KubernetesMinor = "v" + o.KubernetesMinor
	}
	return o
}

// Plan returns the system update followed by every installer, in the order
// they must run.
func Plan(opts Options) []Step {
	return append([]Step{SystemUpdate()}, Installers(opts)...)
}

// Installers returns the nine tool installers in execution order.
func Installers(opts Options) []Step {
	opts = opts.withDefaults()
	return []Step{
		BuildTools(),
		Python(),
		Poetry(),
		UV(),
		NodeJS(opts.NodeMajor),
		Docker(),
		Kubernetes(opts.KubernetesMinor),
		Terraform(),
		Utilities(),
	}
}

// IDs returns the step IDs of plan in order.
func IDs(plan []Step) []string {
	ids := make([]string, len(plan))
	for i, s := range plan {
		ids[i] = s.ID
	}
	return ids
}

// Prerequisites are the utilities later steps rely on to fetch keys and
// register sources.
var Prerequisites = []string{
	"curl", "wget", "git", "gnupg", "ca-certificates",
	"apt-transport-https", "lsb-release", "software-properties-common",
}

// SystemUpdate refreshes the index, upgrades the system and installs the
// prerequisites.
func SystemUpdate() Step {
	return Step{
		ID:          IDSystemUpdate,
		Name:        "System update",
		Description: "Refresh package index, upgrade packages and install prerequisites",
		Required:    true,
		Checklist:   "System packages updated",
		Hint:        "sudo apt-get update && sudo apt-get upgrade -y",
		Actions: []Action{
			AptUpdate(),
			AptUpgrade(),
			AptInstall(Prerequisites...),
		},
	}
}

// BuildTools installs the compiler toolchain.
func BuildTools() Step {
	return Step{
		ID:          IDBuildTools,
		Name:        "Build tools",
		Description: "C/C++ compiler toolchain, make and cmake",
		Required:    true,
		Checklist:   "Build essentials (gcc, g++, make, cmake, pkg-config)",
		Hint:        "sudo apt-get install -y build-essential cmake pkg-config",
		Actions: []Action{
			AptInstall("build-essential", "cmake", "pkg-config", "make", "gcc", "g++"),
		},
		Probes: []Probe{
			{Label: "GCC", Command: executor.Plain("gcc", "--version"), Pattern: regexp.MustCompile(`(\d+\.\d+\.\d+)`)},
			{Label: "CMake", Command: executor.Plain("cmake", "--version"), Pattern: regexp.MustCompile(`cmake version (\d+\.\d+\.\d+)`)},
		},
	}
}

// Python installs python3 with pip and venv, and provides `python` when the
// distribution does not.
func Python() Step {
	return Step{
		ID:          IDPython,
		Name:        "Python",
		Description: "Python 3 interpreter, pip and venv",
		Required:    true,
		Checklist:   "Python 3 with pip and venv",
		Hint:        "sudo apt-get install -y python3 python3-pip python3-venv python3-dev",
		Actions: []Action{
			AptInstall("python3", "python3-pip", "python3-venv", "python3-dev"),
			SymlinkIfMissing("python", "/usr/bin/python3", "/usr/bin/python"),
		},
		Probes: []Probe{
			{Label: "Python", Command: executor.Plain("python3", "--version"), Pattern: regexp.MustCompile(`Python (\d+\.\d+\.\d+)`)},
			{Label: "pip", Command: executor.Plain("pip3", "--version"), Pattern: regexp.MustCompile(`pip (\d+\.\d+(?:\.\d+)?)`)},
		},
	}
}

// Poetry installs Poetry with its official installer into ~/.local/bin.
func Poetry() Step {
	return Step{
		ID:          IDPoetry,
		Name:        "Poetry",
		Description: "Python dependency manager",
		Required:    true,
		Checklist:   "Poetry",
		Hint:        "curl -sSL https://install.python-poetry.org | python3 -",
		Actions: []Action{
			PipeInstaller("Run the Poetry installer", "curl -sSL https://install.python-poetry.org | python3 -"),
			ExportPath("$HOME/.local/bin"),
		},
		Probes: []Probe{
			{Label: "Poetry", Command: executor.Plain("poetry", "--version"), Pattern: regexp.MustCompile(`version (\d+\.\d+\.\d+)`)},
		},
	}
}

// UV installs the uv package manager into ~/.cargo/bin.
func UV() Step {
	return Step{
		ID:          IDUV,
		Name:        "UV",
		Description: "Fast Python package installer",
		Required:    true,
		Checklist:   "UV",
		Hint:        "curl -LsSf https://astral.sh/uv/install.sh | sh",
		Actions: []Action{
			PipeInstaller("Run the uv installer", "curl -LsSf https://astral.sh/uv/install.sh | sh"),
			ExportPath("$HOME/.cargo/bin"),
		},
		Probes: []Probe{
			{Label: "UV", Command: executor.Plain("uv", "--version"), Pattern: regexp.MustCompile(`uv (\d+\.\d+\.\d+)`)},
		},
	}
}

// NodeJS installs the given Node.js LTS major from NodeSource.
func NodeJS(major int) Step {
	setup := fmt.Sprintf("curl -fsSL https://deb.nodesource.com/setup_%d.x | sudo -E bash -", major)
	return Step{
		ID:          IDNodeJS,
		Name:        "Node.js",
		Description: fmt.Sprintf("Node.js %d.x LTS and npm", major),
		Required:    true,
		Checklist:   fmt.Sprintf("Node.js %d.x LTS with npm", major),
		Hint:        setup + " && sudo apt-get install -y nodejs",
		Actions: []Action{
			PipeInstaller("Register the NodeSource repository", setup),
			AptInstall("nodejs"),
		},
		Probes: []Probe{
			{Label: "Node.js", Command: executor.Plain("node", "--version"), Pattern: regexp.MustCompile(`v(\d+\.\d+\.\d+)`), Constraint: fmt.Sprintf("%d.x", major)},
			{Label: "npm", Command: executor.Plain("npm", "--version")},
		},
	}
}

// DockerSource is Docker's official apt repository.
var DockerSource = Source{
	Name:    "Docker",
	KeyURL:  "https://download.docker.com/linux/{distro}/gpg",
	Keyring: KeyringDir + "/docker.gpg",
	List:    "/etc/apt/sources.list.d/docker.list",
	Line:    "deb [arch={arch} signed-by={keyring}] https://download.docker.com/linux/{distro} {codename} stable",
}

// Docker installs Docker Engine from Docker's repository after removing the
// distribution packages that conflict with it.
func Docker() Step {
	return Step{
		ID:          IDDocker,
		Name:        "Docker",
		Description: "Docker Engine, buildx and compose plugins",
		Required:    true,
		Checklist:   "Docker Engine with buildx and compose plugins",
		Hint:        "sudo apt-get install -y docker-ce docker-ce-cli containerd.io docker-buildx-plugin docker-compose-plugin",
		Notes: []string{
			"Log out and back in (or run `newgrp docker`) to use docker without sudo",
		},
		Actions: []Action{
			AptRemove("docker.io", "docker-doc", "docker-compose", "podman-docker", "containerd", "runc"),
			AddAptSource(DockerSource),
			AptUpdate(),
			AptInstall("docker-ce", "docker-ce-cli", "containerd.io", "docker-buildx-plugin", "docker-compose-plugin"),
			AddUserToGroup("docker"),
		},
		Probes: []Probe{
			{Label: "Docker", Command: executor.Plain("docker", "--version"), Pattern: regexp.MustCompile(`version (\d+\.\d+\.\d+)`)},
			{Label: "Docker Compose", Command: executor.Plain("docker", "compose", "version"), Pattern: regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)},
		},
	}
}

// KubernetesSource returns the pkgs.k8s.io repository for a minor release.
func KubernetesSource(minor string) Source {
	return Source{
		Name:    "Kubernetes",
		KeyURL:  fmt.Sprintf("https://pkgs.k8s.io/core:/stable:/%s/deb/Release.key", minor),
		Keyring: KeyringDir + "/kubernetes-apt-keyring.gpg",
		List:    "/etc/apt/sources.list.d/kubernetes.list",
		Line:    fmt.Sprintf("deb [signed-by={keyring}] https://pkgs.k8s.io/core:/stable:/%s/deb/ /", minor),
	}
}

// Kubernetes installs kubectl, kubeadm and kubelet for one minor release and
// holds them so upgrade-all leaves them alone.
func Kubernetes(minor string) Step {
	pkgs := []string{"kubectl", "kubeadm", "kubelet"}
	return Step{
		ID:          IDKubernetes,
		Name:        "Kubernetes tools",
		Description: fmt.Sprintf("kubectl, kubeadm and kubelet %s (held)", minor),
		Required:    true,
		Checklist:   fmt.Sprintf("Kubernetes tools %s (kubectl, kubeadm, kubelet; held)", minor),
		Hint:        "sudo apt-get install -y kubectl kubeadm kubelet && sudo apt-mark hold kubectl kubeadm kubelet",
		Actions: []Action{
			AddAptSource(KubernetesSource(minor)),
			AptUpdate(),
			AptInstall(pkgs...),
			AptHold(pkgs...),
		},
		Probes: []Probe{
			{
				Label:      "kubectl",
				Command:    executor.Plain("kubectl", "version", "--client"),
				Pattern:    regexp.MustCompile(`v(\d+\.\d+\.\d+)`),
				Constraint: strings.TrimPrefix(minor, "v") + ".x",
			},
		},
	}
}

// HashiCorpSource is HashiCorp's apt repository.
var HashiCorpSource = Source{
	Name:    "HashiCorp",
	KeyURL:  "https://apt.releases.hashicorp.com/gpg",
	Keyring: KeyringDir + "/hashicorp-archive-keyring.gpg",
	List:    "/etc/apt/sources.list.d/hashicorp.list",
	Line:    "deb [arch={arch} signed-by={keyring}] https://apt.releases.hashicorp.com {codename} main",
}

// Terraform installs terraform from HashiCorp's repository.
func Terraform() Step {
	return Step{
		ID:          IDTerraform,
		Name:        "Terraform",
		Description: "Infrastructure as Code tool",
		Required:    true,
		Checklist:   "Terraform",
		Hint:        "sudo apt-get install -y terraform",
		Actions: []Action{
			AddAptSource(HashiCorpSource),
			AptUpdate(),
			AptInstall("terraform"),
		},
		Probes: []Probe{
			{Label: "Terraform", Command: executor.Plain("terraform", "version"), Pattern: regexp.MustCompile(`Terraform v(\d+\.\d+\.\d+)`)},
		},
	}
}

// UtilityPackages are small everyday command-line tools.
var UtilityPackages = []string{"jq", "htop", "tree", "unzip", "zip", "vim", "tmux", "net-tools"}

// Utilities installs UtilityPackages.
func Utilities() Step {
	return Step{
		ID:          IDUtilities,
		Name:        "Utilities",
		Description: "Everyday command-line tools",
		Required:    true,
		Checklist:   "Utilities (" + strings.Join(UtilityPackages, ", ") + ")",
		Hint:        "sudo apt-get install -y " + strings.Join(UtilityPackages, " "),
		Actions: []Action{
			AptInstall(UtilityPackages...),
		},
		Probes: []Probe{
			{Label: "jq", Command: executor.Plain("jq", "--version"), Pattern: regexp.MustCompile(`jq-(\d+\.\d+(?:\.\d+)?)`)},
		},
	}
}
