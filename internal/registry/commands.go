package registry

// managerCmd defines the install, remove and check commands for a package
// manager. The placeholder "{pkg}" in args is replaced with the actual
// package name.
type managerCmd struct {
	install []string // e.g. {"sudo", "apt-get", "install", "-y", "{pkg}"}
	remove  []string
	check   []string // exit 0 means installed
}

var managerCmds = map[string]managerCmd{
	"brew": {
		install: []string{"brew", "install", "{pkg}"},
		remove:  []string{"brew", "uninstall", "{pkg}"},
		check:   []string{"brew", "list", "{pkg}"},
	},
	"apt-get": {
		install: []string{"sudo", "apt-get", "install", "-y", "{pkg}"},
		remove:  []string{"sudo", "apt-get", "remove", "-y", "{pkg}"},
		check:   []string{"dpkg", "-s", "{pkg}"},
	},
	"dnf": {
		install: []string{"sudo", "dnf", "install", "-y", "{pkg}"},
		remove:  []string{"sudo", "dnf", "remove", "-y", "{pkg}"},
		check:   []string{"rpm", "-q", "{pkg}"},
	},
	"pacman": {
		install: []string{"sudo", "pacman", "-S", "--noconfirm", "{pkg}"},
		remove:  []string{"sudo", "pacman", "-Rns", "--noconfirm", "{pkg}"},
		check:   []string{"pacman", "-Q", "{pkg}"},
	},
}

// KnownManager reports whether the tool has a command table for the manager.
func KnownManager(name string) bool {
	_, ok := managerCmds[name]
	return ok
}

// expandArgs replaces "{pkg}" placeholders in args with the actual package name.
func expandArgs(args []string, pkgName string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		if arg == "{pkg}" {
			result[i] = pkgName
		} else {
			result[i] = arg
		}
	}

	return result
}
