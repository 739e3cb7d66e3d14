package config

// DefaultConfig returns the built-in unit table used when the dotfiles
// repository has no dotstrap.yaml. It mirrors the classic bootstrap flow:
// base packages first, then the editor, multiplexer and prompt, and the
// dotfiles link step last, which assumes the package step already provided
// git and stow-style tooling.
func DefaultConfig() *Config {
	return &Config{
		Version:    1,
		SourceRoot: ".",
		Units: []UnitSpec{
			{
				Name:        "packages",
				Description: "Base packages via the system package manager",
				Check:       CheckSpec{Command: "rg"},
				Install: InstallSpec{
					Packages: map[string][]string{
						FamilyMac:   {"git", "curl", "ripgrep", "fd", "fzf"},
						FamilyLinux: {"git", "curl", "ripgrep", "fd-find", "fzf"},
					},
				},
				Uninstall: UninstallSpec{
					Packages: map[string][]string{
						FamilyMac:   {"ripgrep", "fd", "fzf"},
						FamilyLinux: {"ripgrep", "fd-find", "fzf"},
					},
				},
			},
			{
				Name:        "nvim",
				Description: "Neovim editor",
				Check:       CheckSpec{Command: "nvim"},
				Install: InstallSpec{
					Packages: map[string][]string{
						FamilyMac: {"neovim"},
					},
					URL: map[string]URLSpec{
						FamilyLinux: {
							URL:     "https://github.com/neovim/neovim/releases/latest/download/nvim-linux-x86_64.appimage",
							Command: "install -m 0755 {file} ~/.local/bin/nvim",
						},
					},
				},
				Uninstall: UninstallSpec{
					Packages: map[string][]string{
						FamilyMac: {"neovim"},
					},
					Paths: []string{"~/.local/bin/nvim", "~/.local/share/nvim"},
				},
			},
			{
				Name:        "doom",
				Description: "Doom Emacs framework",
				Check:       CheckSpec{Path: "~/.config/emacs/bin/doom"},
				Install: InstallSpec{
					Git: &GitSpec{
						URL:      "git@github.com:doomemacs/doomemacs.git",
						HTTPSURL: "https://github.com/doomemacs/doomemacs.git",
						Depth:    1,
						Targets: map[string]string{
							FamilyAny: "~/.config/emacs",
						},
					},
					Command: map[string]string{
						FamilyAny: "~/.config/emacs/bin/doom install --no-config --no-fonts --force",
					},
				},
				Uninstall: UninstallSpec{
					Paths: []string{"~/.config/emacs"},
				},
			},
			{
				Name:        "tmux",
				Description: "Terminal multiplexer",
				Check:       CheckSpec{Command: "tmux"},
				Install: InstallSpec{
					Packages: map[string][]string{
						FamilyAny: {"tmux"},
					},
				},
				Uninstall: UninstallSpec{
					Packages: map[string][]string{
						FamilyAny: {"tmux"},
					},
				},
			},
			{
				Name:        "starship",
				Description: "Shell prompt",
				Check:       CheckSpec{Command: "starship"},
				Install: InstallSpec{
					Packages: map[string][]string{
						FamilyMac: {"starship"},
					},
					URL: map[string]URLSpec{
						FamilyLinux: {
							URL:     "https://starship.rs/install.sh",
							Command: "sh {file} --yes --bin-dir ~/.local/bin",
						},
					},
				},
				Uninstall: UninstallSpec{
					Packages: map[string][]string{
						FamilyMac: {"starship"},
					},
					Paths: []string{"~/.local/bin/starship"},
				},
			},
			{
				Name:        "dotfiles",
				Description: "Symlink shell, editor and terminal configs into $HOME",
				Link:        true,
			},
		},
		Links: []LinkPackage{
			{Package: "bash", Source: "bash", Targets: []string{"~/.bashrc", "~/.bash_profile"}},
			{Package: "nvim", Source: "config", Targets: []string{"~/.config/nvim"}},
			{Package: "doom", Source: "config", Targets: []string{"~/.config/doom"}},
			{Package: "alacritty", Source: "config", Targets: []string{"~/.config/alacritty"}},
			{Package: "tmux", Source: "tmux", Targets: []string{"~/.tmux.conf"}},
		},
	}
}
