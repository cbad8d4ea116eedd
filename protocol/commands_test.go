package protocol

import (
	"strings"
	"testing"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
)

func TestQuotingFor(t *testing.T) {
	tests := []struct {
		name   string
		goos   string
		shell  string
		quote  byte
		escape bool
		posix  bool
	}{
		{"linux", "linux", "", '\'', false, true},
		{"darwin ignores windows shell", "darwin", `C:\Windows\cmd.exe`, '\'', false, true},
		{"cmd", "windows", `C:\Windows\System32\cmd.exe`, '"', false, false},
		{"powershell upper", "windows", `C:\WINDOWS\System32\WindowsPowerShell\v1.0\PowerShell.EXE`, '"', false, false},
		{"git bash", "windows", `C:\Program Files\Git\bin\bash.exe`, '\'', true, false},
		{"unset", "windows", "", '\'', true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuotingFor(tt.goos, tt.shell)
			if q.Quote != tt.quote || q.EscapeBackslashes != tt.escape || q.POSIX != tt.posix {
				t.Errorf("QuotingFor(%q, %q) = %+v", tt.goos, tt.shell, q)
			}
		})
	}
}

func TestEscapeDoublesBackslashesOnce(t *testing.T) {
	q := QuotingFor("windows", `C:\Program Files\Git\bin\bash.exe`)
	got := q.Escape(`C:\Users\a`)
	if got != `C:\\Users\\a` {
		t.Errorf("expected C:\\\\Users\\\\a, got %s", got)
	}

	// Escaping is not idempotent; a second pass would corrupt the path.
	if again := q.Escape(string(got)); again == got {
		t.Error("expected a second escape to change the path")
	}
}

func TestEscapeNoopWhenNotRequired(t *testing.T) {
	for _, q := range []Quoting{QuotingFor("linux", ""), QuotingFor("windows", "cmd.exe")} {
		if got := q.Escape(`C:\Users\a`); got != `C:\Users\a` {
			t.Errorf("%+v: expected unchanged path, got %s", q, got)
		}
	}
}

func TestWordPOSIX(t *testing.T) {
	q := QuotingFor("linux", "")
	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/my dir/fzf-pipe-42", "'/tmp/my dir/fzf-pipe-42'"},
		{"it's", `"it's"`},
		{"", "''"},
	}
	for _, tt := range tests {
		if got := q.Word(tt.in); got != tt.want {
			t.Errorf("Word(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestWordWindowsWraps(t *testing.T) {
	q := QuotingFor("windows", "powershell.exe")
	if got := q.Word(`\\?\pipe\fzf-pipe-7`); got != `"\\?\pipe\fzf-pipe-7"` {
		t.Errorf("unexpected %s", got)
	}
}

func TestWordWindowsEscapesEmbeddedQuote(t *testing.T) {
	tests := []struct {
		name  string
		shell string
		in    string
		want  string
	}{
		{"cmd", "cmd.exe", `say "hi"`, `"say ""hi"""`},
		{"powershell", "powershell.exe", `a"b`, `"a""b"`},
		{"git bash", `C:\Program Files\Git\bin\bash.exe`, "it's", `'it'\''s'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuotingFor("windows", tt.shell).Word(tt.in); got != tt.want {
				t.Errorf("Word(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestSearchPatternStartingWithDash(t *testing.T) {
	cmds := BuildCommands(Settings{
		Finder:   "fzf",
		Script:   "fzfpipe",
		Endpoint: "/tmp/fzf-pipe-1",
		Quoting:  QuotingFor("linux", ""),
	})
	if got := cmds.Search("--files"); !strings.Contains(got, "--color=never -e --files |") {
		t.Errorf("expected pattern passed through -e, got %s", got)
	}
}

func TestBuildCommandsPOSIX(t *testing.T) {
	cmds := BuildCommands(Settings{
		Finder:      "fzf --multi",
		SearchFlags: "--smart-case",
		Script:      "/opt/fzf pipe/fzfpipe",
		ScriptArgs:  []string{"send"},
		Endpoint:    "/tmp/fzf-pipe-42",
		Quoting:     QuotingFor("linux", ""),
	})

	wantOpen := "fzf --multi | '/opt/fzf pipe/fzfpipe' send open /tmp/fzf-pipe-42"
	if cmds.OpenFile != wantOpen {
		t.Errorf("OpenFile:\n got %s\nwant %s", cmds.OpenFile, wantOpen)
	}
	wantAdd := "fzf --multi | '/opt/fzf pipe/fzfpipe' send add /tmp/fzf-pipe-42"
	if cmds.AddFolder != wantAdd {
		t.Errorf("AddFolder:\n got %s\nwant %s", cmds.AddFolder, wantAdd)
	}
	wantSearch := "rg --smart-case --line-number --column --no-heading --color=never -e 'foo bar' | fzf --multi | '/opt/fzf pipe/fzfpipe' send rg /tmp/fzf-pipe-42"
	if got := cmds.Search("foo bar"); got != wantSearch {
		t.Errorf("Search:\n got %s\nwant %s", got, wantSearch)
	}
}

func TestBuildCommandsFindDirectories(t *testing.T) {
	cmds := BuildCommands(Settings{
		Finder:          "fzf",
		FindDirectories: "fd --type d",
		Script:          "topipe.sh",
		Endpoint:        "/tmp/fzf-pipe-1",
		Quoting:         QuotingFor("linux", ""),
	})
	if cmds.AddFolder != "fd --type d | fzf | topipe.sh add /tmp/fzf-pipe-1" {
		t.Errorf("unexpected AddFolder %s", cmds.AddFolder)
	}
	if strings.Contains(cmds.OpenFile, "fd --type d") {
		t.Errorf("OpenFile should not list directories: %s", cmds.OpenFile)
	}
}

func TestBuildCommandsWindowsEscapesEndpointOnce(t *testing.T) {
	cmds := BuildCommands(Settings{
		Finder:   "fzf",
		Script:   `C:\tools\topipe.ps1`,
		Endpoint: `\\?\pipe\fzf-pipe-7`,
		Quoting:  QuotingFor("windows", `C:\Program Files\Git\bin\bash.exe`),
	})
	want := `fzf | 'C:\\tools\\topipe.ps1' open '\\\\?\\pipe\\fzf-pipe-7'`
	if cmds.OpenFile != want {
		t.Errorf("OpenFile:\n got %s\nwant %s", cmds.OpenFile, want)
	}
}

func TestBuildCommandsWindowsCmdKeepsBackslashes(t *testing.T) {
	cmds := BuildCommands(Settings{
		Finder:   "fzf",
		Script:   `C:\tools\topipe.ps1`,
		Endpoint: `\\?\pipe\fzf-pipe-7`,
		Quoting:  QuotingFor("windows", "cmd.exe"),
	})
	want := `fzf | "C:\tools\topipe.ps1" rg "\\?\pipe\fzf-pipe-7"`
	if !strings.HasSuffix(cmds.Search("x"), want) {
		t.Errorf("Search:\n got %s\nwant suffix %s", cmds.Search("x"), want)
	}
}

func TestCommandsInDir(t *testing.T) {
	cmds := BuildCommands(Settings{
		Finder:   "fzf",
		Script:   "fzfpipe",
		Endpoint: "/tmp/fzf-pipe-1",
		Quoting:  QuotingFor("linux", ""),
	}).InDir("/home/me/my project")

	if !strings.HasPrefix(cmds.OpenFile, "cd '/home/me/my project' && fzf") {
		t.Errorf("unexpected OpenFile %s", cmds.OpenFile)
	}
	if !strings.HasPrefix(cmds.Search("x"), "cd '/home/me/my project' && rg ") {
		t.Errorf("unexpected Search %s", cmds.Search("x"))
	}
}

func TestSettingsFromConfig(t *testing.T) {
	t.Setenv("FZFPIPE_FINDER", "")
	t.Setenv("FZFPIPE_WINDOWS_SHELL", "")

	cfg := fzfpipe.DefaultConfig()
	cfg.Search.Style = fzfpipe.SearchIgnoreCase
	cfg.Finder.FindDirectoriesCommand = "find . -type d"

	s := SettingsFromConfig(cfg, "linux", "/tmp/fzf-pipe-3", "/usr/bin/fzfpipe")
	if s.Finder != "fzf" || s.SearchFlags != "--ignore-case" || s.FindDirectories != "find . -type d" {
		t.Errorf("unexpected settings %+v", s)
	}
	if s.Script != "/usr/bin/fzfpipe" || len(s.ScriptArgs) != 1 || s.ScriptArgs[0] != "send" {
		t.Errorf("expected fzfpipe send wrapper, got %q %v", s.Script, s.ScriptArgs)
	}

	cfg.Finder.PipeScript = "/opt/topipe.sh"
	s = SettingsFromConfig(cfg, "linux", "/tmp/fzf-pipe-3", "/usr/bin/fzfpipe")
	if s.Script != "/opt/topipe.sh" || len(s.ScriptArgs) != 0 {
		t.Errorf("expected custom script, got %q %v", s.Script, s.ScriptArgs)
	}
}
