package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Executable is a browser binary found on the system.
type Executable struct {
	Family string
	Path   string
}

// FindExecutable locates a system-installed browser binary for a family. An
// explicit path wins and only has to exist. A nil result without an error
// means nothing is installed, which is not a failure: the bundled browsers
// cover that case. Used by diagnostics and by consumers that want to pin a
// system browser.
func FindExecutable(family, explicit string) (*Executable, error) {
	if explicit != "" {
		if !fileExists(explicit) {
			return nil, fmt.Errorf("browser executable not found: %s", explicit)
		}
		return &Executable{Family: family, Path: explicit}, nil
	}
	for _, path := range candidatePaths(family) {
		if fileExists(path) {
			return &Executable{Family: family, Path: path}, nil
		}
	}
	return nil, nil
}

func candidatePaths(family string) []string {
	home := os.Getenv("HOME")
	switch runtime.GOOS {
	case "darwin":
		switch family {
		case "chrome":
			return []string{
				"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
				filepath.Join(home, "Applications/Google Chrome.app/Contents/MacOS/Google Chrome"),
			}
		case "edge":
			return []string{
				"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
				filepath.Join(home, "Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"),
			}
		case "firefox":
			return []string{
				"/Applications/Firefox.app/Contents/MacOS/firefox",
				filepath.Join(home, "Applications/Firefox.app/Contents/MacOS/firefox"),
			}
		case "safari":
			return []string{"/Applications/Safari.app/Contents/MacOS/Safari"}
		}
	case "linux":
		switch family {
		case "chrome":
			return []string{
				"/usr/bin/google-chrome",
				"/usr/bin/google-chrome-stable",
				"/usr/bin/chromium",
				"/usr/bin/chromium-browser",
				"/snap/bin/chromium",
			}
		case "edge":
			return []string{
				"/usr/bin/microsoft-edge",
				"/usr/bin/microsoft-edge-stable",
			}
		case "firefox":
			return []string{
				"/usr/bin/firefox",
				"/snap/bin/firefox",
			}
		}
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		if programFiles == "" {
			programFiles = `C:\Program Files`
		}
		programFilesX86 := os.Getenv("ProgramFiles(x86)")
		if programFilesX86 == "" {
			programFilesX86 = `C:\Program Files (x86)`
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		switch family {
		case "chrome":
			paths := []string{
				filepath.Join(programFiles, "Google", "Chrome", "Application", "chrome.exe"),
				filepath.Join(programFilesX86, "Google", "Chrome", "Application", "chrome.exe"),
			}
			if localAppData != "" {
				paths = append(paths, filepath.Join(localAppData, "Google", "Chrome", "Application", "chrome.exe"))
			}
			return paths
		case "edge":
			return []string{
				filepath.Join(programFiles, "Microsoft", "Edge", "Application", "msedge.exe"),
				filepath.Join(programFilesX86, "Microsoft", "Edge", "Application", "msedge.exe"),
			}
		case "firefox":
			return []string{
				filepath.Join(programFiles, "Mozilla Firefox", "firefox.exe"),
				filepath.Join(programFilesX86, "Mozilla Firefox", "firefox.exe"),
			}
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
