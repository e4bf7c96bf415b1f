package listing

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SaveProfiles writes the profile list to a flat text file. The file
// starts with comment lines describing the contents, then one
// "URL | Name" entry per line. The write goes through a temp file and
// rename so an interrupted save never truncates an existing list.
func SaveProfiles(profiles []Profile, path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Backstage Profile URLs - %d profiles\n", len(profiles))
	fmt.Fprintf(&sb, "# Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	sb.WriteString("# Format: URL | Actor Name\n\n")

	for _, p := range profiles {
		fmt.Fprintf(&sb, "%s | %s\n", p.URL, p.Name)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write profiles file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finalize profiles file: %w", err)
	}

	return nil
}

// LoadProfiles reads a profile list saved by SaveProfiles. Blank lines
// and comment lines are skipped; lines without a name separator are
// treated as bare URLs with the name derived from the slug.
func LoadProfiles(path string) ([]Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles file: %w", err)
	}
	defer file.Close()

	var profiles []Profile

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if url, name, found := strings.Cut(line, " | "); found {
			profiles = append(profiles, Profile{
				URL:  strings.TrimSpace(url),
				Name: strings.TrimSpace(name),
			})
		} else {
			p := Profile{URL: line}
			p.Name = p.Slug()
			profiles = append(profiles, p)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	return profiles, nil
}
