package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/rivo/uniseg"
	"github.com/yargevad/filepathx"
)

// truncateWithEllipsis shortens s to at most limit visible characters,
// appending "…" when anything was cut.
func truncateWithEllipsis(s string, limit int) string {
	return truncateVisible(s, limit)
}

// truncateVisible keeps the first limit grapheme clusters of s and appends
// "…" when the string was longer.
func truncateVisible(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	rest := s
	offset := 0
	state := -1
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		count++
		offset += len(cluster)
		if count == limit {
			if len(rest) > 0 {
				return s[:offset] + "…"
			}
			return s
		}
	}
	return s
}

// contentHash returns a short stable hash used for attachment filenames.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// ignoredTreeDirs are skipped at any depth when walking the project.
var ignoredTreeDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
}

// getFileTree walks root and returns relative file paths, sorted. A
// pattern containing glob metacharacters is expanded with ** support
// instead of walking.
func getFileTree(root, pattern string) ([]string, error) {
	if strings.ContainsAny(pattern, "*?[") {
		matches, err := filepathx.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, err
		}
		var files []string
		for _, m := range matches {
			rel, err := filepath.Rel(root, m)
			if err != nil {
				continue
			}
			files = append(files, rel)
		}
		sort.Strings(files)
		return files, nil
	}

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if ignoredTreeDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// formatRelativeTime renders a timestamp as "2h ago"-style text.
func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// RepoInfo is the git context shown in the footer and /status output.
type RepoInfo struct {
	Root   string
	Branch string
	Dirty  bool
}

// GetRepoInfo inspects the working directory; outside a repository all
// fields stay empty.
func GetRepoInfo() RepoInfo {
	cwd, err := os.Getwd()
	if err != nil {
		return RepoInfo{}
	}

	repo, err := gogit.PlainOpenWithOptions(cwd, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return RepoInfo{}
	}

	info := RepoInfo{Root: cwd}
	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		} else {
			info.Branch = head.Hash().String()[:8]
		}
	}
	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			info.Dirty = !status.IsClean()
		}
	}
	return info
}
