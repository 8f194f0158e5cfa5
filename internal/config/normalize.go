package config

import "strings"

func (c *Config) normalize() {
	c.SourceDir = expandPath(strings.TrimSpace(c.SourceDir))
	c.TargetDir = expandPath(strings.TrimSpace(c.TargetDir))
	c.DatabasePath = expandPath(strings.TrimSpace(c.DatabasePath))

	c.VideoExtensions = normalizeExtensions(c.VideoExtensions)
	c.SubtitleExtensions = normalizeExtensions(c.SubtitleExtensions)

	mappings := c.PathMappings[:0]
	for _, m := range c.PathMappings {
		m.From = strings.TrimSpace(m.From)
		m.To = strings.TrimSpace(m.To)
		if m.From == "" || m.To == "" {
			continue
		}
		mappings = append(mappings, m)
	}
	c.PathMappings = mappings

	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

func normalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := exts[:0]
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
