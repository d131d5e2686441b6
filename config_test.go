package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	c, err := loadConfiguration(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.close()

	if c.Port != 8080 {
		t.Errorf("Port = %d, want 8080", c.Port)
	}
	if !filepath.IsAbs(c.DocumentRoot) || filepath.Base(c.DocumentRoot) != "resource" {
		t.Errorf("DocumentRoot = %q, want absolute path ending in resource", c.DocumentRoot)
	}
	if c.IndexFile != "index.html" {
		t.Errorf("IndexFile = %q, want index.html", c.IndexFile)
	}
	if c.CGITimeout != 0 {
		t.Errorf("CGITimeout = %v, want 0", c.CGITimeout)
	}
	if c.staticFiles == nil || c.staticFiles.cache != nil {
		t.Error("static file cache should be disabled by default")
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	confFile := filepath.Join(dir, "jdbhttpd.conf")
	writeFile(t, confFile, `# test configuration
port 9090
document-root = "/srv/www"
cgi-timeout 30s # comment
static-cache 16MiB
compress-static
no-such-setting 1
`, 0644)

	c, err := loadConfiguration([]string{"-c", confFile, "-port", "7070"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.close()

	if c.Port != 7070 {
		t.Errorf("Port = %d; the command line should override the config file", c.Port)
	}
	if c.DocumentRoot != "/srv/www" {
		t.Errorf("DocumentRoot = %q, want /srv/www", c.DocumentRoot)
	}
	if c.CGITimeout != 30*time.Second {
		t.Errorf("CGITimeout = %v, want 30s", c.CGITimeout)
	}
	if c.StaticCacheSize != 16<<20 {
		t.Errorf("StaticCacheSize = %d, want %d", c.StaticCacheSize, 16<<20)
	}
	if c.staticFiles.cache == nil {
		t.Error("static file cache wasn't created")
	}
	if !c.CompressStatic {
		t.Error("compress-static wasn't set")
	}
}

func TestYAMLConfigFile(t *testing.T) {
	dir := t.TempDir()
	confFile := filepath.Join(dir, "jdbhttpd.yaml")
	writeFile(t, confFile, `port: 9191
document-root: /srv/www
index: default.htm
max-connections: 10
log-hostnames: true
static-cache-max-file: 64 KiB
`, 0644)

	c, err := loadConfiguration([]string{"-c", confFile})
	if err != nil {
		t.Fatal(err)
	}
	defer c.close()

	if c.Port != 9191 {
		t.Errorf("Port = %d, want 9191", c.Port)
	}
	if c.DocumentRoot != "/srv/www" {
		t.Errorf("DocumentRoot = %q, want /srv/www", c.DocumentRoot)
	}
	if c.IndexFile != "default.htm" {
		t.Errorf("IndexFile = %q, want default.htm", c.IndexFile)
	}
	if c.MaxConnections != 10 {
		t.Errorf("MaxConnections = %d, want 10", c.MaxConnections)
	}
	if !c.LogHostnames {
		t.Error("log-hostnames wasn't set")
	}
	if c.StaticCacheMaxFile != 64<<10 {
		t.Errorf("StaticCacheMaxFile = %d, want %d", c.StaticCacheMaxFile, 64<<10)
	}
}

func TestConfigErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-index", "a/b.html"},
		{"-index", ""},
		{"-no-such-flag"},
		{"-static-cache", "lots"},
		{"-c", "/nonexistent/jdbhttpd.conf"},
		{"-c", "/nonexistent/jdbhttpd.yaml"},
	} {
		if c, err := loadConfiguration(args); err == nil {
			c.close()
			t.Errorf("%q: no error", args)
		}
	}
}

func TestByteSize(t *testing.T) {
	tests := map[string]byteSize{
		"1024":  1024,
		"16MiB": 16 << 20,
		"500kB": 500000,
		"1 GiB": 1 << 30,
		"0":     0,
	}
	for s, want := range tests {
		var b byteSize
		if err := b.Set(s); err != nil {
			t.Errorf("%q: %v", s, err)
			continue
		}
		if b != want {
			t.Errorf("%q: got %d, want %d", s, b, want)
		}
	}

	b := byteSize(16 << 20)
	if b.String() != "16 MiB" {
		t.Errorf("String() = %q, want \"16 MiB\"", b.String())
	}
}
