package main

// functions for reading configuration files

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// A config object holds the server's configuration. Its fields are set from
// command-line flags and from the configuration file.
type config struct {
	Port         int
	DocumentRoot string
	IndexFile    string

	// MaxConnections is the number of connections that may be handled at
	// once. If it is zero or negative, there is no limit.
	MaxConnections int

	// CGITimeout is how long a CGI program may run before it is killed.
	// Zero means forever.
	CGITimeout time.Duration

	AccessLog string

	StaticCacheSize    byteSize
	StaticCacheMaxFile byteSize
	CompressStatic     bool
	GZIPLevel          int
	BrotliLevel        int

	LogHostnames bool
	DNSServer    string

	PIDFile       string
	ShutdownGrace time.Duration

	flags      *flag.FlagSet
	configFile string

	accessLog   *CSVLog
	staticFiles *staticFiles

	// users counts the connections using this configuration. A retired
	// configuration is closed when its last user releases it.
	refLock sync.Mutex
	users   int
	retired bool
}

func newConfig() *config {
	c := &config{
		flags: flag.NewFlagSet("jdbhttpd", flag.ContinueOnError),
	}

	c.flags.StringVar(&c.configFile, "c", "", "configuration file path")

	c.flags.IntVar(&c.Port, "port", 8080, "TCP port to listen on (0 picks a free port)")
	c.flags.StringVar(&c.DocumentRoot, "document-root", "resource", "directory to serve files and CGI programs from")
	c.flags.StringVar(&c.IndexFile, "index", "index.html", "file to serve for a directory")
	c.flags.IntVar(&c.MaxConnections, "max-connections", 256, "maximum number of connections to handle at once (0 for no limit)")
	c.flags.DurationVar(&c.CGITimeout, "cgi-timeout", 0, "how long to let a CGI program run before killing it (0 for no limit)")

	c.flags.StringVar(&c.AccessLog, "access-log", "", "path to access-log file")

	c.StaticCacheMaxFile = 1 << 20
	c.flags.Var(&c.StaticCacheSize, "static-cache", "memory to use for caching static files (e.g. 16MiB; 0 disables the cache)")
	c.flags.Var(&c.StaticCacheMaxFile, "static-cache-max-file", "largest static file to cache or compress")
	c.flags.BoolVar(&c.CompressStatic, "compress-static", false, "compress static files according to Accept-Encoding")
	c.flags.IntVar(&c.GZIPLevel, "gzip-level", 6, "level to use for gzip compression of static files")
	c.flags.IntVar(&c.BrotliLevel, "brotli-level", 5, "level to use for brotli compression of static files")

	c.flags.BoolVar(&c.LogHostnames, "log-hostnames", false, "record client hostnames (from reverse DNS) in the access log")
	c.flags.StringVar(&c.DNSServer, "dns-server", "", "DNS server for reverse lookups (default: the system resolver)")

	c.flags.StringVar(&c.PIDFile, "pidfile", "", "path of file to store process ID")
	c.flags.DurationVar(&c.ShutdownGrace, "shutdown-grace", 20*time.Second, "how long to wait for active connections when shutting down")

	return c
}

// loadConfiguration builds a configuration from the command-line arguments
// in args and the configuration file they name (if any). Command-line flags
// take precedence over values from the file.
func loadConfiguration(args []string) (*config, error) {
	c := newConfig()

	if err := c.flags.Parse(args); err != nil {
		return nil, err
	}

	if c.configFile != "" {
		if err := c.readConfigFile(c.configFile); err != nil {
			return nil, err
		}
		if err := c.flags.Parse(args); err != nil {
			return nil, err
		}
	}

	if err := c.prepare(); err != nil {
		return nil, err
	}
	return c, nil
}

// prepare checks the settings and sets up the objects that depend on them.
func (c *config) prepare() error {
	root, err := filepath.Abs(c.DocumentRoot)
	if err != nil {
		return fmt.Errorf("invalid document root %q: %w", c.DocumentRoot, err)
	}
	c.DocumentRoot = root

	if c.IndexFile == "" || strings.ContainsAny(c.IndexFile, "/\\") {
		return fmt.Errorf("invalid index file name %q", c.IndexFile)
	}

	c.staticFiles, err = newStaticFiles(c)
	if err != nil {
		return err
	}

	c.accessLog = NewCSVLog(c.AccessLog)
	return nil
}

// close releases the resources held by c.
func (c *config) close() {
	c.accessLog.Close()
	c.staticFiles.Close()
}

// readConfigFile reads the specified configuration file.
// A file whose name ends in .yaml or .yml is read as a YAML mapping.
// Otherwise, for each line of the form "key value" or "key = value", it sets
// the flag variable named key to a value of value.
func (c *config) readConfigFile(filename string) error {
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		return c.readYAMLConfigFile(filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	for {
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			if err != io.EOF {
				return fmt.Errorf("error reading config file: %w", err)
			}
			break
		}

		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}

		keyEnd := strings.IndexAny(line, " \t=")
		if keyEnd == -1 {
			keyEnd = len(line)
		}
		key := line[:keyEnd]
		line = line[keyEnd:]

		// Skip the space and/or equal sign.
		line = strings.TrimSpace(line)
		if line != "" && line[0] == '=' {
			line = strings.TrimSpace(line[1:])
		}

		var value string
		if line == "" {
			value = ""
		} else if line[0] == '"' {
			n, err := fmt.Sscanf(line, "%q", &value)
			if n != 1 || err != nil {
				log.Println("Improperly-quoted value in config file:", line)
				continue
			}
		} else {
			sharp := strings.Index(line, "#")
			if sharp != -1 {
				line = strings.TrimSpace(line[:sharp])
			}
			value = line
		}

		if value == "" && isBoolFlag(c.flags.Lookup(key)) {
			// A boolean setting on its own turns it on.
			value = "true"
		}

		err = c.flags.Set(key, value)
		if err != nil {
			log.Println("Could not set", key, "to", value, ":", err)
		}
	}

	return nil
}

func isBoolFlag(f *flag.Flag) bool {
	if f == nil {
		return false
	}
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// readYAMLConfigFile reads a configuration file that is a YAML mapping from
// flag names to values.
func (c *config) readYAMLConfigFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}

	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("error parsing %s: %w", filename, err)
	}

	for key, v := range values {
		value := ""
		if v != nil {
			value = fmt.Sprint(v)
		}
		if err := c.flags.Set(key, value); err != nil {
			log.Println("Could not set", key, "to", value, ":", err)
		}
	}

	return nil
}

// A byteSize is a flag value for an amount of memory or a file size. It
// accepts values like "16MiB" or "500kB" as well as plain numbers of bytes.
type byteSize int64

func (b *byteSize) String() string {
	return humanize.IBytes(uint64(*b))
}

func (b *byteSize) Set(s string) error {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return err
	}
	*b = byteSize(n)
	return nil
}
