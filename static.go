package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/dgraph-io/ristretto"
	"github.com/golang/gddo/httputil"
	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/xxh3"
)

// Serving static files.

// minCompressSize is the smallest file that is worth compressing.
const minCompressSize = 1000

// serveStatic sends the file req refers to, preceded by the success header
// block.
func (c *config) serveStatic(ex *exchange, req *request) {
	h, err := drainHeaders(ex.r)
	if err == errLineTooLong {
		ex.reject(400)
		return
	}

	encoding := ""
	if c.CompressStatic && h.AcceptEncoding != "" {
		encoding = negotiateEncoding(h.AcceptEncoding)
	}

	content, err := c.staticFiles.open(req.Path, encoding)
	if err != nil {
		ex.respond(404)
		return
	}
	defer content.Close()

	ex.status = 200
	if err := writeHeaders(ex.w, req.Path, content.encoding); err != nil {
		return
	}
	io.Copy(ex.w, content)
}

// negotiateEncoding chooses a compression format (br or gzip) that the
// client accepts, or returns "" for no compression.
func negotiateEncoding(acceptEncoding string) string {
	r := &http.Request{
		Header: http.Header{"Accept-Encoding": {acceptEncoding}},
	}
	switch encoding := httputil.NegotiateContentEncoding(r, []string{"br", "gzip"}); encoding {
	case "br", "gzip":
		return encoding
	}
	return ""
}

// staticFiles reads files for sending to clients, compressing them and
// keeping them in a cache if so configured.
type staticFiles struct {
	// cache holds *cachedFile values. It is nil if caching is disabled.
	cache *ristretto.Cache

	// maxFileSize is the size of the largest file that will be read into
	// memory to be cached or compressed.
	maxFileSize int64

	gzipLevel   int
	brotliLevel int
}

type cachedFile struct {
	modTime  time.Time
	size     int64
	encoding string
	data     []byte
}

func newStaticFiles(c *config) (*staticFiles, error) {
	s := &staticFiles{
		maxFileSize: int64(c.StaticCacheMaxFile),
		gzipLevel:   c.GZIPLevel,
		brotliLevel: c.BrotliLevel,
	}

	if capacity := int64(c.StaticCacheSize); capacity > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: max(capacity/100, 1000),
			MaxCost:     capacity,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating static file cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

func (s *staticFiles) Close() {
	if s != nil && s.cache != nil {
		s.cache.Close()
		s.cache = nil
	}
}

// staticContent is the body of a static-file response.
type staticContent struct {
	io.Reader

	// encoding is the Content-Encoding of the data, if it is compressed.
	encoding string

	file *os.File
}

func (sc *staticContent) Close() error {
	if sc.file != nil {
		return sc.file.Close()
	}
	return nil
}

// cacheKey returns the key for filename (with the specified compression) in
// the static file cache.
func cacheKey(filename, encoding string) uint64 {
	return xxh3.HashString(encoding + "\x00" + filename)
}

// open returns the contents of filename, compressed with encoding if
// encoding is not empty and the file is big enough to be worth compressing.
func (s *staticFiles) open(filename, encoding string) (*staticContent, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, errNotRegularFile
	}

	compress := encoding != "" && fi.Size() > minCompressSize
	if s == nil || !(compress || s.cache != nil) || fi.Size() > s.maxFileSize {
		return &staticContent{Reader: f, file: f}, nil
	}
	if !compress {
		encoding = ""
	}

	key := cacheKey(filename, encoding)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			cf := v.(*cachedFile)
			if cf.size == fi.Size() && cf.modTime.Equal(fi.ModTime()) {
				f.Close()
				return &staticContent{Reader: bytes.NewReader(cf.data), encoding: cf.encoding}, nil
			}
		}
	}

	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	cf := &cachedFile{
		modTime: fi.ModTime(),
		size:    fi.Size(),
		data:    data,
	}
	if compress {
		compressed, err := s.compress(data, encoding)
		if err != nil {
			log.Printf("Error compressing %s with %s: %v", filename, encoding, err)
		} else {
			cf.data = compressed
			cf.encoding = encoding
		}
	}

	if s.cache != nil {
		s.cache.Set(key, cf, int64(len(cf.data)))
	}

	return &staticContent{Reader: bytes.NewReader(cf.data), encoding: cf.encoding}, nil
}

var errUnknownEncoding = errors.New("unknown content encoding")

func (s *staticFiles) compress(data []byte, encoding string) ([]byte, error) {
	buf := new(bytes.Buffer)
	var compressor io.WriteCloser
	switch encoding {
	case "br":
		compressor = brotli.NewWriterOptions(buf, brotli.WriterOptions{Quality: s.brotliLevel})
	case "gzip":
		var err error
		compressor, err = gzip.NewWriterLevel(buf, s.gzipLevel)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errUnknownEncoding
	}

	if _, err := compressor.Write(data); err != nil {
		return nil, err
	}
	if err := compressor.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
