package jsonl

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/logger"
)

// GzipOption configures Gzip.
type GzipOption func(*gzipOptions)

type gzipOptions struct {
	extension string
	keep      bool
	chunkSize int
	level     int
}

// WithExtension sets the suffix appended to the compressed file's name.
// The default is ".gz".
func WithExtension(ext string) GzipOption {
	return func(o *gzipOptions) { o.extension = ext }
}

// KeepOriginal leaves the uncompressed file in place.
func KeepOriginal() GzipOption {
	return func(o *gzipOptions) { o.keep = true }
}

// WithChunkSize sets the copy buffer size in bytes. The default is 1024.
func WithChunkSize(n int) GzipOption {
	return func(o *gzipOptions) { o.chunkSize = n }
}

// WithLevel sets the compression level, gzip.BestSpeed to gzip.BestCompression.
func WithLevel(level int) GzipOption {
	return func(o *gzipOptions) { o.level = level }
}

// Gzip compresses the file at path to path+extension and, unless
// KeepOriginal is given, removes the original. It returns the compressed
// file's path.
func Gzip(path string, opts ...GzipOption) (string, error) {
	o := gzipOptions{extension: ".gz", chunkSize: 1024, level: gzip.DefaultCompression}
	for _, opt := range opts {
		opt(&o)
	}
	if o.extension == "" {
		return "", errors.Usage("gzip: empty extension would overwrite the file being read")
	}
	if o.chunkSize <= 0 {
		return "", errors.Usage("gzip: chunk size must be positive")
	}

	dest := path + o.extension
	if err := compress(path, dest, o); err != nil {
		os.Remove(dest)
		return "", err
	}
	if !o.keep {
		if err := os.Remove(path); err != nil {
			return dest, errors.IO("remove", path, err)
		}
	}
	debugLog().Debug("gzipped file", logger.Fields(logger.FieldPath, path, "dest", dest, "kept", o.keep))
	return dest, nil
}

func compress(path, dest string, o gzipOptions) error {
	src, err := os.Open(path)
	if err != nil {
		return errors.IO("open", path, err)
	}
	defer src.Close()

	f, err := os.Create(dest)
	if err != nil {
		return errors.IO("create", dest, err)
	}
	zw, err := gzip.NewWriterLevel(f, o.level)
	if err != nil {
		f.Close()
		return errors.Usage("gzip: " + err.Error())
	}
	// Hide ReadFrom/WriteTo so the copy goes through the chunk buffer.
	if _, err := io.CopyBuffer(struct{ io.Writer }{zw}, struct{ io.Reader }{src}, make([]byte, o.chunkSize)); err != nil {
		zw.Close()
		f.Close()
		return errors.IO("compress", path, err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return errors.IO("compress", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.IO("close", dest, err)
	}
	return nil
}
