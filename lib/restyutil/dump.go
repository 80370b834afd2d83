// Package restyutil dumps raw http exchanges to disk, it is how a change in
// the upstream payload shape is diagnosed after the fact.
package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type DirectoryDump struct {
	directory string
	counter   *uint64
}

// NewDirectoryDump clears and recreates `dir`.
func NewDirectoryDump(dir string) (DirectoryDump, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return DirectoryDump{}, err
	}
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return DirectoryDump{}, err
	}
	var counter uint64
	return DirectoryDump{directory: dir, counter: &counter}, nil
}

// Write stores an exchange under the next sequence number and returns the
// file name it used.
func (d DirectoryDump) Write(res *resty.Response) string {
	name := fmt.Sprintf("%06d.txt", atomic.AddUint64(d.counter, 1))
	err := os.WriteFile(filepath.Join(d.directory, name), []byte(formatExchange(res)), 0600)
	if err != nil {
		slog.Warn("failed to write http exchange", "name", name, "err", err)
	}
	return name
}

// Attach makes the client write every response it receives, retried
// attempts included.
func (d DirectoryDump) Attach(client *resty.Client) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		d.Write(res)
		return nil
	})
}
