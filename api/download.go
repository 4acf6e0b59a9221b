package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"github.com/mrnavastar/modman-agent/util"
	"github.com/mrnavastar/modman-agent/util/fileutils"
	"github.com/rs/zerolog"
)

// FetchError describes a failed download. StatusCode is 0 when no response was received.
type FetchError struct {
	Url        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: unexpected status %d", e.Url, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.Url, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher struct {
	client *resty.Client
	logger zerolog.Logger
}

func NewFetcher(client *resty.Client, logger zerolog.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// Fetch streams rawUrl into dest, creating missing parent directories.
// Anything but 200 OK fails. On any failure the file at dest is removed, best effort.
// A dest that is an existing directory fails before any request and is left alone.
func (f *Fetcher) Fetch(ctx context.Context, rawUrl string, dest string) error {
	if !util.UsableUrl(rawUrl) {
		return util.WrapError(&FetchError{Url: rawUrl, Err: fmt.Errorf("unsupported url")}, util.ErrFetch, "download failed")
	}

	if info, err := os.Lstat(dest); err == nil && info.IsDir() {
		return util.Errorf(util.ErrFilesystem, "%s is a directory", dest).WithDetail("path", dest)
	}
	if err := fileutils.EnsureDir(filepath.Dir(dest)); err != nil {
		return util.WrapError(err, util.ErrFilesystem, "failed to create %s", filepath.Dir(dest))
	}

	if err := f.download(ctx, rawUrl, dest); err != nil {
		fileutils.RemoveFileQuietly(f.logger, dest)
		return err
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, rawUrl string, dest string) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawUrl)
	if resp != nil && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}
	if err != nil {
		return util.WrapError(&FetchError{Url: rawUrl, Err: err}, util.ErrFetch, "download failed")
	}
	if resp.StatusCode() != http.StatusOK {
		return util.WrapError(&FetchError{Url: rawUrl, StatusCode: resp.StatusCode()}, util.ErrFetch, "download failed").
			WithDetail("status", resp.StatusCode())
	}

	file, err := os.Create(dest)
	if err != nil {
		return util.WrapError(err, util.ErrFilesystem, "failed to create %s", dest)
	}

	counter := &fileutils.WriteCounter{Total: resp.RawResponse.ContentLength}
	_, err = io.Copy(file, io.TeeReader(resp.RawBody(), counter))
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return util.WrapError(&FetchError{Url: rawUrl, Err: err}, util.ErrFetch, "download failed")
	}

	f.logger.Debug().
		Str("url", rawUrl).
		Str("dest", dest).
		Int64("bytes", counter.Size).
		Float64("percent", counter.Percent()).
		Msg("Downloaded")
	return nil
}
